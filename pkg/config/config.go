// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Token policy. Lifetime is fixed at 30s in both directions; the
	// verifier rejects tokens minted with anything else.
	TokenLifetime time.Duration
	ClockSkew     time.Duration

	// Identities used on the wire. The MW extension signs inbound tokens
	// as "MWAssistant" for audience "mw-mcp-server"; outbound tokens flip
	// the pair.
	ServiceIdentity   string
	ExtensionIdentity string

	// Daily token quota applied when a tenant has no per-tenant override.
	DailyTokenLimit int64

	// Tenant credential sources (first available wins: DB, file, env JSON).
	TenantSeedJSON string
	TenantsFile    string

	// LLM provider
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	EmbeddingModel string

	// MediaWiki action API base (per-tenant api_url overrides this).
	MWAPIBaseURL string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:               env("MCP_ENV", "dev"),
		HTTPAddr:          env("MCP_HTTP_ADDR", ":8080"),
		TokenLifetime:     envDur("JWT_TTL_SEC", 30) * time.Second,
		ClockSkew:         envDur("JWT_CLOCK_SKEW_SEC", 5) * time.Second,
		ServiceIdentity:   env("JWT_SERVICE_IDENTITY", "mw-mcp-server"),
		ExtensionIdentity: env("JWT_EXTENSION_IDENTITY", "MWAssistant"),
		DailyTokenLimit:   envInt64("DAILY_TOKEN_LIMIT", 100_000),
		TenantSeedJSON:    os.Getenv("TENANT_SEED_JSON"),
		TenantsFile:       os.Getenv("TENANTS_FILE"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       env("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel:    env("EMBEDDING_MODEL", "text-embedding-3-large"),
		MWAPIBaseURL:      os.Getenv("MW_API_BASE_URL"),
		RedisURL:          env("REDIS_URL", ""),
		DatabaseURL:       env("DATABASE_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set, using in-memory usage ledger and env/file tenant seed")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}
