// cmd/mcp-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mwmcp/internal/api"
	"mwmcp/internal/llm"
	"mwmcp/internal/search"
	"mwmcp/internal/wiki"
	"mwmcp/pkg/auth"
	"mwmcp/pkg/config"
	"mwmcp/pkg/db"
	"mwmcp/pkg/logger"
	"mwmcp/pkg/metrics"
	"mwmcp/pkg/middleware"
	"mwmcp/pkg/tenants"
	"mwmcp/pkg/usage"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	// Tenant credentials are frozen at startup; changing them means a
	// restart. Sources in order: database, YAML file, env JSON.
	var reg *tenants.Registry
	var err error
	switch {
	case pool != nil:
		if err := tenants.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("tenant schema", "err", err)
		}
		if err := tenants.SeedFromEnv(context.Background(), pool, cfg.TenantSeedJSON); err != nil {
			log.Warnw("tenant seed", "err", err)
		}
		reg, err = tenants.LoadFromPostgres(context.Background(), pool)
	case cfg.TenantsFile != "":
		reg, err = tenants.FromYAMLFile(cfg.TenantsFile)
	case cfg.TenantSeedJSON != "":
		reg, err = tenants.FromJSON(cfg.TenantSeedJSON)
	default:
		log.Fatalw("no tenant credential source configured (DATABASE_URL, TENANTS_FILE or TENANT_SEED_JSON)")
	}
	if err != nil {
		log.Fatalw("tenant registry", "err", err)
	}
	log.Infow("tenant registry ready", "tenants", reg.Len())

	var ledger usage.Ledger
	switch {
	case pool != nil:
		if err := usage.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("usage schema", "err", err)
		}
		ledger = usage.NewPostgres(pool)
	case rdb != nil:
		ledger = usage.NewRedis(rdb)
	default:
		log.Warnw("no durable ledger backend, quotas reset on restart")
		ledger = usage.NewMemory()
	}

	verifier := auth.NewVerifier(reg, cfg.ExtensionIdentity, cfg.ServiceIdentity, cfg.TokenLifetime, cfg.ClockSkew)
	issuer := auth.NewIssuer(reg, cfg.ServiceIdentity, cfg.ExtensionIdentity, cfg.TokenLifetime)

	var store *search.Store
	if pool != nil {
		if err := search.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("search schema", "err", err)
		}
		store = search.NewStore(pool)
	}

	deps := api.Deps{
		Cfg:    cfg,
		Log:    log,
		Ledger: ledger,
		LLM:    llm.New(cfg),
		Wiki:   wiki.New(issuer, cfg.MWAPIBaseURL),
		Search: store,
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing())
	api.RegisterRoutes(r, deps, reg, verifier)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("mcp-server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("mcp-server stopped")
}
