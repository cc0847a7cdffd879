// pkg/tenants/postgres.go
package tenants

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tenant credential table if it does not exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenant_credentials (
  tenant_id text PRIMARY KEY,
  mw_to_mcp_secret bytea NOT NULL,
  mcp_to_mw_secret bytea NOT NULL,
  daily_token_limit bigint NOT NULL DEFAULT 0,
  api_url text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
`)
	return err
}

// SeedFromEnv upserts tenants from a TENANT_SEED_JSON payload. Used to
// bootstrap dev/staging databases; production rows are managed out of band.
func SeedFromEnv(ctx context.Context, dbPool *pgxpool.Pool, jsonSeed string) error {
	if jsonSeed == "" {
		return nil
	}
	var entries []seedEntry
	if err := json.Unmarshal([]byte(jsonSeed), &entries); err != nil {
		return fmt.Errorf("tenants: parse seed json: %w", err)
	}
	for _, e := range entries {
		_, err := dbPool.Exec(ctx, `INSERT INTO tenant_credentials(tenant_id,mw_to_mcp_secret,mcp_to_mw_secret,daily_token_limit,api_url)
		  VALUES ($1,$2,$3,$4,$5)
		  ON CONFLICT (tenant_id) DO UPDATE SET mw_to_mcp_secret=EXCLUDED.mw_to_mcp_secret,mcp_to_mw_secret=EXCLUDED.mcp_to_mw_secret,daily_token_limit=EXCLUDED.daily_token_limit,api_url=EXCLUDED.api_url,updated_at=NOW()`,
			e.TenantID, []byte(e.MWToMCPSecret), []byte(e.MCPToMWSecret), e.DailyTokenLimit, e.APIURL)
		if err != nil {
			return fmt.Errorf("tenants: seed %q: %w", e.TenantID, err)
		}
	}
	return nil
}

// LoadFromPostgres reads every credential row once and freezes them into a
// Registry. Credential changes require a restart; there is deliberately no
// runtime mutation path.
func LoadFromPostgres(ctx context.Context, dbPool *pgxpool.Pool) (*Registry, error) {
	rows, err := dbPool.Query(ctx, `SELECT tenant_id, mw_to_mcp_secret, mcp_to_mw_secret, daily_token_limit, api_url FROM tenant_credentials`)
	if err != nil {
		return nil, fmt.Errorf("tenants: load: %w", err)
	}
	defer rows.Close()
	var creds []Credential
	for rows.Next() {
		var c Credential
		if err := rows.Scan(&c.TenantID, &c.InboundSecret, &c.OutboundSecret, &c.DailyTokenLimit, &c.APIURL); err != nil {
			return nil, fmt.Errorf("tenants: scan: %w", err)
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenants: load: %w", err)
	}
	return NewRegistry(creds)
}
