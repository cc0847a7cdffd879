// pkg/usage/postgres.go
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the durable ledger. The increment-and-check is a single
// upsert round trip, so the quota decision is linearizable per key even
// across multiple server instances sharing the database.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

// EnsureSchema creates the usage table. Idempotent. Rows are never deleted
// by this ledger; retention is an external concern.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS token_usage (
  tenant_id text NOT NULL,
  user_name text NOT NULL,
  usage_date date NOT NULL,
  total_tokens bigint NOT NULL DEFAULT 0,
  request_count bigint NOT NULL DEFAULT 0,
  updated_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (tenant_id, user_name, usage_date)
);
`)
	return err
}

func (p *Postgres) Record(ctx context.Context, tenantID, user string, tokens, limit int64) (Result, error) {
	now := time.Now()
	var total, requests int64
	err := p.pool.QueryRow(ctx, `
INSERT INTO token_usage (tenant_id, user_name, usage_date, total_tokens, request_count)
VALUES ($1, $2, $3::date, $4, 1)
ON CONFLICT (tenant_id, user_name, usage_date)
DO UPDATE SET
  total_tokens = token_usage.total_tokens + EXCLUDED.total_tokens,
  request_count = token_usage.request_count + 1,
  updated_at = NOW()
RETURNING total_tokens, request_count`,
		tenantID, user, dayKey(now), tokens).Scan(&total, &requests)
	if err != nil {
		// Fail closed: a broken ledger blocks the request rather than
		// granting unmetered usage.
		return Result{}, fmt.Errorf("usage: record: %w", err)
	}
	return resultFor(total, requests, limit, now), nil
}

func (p *Postgres) Status(ctx context.Context, tenantID, user string, limit int64) (Result, error) {
	now := time.Now()
	var total, requests int64
	err := p.pool.QueryRow(ctx, `
SELECT total_tokens, request_count FROM token_usage
WHERE tenant_id=$1 AND user_name=$2 AND usage_date=$3::date`,
		tenantID, user, dayKey(now)).Scan(&total, &requests)
	if err == pgx.ErrNoRows {
		total, requests = 0, 0
	} else if err != nil {
		return Result{}, fmt.Errorf("usage: status: %w", err)
	}
	return statusFor(total, requests, limit, now), nil
}

func (p *Postgres) History(ctx context.Context, tenantID, user string, days int) ([]DayUsage, error) {
	start := dayKey(time.Now().AddDate(0, 0, -days))
	rows, err := p.pool.Query(ctx, `
SELECT usage_date::text, total_tokens, request_count FROM token_usage
WHERE tenant_id=$1 AND user_name=$2 AND usage_date >= $3::date
ORDER BY usage_date DESC`,
		tenantID, user, start)
	if err != nil {
		return nil, fmt.Errorf("usage: history: %w", err)
	}
	defer rows.Close()
	var out []DayUsage
	for rows.Next() {
		var d DayUsage
		if err := rows.Scan(&d.Date, &d.TotalTokens, &d.RequestCount); err != nil {
			return nil, fmt.Errorf("usage: history scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
