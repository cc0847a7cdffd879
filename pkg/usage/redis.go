// pkg/usage/redis.go
package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyTTL keeps yesterday's counters around long enough for history reads
// while still letting stale keys expire on their own.
const keyTTL = 8 * 24 * time.Hour

// Redis is an alternative ledger backend for deployments that already run
// Redis and don't need durable usage rows. INCRBY gives the same
// post-increment visibility as the Postgres upsert.
type Redis struct {
	cli    *redis.Client
	prefix string
}

func NewRedis(cli *redis.Client) *Redis { return &Redis{cli: cli, prefix: "usage:"} }

func (r *Redis) keys(tenantID, user, day string) (tokens, reqs string) {
	base := r.prefix + tenantID + ":" + user + ":" + day
	return base + ":tokens", base + ":reqs"
}

func (r *Redis) Record(ctx context.Context, tenantID, user string, tokens, limit int64) (Result, error) {
	now := time.Now()
	tokKey, reqKey := r.keys(tenantID, user, dayKey(now))
	pipe := r.cli.Pipeline()
	tok := pipe.IncrBy(ctx, tokKey, tokens)
	req := pipe.Incr(ctx, reqKey)
	pipe.Expire(ctx, tokKey, keyTTL)
	pipe.Expire(ctx, reqKey, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail closed, same as the Postgres backend.
		return Result{}, fmt.Errorf("usage: record: %w", err)
	}
	return resultFor(tok.Val(), req.Val(), limit, now), nil
}

func (r *Redis) Status(ctx context.Context, tenantID, user string, limit int64) (Result, error) {
	now := time.Now()
	tokKey, reqKey := r.keys(tenantID, user, dayKey(now))
	vals, err := r.cli.MGet(ctx, tokKey, reqKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("usage: status: %w", err)
	}
	return statusFor(asInt64(vals[0]), asInt64(vals[1]), limit, now), nil
}

func (r *Redis) History(ctx context.Context, tenantID, user string, days int) ([]DayUsage, error) {
	now := time.Now()
	out := make([]DayUsage, 0, days)
	for i := 0; i < days; i++ {
		day := dayKey(now.AddDate(0, 0, -i))
		tokKey, reqKey := r.keys(tenantID, user, day)
		vals, err := r.cli.MGet(ctx, tokKey, reqKey).Result()
		if err != nil {
			return nil, fmt.Errorf("usage: history: %w", err)
		}
		total := asInt64(vals[0])
		if total == 0 && asInt64(vals[1]) == 0 {
			continue
		}
		out = append(out, DayUsage{Date: day, TotalTokens: total, RequestCount: asInt64(vals[1])})
	}
	return out, nil
}

func asInt64(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
