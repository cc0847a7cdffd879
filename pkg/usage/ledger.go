// pkg/usage/ledger.go
package usage

import (
	"context"
	"time"
)

// Result reports a ledger operation outcome. TotalTokens is the
// post-increment total for the (tenant, user, UTC day) key; Allowed is
// false once that total exceeds the day limit. ResetAt is the next UTC
// calendar-day boundary, when a fresh key implicitly starts at zero.
type Result struct {
	Allowed      bool
	TotalTokens  int64
	Remaining    int64
	RequestCount int64
	ResetAt      time.Time
}

// DayUsage is one calendar day's accumulated usage.
type DayUsage struct {
	Date         string // YYYY-MM-DD, UTC
	TotalTokens  int64
	RequestCount int64
}

// Ledger tracks daily token consumption per (tenant, user, UTC date).
//
// Record must be atomic against concurrent calls for the same key: the
// quota decision sees the post-increment total, never a stale read.
// Implementations that persist remotely must surface storage errors so
// callers can fail closed; a broken ledger never grants unlimited usage.
type Ledger interface {
	Record(ctx context.Context, tenantID, user string, tokens, limit int64) (Result, error)
	Status(ctx context.Context, tenantID, user string, limit int64) (Result, error)
	History(ctx context.Context, tenantID, user string, days int) ([]DayUsage, error)
}

// dayKey formats the UTC calendar date component of a ledger key.
func dayKey(now time.Time) string { return now.UTC().Format("2006-01-02") }

// nextReset returns the upcoming UTC midnight.
func nextReset(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}

func resultFor(total, requests, limit int64, now time.Time) Result {
	remaining := limit - total
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:      total <= limit,
		TotalTokens:  total,
		Remaining:    remaining,
		RequestCount: requests,
		ResetAt:      nextReset(now),
	}
}

// statusFor is the read-only variant used for pre-execution checks: a user
// sitting exactly at the limit has nothing left to spend.
func statusFor(total, requests, limit int64, now time.Time) Result {
	r := resultFor(total, requests, limit, now)
	r.Allowed = total < limit
	return r
}
