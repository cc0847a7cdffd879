// pkg/usage/memory.go
package usage

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process ledger for dev and tests. Counters are locked per
// key: the outer mutex only guards entry creation, so contention stays
// within one (tenant, user, date) key as required.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	now     func() time.Time
}

type memEntry struct {
	mu           sync.Mutex
	totalTokens  int64
	requestCount int64
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]*memEntry{}, now: time.Now}
}

// NewMemoryWithClock injects a clock, used by tests to cross day boundaries.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{entries: map[string]*memEntry{}, now: now}
}

func (m *Memory) entryFor(key string) *memEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &memEntry{}
		m.entries[key] = e
	}
	return e
}

func key(tenantID, user, day string) string { return tenantID + ":" + user + ":" + day }

func (m *Memory) Record(_ context.Context, tenantID, user string, tokens, limit int64) (Result, error) {
	now := m.now()
	e := m.entryFor(key(tenantID, user, dayKey(now)))
	e.mu.Lock()
	e.totalTokens += tokens
	e.requestCount++
	total, requests := e.totalTokens, e.requestCount
	e.mu.Unlock()
	return resultFor(total, requests, limit, now), nil
}

func (m *Memory) Status(_ context.Context, tenantID, user string, limit int64) (Result, error) {
	now := m.now()
	e := m.entryFor(key(tenantID, user, dayKey(now)))
	e.mu.Lock()
	total, requests := e.totalTokens, e.requestCount
	e.mu.Unlock()
	return statusFor(total, requests, limit, now), nil
}

func (m *Memory) History(_ context.Context, tenantID, user string, days int) ([]DayUsage, error) {
	now := m.now()
	out := make([]DayUsage, 0, days)
	for i := 0; i < days; i++ {
		day := dayKey(now.AddDate(0, 0, -i))
		m.mu.Lock()
		e := m.entries[key(tenantID, user, day)]
		m.mu.Unlock()
		if e == nil {
			continue
		}
		e.mu.Lock()
		out = append(out, DayUsage{Date: day, TotalTokens: e.totalTokens, RequestCount: e.requestCount})
		e.mu.Unlock()
	}
	return out, nil
}
