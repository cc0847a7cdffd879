package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordConcurrentNoLostUpdates(t *testing.T) {
	led := NewMemory()
	ctx := context.Background()

	const workers = 64
	const tokensEach = int64(25)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := led.Record(ctx, "wiki-a", "Alice", tokensEach, 1_000_000)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := led.Status(ctx, "wiki-a", "Alice", 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(workers)*tokensEach, st.TotalTokens)
	assert.Equal(t, int64(workers), st.RequestCount)
}

func TestQuotaBoundary(t *testing.T) {
	led := NewMemory()
	ctx := context.Background()
	const limit = int64(1000)

	// A sequence totaling exactly the limit is allowed throughout.
	for _, n := range []int64{400, 400, 200} {
		res, err := led.Record(ctx, "wiki-a", "Alice", n, limit)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "recording %d", n)
	}

	st, err := led.Status(ctx, "wiki-a", "Alice", limit)
	require.NoError(t, err)
	assert.False(t, st.Allowed, "at the limit there is nothing left to spend")
	assert.Equal(t, int64(0), st.Remaining)

	// The next token crosses the limit: recorded, but over quota.
	res, err := led.Record(ctx, "wiki-a", "Alice", 1, limit)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(1001), res.TotalTokens)

	// Reset is the next UTC day boundary.
	wantReset := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	assert.True(t, res.ResetAt.Equal(wantReset), "reset %v want %v", res.ResetAt, wantReset)
}

func TestDateRollover(t *testing.T) {
	day1 := time.Date(2025, 3, 1, 23, 50, 0, 0, time.UTC)
	now := day1
	led := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := led.Record(ctx, "wiki-a", "Alice", 900, 1000)
	require.NoError(t, err)

	// Cross midnight: the new date starts from zero, no carry-over.
	now = day1.Add(20 * time.Minute)
	st, err := led.Status(ctx, "wiki-a", "Alice", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.TotalTokens)
	assert.True(t, st.Allowed)

	res, err := led.Record(ctx, "wiki-a", "Alice", 1000, 1000)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "yesterday's usage must not count today")
}

func TestKeysAreIndependent(t *testing.T) {
	led := NewMemory()
	ctx := context.Background()

	_, err := led.Record(ctx, "wiki-a", "Alice", 999, 1000)
	require.NoError(t, err)

	for _, k := range []struct{ tenant, user string }{
		{"wiki-a", "Bob"},
		{"wiki-b", "Alice"},
	} {
		st, err := led.Status(ctx, k.tenant, k.user, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(0), st.TotalTokens, "%s/%s", k.tenant, k.user)
	}
}

func TestHistory(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := base.AddDate(0, 0, -2)
	led := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := led.Record(ctx, "wiki-a", "Alice", 100, 10_000)
	require.NoError(t, err)
	now = base.AddDate(0, 0, -1)
	_, err = led.Record(ctx, "wiki-a", "Alice", 200, 10_000)
	require.NoError(t, err)
	now = base
	_, err = led.Record(ctx, "wiki-a", "Alice", 300, 10_000)
	require.NoError(t, err)

	hist, err := led.History(ctx, "wiki-a", "Alice", 7)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "2025-03-10", hist[0].Date)
	assert.Equal(t, int64(300), hist[0].TotalTokens)
	assert.Equal(t, "2025-03-08", hist[2].Date)
}
