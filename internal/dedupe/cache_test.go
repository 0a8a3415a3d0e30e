package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(capacity int, ttl time.Duration) (*Cache, *clock) {
	clk := &clock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	c := NewCache(capacity, ttl)
	c.now = clk.now
	return c, clk
}

func TestClaimOnce(t *testing.T) {
	cache, _ := newTestCache(10, time.Minute)
	require.True(t, cache.Claim("job-1"))
	require.False(t, cache.Claim("job-1"))
	require.True(t, cache.Claim("job-2"))
}

func TestClaimExpires(t *testing.T) {
	cache, clk := newTestCache(10, time.Minute)
	require.True(t, cache.Claim("job-1"))

	clk.t = clk.t.Add(2 * time.Minute)
	require.True(t, cache.Claim("job-1"))
}

func TestCapacityEvictsOldest(t *testing.T) {
	cache, clk := newTestCache(1, time.Minute)
	require.True(t, cache.Claim("first"))
	clk.t = clk.t.Add(time.Second)
	require.True(t, cache.Claim("second"))

	require.Equal(t, 1, cache.size())
	require.True(t, cache.Claim("first"))
}

func TestReleaseAllowsReclaim(t *testing.T) {
	cache, clk := newTestCache(10, time.Minute)
	require.True(t, cache.Claim("job-1"))
	cache.Release("job-1")
	clk.t = clk.t.Add(time.Second)
	require.True(t, cache.Claim("job-1"))

	// the stale order entry from the first claim must not evict the new one
	clk.t = clk.t.Add(59 * time.Second)
	require.True(t, cache.Claim("job-2"))
	require.False(t, cache.Claim("job-1"))
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	cache := NewCache(100, time.Minute)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cache.Claim("shared") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}
