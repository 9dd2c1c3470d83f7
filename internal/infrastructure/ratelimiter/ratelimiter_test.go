package ratelimiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	req := require.New(t)

	rl := New(Options{
		MaxRatePerSecond: 1,
		MaxBurst:         3,
	})

	for i := 0; i < 3; i++ {
		req.True(rl.Allow("client-1"), "request %d is within the burst", i+1)
	}
	req.False(rl.Allow("client-1"), "burst exhausted")
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	req := require.New(t)

	rl := New(Options{
		MaxRatePerSecond: 1,
		MaxBurst:         1,
	})

	req.True(rl.Allow("client-1"))
	req.False(rl.Allow("client-1"))
	req.True(rl.Allow("client-2"), "another source has its own bucket")
}

func TestRateLimiter_Refill(t *testing.T) {
	req := require.New(t)

	rl := New(Options{
		MaxRatePerSecond: 100, // one token every 10ms
		MaxBurst:         1,
	})

	req.True(rl.Allow("client-1"))
	req.False(rl.Allow("client-1"))

	time.Sleep(30 * time.Millisecond)
	req.True(rl.Allow("client-1"), "tokens refill over time")
}

func TestRateLimiter_Remaining(t *testing.T) {
	req := require.New(t)

	rl := New(Options{
		MaxRatePerSecond: 1,
		MaxBurst:         5,
	})

	req.Equal(5, rl.Remaining("client-1"))
	req.True(rl.Allow("client-1"))
	req.Equal(4, rl.Remaining("client-1"))
	req.Equal(5, rl.GetMaxBurst())
}

func TestRateLimiter_SourceKey(t *testing.T) {
	req := require.New(t)

	rl := New(Options{
		MaxRatePerSecond: 1,
		SourceHeaderKey:  "X-Forwarded-For",
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	req.Equal("10.0.0.1:1234", rl.GetSourceKey(r), "falls back to the remote address")

	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Equal("203.0.113.7", rl.GetSourceKey(r))
}

func TestInMemoryCache_Expiration(t *testing.T) {
	req := require.New(t)

	cache := NewInMemory()
	req.NoError(cache.SetWithExpiration("k", 42, 20*time.Millisecond))

	v, err := cache.Get("k")
	req.NoError(err)
	req.Equal(42, v)

	time.Sleep(40 * time.Millisecond)
	_, err = cache.Get("k")
	req.ErrorIs(err, ErrCacheMiss)
}
