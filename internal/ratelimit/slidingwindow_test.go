package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "pos:rl:"}, mr
}

func TestAllowWithinLimit(t *testing.T) {
	l, _ := newLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "search:1.2.3.4", time.Minute, 3)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "search:1.2.3.4", time.Minute, 3)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l, _ := newLimiter(t)
	ctx := context.Background()

	d, err := l.Allow(ctx, "search:1.2.3.4", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.Allow(ctx, "search:5.6.7.8", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestAllowNilClientFailsOpen(t *testing.T) {
	d, err := Limiter{}.Allow(context.Background(), "any", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	l, _ := newLimiter(t)
	mw := Middleware{
		Limiter: l,
		Key:     ByClientIP,
		Window:  time.Minute,
		Max:     2,
	}
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/search?q=a", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/search?q=a", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestMiddlewareSetsHeaders(t *testing.T) {
	l, _ := newLimiter(t)
	mw := Middleware{Limiter: l, Key: ByClientIP, Window: time.Minute, Max: 5}
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}
