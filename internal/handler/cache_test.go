package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitter_Bounds(t *testing.T) {
	d, j := time.Hour, 5*time.Minute

	low := jitter(d, j, func(int64) int64 { return 0 })
	high := jitter(d, j, func(n int64) int64 { return n - 1 })
	mid := jitter(d, j, func(n int64) int64 { return n / 2 })

	assert.Equal(t, d-j, low)
	assert.Equal(t, d+j, high)
	assert.Equal(t, d, mid)

	for i := 0; i < 100; i++ {
		got := jitter(d, j, randInt64N)
		assert.GreaterOrEqual(t, got, d-j)
		assert.LessOrEqual(t, got, d+j)
	}
}

func TestJitter_FloorAndDisabled(t *testing.T) {
	assert.Equal(t, time.Second, jitter(2*time.Second, time.Minute, func(int64) int64 { return 0 }))
	assert.Equal(t, time.Hour, jitter(time.Hour, 0, nil))
}

func TestSharedCacheControl(t *testing.T) {
	assert.Equal(t, "public, max-age=60, s-maxage=60", sharedCacheControl(time.Minute, 0))
	assert.Equal(t,
		"public, max-age=86400, s-maxage=86400, stale-while-revalidate=86400",
		sharedCacheControl(24*time.Hour, 24*time.Hour))
}

func TestSetFeedCacheHeaders(t *testing.T) {
	h := &Handler{rnd: func(int64) int64 { return 0 }}
	policy := CachePolicy{MaxAge: time.Hour, StaleWhileRevalidate: time.Hour, Jitter: time.Minute}

	w := httptest.NewRecorder()
	h.setFeedCacheHeaders(w, policy, false)
	assert.Equal(t, "public, max-age=3540, s-maxage=3540, stale-while-revalidate=3600", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("X-Feed-Stale"))

	w = httptest.NewRecorder()
	h.setFeedCacheHeaders(w, policy, true)
	assert.Equal(t, "public, max-age=60, s-maxage=60, stale-while-revalidate=3600", w.Header().Get("Cache-Control"))
	assert.Equal(t, "true", w.Header().Get("X-Feed-Stale"))
}
