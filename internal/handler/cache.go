package handler

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

const (
	cacheControlNoStore = "no-store"

	// stale responses are only cached briefly so a recovered upstream shows up quickly
	staleMaxAge = time.Minute
)

// CachePolicy describes the Cache-Control values a handler emits
type CachePolicy struct {
	MaxAge               time.Duration
	StaleWhileRevalidate time.Duration
	Jitter               time.Duration
}

// jitter returns d shifted by a random amount in [-j, j], never below one second,
// so instances behind a shared cache do not revalidate in lockstep.
func jitter(d, j time.Duration, rnd func(int64) int64) time.Duration {
	if j <= 0 {
		return d
	}
	shift := time.Duration(rnd(int64(2*j)+1)) - j
	if d+shift < time.Second {
		return time.Second
	}
	return d + shift
}

func randInt64N(n int64) int64 {
	return rand.Int64N(n)
}

// sharedCacheControl renders a public directive for shared caches
func sharedCacheControl(maxAge, swr time.Duration) string {
	secs := int64(maxAge / time.Second)
	value := fmt.Sprintf("public, max-age=%d, s-maxage=%d", secs, secs)
	if swr > 0 {
		value += fmt.Sprintf(", stale-while-revalidate=%d", int64(swr/time.Second))
	}
	return value
}

func setNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", cacheControlNoStore)
}

// setFeedCacheHeaders sets caching for a feed response. Stale payloads get a
// short lifetime and an X-Feed-Stale marker.
func (h *Handler) setFeedCacheHeaders(w http.ResponseWriter, policy CachePolicy, stale bool) {
	if stale {
		w.Header().Set("X-Feed-Stale", "true")
		w.Header().Set("Cache-Control", sharedCacheControl(staleMaxAge, policy.StaleWhileRevalidate))
		return
	}
	maxAge := jitter(policy.MaxAge, policy.Jitter, h.rnd)
	w.Header().Set("Cache-Control", sharedCacheControl(maxAge, policy.StaleWhileRevalidate))
}
