// SPDX-License-Identifier: MIT

// Package ratelimit throttles transcode job creation.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vidbridge/vidbridge/internal/metrics"
)

// Gate is a global minimum-interval gate applied to job creation only.
// It holds one shared token: a second creation inside the interval is
// rejected with the remaining wait. Serving already-cached content is never
// gated. The single shared limiter intentionally serializes creation across
// all keys; see the design notes before changing this.
type Gate struct {
	mu  sync.Mutex
	lim *rate.Limiter
	now func() time.Time
}

// NewGate creates a gate requiring at least interval between accepted
// creations. A zero or negative interval disables gating.
func NewGate(interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		lim: rate.NewLimiter(limit, 1),
		now: time.Now,
	}
}

// Check consumes the shared slot if available. It returns ok=true when the
// creation may proceed, otherwise the duration the caller must wait before
// retrying.
func (g *Gate) Check() (retryAfter time.Duration, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now()
	res := g.lim.ReserveN(t, 1)
	if !res.OK() {
		metrics.RateGateRejectedTotal.Inc()
		return 0, false
	}
	if delay := res.DelayFrom(t); delay > 0 {
		res.CancelAt(t)
		metrics.RateGateRejectedTotal.Inc()
		return delay, false
	}
	return 0, true
}
