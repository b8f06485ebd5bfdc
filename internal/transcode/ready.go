// SPDX-License-Identifier: MIT

package transcode

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vidbridge/vidbridge/internal/metrics"
)

// outputPollInterval is the fixed interval at which filesystem state is
// observed. There is no push-based completion signal across the process
// boundary to ffmpeg, so polling is the contract; the Poller isolates it so
// a future sentinel-based signal can replace the mechanism without touching
// callers.
const outputPollInterval = 500 * time.Millisecond

// WaitResult is the outcome of a bounded readiness wait.
type WaitResult int

const (
	WaitReady WaitResult = iota
	WaitFailed
	WaitTimedOut
)

func (w WaitResult) String() string {
	switch w {
	case WaitReady:
		return "ready"
	case WaitFailed:
		return "failed"
	case WaitTimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

// OutputReady is the sole readiness predicate: the master playlist exists
// and at least one media segment has been written. A manifest URL may be
// handed out slightly before every segment exists; consumers must tolerate
// transient 404s right after job creation.
func OutputReady(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, MasterPlaylist)); err != nil {
		return false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".ts") {
			return true
		}
	}
	return false
}

// Poller determines, within a bounded wait, whether a job's output is
// consumable. Concurrent waiters for the same job share one poll loop.
type Poller struct {
	interval time.Duration
	sf       singleflight.Group
}

// NewPoller creates a poller using the default interval.
func NewPoller() *Poller {
	return &Poller{interval: outputPollInterval}
}

// AwaitReady polls the readiness predicate every interval up to maxWait.
// The shared loop is decoupled from individual request cancellation so one
// disconnecting waiter does not abort the wait for the rest.
func (p *Poller) AwaitReady(ctx context.Context, job *Job, maxWait time.Duration) WaitResult {
	start := time.Now()

	sharedCtx := context.WithoutCancel(ctx)
	v, _, _ := p.sf.Do(job.Key, func() (interface{}, error) {
		return p.poll(sharedCtx, job, maxWait), nil
	})

	res, ok := v.(WaitResult)
	if !ok {
		res = WaitTimedOut
	}
	metrics.ObserveReadyWait(time.Since(start), res.String())
	return res
}

func (p *Poller) poll(ctx context.Context, job *Job, maxWait time.Duration) WaitResult {
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if job.State() == StateFailed {
			return WaitFailed
		}
		if OutputReady(job.Dir) {
			return WaitReady
		}
		select {
		case <-ctx.Done():
			return WaitTimedOut
		case <-deadline.C:
			return WaitTimedOut
		case <-ticker.C:
		}
	}
}
