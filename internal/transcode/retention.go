// SPDX-License-Identifier: MIT

package transcode

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	vblog "github.com/vidbridge/vidbridge/internal/log"
	"github.com/vidbridge/vidbridge/internal/metrics"
)

// Retention expires cached output. A periodic sweep deletes the whole
// output directory of Ready or Failed jobs past their deadline; Pending and
// Running jobs are never touched.
type Retention struct {
	registry *Registry
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewRetention creates a retention manager sweeping reg every interval.
func NewRetention(reg *Registry, interval time.Duration, logger zerolog.Logger) *Retention {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Retention{
		registry: reg,
		interval: interval,
		log:      logger,
		now:      time.Now,
	}
}

// Run sweeps until ctx is cancelled. Intended to run as one background
// goroutine owned by the daemon, not fire-and-forget per job.
func (m *Retention) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep deletes every expired terminal job and returns how many were
// removed. Deletion is whole-directory: either the cache entry exists
// completely or not at all.
func (m *Retention) Sweep() int {
	now := m.now()
	removed := 0
	for _, job := range m.registry.Jobs() {
		state := job.State()
		if !state.Terminal() {
			continue
		}
		expiry := job.ExpiresAt()
		if expiry.IsZero() || now.Before(expiry) {
			continue
		}

		if err := os.RemoveAll(job.Dir); err != nil {
			m.log.Error().
				Err(err).
				Str(vblog.FieldJobKey, job.Key).
				Str(vblog.FieldOutputDir, job.Dir).
				Msg("cannot delete expired job directory")
			continue
		}
		m.registry.Remove(job.Key)
		metrics.JobsExpiredTotal.Inc()
		removed++
		m.log.Info().
			Str(vblog.FieldEvent, "job_expired").
			Str(vblog.FieldJobKey, job.Key).
			Str(vblog.FieldOldState, state.String()).
			Msg("expired cached job deleted")
	}
	return removed
}
