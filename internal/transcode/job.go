// SPDX-License-Identifier: MIT

// Package transcode drives external transcoding processes and tracks their
// jobs. A job is identified by its content-addressed key and owns one output
// directory; state transitions are monotonic.
package transcode

import (
	"sync"
	"time"
)

// State is the lifecycle phase of a transcode job.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed
}

// Job is one cached transcode. The orchestrator goroutine that created the
// job is the only writer; all other callers just observe state.
type Job struct {
	Key       string
	Dir       string
	CreatedAt time.Time

	mu         sync.Mutex
	state      State
	diagnostic string
	expiresAt  time.Time
}

// State returns the current lifecycle phase.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Diagnostic returns the captured failure detail, empty unless Failed.
func (j *Job) Diagnostic() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.diagnostic
}

// ExpiresAt returns the retention deadline; zero until the job is terminal.
func (j *Job) ExpiresAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.expiresAt
}

// markRunning transitions Pending -> Running. It reports whether the
// transition happened, which is false if the job already advanced.
func (j *Job) markRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePending {
		return false
	}
	j.state = StateRunning
	return true
}

// markReady transitions Running -> Ready and arms the retention deadline.
func (j *Job) markReady(ttl time.Duration) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateRunning {
		return false
	}
	j.state = StateReady
	j.expiresAt = time.Now().Add(ttl)
	return true
}

// fail transitions a non-terminal job to Failed with the captured
// diagnostic and arms the retention deadline. Failed output stays on disk
// until retention removes it, so evidence of the failure is inspectable.
func (j *Job) fail(diagnostic string, ttl time.Duration) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return false
	}
	j.state = StateFailed
	j.diagnostic = diagnostic
	j.expiresAt = time.Now().Add(ttl)
	return true
}
