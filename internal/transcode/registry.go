// SPDX-License-Identifier: MIT

package transcode

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/vidbridge/vidbridge/internal/metrics"
)

// Registry is the single-flight map from job key to job. For N concurrent
// submissions of the same key exactly one job is created; the other callers
// receive the same handle. Distinct keys never block each other beyond the
// constant-time map access.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	baseDir string
}

// NewRegistry creates a registry placing job output under baseDir. The
// output directory of a job is a pure function of its key, so no two jobs
// ever share a directory.
func NewRegistry(baseDir string) *Registry {
	return &Registry{
		jobs:    make(map[string]*Job),
		baseDir: baseDir,
	}
}

// GetOrCreate returns the job for key, creating it in Pending state when no
// entry exists. The boolean reports whether this call created the job; the
// creator is responsible for starting orchestration exactly once.
func (r *Registry) GetOrCreate(key string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[key]; ok {
		metrics.JobsDedupedTotal.Inc()
		return job, false
	}

	job := &Job{
		Key:       key,
		Dir:       filepath.Join(r.baseDir, key),
		CreatedAt: time.Now(),
	}
	r.jobs[key] = job
	metrics.JobsCreatedTotal.Inc()
	metrics.ActiveJobs.Set(float64(len(r.jobs)))
	return job, true
}

// Get returns the job for key, or nil. Non-blocking read of current state.
func (r *Registry) Get(key string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[key]
}

// Jobs returns a snapshot of all registry entries.
func (r *Registry) Jobs() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	return out
}

// Remove drops the entry for key. A later submission of the same key is then
// indistinguishable from a first submission.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, key)
	metrics.ActiveJobs.Set(float64(len(r.jobs)))
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
