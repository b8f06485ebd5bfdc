// SPDX-License-Identifier: MIT
package transcode

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate(t *testing.T) {
	base := t.TempDir()
	r := NewRegistry(base)

	job, created := r.GetOrCreate("abc")
	require.True(t, created)
	assert.Equal(t, "abc", job.Key)
	assert.Equal(t, filepath.Join(base, "abc"), job.Dir)
	assert.Equal(t, StatePending, job.State())

	again, created := r.GetOrCreate("abc")
	assert.False(t, created)
	assert.Same(t, job, again)
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySingleFlight(t *testing.T) {
	r := NewRegistry(t.TempDir())

	const n = 64
	var wg sync.WaitGroup
	jobs := make([]*Job, n)
	createdCount := make([]bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jobs[i], createdCount[i] = r.GetOrCreate("same-key")
		}(i)
	}
	wg.Wait()

	creators := 0
	for i := 0; i < n; i++ {
		if createdCount[i] {
			creators++
		}
		assert.Same(t, jobs[0], jobs[i])
	}
	assert.Equal(t, 1, creators, "exactly one caller creates the job")
	assert.Equal(t, 1, r.Len())
}

func TestRegistryDistinctKeysDistinctDirs(t *testing.T) {
	r := NewRegistry(t.TempDir())
	a, _ := r.GetOrCreate("aaaa")
	b, _ := r.GetOrCreate("bbbb")
	assert.NotEqual(t, a.Dir, b.Dir)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryGetAndRemove(t *testing.T) {
	r := NewRegistry(t.TempDir())
	assert.Nil(t, r.Get("missing"))

	job, _ := r.GetOrCreate("abc")
	assert.Same(t, job, r.Get("abc"))

	r.Remove("abc")
	assert.Nil(t, r.Get("abc"))
	assert.Equal(t, 0, r.Len())

	fresh, created := r.GetOrCreate("abc")
	assert.True(t, created)
	assert.NotSame(t, job, fresh)
}

func TestRegistryJobsSnapshot(t *testing.T) {
	r := NewRegistry(t.TempDir())
	r.GetOrCreate("a")
	r.GetOrCreate("b")
	r.GetOrCreate("c")

	jobs := r.Jobs()
	assert.Len(t, jobs, 3)
	keys := map[string]bool{}
	for _, j := range jobs {
		keys[j.Key] = true
	}
	assert.True(t, keys["a"] && keys["b"] && keys["c"])
}
