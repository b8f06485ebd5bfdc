// SPDX-License-Identifier: MIT
package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateFirstCheckPasses(t *testing.T) {
	g := NewGate(90 * time.Second)
	retry, ok := g.Check()
	assert.True(t, ok)
	assert.Zero(t, retry)
}

func TestGateRejectsInsideInterval(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	g := NewGate(90 * time.Second)
	g.now = func() time.Time { return clock }

	_, ok := g.Check()
	require.True(t, ok)

	clock = base.Add(10 * time.Second)
	retry, ok := g.Check()
	assert.False(t, ok)
	assert.InDelta(t, (80 * time.Second).Seconds(), retry.Seconds(), 1.0)
}

func TestGateRejectionDoesNotExtendWait(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	g := NewGate(90 * time.Second)
	g.now = func() time.Time { return clock }

	_, ok := g.Check()
	require.True(t, ok)

	// repeated rejected checks must not push the next slot further out
	for i := 1; i <= 5; i++ {
		clock = base.Add(time.Duration(i) * 10 * time.Second)
		_, ok := g.Check()
		require.False(t, ok)
	}

	clock = base.Add(90 * time.Second)
	retry, ok := g.Check()
	assert.True(t, ok, "slot reopens exactly one interval after the accepted check")
	assert.Zero(t, retry)
}

func TestGateAcceptsAfterInterval(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	g := NewGate(time.Second)
	g.now = func() time.Time { return clock }

	_, ok := g.Check()
	require.True(t, ok)

	clock = base.Add(1500 * time.Millisecond)
	_, ok = g.Check()
	assert.True(t, ok)
}

func TestGateDisabled(t *testing.T) {
	g := NewGate(0)
	for i := 0; i < 10; i++ {
		_, ok := g.Check()
		require.True(t, ok)
	}
}
