package walkers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaReusesReleasedWalkers(t *testing.T) {
	a := NewArena(0, false)
	assert.Equal(t, DefaultMaxIdle, a.MaxIdle)

	w := borrow(a, kindScan, newScanWalker)
	w.found = append(w.found, nil)
	release(w)

	again := borrow(a, kindScan, newScanWalker)
	assert.Same(t, w, again)
	assert.Empty(t, again.found, "release resets the walker")

	stats := a.Stats()
	assert.Equal(t, int64(1), stats.Allocations)
	assert.Equal(t, int64(1), stats.Reuses)
	assert.Equal(t, 0, stats.Idle)
}

func TestArenaKeepsKindsApart(t *testing.T) {
	a := NewArena(4, true)
	scan := borrow(a, kindScan, newScanWalker)
	release(scan)

	ret := borrow(a, kindReturn, newReturnValueWalker)
	require.NotNil(t, ret)
	assert.Equal(t, int64(2), a.Stats().Allocations)
	release(ret)
}

func TestArenaIdleListIsBounded(t *testing.T) {
	a := NewArena(2, false)
	walkers := make([]*scanWalker, 5)
	for i := range walkers {
		walkers[i] = borrow(a, kindScan, newScanWalker)
	}
	for _, w := range walkers {
		release(w)
	}
	assert.Equal(t, 2, a.Stats().Idle)
}

func TestArenaDebugPanicsOnMisuse(t *testing.T) {
	a := NewArena(2, true)

	w := borrow(a, kindAssigned, newAssignedValueWalker)
	release(w)
	assert.Panics(t, func() { release(w) }, "double release")
	assert.Panics(t, func() { w.check() }, "use after release")
}

func TestArenaIgnoresMisuseWithoutDebug(t *testing.T) {
	a := NewArena(2, false)

	w := borrow(a, kindAssigned, newAssignedValueWalker)
	release(w)
	assert.NotPanics(t, func() { release(w) })
	assert.NotPanics(t, func() { w.check() })
	assert.Equal(t, 1, a.Stats().Idle, "a second release does not duplicate the walker")
}

func TestArenaConcurrentBorrow(t *testing.T) {
	a := NewArena(8, true)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w := borrow(a, kindReturn, newReturnValueWalker)
				w.check()
				release(w)
			}
		}()
	}
	wg.Wait()

	stats := a.Stats()
	assert.Equal(t, int64(16*100), stats.Allocations+stats.Reuses)
	assert.LessOrEqual(t, stats.Idle, 8)
}
