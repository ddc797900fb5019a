package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowcastio/snowcast/internal/observability"
)

type blockingRunner struct {
	mu      sync.Mutex
	runs    int
	release chan struct{}
	err     error
	panics  bool
}

func (r *blockingRunner) RunCycle(context.Context) error {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	if r.panics {
		panic("boom")
	}
	if r.release != nil {
		<-r.release
	}
	return r.err
}

func (r *blockingRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func newTestScheduler(runner CycleRunner) *Scheduler {
	return New(runner, time.Hour, observability.NewMetricsForTesting(), slog.Default())
}

func TestInFlightGuardSkipsOverlappingTick(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := newTestScheduler(runner)

	done := make(chan struct{})
	go func() {
		s.runOnce()
		close(done)
	}()

	// Wait until the first cycle is inside RunCycle, then fire a second tick.
	require.Eventually(t, func() bool { return runner.runCount() == 1 },
		time.Second, 5*time.Millisecond)

	s.runOnce() // must return immediately without a second run
	assert.Equal(t, 1, runner.runCount())

	close(runner.release)
	<-done

	// With the first cycle finished a new tick runs again.
	s.runOnce()
	assert.Equal(t, 2, runner.runCount())
}

func TestCycleErrorIsAbsorbed(t *testing.T) {
	runner := &blockingRunner{err: errors.New("cycle exploded")}
	s := newTestScheduler(runner)

	assert.NotPanics(t, func() { s.runOnce() })
	assert.Equal(t, 1, runner.runCount())
}

func TestCyclePanicIsAbsorbed(t *testing.T) {
	runner := &blockingRunner{panics: true}
	s := newTestScheduler(runner)

	assert.NotPanics(t, func() { s.runOnce() })

	// The guard is released after a panic; the next tick still runs.
	runner.panics = false
	s.runOnce()
	assert.Equal(t, 2, runner.runCount())
}

func TestStartAndStop(t *testing.T) {
	runner := &blockingRunner{}
	s := newTestScheduler(runner)

	require.NoError(t, s.Start())
	defer s.Stop()

	// StartImmediately fires the first cycle right away.
	require.Eventually(t, func() bool { return runner.runCount() >= 1 },
		2*time.Second, 10*time.Millisecond)
}
