package worker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.DebugLevel, io.Discard)
}

func TestPoolRunsEnqueuedJob(t *testing.T) {
	pool := NewPool(testLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Shutdown(time.Second)

	done := make(chan struct{})
	require.NoError(t, pool.Foma.Enqueue(Job{
		Name: "compile_phonology",
		Run: func(ctx context.Context) error {
			close(done)
			return nil
		},
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}

func TestQueueRejectsEnqueueWhenFull(t *testing.T) {
	pool := NewPool(testLogger(), nil)
	// Do not Start the pool, so nothing drains the channel and the
	// capacity-1 buffer fills on the first Enqueue.
	block := Job{Name: "noop", Run: func(ctx context.Context) error { return nil }}

	require.NoError(t, pool.Foma.Enqueue(block))
	err := pool.Foma.Enqueue(block)
	require.Error(t, err)
}

func TestWorkerContinuesAfterJobError(t *testing.T) {
	pool := NewPool(testLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Shutdown(time.Second)

	var ran int32
	require.NoError(t, pool.Foma.Enqueue(Job{
		Name: "failing",
		Run:  func(ctx context.Context) error { return errors.New("boom") },
	}))

	done := make(chan struct{})
	require.NoError(t, pool.Foma.Enqueue(Job{
		Name: "after-failure",
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			close(done)
			return nil
		},
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not continue processing after a job error")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestWorkerContinuesAfterJobPanic(t *testing.T) {
	pool := NewPool(testLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Shutdown(time.Second)

	require.NoError(t, pool.Foma.Enqueue(Job{
		Name: "panics",
		Run:  func(ctx context.Context) error { panic("kaboom") },
	}))

	done := make(chan struct{})
	require.NoError(t, pool.Foma.Enqueue(Job{
		Name: "after-panic",
		Run: func(ctx context.Context) error {
			close(done)
			return nil
		},
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not recover from panic")
	}
}

func TestShutdownWaitsForInFlightJob(t *testing.T) {
	pool := NewPool(testLogger(), nil)
	ctx := context.Background()
	pool.Start(ctx)

	started := make(chan struct{})
	finished := make(chan struct{})
	require.NoError(t, pool.Foma.Enqueue(Job{
		Name: "slow",
		Run: func(ctx context.Context) error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			close(finished)
			return nil
		},
	}))

	<-started
	require.NoError(t, pool.Shutdown(time.Second))
	select {
	case <-finished:
	default:
		t.Fatal("shutdown returned before in-flight job finished")
	}
}
