package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "registration.created"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	assert.Eventually(t, func() bool { return q.Stats().Processed == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(2), q.Stats().Retried)
}

func TestQueueGivesUp(t *testing.T) {
	gaveUp := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 0, OnGiveUp: func(job Job, err error) { gaveUp <- job }})
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	select {
	case job := <-gaveUp:
		assert.Equal(t, "1", job.ID)
		assert.Equal(t, 1, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("OnGiveUp not called")
	}
}

func TestQueueEnqueueRules(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	// The worker holds job 1 or the buffer holds it; either way one more
	// fits at most before the buffer is full.
	var full error
	for i := 0; i < 3 && full == nil; i++ {
		full = q.Enqueue(Job{ID: "n"})
	}
	assert.ErrorIs(t, full, ErrQueueFull)

	close(block)
	q.Stop(time.Second)
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var handled atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "n"}))
	}
	q.Stop(2 * time.Second)

	assert.Equal(t, int32(5), handled.Load())
	stats := q.Stats()
	assert.Equal(t, uint64(5), stats.Processed)
	assert.Zero(t, stats.Dropped)
	assert.Zero(t, stats.Pending)
	assert.Error(t, q.Enqueue(Job{ID: "late"}))
}

func TestQueueStopRunsScheduledRetries(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: 20 * time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	assert.Eventually(t, func() bool { return q.Stats().Retried == 1 }, time.Second, time.Millisecond)
	q.Stop(2 * time.Second)

	assert.Equal(t, uint64(1), q.Stats().Processed)
	assert.Zero(t, q.Stats().Dropped)
}

func TestQueueStopGivesUpAfterTimeout(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	require.NoError(t, q.Enqueue(Job{ID: "2"}))
	q.Stop(30 * time.Millisecond)

	// Job 1 is cancelled mid-flight, job 2 never leaves the buffer.
	assert.Equal(t, uint64(2), q.Stats().Dropped)
	assert.Zero(t, q.Stats().Processed)
}
