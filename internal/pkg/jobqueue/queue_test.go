package jobqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueueDefaults(t *testing.T) {
	q := NewQueue(nil, 0)
	assert.Equal(t, 3, q.workers)

	q = NewQueue(nil, -5)
	assert.Equal(t, 3, q.workers)

	q = NewQueue(nil, 8)
	assert.Equal(t, 8, q.workers)
}

func TestRunHandler_Dispatch(t *testing.T) {
	q := NewQueue(nil, 1)

	var got *Job
	q.RegisterHandler(JobTypeProvisionInstance, func(ctx context.Context, job *Job) error {
		got = job
		return nil
	})

	job := &Job{ID: "j1", Type: JobTypeProvisionInstance}
	require.NoError(t, q.runHandler(context.Background(), job))
	assert.Equal(t, job, got)
}

func TestRunHandler_UnknownType(t *testing.T) {
	q := NewQueue(nil, 1)

	err := q.runHandler(context.Background(), &Job{ID: "j1", Type: "mystery"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job type")
}

func TestRunHandler_HandlerError(t *testing.T) {
	q := NewQueue(nil, 1)
	q.RegisterHandler(JobTypeProvisionInstance, func(ctx context.Context, job *Job) error {
		return errors.New("provisioning failed")
	})

	err := q.runHandler(context.Background(), &Job{Type: JobTypeProvisionInstance})
	assert.EqualError(t, err, "provisioning failed")
}

func TestStop_CompletesWithJobInFlight(t *testing.T) {
	q := NewQueue(nil, 1)
	q.RegisterHandler(JobTypeProvisionInstance, func(ctx context.Context, job *Job) error {
		return nil
	})

	q.mu.Lock()
	q.running = true
	q.mu.Unlock()

	// Simulate a worker that dequeued a job right as Stop was called: it
	// waits for the shutdown signal, then still has to dispatch through
	// runHandler (which locks the queue mutex) before it can exit.
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		<-q.stopCh
		_ = q.runHandler(context.Background(), &Job{ID: "j1", Type: JobTypeProvisionInstance})
	}()

	done := make(chan struct{})
	go func() {
		q.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while a worker was dispatching a job")
	}
}

func TestRunHandler_PanicBecomesError(t *testing.T) {
	q := NewQueue(nil, 1)
	q.RegisterHandler(JobTypeProvisionInstance, func(ctx context.Context, job *Job) error {
		panic("bad payload")
	})

	err := q.runHandler(context.Background(), &Job{Type: JobTypeProvisionInstance})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
	assert.Contains(t, err.Error(), "bad payload")
}
