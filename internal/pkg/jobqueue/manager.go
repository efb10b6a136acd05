package jobqueue

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/openclaw/hosted/internal/pkg/provision"
)

// Manager owns the job queue and binds job types to their processors. It is
// constructed once at startup with its dependencies injected; provisioning
// triggered through it is observable via job state instead of being
// fire-and-forget.
type Manager struct {
	queue  *Queue
	engine *provision.Engine
}

// NewManager creates the queue manager and registers all handlers.
func NewManager(client *redis.Client, workers int, engine *provision.Engine) *Manager {
	m := &Manager{
		queue:  NewQueue(client, workers),
		engine: engine,
	}
	m.queue.RegisterHandler(JobTypeProvisionInstance, m.processProvisionJob)
	return m
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue workers
func (m *Manager) Start() {
	m.queue.Start()
}

// Stop stops the job queue workers
func (m *Manager) Stop() {
	m.queue.Stop()
}

// EnqueueProvision schedules a provisioning run for a freshly created
// instance. Provision jobs are not retried: a failed instance is terminal,
// and re-running provisioning against it would violate the state machine.
func (m *Manager) EnqueueProvision(instanceID, customerID string) error {
	payload := ProvisionJobPayload{InstanceID: instanceID, CustomerID: customerID}
	_, err := m.queue.EnqueueJob(JobTypeProvisionInstance, payload.ToMap(), 0)
	return err
}

func (m *Manager) processProvisionJob(ctx context.Context, job *Job) error {
	payload, err := ProvisionJobPayloadFromMap(job.Payload)
	if err != nil {
		return err
	}
	return m.engine.Run(ctx, payload.InstanceID, payload.CustomerID)
}
