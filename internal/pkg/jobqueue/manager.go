package jobqueue

import (
	"strconv"
	"sync"

	"github.com/headshop-br/headshop/internal/pkg/env"
)

// Manager manages the global job queue
type Manager struct {
	queue *Queue
	mu    sync.Mutex
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 2
		if raw := env.GetEnv("JOBQUEUE_WORKERS", ""); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 {
				workerCount = v
			}
		}
		globalManager = &Manager{
			queue: NewQueue(workerCount),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue workers
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.Start()
}

// Stop stops the job queue workers
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.Stop()
}

// EnqueueOrderConfirmationEmail queues the post-payment confirmation mail.
func EnqueueOrderConfirmationEmail(orderID uint) error {
	payload := OrderEmailJobPayload{OrderID: orderID}
	_, err := GetManager().GetQueue().EnqueueJob(JobTypeOrderConfirmationEmail, payload.ToMap())
	return err
}

// EnqueueSubscriptionRenewalEmail queues the renewal receipt mail.
func EnqueueSubscriptionRenewalEmail(subscriptionID uint, cycleSequence int) error {
	payload := SubscriptionEmailJobPayload{SubscriptionID: subscriptionID, CycleSequence: cycleSequence}
	_, err := GetManager().GetQueue().EnqueueJob(JobTypeSubscriptionRenewalEmail, payload.ToMap())
	return err
}

// EnqueueSubscriptionCanceledEmail queues the cancellation notice mail.
func EnqueueSubscriptionCanceledEmail(subscriptionID uint) error {
	payload := SubscriptionEmailJobPayload{SubscriptionID: subscriptionID}
	_, err := GetManager().GetQueue().EnqueueJob(JobTypeSubscriptionCanceledEmail, payload.ToMap())
	return err
}
