package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeOrderConfirmationEmail    JobType = "order_confirmation_email"
	JobTypeSubscriptionRenewalEmail  JobType = "subscription_renewal_email"
	JobTypeSubscriptionCanceledEmail JobType = "subscription_canceled_email"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// MarkAsProcessing stamps the job as picked up by a worker.
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.ProcessedAt = &now
	j.UpdatedAt = now
}

// MarkAsCompleted stamps the job as done.
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed records the failure message.
func (j *Job) MarkAsFailed(msg string) {
	j.Status = JobStatusFailed
	j.ErrorMsg = msg
	j.UpdatedAt = time.Now()
}

// MarkAsRetrying bumps the retry counter.
func (j *Job) MarkAsRetrying() {
	j.RetryCount++
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}

// IsRetryable reports whether the job has retries left.
func (j *Job) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries
}

// OrderEmailJobPayload contains the payload for order confirmation emails
type OrderEmailJobPayload struct {
	OrderID uint `json:"order_id"`
}

// ToMap converts the payload to a map for storage
func (p OrderEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"order_id": p.OrderID,
	}
}

// OrderEmailJobPayloadFromMap creates a payload from a map
func OrderEmailJobPayloadFromMap(data map[string]interface{}) (*OrderEmailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload OrderEmailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// SubscriptionEmailJobPayload contains the payload for subscription emails
type SubscriptionEmailJobPayload struct {
	SubscriptionID uint `json:"subscription_id"`
	CycleSequence  int  `json:"cycle_sequence,omitempty"`
}

// ToMap converts the payload to a map for storage
func (p SubscriptionEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"subscription_id": p.SubscriptionID,
		"cycle_sequence":  p.CycleSequence,
	}
}

// SubscriptionEmailJobPayloadFromMap creates a payload from a map
func SubscriptionEmailJobPayloadFromMap(data map[string]interface{}) (*SubscriptionEmailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload SubscriptionEmailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}
