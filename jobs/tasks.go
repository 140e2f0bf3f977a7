package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPrune removes expired session records from postgres.
	TaskSessionPrune = "session:prune"
	// TaskAuditRetention trims audit log rows beyond the retention window.
	TaskAuditRetention = "audit:retention"
)

// SessionPrunePayload describes a session prune run.
type SessionPrunePayload struct {
	Before time.Time `json:"before"`
}

// AuditRetentionPayload describes an audit retention run.
type AuditRetentionPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewSessionPruneTask constructs an Asynq task.
func NewSessionPruneTask(payload SessionPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPrune, data), nil
}

// NewAuditRetentionTask constructs an Asynq task.
func NewAuditRetentionTask(payload AuditRetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}
