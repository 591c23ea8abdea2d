package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockReconcile compares stock counters against transactions.
	TaskStockReconcile = "stock:reconcile"
	// TaskIdempotencyCleanup prunes expired import idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"

	defaultRetention = 7 * 24 * time.Hour
)

// CleanupPayload configures TaskIdempotencyCleanup.
type CleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// Retention returns the key lifetime, defaulting to a week.
func (p CleanupPayload) Retention() time.Duration {
	if p.RetentionHours <= 0 {
		return defaultRetention
	}
	return time.Duration(p.RetentionHours) * time.Hour
}

// NewStockReconcileTask builds the reconciliation task.
func NewStockReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskStockReconcile, nil)
}

// NewIdempotencyCleanupTask builds the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
