// Package cleanup queues cascading-delete work after bulk deletes. Tasks are
// written to an outbox table; an external worker consumes them.
package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskType names the hierarchy level a task's id set refers to.
type TaskType string

const (
	TaskCustomers         TaskType = "customers"
	TaskOrganizations     TaskType = "organizations"
	TaskInstitutions      TaskType = "institutions"
	TaskOrganizationUnits TaskType = "organization_units"
	TaskUsers             TaskType = "users"
)

// Task describes one cascading delete. EntityIDs is the originally requested
// id set, not filtered down to ids that actually existed — the worker treats
// already-gone dependents as done.
type Task struct {
	ID          string                      `gorm:"primaryKey;type:text" json:"id"`
	Type        TaskType                    `gorm:"type:text;not null;index" json:"type"`
	EntityIDs   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"entity_ids"`
	Processed   bool                        `gorm:"not null;default:false;index" json:"processed"`
	ProcessedAt *time.Time                  `json:"processed_at,omitempty"`
	CreatedAt   time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Task) TableName() string { return "cleanup_tasks" }

// Queue accepts cleanup tasks. Enqueue is fire-and-forget from the caller's
// perspective: exactly one enqueue per non-empty successful delete.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
}

type outboxQueue struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOutboxQueue(db *gorm.DB, log *zap.Logger) Queue {
	return &outboxQueue{db: db, log: log.Named("cleanup")}
}

func (q *outboxQueue) Enqueue(ctx context.Context, task Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if err := q.db.WithContext(ctx).Create(&task).Error; err != nil {
		return err
	}
	q.log.Debug("emit cleanup task",
		zap.String("task_id", task.ID),
		zap.String("type", string(task.Type)),
		zap.Int("entities", len(task.EntityIDs)),
	)
	return nil
}
