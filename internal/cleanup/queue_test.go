package cleanup

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupQueue(t *testing.T) (Queue, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&Task{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewOutboxQueue(db, zap.NewNop()), db
}

func TestEnqueuePersistsTask(t *testing.T) {
	queue, db := setupQueue(t)
	ctx := context.Background()

	task := Task{
		ID:        uuid.NewString(),
		Type:      TaskOrganizations,
		EntityIDs: datatypes.NewJSONSlice([]string{"100", "200", "300"}),
	}
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var stored Task
	if err := db.First(&stored, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Type != TaskOrganizations {
		t.Fatalf("unexpected type %s", stored.Type)
	}
	if len(stored.EntityIDs) != 3 || stored.EntityIDs[2] != "300" {
		t.Fatalf("unexpected entity ids %v", stored.EntityIDs)
	}
	if stored.Processed {
		t.Fatal("expected unprocessed task")
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("expected creation timestamp")
	}
}

func TestEnqueueDistinctTasks(t *testing.T) {
	queue, db := setupQueue(t)
	ctx := context.Background()

	for _, taskType := range []TaskType{TaskCustomers, TaskUsers} {
		task := Task{
			ID:        uuid.NewString(),
			Type:      taskType,
			EntityIDs: datatypes.NewJSONSlice([]string{"1"}),
		}
		if err := queue.Enqueue(ctx, task); err != nil {
			t.Fatalf("enqueue %s: %v", taskType, err)
		}
	}

	var count int64
	if err := db.Model(&Task{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 tasks, got %d", count)
	}
}
