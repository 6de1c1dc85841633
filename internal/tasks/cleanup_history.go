package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// HistoryCleaner deletes old export events.
type HistoryCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupHistoryTask removes export events older than RetentionDays.
type CleanupHistoryTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupHistoryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_export_history",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupHistoryProcessor creates a processor function for CleanupHistoryTask.
func CleanupHistoryProcessor(cleaner HistoryCleaner) backlite.QueueProcessor[CleanupHistoryTask] {
	return func(ctx context.Context, task CleanupHistoryTask) error {
		if cleaner == nil {
			return fmt.Errorf("history cleaner not configured")
		}

		days := task.RetentionDays
		if days <= 0 {
			days = DefaultConfig().HistoryRetentionDays
		}

		deleted, err := cleaner.DeleteOldEvents(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			return fmt.Errorf("cleanup export history: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d export events older than %d days", deleted, days)
		return nil
	}
}

// NewCleanupHistoryQueue creates a backlite queue for history cleanup tasks.
func NewCleanupHistoryQueue(cleaner HistoryCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupHistoryProcessor(cleaner))
}
