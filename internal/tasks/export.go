package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/entities"
	"github.com/mrlokans/csvexport/internal/exporters"
)

// ExportRunner runs one export request.
type ExportRunner interface {
	RequestExport(ctx context.Context, req exporters.Request) exporters.Outcome
}

// ExportTask renders a dataset in the background and saves it to the export
// directory.
type ExportTask struct {
	Data     csvbuild.Dataset `json:"data"`
	Options  csvbuild.Options `json:"options"`
	Filename string           `json:"filename"`
}

// Config returns the queue configuration for export tasks. Export failures
// are terminal so a task runs once.
func (t ExportTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "csv_export",
		MaxAttempts: 1,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportProcessor creates a processor function for ExportTask.
func ExportProcessor(runner ExportRunner, platform delivery.Platform) backlite.QueueProcessor[ExportTask] {
	return func(ctx context.Context, task ExportTask) error {
		if runner == nil || platform == nil {
			return fmt.Errorf("export runner not configured")
		}

		outcome := runner.RequestExport(ctx, exporters.Request{
			Data:     task.Data,
			Options:  task.Options,
			Filename: task.Filename,
			Platform: platform,
			Origin:   string(entities.ExportOriginTask),
		})

		switch outcome.Status {
		case exporters.StatusFailed:
			return fmt.Errorf("export %s: %w", outcome.Filename, outcome.Err)
		case exporters.StatusSkipped:
			log.Printf("[TASK] Export %s skipped: %s", outcome.Filename, outcome.Message)
		default:
			log.Printf("[TASK] Exported %d rows to %s", outcome.Rows, outcome.Filename)
		}
		return nil
	}
}

// NewExportQueue creates a backlite queue for export tasks.
func NewExportQueue(runner ExportRunner, platform delivery.Platform) backlite.Queue {
	return backlite.NewQueue(ExportProcessor(runner, platform))
}
