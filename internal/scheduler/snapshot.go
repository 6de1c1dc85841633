package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/csvexport/internal/entities"
	"github.com/mrlokans/csvexport/internal/exporters"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// SnapshotJob is the export run on every tick.
type SnapshotJob interface {
	Run(ctx context.Context, origin string) exporters.Outcome
}

// SnapshotScheduler periodically re-exports a dataset file.
type SnapshotScheduler struct {
	job      SnapshotJob
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewSnapshotScheduler validates schedule and returns a stopped scheduler.
func NewSnapshotScheduler(job SnapshotJob, schedule string) (*SnapshotScheduler, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return &SnapshotScheduler{
		job:      job,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(parser)),
	}, nil
}

// Start registers the job and starts ticking. Cancelling ctx stops the
// scheduler.
func (s *SnapshotScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.ctx, s.cancelFunc = runCtx, cancel

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.run(runCtx)
	})
	if err != nil {
		s.cancelFunc()
		return fmt.Errorf("failed to schedule snapshot job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("[SNAPSHOT] Scheduler started with schedule '%s' (%s). Next run: %v",
		s.schedule, Describe(s.schedule), s.nextRunLocked())

	go func() {
		<-runCtx.Done()
		s.stop(runCtx)
	}()

	return nil
}

// Stop waits for a running snapshot to finish and stops ticking.
func (s *SnapshotScheduler) Stop() {
	s.stop(nil)
}

// stop halts the scheduler. A non-nil owner only stops the run it started.
func (s *SnapshotScheduler) stop(owner context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning || (owner != nil && owner != s.ctx) {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.cancelFunc()

	s.isRunning = false
	log.Printf("[SNAPSHOT] Scheduler stopped")
}

// RunNow exports immediately on the caller's goroutine.
func (s *SnapshotScheduler) RunNow(ctx context.Context) exporters.Outcome {
	return s.job.Run(ctx, string(entities.ExportOriginSnapshot))
}

// IsRunning returns whether the scheduler is active.
func (s *SnapshotScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next snapshot will occur.
func (s *SnapshotScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	return s.nextRunLocked()
}

func (s *SnapshotScheduler) nextRunLocked() *time.Time {
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *SnapshotScheduler) run(ctx context.Context) {
	outcome := s.job.Run(ctx, string(entities.ExportOriginSnapshot))
	if outcome.Err != nil {
		log.Printf("[SNAPSHOT] %s: %v", outcome.Message, outcome.Err)
		return
	}
	log.Printf("[SNAPSHOT] %s: %s (%d rows)", outcome.Message, outcome.Filename, outcome.Rows)
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Describe returns a human-readable description of a cron schedule.
func Describe(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}
