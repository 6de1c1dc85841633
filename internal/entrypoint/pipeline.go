package entrypoint

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mrlokans/csvexport/internal/config"
	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/entities"
	"github.com/mrlokans/csvexport/internal/exporters"
	"github.com/mrlokans/csvexport/internal/scheduler"
	"github.com/mrlokans/csvexport/internal/snapshot"
	"github.com/mrlokans/csvexport/internal/watch"
)

// NewPipeline wires the CSV builder and the download trigger into an
// orchestrator. Serve and the CLI commands share it.
func NewPipeline(indicator exporters.LoadingIndicator, notifiers ...exporters.Notifier) *exporters.Orchestrator {
	return exporters.NewOrchestrator(
		csvbuild.NewBuilder(),
		delivery.NewTrigger(),
		exporters.WithLoadingIndicator(indicator),
		exporters.WithNotifiers(notifiers...),
	)
}

// Snapshots runs the configured periodic and watch-driven re-exports.
type Snapshots struct {
	scheduler *scheduler.SnapshotScheduler
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// StartSnapshots starts the snapshot scheduler, and the file watcher when
// SNAPSHOT_WATCH is set. It returns nil when snapshots are disabled.
func StartSnapshots(ctx context.Context, cfg *config.Config, runner snapshot.Runner) (*Snapshots, error) {
	if !cfg.Snapshot.Enabled {
		return nil, nil
	}

	job, err := snapshot.NewJob(runner, delivery.NewFileSaver(cfg.Export.Dir), snapshot.Config{
		Source:   cfg.Snapshot.Source,
		Filename: cfg.Snapshot.Filename,
		Options:  cfg.Export.Options(),
	})
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.NewSnapshotScheduler(job, cfg.Snapshot.Schedule)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Snapshots{scheduler: sched, cancel: cancel}

	if err := sched.Start(runCtx); err != nil {
		cancel()
		return nil, err
	}

	if cfg.Snapshot.Watch {
		fw, err := watch.NewFileWatcher(job.Source(), cfg.Snapshot.Debounce)
		if err != nil {
			s.Stop()
			return nil, fmt.Errorf("failed to watch snapshot source: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := fw.Watch(runCtx, func(ctx context.Context) {
				job.Run(ctx, string(entities.ExportOriginWatch))
			})
			if err != nil {
				log.Printf("[WATCH] Watcher exited: %v", err)
			}
		}()
	}

	log.Printf("[SNAPSHOT] Exporting %s to %s/%s", job.Source(), cfg.Export.Dir, job.Filename())
	return s, nil
}

// Stop halts the scheduler and the watcher and waits for them.
func (s *Snapshots) Stop() {
	if s == nil {
		return
	}
	s.scheduler.Stop()
	s.cancel()
	s.wg.Wait()
}
