package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/csvexport/internal/audit"
	"github.com/mrlokans/csvexport/internal/blobstore"
	"github.com/mrlokans/csvexport/internal/config"
	"github.com/mrlokans/csvexport/internal/database"
	auditRepo "github.com/mrlokans/csvexport/internal/database/audit"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/exporters"
	http_controllers "github.com/mrlokans/csvexport/internal/http"
	"github.com/mrlokans/csvexport/internal/metrics"
	"github.com/mrlokans/csvexport/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// CheckExportDir makes sure dir exists and is writable.
func CheckExportDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("export directory is not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("export directory %s could not be created: %w", dir, err)
	}

	probe := filepath.Join(dir, ".csvexport")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("export directory %s is not writable: %w", dir, err)
	}
	f.Close()
	return os.Remove(probe)
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// SIGKILL can't be caught, so only SIGINT and SIGTERM are handled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before background workers go away
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting csvexport v%s", version)

	if err := CheckExportDir(cfg.Export.Dir); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("Server-side exports go to %s", cfg.Export.Dir)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	history := audit.NewService(auditRepo.NewRepository(db.DB))

	collector := metrics.NewCollector(cfg.Metrics.CollectorConfig(), nil)

	loading := exporters.NewLoadingFlag(cfg.Export.LoadingClass)
	orchestrator := NewPipeline(loading, history, collector, exporters.LogNotifier{})

	blobs := blobstore.New(http_controllers.BlobPrefix)
	var sweeper *blobstore.Sweeper
	if cfg.Export.BlobTTL > 0 {
		sweeper, err = blobstore.NewSweeper(blobs, cfg.Export.BlobTTL, cfg.Export.BlobTTL)
		if err != nil {
			log.Fatalf("Failed to initialize download sweeper: %v", err)
		}
		sweeper.Start()
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Background exports write to the export directory
	var taskClient *tasks.Client
	var housekeeping *cron.Cron
	if cfg.Tasks.Enabled {
		taskCfg := cfg.Tasks.TaskConfig(cfg.History)
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewExportQueue(orchestrator, delivery.NewFileSaver(cfg.Export.Dir)),
			tasks.NewCleanupHistoryQueue(history),
		)
		go taskClient.Start(bgCtx)

		housekeeping, err = scheduleHistoryCleanup(taskClient, taskCfg.HistoryRetentionDays)
		if err != nil {
			log.Fatalf("Failed to schedule history cleanup: %v", err)
		}
	}

	snapshots, err := StartSnapshots(bgCtx, cfg, orchestrator)
	if err != nil {
		log.Fatalf("Failed to start snapshots: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Orchestrator:    orchestrator,
		Blobs:           blobs,
		Loading:         loading,
		MergeOptions:    cfg.Export.Merge,
		DefaultFilename: cfg.Export.Filename,
		History:         history,
		Database:        db,
		HealthChecks: map[string]http_controllers.HealthCheck{
			"export_dir": func() error { return CheckExportDir(cfg.Export.Dir) },
		},
		Version: version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = collector.Handler()
	}

	router := http_controllers.NewRouter(routerCfg)

	Serve(router, cfg, func(ctx context.Context) {
		snapshots.Stop()
		if housekeeping != nil {
			<-housekeeping.Stop().Done()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		bgCancel()
		if sweeper != nil {
			sweeper.Stop()
		}
		history.Wait()
	})
}

// scheduleHistoryCleanup enqueues a history cleanup task once a day at 03:00.
func scheduleHistoryCleanup(client *tasks.Client, retentionDays int) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc("0 3 * * *", func() {
		if _, err := client.Add(tasks.CleanupHistoryTask{RetentionDays: retentionDays}).Save(); err != nil {
			log.Printf("[TASK] Failed to enqueue history cleanup: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
