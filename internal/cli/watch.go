package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mrlokans/csvexport/internal/config"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/entities"
	"github.com/mrlokans/csvexport/internal/entrypoint"
	"github.com/mrlokans/csvexport/internal/exporters"
	"github.com/mrlokans/csvexport/internal/snapshot"
	"github.com/mrlokans/csvexport/internal/watch"
)

// WatchCommand keeps a CSV file in sync with a JSON dataset file, rebuilding
// it every time the dataset changes.
type WatchCommand struct {
	ExportCommand
	Debounce time.Duration
}

func NewWatchCommand() *WatchCommand {
	return &WatchCommand{ExportCommand: *NewExportCommand()}
}

func (cmd *WatchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	registerOptionFlags(fs, &cmd.ExportCommand)

	fs.StringVar(&cmd.Input, "input", "", "JSON dataset file to watch (required)")
	fs.StringVar(&cmd.Output, "output", "", "CSV file to keep up to date (default: <input>.csv in EXPORT_DIR)")
	fs.DurationVar(&cmd.Debounce, "debounce", watch.DefaultDebounce, "Quiet period before rebuilding after a change")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s watch -input <file> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export a JSON dataset to CSV now and again whenever the file changes.\n")
		fmt.Fprintf(os.Stderr, "Stop with Ctrl+C.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s watch -input people.json -output exports/people.csv -header\n", os.Args[0])
	}

	if err := parseFlagSet(fs, args, &cmd.ExportCommand); err != nil {
		return err
	}

	if cmd.Input == "" || cmd.Input == "-" {
		fs.Usage()
		return fmt.Errorf("input file is required")
	}

	return nil
}

// Job returns the snapshot job that rebuilds the output file.
func (cmd *WatchCommand) Job(runner snapshot.Runner, cfg *config.Config) (*snapshot.Job, error) {
	opts, err := cmd.Options(cfg.Export)
	if err != nil {
		return nil, err
	}

	dir, filename := cfg.Export.Dir, ""
	if cmd.Output != "" {
		dir, filename = filepath.Dir(cmd.Output), filepath.Base(cmd.Output)
	}

	return snapshot.NewJob(runner, delivery.NewFileSaver(dir), snapshot.Config{
		Source:   cmd.Input,
		Filename: filename,
		Options:  opts,
	})
}

func (cmd *WatchCommand) Run() error {
	cfg := config.NewConfig()

	orchestrator := entrypoint.NewPipeline(nil, exporters.LogNotifier{})
	job, err := cmd.Job(orchestrator, cfg)
	if err != nil {
		return err
	}

	fw, err := watch.NewFileWatcher(job.Source(), cmd.Debounce)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Eager mode: the CSV exists before the first change arrives
	job.Run(ctx, string(entities.ExportOriginWatch))

	if err := fw.Watch(ctx, func(ctx context.Context) {
		job.Run(ctx, string(entities.ExportOriginWatch))
	}); err != nil {
		return err
	}

	log.Printf("[WATCH] Done")
	return nil
}
