// Package snapshot re-exports a dataset file to a CSV file on disk. It backs
// the scheduled and watch-driven exports.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/exporters"
	"github.com/mrlokans/csvexport/internal/utils"
)

// Runner runs one export request.
type Runner interface {
	RequestExport(ctx context.Context, req exporters.Request) exporters.Outcome
}

// Config describes what to export and where the CSV goes.
type Config struct {
	// Source is the path of a JSON dataset file.
	Source string
	// Filename of the CSV inside the saver's directory. Derived from Source
	// when empty.
	Filename string
	Options  csvbuild.Options
}

// Job exports Config.Source every time Run is called.
type Job struct {
	runner Runner
	saver  delivery.Platform
	config Config
}

func NewJob(runner Runner, saver delivery.Platform, cfg Config) (*Job, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("snapshot source not configured")
	}
	if cfg.Filename == "" {
		cfg.Filename = FilenameFor(cfg.Source)
	}
	return &Job{runner: runner, saver: saver, config: cfg}, nil
}

// Source returns the dataset file path.
func (j *Job) Source() string { return j.config.Source }

// Filename returns the CSV filename written by the job.
func (j *Job) Filename() string { return j.config.Filename }

// Run loads the source file and exports it. origin is recorded on the outcome.
func (j *Job) Run(ctx context.Context, origin string) exporters.Outcome {
	return j.runner.RequestExport(ctx, exporters.Request{
		Data:     FileSource(j.config.Source),
		Options:  j.config.Options,
		Filename: j.config.Filename,
		Platform: j.saver,
		Origin:   origin,
	})
}

// FileSource reads a JSON dataset from path each time it is loaded.
func FileSource(path string) csvbuild.Source {
	return csvbuild.SourceFunc(func(ctx context.Context) (csvbuild.Dataset, error) {
		if err := ctx.Err(); err != nil {
			return csvbuild.Dataset{}, err
		}
		f, err := os.Open(path)
		if err != nil {
			return csvbuild.Dataset{}, fmt.Errorf("open dataset %s: %w", path, err)
		}
		defer f.Close()
		return csvbuild.DecodeDataset(f)
	})
}

// FilenameFor derives "people.csv" from "/data/people.json".
func FilenameFor(source string) string {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return utils.DefaultFilename
	}
	return utils.EnsureExtension(name, ".csv")
}
