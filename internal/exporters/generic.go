package exporters

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
)

// CSVBuilder renders a dataset to CSV text.
type CSVBuilder interface {
	Build(ctx context.Context, data csvbuild.Dataset, opts csvbuild.Options) (csvbuild.Result, error)
}

// Deliverer hands CSV text to a platform as a downloadable file.
type Deliverer interface {
	Deliver(ctx context.Context, platform delivery.Platform, text, filename, charset string) error
}

// LoadingIndicator is toggled on while a build is in flight.
type LoadingIndicator interface {
	SetLoading(loading bool)
}

// Notifier is told the outcome of every export request.
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, outcome Outcome)

func (f NotifierFunc) Notify(ctx context.Context, outcome Outcome) { f(ctx, outcome) }

// LogNotifier writes outcomes to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, outcome Outcome) {
	switch outcome.Status {
	case StatusSuccess:
		log.Printf("[EXPORT] %s: %s (%d rows, %d bytes)", outcome.Message, outcome.Filename, outcome.Rows, outcome.Bytes)
	case StatusSkipped:
		log.Printf("[EXPORT] %s: data was declined, skipping export of %s", outcome.Message, outcome.Filename)
	default:
		log.Printf("[EXPORT] %s: %s: %v", outcome.Message, outcome.Filename, outcome.Err)
	}
}

// LoadingFlag is a LoadingIndicator that UI code can poll. Class returns the
// configured CSS class while loading and "" otherwise.
type LoadingFlag struct {
	className string
	loading   atomic.Bool
}

// DefaultLoadingClass is the class applied while an export builds.
const DefaultLoadingClass = "csv-loading"

// NewLoadingFlag creates a flag that reports className while loading.
func NewLoadingFlag(className string) *LoadingFlag {
	if className == "" {
		className = DefaultLoadingClass
	}
	return &LoadingFlag{className: className}
}

func (f *LoadingFlag) SetLoading(loading bool) { f.loading.Store(loading) }

// IsLoading reports whether a build is in flight.
func (f *LoadingFlag) IsLoading() bool { return f.loading.Load() }

// ClassName returns the configured class regardless of state.
func (f *LoadingFlag) ClassName() string { return f.className }

// Class returns the class to apply right now.
func (f *LoadingFlag) Class() string {
	if f.IsLoading() {
		return f.className
	}
	return ""
}

type noopIndicator struct{}

func (noopIndicator) SetLoading(bool) {}
