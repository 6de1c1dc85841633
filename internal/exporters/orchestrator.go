// Package exporters runs export requests end to end: it builds CSV text from a
// dataset, keeps the latest text as the current payload and hands it to the
// platform's download mechanism, reporting the outcome to notifiers.
package exporters

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/utils"
)

const tracerName = "github.com/mrlokans/csvexport/internal/exporters"

// Request is one export invocation.
type Request struct {
	// Data is resolved at build time. A nil Data exports an empty dataset.
	Data     csvbuild.Source
	Options  csvbuild.Options
	Filename string
	Platform delivery.Platform
	// Origin names what issued the request (http, cli, snapshot, ...).
	Origin string
}

// Orchestrator drives requests through building, storing and delivery.
type Orchestrator struct {
	builder   CSVBuilder
	deliverer Deliverer
	indicator LoadingIndicator
	notifiers []Notifier
	tracer    trace.Tracer

	mu      sync.RWMutex
	payload     string
	payloadRows int
	stored      bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLoadingIndicator sets the indicator toggled around each build.
func WithLoadingIndicator(indicator LoadingIndicator) Option {
	return func(o *Orchestrator) {
		if indicator != nil {
			o.indicator = indicator
		}
	}
}

// WithNotifiers appends outcome notifiers.
func WithNotifiers(notifiers ...Notifier) Option {
	return func(o *Orchestrator) {
		for _, n := range notifiers {
			if n != nil {
				o.notifiers = append(o.notifiers, n)
			}
		}
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

func NewOrchestrator(builder CSVBuilder, deliverer Deliverer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		builder:   builder,
		deliverer: deliverer,
		indicator: noopIndicator{},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Payload returns the most recently built CSV text. Concurrent requests race
// for it and the last one to finish building wins, so a request may deliver
// text built by another. Outcome.Rows and Outcome.Bytes always describe the
// text that request delivered.
func (o *Orchestrator) Payload() (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.payload, o.stored
}

func (o *Orchestrator) store(result csvbuild.Result) {
	o.mu.Lock()
	o.payload = result.Text
	o.payloadRows = result.Rows
	o.stored = true
	o.mu.Unlock()
}

// current returns the stored text together with its row count.
func (o *Orchestrator) current() (string, int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.payload, o.payloadRows
}

type buildResult struct {
	result csvbuild.Result
	err    error
}

// run tracks the state of a single request.
type run struct {
	states []State
}

func (r *run) enter(next State) {
	current := r.states[len(r.states)-1]
	if !current.CanTransition(next) {
		panic(fmt.Sprintf("exporters: illegal transition %s -> %s", current, next))
	}
	r.states = append(r.states, next)
}

// RequestExport builds and delivers one export. It never returns an error;
// failures are reported through the Outcome and the notifiers.
func (o *Orchestrator) RequestExport(ctx context.Context, req Request) Outcome {
	started := time.Now()
	filename := req.Filename
	if filename == "" {
		filename = utils.DefaultFilename
	}

	ctx, span := o.tracer.Start(ctx, "csvexport.request", trace.WithAttributes(
		attribute.String("export.filename", filename),
		attribute.String("export.origin", req.Origin),
	))
	defer span.End()

	r := &run{states: []State{StateIdle}}
	outcome := Outcome{Filename: filename, Origin: req.Origin}
	if req.Platform != nil {
		outcome.Platform = req.Platform.Name()
	}

	r.enter(StateBuilding)
	o.indicator.SetLoading(true)
	buildStarted := time.Now()
	built := <-o.buildAsync(ctx, req)
	o.indicator.SetLoading(false)
	outcome.BuildDuration = time.Since(buildStarted)

	switch {
	case built.err != nil:
		r.enter(StateFailed)
		outcome.Status, outcome.Message, outcome.Err = StatusFailed, MessageFailed, built.err
	case built.result.Skipped:
		r.enter(StateSkipped)
		outcome.Status, outcome.Message = StatusSkipped, MessageSkipped
		log.Printf("[EXPORT] Dataset declined for %s, skipping export", filename)
	default:
		o.store(built.result)
		r.enter(StateBuilt)

		r.enter(StateExporting)
		text, rows := o.current()
		outcome.Rows, outcome.Bytes = rows, len(text)
		if err := o.deliver(ctx, req.Platform, text, filename, req.Options.Charset); err != nil {
			r.enter(StateFailed)
			outcome.Status, outcome.Message, outcome.Err = StatusFailed, MessageFailed, err
		} else {
			r.enter(StateDone)
			outcome.Status, outcome.Message = StatusSuccess, MessageSuccess
		}
	}

	outcome.States = r.states
	outcome.Duration = time.Since(started)

	span.SetAttributes(
		attribute.String("export.status", string(outcome.Status)),
		attribute.Int("export.rows", outcome.Rows),
		attribute.Int("export.bytes", outcome.Bytes),
	)
	if outcome.Err != nil {
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, outcome.Err.Error())
	}

	for _, n := range o.notifiers {
		n.Notify(ctx, outcome)
	}
	return outcome
}

// buildAsync loads the dataset and renders it off the caller's goroutine.
// The returned channel always receives exactly one value.
func (o *Orchestrator) buildAsync(ctx context.Context, req Request) <-chan buildResult {
	ch := make(chan buildResult, 1)
	go func() {
		ctx, span := o.tracer.Start(ctx, "csvexport.build")
		defer span.End()
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("build panicked: %v", rec)
				span.RecordError(err)
				ch <- buildResult{err: err}
			}
		}()

		data := csvbuild.NewDataset()
		if req.Data != nil {
			loaded, err := req.Data.Load(ctx)
			if err != nil {
				err = fmt.Errorf("failed to load dataset: %w", err)
				span.RecordError(err)
				ch <- buildResult{err: err}
				return
			}
			data = loaded
		}

		result, err := o.builder.Build(ctx, data, req.Options)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		ch <- buildResult{result: result, err: err}
	}()
	return ch
}

func (o *Orchestrator) deliver(ctx context.Context, platform delivery.Platform, text, filename, charsetName string) error {
	ctx, span := o.tracer.Start(ctx, "csvexport.deliver")
	defer span.End()

	if err := o.deliverer.Deliver(ctx, platform, text, filename, charsetName); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to deliver %s: %w", filename, err)
	}
	return nil
}
