// Package delivery turns CSV text into a downloaded file. The Trigger picks
// one of two fixed strategies from what the platform can do: save the blob
// natively, or go through a document with a transient object URL and a
// synthetic link that is clicked on the next scheduling turn.
package delivery

import (
	"context"
	"fmt"
	"log"
)

// Trigger delivers CSV text to a platform.
type Trigger struct {
	scheduler Scheduler
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithScheduler overrides how handle activation is deferred.
func WithScheduler(s Scheduler) Option {
	return func(t *Trigger) {
		t.scheduler = s
	}
}

// NewTrigger creates a Trigger that activates handles on the next turn.
func NewTrigger(opts ...Option) *Trigger {
	t := &Trigger{scheduler: NextTurn{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Deliver encodes text and hands it to the platform as a named CSV file.
func (t *Trigger) Deliver(ctx context.Context, platform Platform, text, filename, charsetName string) error {
	s, err := t.strategyFor(platform)
	if err != nil {
		return err
	}

	artifact, err := NewArtifact(text, filename, charsetName)
	if err != nil {
		return err
	}

	log.Printf("[EXPORT] Delivering %s (%d bytes, %s) via %s on %s",
		artifact.Filename, artifact.Size(), artifact.ContentType(), s.name(), platform.Name())

	return s.deliver(ctx, artifact)
}

// Strategy returns the name of the strategy the trigger would use for
// platform, or ErrUnsupportedPlatform.
func (t *Trigger) Strategy(platform Platform) (string, error) {
	s, err := t.strategyFor(platform)
	if err != nil {
		return "", err
	}
	return s.name(), nil
}

func (t *Trigger) strategyFor(platform Platform) (strategy, error) {
	if platform == nil {
		return nil, fmt.Errorf("%w: no platform", ErrUnsupportedPlatform)
	}
	if saver, ok := platform.(NativeSaver); ok {
		return nativeStrategy{saver: saver}, nil
	}
	if doc, ok := platform.(Document); ok {
		return anchorStrategy{doc: doc, scheduler: t.scheduler}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform.Name())
}

type strategy interface {
	name() string
	deliver(ctx context.Context, artifact Artifact) error
}

type nativeStrategy struct {
	saver NativeSaver
}

func (nativeStrategy) name() string { return "native" }

func (s nativeStrategy) deliver(ctx context.Context, artifact Artifact) error {
	if err := s.saver.SaveBlob(ctx, artifact); err != nil {
		return fmt.Errorf("save blob: %w", err)
	}
	return nil
}

type anchorStrategy struct {
	doc       Document
	scheduler Scheduler
}

func (anchorStrategy) name() string { return "anchor" }

// deliver releases the handle and the object URL on every return path,
// including a panic during activation.
func (s anchorStrategy) deliver(ctx context.Context, artifact Artifact) error {
	url, err := s.doc.CreateObjectURL(artifact)
	if err != nil {
		return fmt.Errorf("create object url: %w", err)
	}
	defer s.doc.RevokeObjectURL(url)

	handle := &Handle{
		Href:     url,
		Download: artifact.Filename,
		Target:   "_blank",
		Hidden:   true,
	}
	if err := s.doc.Append(handle); err != nil {
		return fmt.Errorf("attach download handle: %w", err)
	}
	defer s.doc.Remove(handle)

	if err := s.scheduler.Defer(ctx, func(ctx context.Context) error {
		return s.doc.Click(ctx, handle)
	}); err != nil {
		return fmt.Errorf("activate download handle: %w", err)
	}
	return nil
}
