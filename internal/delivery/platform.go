package delivery

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedPlatform is returned when a platform offers neither a
	// native save primitive nor a document to attach a download handle to.
	ErrUnsupportedPlatform = errors.New("no download mechanism available")

	// ErrActivationPanic is returned when activating a download handle panics.
	ErrActivationPanic = errors.New("download activation panicked")
)

// Platform is a delivery target. What it can do is discovered by checking
// it against NativeSaver and Document.
type Platform interface {
	Name() string
}

// NativeSaver is a platform that can save a blob as a named file directly.
type NativeSaver interface {
	Platform
	SaveBlob(ctx context.Context, artifact Artifact) error
}

// Document is a platform that downloads through a transient link: the blob is
// registered under a reference URL, an invisible handle pointing at it is
// attached, then the handle is clicked.
type Document interface {
	Platform
	CreateObjectURL(artifact Artifact) (string, error)
	RevokeObjectURL(url string)
	Append(handle *Handle) error
	Click(ctx context.Context, handle *Handle) error
	Remove(handle *Handle)
}

// Handle is the anchor-like element used to trigger a download on a Document.
type Handle struct {
	Href     string
	Download string
	Target   string
	Hidden   bool
}
