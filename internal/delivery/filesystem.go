package delivery

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mrlokans/csvexport/internal/utils"
)

// FileSaver is a native-save platform that writes artifacts into a directory.
type FileSaver struct {
	Dir string
}

// NewFileSaver creates a FileSaver rooted at dir.
func NewFileSaver(dir string) *FileSaver {
	return &FileSaver{Dir: dir}
}

func (f *FileSaver) Name() string { return "filesystem" }

// Path returns where an artifact with the given filename is written.
func (f *FileSaver) Path(filename string) string {
	return filepath.Join(f.Dir, utils.SanitizeFilename(filename))
}

// SaveBlob writes the artifact through a temporary file and renames it into
// place, so readers never observe a partially written CSV.
func (f *FileSaver) SaveBlob(ctx context.Context, artifact Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	target := f.Path(artifact.Filename)
	tmp := filepath.Join(f.Dir, "."+uuid.New().String()+".tmp")

	if err := os.WriteFile(tmp, artifact.Data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move export file into place: %w", err)
	}

	log.Printf("[EXPORT] Saved %s", target)
	return nil
}

var _ NativeSaver = (*FileSaver)(nil)
