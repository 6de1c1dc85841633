package http

import (
	"net/http"

	"github.com/mrlokans/csvexport/internal/blobstore"
	"github.com/mrlokans/csvexport/internal/database"
	"github.com/mrlokans/csvexport/internal/exporters"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Orchestrator *exporters.Orchestrator
	Blobs        *blobstore.Store
	Loading      *exporters.LoadingFlag

	// MergeOptions applies configured CSV defaults. Optional.
	MergeOptions    OptionsMerger
	DefaultFilename string

	// Optional: nil disables the matching routes.
	TaskQueue TaskQueue
	History   HistoryReader
	Metrics   http.Handler

	Database     *database.Database
	HealthChecks map[string]HealthCheck
	Version      string
}
