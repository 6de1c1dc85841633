package interfaces

// Compile-time interface implementation checks.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/csvexport/internal/audit"
	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/exporters"
	"github.com/mrlokans/csvexport/internal/http"
	"github.com/mrlokans/csvexport/internal/metrics"
	"github.com/mrlokans/csvexport/internal/scheduler"
	"github.com/mrlokans/csvexport/internal/snapshot"
	"github.com/mrlokans/csvexport/internal/tasks"
)

// =============================================================================
// Export Pipeline
// =============================================================================

var _ exporters.CSVBuilder = (*csvbuild.Builder)(nil)
var _ exporters.Deliverer = (*delivery.Trigger)(nil)
var _ exporters.LoadingIndicator = (*exporters.LoadingFlag)(nil)

var _ csvbuild.Source = csvbuild.Dataset{}
var _ csvbuild.Source = csvbuild.SourceFunc(nil)

// =============================================================================
// Delivery Platforms
// =============================================================================

var _ delivery.NativeSaver = (*delivery.FileSaver)(nil)

// =============================================================================
// Outcome Notifiers
// =============================================================================

var _ exporters.Notifier = (*audit.Service)(nil)
var _ exporters.Notifier = (*metrics.Collector)(nil)
var _ exporters.Notifier = exporters.LogNotifier{}
var _ exporters.Notifier = exporters.NotifierFunc(nil)

// =============================================================================
// Runners and Stores
// =============================================================================

var _ tasks.ExportRunner = (*exporters.Orchestrator)(nil)
var _ snapshot.Runner = (*exporters.Orchestrator)(nil)
var _ scheduler.SnapshotJob = (*snapshot.Job)(nil)
var _ tasks.HistoryCleaner = (*audit.Service)(nil)
var _ http.HistoryReader = (*audit.Service)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
