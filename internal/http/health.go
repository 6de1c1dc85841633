package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/csvexport/internal/blobstore"
	"github.com/mrlokans/csvexport/internal/database"
)

// HealthCheck reports an error when a dependency is unusable.
type HealthCheck func() error

type HealthResponse struct {
	Status           string            `json:"status"`
	Time             string            `json:"time"`
	Version          string            `json:"version,omitempty"`
	PendingDownloads int               `json:"pending_downloads"`
	Checks           map[string]string `json:"checks"`
}

// HealthController reports database reachability plus any named checks,
// such as the export directory being writable.
type HealthController struct {
	db      *database.Database
	blobs   *blobstore.Store
	version string
	checks  map[string]HealthCheck
}

func NewHealthController(db *database.Database, blobs *blobstore.Store, version string, checks map[string]HealthCheck) *HealthController {
	return &HealthController{
		db:      db,
		blobs:   blobs,
		version: version,
		checks:  checks,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	results := make(map[string]string)
	healthy := true

	record := func(name string, err error) {
		if err != nil {
			results[name] = "error: " + err.Error()
			healthy = false
			return
		}
		results[name] = "ok"
	}

	if h.db != nil {
		record("database", h.db.Ping())
	} else {
		results["database"] = "not configured"
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		record(name, h.checks[name]())
	}

	response := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  results,
	}
	if h.blobs != nil {
		response.PendingDownloads = h.blobs.Len()
	}

	statusCode := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, response)
}
