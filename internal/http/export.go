package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/csvexport/internal/blobstore"
	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/entities"
	"github.com/mrlokans/csvexport/internal/exporters"
)

// Delivery modes accepted by POST /api/export.
const (
	DeliveryInline = "inline" // CSV is the response body
	DeliveryLink   = "link"   // response carries a one-shot download URL
)

// ExportRequest is the body of POST /api/export and POST /api/exports/async.
type ExportRequest struct {
	Data     csvbuild.Dataset   `json:"data"`
	Options  csvbuild.Overrides `json:"options"`
	Filename string             `json:"filename"`
	Delivery string             `json:"delivery"`
}

// ExportResultResponse reports exports that did not produce a download body.
type ExportResultResponse struct {
	Status  exporters.Status `json:"status"`
	Message string           `json:"message"`
}

// OptionsMerger applies server-side CSV defaults to request options.
type OptionsMerger func(csvbuild.Overrides) csvbuild.Options

func noDefaults(o csvbuild.Overrides) csvbuild.Options { return o.Apply(csvbuild.Options{}) }

type ExportController struct {
	orchestrator    *exporters.Orchestrator
	store           *blobstore.Store
	merge           OptionsMerger
	defaultFilename string
	loading         *exporters.LoadingFlag
}

func NewExportController(orchestrator *exporters.Orchestrator, store *blobstore.Store, merge OptionsMerger, defaultFilename string, loading *exporters.LoadingFlag) *ExportController {
	if merge == nil {
		merge = noDefaults
	}
	if loading == nil {
		loading = exporters.NewLoadingFlag("")
	}
	return &ExportController{
		orchestrator:    orchestrator,
		store:           store,
		merge:           merge,
		defaultFilename: defaultFilename,
		loading:         loading,
	}
}

// Export handles POST /api/export.
func (ec *ExportController) Export(c *gin.Context) {
	var req ExportRequest
	if !bindExportRequest(c, &req) {
		return
	}

	var platform delivery.Platform
	switch req.Delivery {
	case "", DeliveryInline:
		platform = newResponseDocument(c, ec.store, ec.loading.ClassName())
	case DeliveryLink:
		platform = &linkSaver{c: c, store: ec.store, loadingClass: ec.loading.ClassName()}
	default:
		respondBadRequest(c, "unknown delivery mode: "+req.Delivery)
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = ec.defaultFilename
	}

	outcome := ec.orchestrator.RequestExport(c.Request.Context(), exporters.Request{
		Data:     req.Data,
		Options:  ec.merge(req.Options),
		Filename: filename,
		Platform: platform,
		Origin:   string(entities.ExportOriginHTTP),
	})

	if c.Writer.Written() {
		return
	}
	switch outcome.Status {
	case exporters.StatusFailed:
		respondExportError(c, outcome.Err)
	default:
		c.JSON(http.StatusOK, ExportResultResponse{Status: outcome.Status, Message: outcome.Message})
	}
}

// Download handles GET /api/blobs/:id. Blobs are single use.
func (ec *ExportController) Download(c *gin.Context) {
	blob, ok := ec.store.Take(c.Param("id"))
	if !ok {
		respondNotFound(c, "download")
		return
	}
	writeAttachment(c, blob, "", "")
}

// LoadingStatus handles GET /api/exports/loading.
func (ec *ExportController) LoadingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"loading": ec.loading.IsLoading(),
		"class":   ec.loading.Class(),
	})
}

// bindExportRequest decodes the body into req. Malformed datasets answer 422,
// any other decoding problem 400.
func bindExportRequest(c *gin.Context, req *ExportRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, csvbuild.ErrInvalidData) {
			respondExportError(c, err)
			return false
		}
		respondBadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
