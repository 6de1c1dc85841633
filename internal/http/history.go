package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	auditRepo "github.com/mrlokans/csvexport/internal/database/audit"
	"github.com/mrlokans/csvexport/internal/entities"
)

// HistoryReader lists persisted export outcomes.
type HistoryReader interface {
	GetEvents(filter auditRepo.Filter, limit, offset int) ([]entities.ExportEvent, int64, error)
	Summary() (map[entities.ExportStatus]int64, error)
}

type HistoryController struct {
	history HistoryReader
}

func NewHistoryController(history HistoryReader) *HistoryController {
	return &HistoryController{history: history}
}

// List returns paginated export events as JSON
// GET /api/exports/history?status=failed&origin=http&limit=25&offset=0
func (hc *HistoryController) List(c *gin.Context) {
	limit, offset := parsePagination(c, 25, 100)
	filter := auditRepo.Filter{
		Status: entities.ExportStatus(c.Query("status")),
		Origin: entities.ExportOrigin(c.Query("origin")),
	}

	events, total, err := hc.history.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list export history")
		return
	}

	c.JSON(http.StatusOK, paginate(events, total, limit, offset))
}

// Summary returns event counts per status.
// GET /api/exports/summary
func (hc *HistoryController) Summary(c *gin.Context) {
	counts, err := hc.history.Summary()
	if err != nil {
		respondInternalError(c, err, "export summary")
		return
	}
	c.JSON(http.StatusOK, counts)
}
