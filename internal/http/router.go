package http

import (
	"github.com/gin-gonic/gin"
)

// BlobPrefix is the URL prefix under which link-mode downloads are served.
const BlobPrefix = "/api/blobs/"

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Blobs, cfg.Version, cfg.HealthChecks)
	router.GET("/health", health.Status)

	exports := NewExportController(cfg.Orchestrator, cfg.Blobs, cfg.MergeOptions, cfg.DefaultFilename, cfg.Loading)
	router.POST("/api/export", exports.Export)
	router.GET(BlobPrefix+":id", exports.Download)
	router.GET("/api/exports/loading", exports.LoadingStatus)

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.MergeOptions, cfg.DefaultFilename)
		router.POST("/api/exports/async", tasksController.EnqueueExport)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	if cfg.History != nil {
		history := NewHistoryController(cfg.History)
		router.GET("/api/exports/history", history.List)
		router.GET("/api/exports/summary", history.Summary)
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	return router
}
