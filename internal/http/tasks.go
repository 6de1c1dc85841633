package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/csvexport/internal/tasks"
)

// TaskQueue enqueues background work and reports its status.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController handles background export endpoints.
type TasksController struct {
	queue           TaskQueue
	merge           OptionsMerger
	defaultFilename string
}

func NewTasksController(queue TaskQueue, merge OptionsMerger, defaultFilename string) *TasksController {
	if merge == nil {
		merge = noDefaults
	}
	return &TasksController{queue: queue, merge: merge, defaultFilename: defaultFilename}
}

// TaskResponse is returned when a task is enqueued or queried.
type TaskResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Filename string `json:"filename,omitempty"`
}

// EnqueueExport handles POST /api/exports/async.
// The CSV is written to the server's export directory.
func (tc *TasksController) EnqueueExport(c *gin.Context) {
	var req ExportRequest
	if !bindExportRequest(c, &req) {
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = tc.defaultFilename
	}

	ids, err := tc.queue.Add(tasks.ExportTask{
		Data:     req.Data,
		Options:  tc.merge(req.Options),
		Filename: filename,
	}).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue export")
		return
	}

	respondAccepted(c, "export enqueued", TaskResponse{
		ID:       ids[0],
		Status:   taskStatusToString(backlite.TaskStatusPending),
		Filename: filename,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, TaskResponse{ID: taskID, Status: taskStatusToString(status)})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
