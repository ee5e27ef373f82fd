package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/locallibrary/internal/tasks"
)

// MaintenanceRunner enqueues the maintenance jobs on demand.
type MaintenanceRunner interface {
	RunNow() ([]string, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	client      *tasks.Client
	maintenance MaintenanceRunner
}

// NewTasksController creates a new TasksController. Either argument may be
// nil when the queue or the scheduler is disabled.
func NewTasksController(client *tasks.Client, maintenance MaintenanceRunner) *TasksController {
	return &TasksController{client: client, maintenance: maintenance}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        tasks.FindOverdueLoansTask{}.Config().Name,
			Description: "Record every copy still on loan past its due date",
		},
		{
			Type:        tasks.CleanupAuditEventsTask{}.Config().Name,
			Description: "Delete audit events older than the retention period",
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	if tc.client == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue disabled", Code: "tasks_disabled"})
		return
	}

	taskID := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunMaintenance handles POST /api/maintenance/run
func (tc *TasksController) RunMaintenance(c *gin.Context) {
	if tc.maintenance == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "maintenance disabled", Code: "maintenance_disabled"})
		return
	}

	ids, err := tc.maintenance.RunNow()
	if err != nil {
		respondInternalError(c, err, "run maintenance")
		return
	}

	respondAccepted(c, "maintenance enqueued", gin.H{"task_ids": ids})
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
