package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-task-api/internal/dto"
	apierrors "github.com/yukikurage/daily-task-api/internal/errors"
	"github.com/yukikurage/daily-task-api/internal/middleware"
	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/services"
	"github.com/yukikurage/daily-task-api/internal/utils"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// ListTasks returns tasks visible to the current user.
// Query: organization_id, assigned_to_me, assigned_by_me, overdue, status,
// sort=due_date, page, limit
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	organizationID, ok := parseOptionalUint(c, "organization_id")
	if !ok {
		return
	}

	input := services.ListTasksInput{
		UserID:         userID,
		OrganizationID: organizationID,
		AssignedToMe:   c.Query("assigned_to_me") == "true",
		AssignedByMe:   c.Query("assigned_by_me") == "true",
		OverdueOnly:    c.Query("overdue") == "true",
		SortByDueDate:  c.Query("sort") == "due_date",
		Pagination:     utils.GetPaginationParams(c),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		input.Status = &status
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, input.Pagination, total, time.Now()))
}

// CreateTask assigns a new task. The assignee defaults to the caller.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title          string              `json:"title" binding:"required,max=255"`
		Description    string              `json:"description"`
		OrganizationID uint64              `json:"organization_id" binding:"required"`
		AssigneeID     *uint64             `json:"assignee_id"`
		DueDate        time.Time           `json:"due_date" binding:"required"`
		Priority       models.TaskPriority `json:"priority"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	assigneeID := userID
	if req.AssigneeID != nil {
		assigneeID = *req.AssigneeID
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		OrganizationID: req.OrganizationID,
		AssigneeID:     assigneeID,
		AssignerID:     userID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task, time.Now()))
}

// GetTask returns a single task loaded by RequireTaskAccess
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, _ := middleware.GetTask(c)
	c.JSON(http.StatusOK, dto.ToTaskDTO(task, time.Now()))
}

// UpdateTask edits the descriptive fields of a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	task, _ := middleware.GetTask(c)

	type UpdateTaskRequest struct {
		Title       *string              `json:"title" binding:"omitempty,max=255"`
		Description *string              `json:"description"`
		Priority    *models.TaskPriority `json:"priority"`
		DueDate     *time.Time           `json:"due_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), task.ID, userID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated, time.Now()))
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	task, _ := middleware.GetTask(c)

	if err := h.taskService.DeleteTask(c.Request.Context(), task.ID, userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// StartTask moves the caller's task to IN_PROGRESS
func (h *TaskHandler) StartTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	task, _ := middleware.GetTask(c)

	updated, err := h.taskService.StartTask(c.Request.Context(), task.ID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated, time.Now()))
}

// MarkDone moves the caller's task to DONE, optionally with notes
func (h *TaskHandler) MarkDone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	task, _ := middleware.GetTask(c)

	type MarkDoneRequest struct {
		Notes string `json:"notes"`
	}

	var req MarkDoneRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	updated, err := h.taskService.MarkDone(c.Request.Context(), task.ID, userID, req.Notes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated, time.Now()))
}

// RateTask completes a DONE task with a 1-5 rating
func (h *TaskHandler) RateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	task, _ := middleware.GetTask(c)

	type RateTaskRequest struct {
		Rating   *int   `json:"rating" binding:"required"`
		Feedback string `json:"feedback"`
	}

	var req RateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	rated, err := h.taskService.RateTask(c.Request.Context(), services.RateTaskInput{
		TaskID:   task.ID,
		RaterID:  userID,
		Rating:   *req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*rated, time.Now()))
}

// GenerateTasks proposes task drafts from free text. Nothing is stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	type GenerateRequest struct {
		Text string `json:"text" binding:"required,max=10000"`
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.GenerateTaskDrafts(c.Request.Context(), services.GenerateTasksInput{Text: req.Text})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]dto.GeneratedTaskDTO, len(drafts))
	for i, d := range drafts {
		out[i] = dto.GeneratedTaskDTO{
			Title:       d.Title,
			Description: d.Description,
			Priority:    d.Priority,
			DueDate:     d.DueDate,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": out,
	})
}
