package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/dto"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/services"
)

// TaskHandler serves tasks, subtasks and AI task suggestions.
type TaskHandler struct {
	taskService *services.TaskService
	log         *logger.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// CreateTask adds a task to a stage
func (h *TaskHandler) CreateTask(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	stageID, ok := parseIDParam(c, "stage_id", "stage")
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Name        string               `json:"name" binding:"required,max=255"`
		Description string               `json:"description"`
		Priority    *models.TaskPriority `json:"priority"`
		Weight      *decimalInput        `json:"weight"`
		DueDate     *string              `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	weight, ok := parseAmountField(c, "weight", req.Weight)
	if !ok {
		return
	}
	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		ProjectID:   project.ID,
		StageID:     stageID,
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Weight:      weight,
		DueDate:     due,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask partially updates a task. is_completed wins over status when both are sent.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	taskID, ok := parseIDParam(c, "task_id", "task")
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Name        *string              `json:"name" binding:"omitempty,max=255"`
		Description *string              `json:"description"`
		Status      *models.TaskStatus   `json:"status"`
		Priority    *models.TaskPriority `json:"priority"`
		IsCompleted *bool                `json:"is_completed"`
		DueDate     *string              `json:"due_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), project.ID, taskID, services.UpdateTaskInput{
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		IsCompleted:  req.IsCompleted,
		DueDate:      due,
		ClearDueDate: isClear(req.DueDate),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a task and recalculates progress
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	taskID, ok := parseIDParam(c, "task_id", "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), project.ID, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// CreateSubtask adds a checklist item to a task
func (h *TaskHandler) CreateSubtask(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	taskID, ok := parseIDParam(c, "task_id", "task")
	if !ok {
		return
	}

	type CreateSubtaskRequest struct {
		Name    string  `json:"name" binding:"required,max=255"`
		DueDate *string `json:"due_date"`
	}

	var req CreateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}

	subtask, err := h.taskService.CreateSubtask(c.Request.Context(), services.CreateSubtaskInput{
		ProjectID: project.ID,
		TaskID:    taskID,
		Name:      req.Name,
		DueDate:   due,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSubtaskDTO(*subtask))
}

// UpdateSubtask renames or ticks a subtask
func (h *TaskHandler) UpdateSubtask(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	subtaskID, ok := parseIDParam(c, "subtask_id", "subtask")
	if !ok {
		return
	}

	type UpdateSubtaskRequest struct {
		Name        *string `json:"name" binding:"omitempty,max=255"`
		IsCompleted *bool   `json:"is_completed"`
		DueDate     *string `json:"due_date"`
	}

	var req UpdateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}

	subtask, err := h.taskService.UpdateSubtask(c.Request.Context(), project.ID, subtaskID, services.UpdateSubtaskInput{
		Name:         req.Name,
		IsCompleted:  req.IsCompleted,
		DueDate:      due,
		ClearDueDate: isClear(req.DueDate),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSubtaskDTO(*subtask))
}

// DeleteSubtask removes a subtask and recalculates progress
func (h *TaskHandler) DeleteSubtask(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	subtaskID, ok := parseIDParam(c, "subtask_id", "subtask")
	if !ok {
		return
	}

	if err := h.taskService.DeleteSubtask(c.Request.Context(), project.ID, subtaskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Subtask deleted successfully",
	})
}

// GenerateTasks asks the AI for task suggestions for a stage. Nothing is saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	stageID, ok := parseIDParam(c, "stage_id", "stage")
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Brief string `json:"brief" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), services.SuggestTasksInput{
		ProjectID: project.ID,
		StageID:   stageID,
		Brief:     req.Brief,
	})
	if err != nil {
		if !errors.Is(err, services.ErrAIServiceNotConfigured) && !errors.Is(err, services.ErrStageNotFound) {
			h.log.Warn("task generation failed", "project_id", project.ID, "stage_id", stageID, "error", err)
		}
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": suggestions,
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrNameEmpty):
		fieldError(c, "name", err)
	case errors.Is(err, services.ErrInvalidTaskWeight):
		fieldError(c, "weight", err)
	case errors.Is(err, services.ErrBriefRequired):
		fieldError(c, "brief", err)
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrSubtaskNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.RespondWithError(c, http.StatusBadGateway, apierrors.NewAPIError(apierrors.ErrCodeOperationFailed, err.Error()))
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
