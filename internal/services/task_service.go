package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrSubtaskNotFound        = errors.New("subtask not found")
	ErrInvalidTaskWeight      = errors.New("weight must be between 0.01 and 100")
	ErrBriefRequired          = errors.New("brief is required")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

var (
	minTaskWeight     = decimal.RequireFromString(constants.MinTaskWeight)
	maxTaskWeight     = decimal.RequireFromString(constants.MaxTaskWeight)
	defaultTaskWeight = decimal.RequireFromString(constants.DefaultTaskWeight)
)

// TaskService handles tasks and subtasks. Every change commits together with a
// progress recalculation of the owning project.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	progress    *ProgressService
	generator   TaskGenerator
	log         *logger.Logger
}

// NewTaskService creates a new TaskService. generator may be nil when no AI key is configured.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	progress *ProgressService,
	generator TaskGenerator,
	log *logger.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		progress:    progress,
		generator:   generator,
		log:         log.With("service", "TaskService"),
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	StageID     uint64
	Name        string
	Description string
	Priority    *models.TaskPriority
	Weight      *decimal.Decimal
	DueDate     *time.Time
}

// UpdateTaskInput represents input for updating a task.
// IsCompleted, when set, wins over Status: true completes the task, false resets it to pending.
type UpdateTaskInput struct {
	Name         *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	IsCompleted  *bool
	DueDate      *time.Time
	ClearDueDate bool
}

// CreateTask creates a pending task in a stage of the project.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	weight, err := taskWeight(input.Weight)
	if err != nil {
		return nil, err
	}

	if _, err := s.projectRepo.FindStage(input.ProjectID, input.StageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to find stage: %w", err)
	}

	task := &models.Task{
		StageID:     input.StageID,
		Name:        name,
		Description: input.Description,
		Status:      models.TaskStatusPending,
		Priority:    models.TaskPriorityMedium,
		Weight:      weight,
		DueDate:     input.DueDate,
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}

	if _, err := s.progress.ApplyChange(ctx, input.ProjectID, func(tx repository.BoardTx) error {
		if err := tx.Tasks().Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.findTask(input.ProjectID, task.ID)
}

// UpdateTask updates an existing task. Weight cannot be changed.
func (s *TaskService) UpdateTask(ctx context.Context, projectID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(projectID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameEmpty
		}
		task.Name = name
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.IsCompleted != nil {
		if *input.IsCompleted {
			task.Status = models.TaskStatusCompleted
		} else {
			task.Status = models.TaskStatusPending
		}
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if _, err := s.progress.ApplyChange(ctx, projectID, func(tx repository.BoardTx) error {
		if err := tx.Tasks().Update(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// The cascade may have rewritten the status.
	return s.findTask(projectID, task.ID)
}

// DeleteTask deletes a task with its subtasks.
func (s *TaskService) DeleteTask(ctx context.Context, projectID, taskID uint64) error {
	if _, err := s.findTask(projectID, taskID); err != nil {
		return err
	}

	_, err := s.progress.ApplyChange(ctx, projectID, func(tx repository.BoardTx) error {
		if err := tx.Tasks().Delete(taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
	return err
}

// CreateSubtaskInput represents input for creating a subtask
type CreateSubtaskInput struct {
	ProjectID uint64
	TaskID    uint64
	Name      string
	DueDate   *time.Time
}

// UpdateSubtaskInput represents input for updating a subtask
type UpdateSubtaskInput struct {
	Name         *string
	IsCompleted  *bool
	DueDate      *time.Time
	ClearDueDate bool
}

// CreateSubtask adds an open subtask to a task of the project.
func (s *TaskService) CreateSubtask(ctx context.Context, input CreateSubtaskInput) (*models.Subtask, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if _, err := s.findTask(input.ProjectID, input.TaskID); err != nil {
		return nil, err
	}

	subtask := &models.Subtask{
		TaskID:  input.TaskID,
		Name:    name,
		DueDate: input.DueDate,
	}
	if _, err := s.progress.ApplyChange(ctx, input.ProjectID, func(tx repository.BoardTx) error {
		if err := tx.Tasks().CreateSubtask(subtask); err != nil {
			return fmt.Errorf("failed to create subtask: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return subtask, nil
}

// UpdateSubtask updates a subtask; completing the last open one completes its task.
func (s *TaskService) UpdateSubtask(ctx context.Context, projectID, subtaskID uint64, input UpdateSubtaskInput) (*models.Subtask, error) {
	subtask, err := s.findSubtask(projectID, subtaskID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameEmpty
		}
		subtask.Name = name
	}
	if input.IsCompleted != nil {
		subtask.IsCompleted = *input.IsCompleted
	}
	if input.ClearDueDate {
		subtask.DueDate = nil
	} else if input.DueDate != nil {
		subtask.DueDate = input.DueDate
	}

	if _, err := s.progress.ApplyChange(ctx, projectID, func(tx repository.BoardTx) error {
		if err := tx.Tasks().UpdateSubtask(subtask); err != nil {
			return fmt.Errorf("failed to update subtask: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return subtask, nil
}

// DeleteSubtask deletes a subtask.
func (s *TaskService) DeleteSubtask(ctx context.Context, projectID, subtaskID uint64) error {
	if _, err := s.findSubtask(projectID, subtaskID); err != nil {
		return err
	}

	_, err := s.progress.ApplyChange(ctx, projectID, func(tx repository.BoardTx) error {
		if err := tx.Tasks().DeleteSubtask(subtaskID); err != nil {
			return fmt.Errorf("failed to delete subtask: %w", err)
		}
		return nil
	})
	return err
}

// SuggestTasksInput represents input for AI task suggestions
type SuggestTasksInput struct {
	ProjectID uint64
	StageID   uint64
	Brief     string
}

// SuggestTasks asks the generator for task suggestions for a stage. Nothing is persisted.
func (s *TaskService) SuggestTasks(ctx context.Context, input SuggestTasksInput) ([]GeneratedTask, error) {
	if s.generator == nil {
		return nil, ErrAIServiceNotConfigured
	}
	brief := strings.TrimSpace(input.Brief)
	if brief == "" {
		return nil, ErrBriefRequired
	}

	stage, err := s.projectRepo.FindStage(input.ProjectID, input.StageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to find stage: %w", err)
	}

	aiTasks, err := s.generator.GenerateTasksFromBrief(ctx, stage.Name, brief)
	if err != nil {
		s.log.Warn("task generation failed", "stage_id", stage.ID, "error", err)
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Name = strings.TrimSpace(aiTask.Name)
		if aiTask.Name == "" {
			continue
		}

		if !models.TaskPriority(aiTask.Priority).Valid() {
			aiTask.Priority = string(models.TaskPriorityMedium)
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

func (s *TaskService) findTask(projectID, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindInProject(projectID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findSubtask(projectID, subtaskID uint64) (*models.Subtask, error) {
	subtask, err := s.taskRepo.FindSubtaskInProject(projectID, subtaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("failed to find subtask: %w", err)
	}
	return subtask, nil
}

// taskWeight validates an optional weight, defaulting to 1.00.
func taskWeight(w *decimal.Decimal) (decimal.Decimal, error) {
	if w == nil {
		return defaultTaskWeight, nil
	}
	weight := money.Round2(*w)
	if weight.LessThan(minTaskWeight) || weight.GreaterThan(maxTaskWeight) {
		return decimal.Zero, ErrInvalidTaskWeight
	}
	return weight, nil
}
