package dto

import (
	"time"

	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/utils"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	CompanyID   uint64               `json:"company_id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Progress    int                  `json:"progress"`
	Price       *string              `json:"price"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Stages      []StageDTO           `json:"stages,omitempty"`
}

// StageDTO represents a stage of a project board
type StageDTO struct {
	ID        uint64             `json:"id"`
	ProjectID uint64             `json:"project_id"`
	Name      string             `json:"name"`
	Order     int                `json:"order"`
	Status    models.StageStatus `json:"status"`
	DueDate   *time.Time         `json:"due_date"`
	Tasks     []TaskDTO          `json:"tasks"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	StageID     uint64              `json:"stage_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	Weight      string              `json:"weight"`
	IsCompleted bool                `json:"is_completed"`
	DueDate     *time.Time          `json:"due_date"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Subtasks    []SubtaskDTO        `json:"subtasks"`
}

// SubtaskDTO represents a checklist item of a task
type SubtaskDTO struct {
	ID          uint64     `json:"id"`
	TaskID      uint64     `json:"task_id"`
	Name        string     `json:"name"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// Conversion functions

// ToProjectDTO converts a Project model to ProjectDTO, including stages when loaded
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		CompanyID:   project.CompanyID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		Progress:    project.Progress,
		StartDate:   project.StartDate,
		EndDate:     project.EndDate,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if project.Price.Valid {
		price := money.Format(project.Price.Decimal)
		dto.Price = &price
	}

	if len(project.Stages) > 0 {
		dto.Stages = make([]StageDTO, len(project.Stages))
		for i, stage := range project.Stages {
			dto.Stages[i] = ToStageDTO(stage)
		}
	}

	return dto
}

// ToStageDTO converts a Stage model to StageDTO
func ToStageDTO(stage models.Stage) StageDTO {
	dto := StageDTO{
		ID:        stage.ID,
		ProjectID: stage.ProjectID,
		Name:      stage.Name,
		Order:     stage.Order,
		Status:    stage.Status,
		DueDate:   stage.DueDate,
		Tasks:     make([]TaskDTO, len(stage.Tasks)),
	}
	for i, task := range stage.Tasks {
		dto.Tasks[i] = ToTaskDTO(task)
	}
	return dto
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		StageID:     task.StageID,
		Name:        task.Name,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Weight:      money.Format(task.Weight),
		IsCompleted: task.IsCompleted(),
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Subtasks:    make([]SubtaskDTO, len(task.Subtasks)),
	}
	for i, subtask := range task.Subtasks {
		dto.Subtasks[i] = ToSubtaskDTO(subtask)
	}
	return dto
}

// ToSubtaskDTO converts a Subtask model to SubtaskDTO
func ToSubtaskDTO(subtask models.Subtask) SubtaskDTO {
	return SubtaskDTO{
		ID:          subtask.ID,
		TaskID:      subtask.TaskID,
		Name:        subtask.Name,
		IsCompleted: subtask.IsCompleted,
		DueDate:     subtask.DueDate,
	}
}

// ToProjectListResponse converts a page of projects to ProjectListResponse
func ToProjectListResponse(projects []models.Project, params utils.PaginationParams, total int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}

	return ProjectListResponse{
		Projects:   items,
		Pagination: params.Response(total),
	}
}
