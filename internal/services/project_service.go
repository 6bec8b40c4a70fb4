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
	"github.com/yukikurage/agency-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrNameEmpty         = errors.New("name cannot be empty")
	ErrInvalidDateRange  = errors.New("end date must not be before start date")
	ErrNegativePrice     = errors.New("price cannot be negative")
	ErrStageNotFound     = errors.New("stage not found")
	ErrInvalidStageOrder = errors.New("stage order must be positive")

	ErrDescriptionRequired      = errors.New("description is required")
	ErrInvalidAdditionalAmount  = errors.New("amount must be at least 0.01")
	ErrProjectAdditionalMissing = errors.New("project additional not found")
)

// ProjectService handles projects and their stages.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	progress    *ProgressService
	log         *logger.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, progress *ProgressService, log *logger.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		progress:    progress,
		log:         log.With("service", "ProjectService"),
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	CompanyID   uint64
	Name        string
	Description string
	Status      *models.ProjectStatus
	Price       *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
}

// UpdateProjectInput represents input for updating a project. Nil fields are left unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
	Price       *decimal.Decimal
	ClearPrice  bool
	StartDate   *time.Time
	EndDate     *time.Time
}

// ListProjectsInput represents filters for listing a company's projects
type ListProjectsInput struct {
	CompanyID  uint64
	Status     *models.ProjectStatus
	Pagination utils.PaginationParams
}

// CreateProject creates an active project with no progress.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	project := &models.Project{
		CompanyID:   input.CompanyID,
		Name:        name,
		Description: input.Description,
		Status:      models.ProjectStatusActive,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		project.Price = decimal.NewNullDecimal(money.Round2(*input.Price))
	}
	if err := validateDateRange(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info("project created", "project_id", project.ID, "company_id", project.CompanyID)
	return project, nil
}

// ListProjects lists a company's projects, newest first.
func (s *ProjectService) ListProjects(input ListProjectsInput) ([]models.Project, int64, error) {
	projects, total, err := s.projectRepo.List(repository.ProjectFilter{
		CompanyID:  input.CompanyID,
		Status:     input.Status,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// GetProject returns a project with its full board.
func (s *ProjectService) GetProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindTree(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// UpdateProject updates the editable project fields. Progress is never touched here.
func (s *ProjectService) UpdateProject(projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameEmpty
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.ClearPrice {
		project.Price = decimal.NullDecimal{}
	} else if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		project.Price = decimal.NewNullDecimal(money.Round2(*input.Price))
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if err := validateDateRange(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.GetProject(projectID)
}

// DeleteProject removes a project and its board.
func (s *ProjectService) DeleteProject(projectID uint64) error {
	if _, err := s.findProject(projectID); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.log.Info("project deleted", "project_id", projectID)
	return nil
}

// CreateStageInput represents input for creating a stage
type CreateStageInput struct {
	ProjectID uint64
	Name      string
	Order     *int
	DueDate   *time.Time
}

// UpdateStageInput represents input for updating a stage. Nil fields are left unchanged.
type UpdateStageInput struct {
	Name         *string
	Order        *int
	DueDate      *time.Time
	ClearDueDate bool
}

// CreateStage appends a pending stage to the project board.
func (s *ProjectService) CreateStage(input CreateStageInput) (*models.Stage, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	stage := &models.Stage{
		ProjectID: input.ProjectID,
		Name:      name,
		Status:    models.StageStatusPending,
		DueDate:   input.DueDate,
	}

	if input.Order != nil {
		if *input.Order < 1 {
			return nil, ErrInvalidStageOrder
		}
		stage.Order = *input.Order
	} else {
		count, err := s.projectRepo.CountStages(input.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to count stages: %w", err)
		}
		stage.Order = int(count) + 1
	}

	if err := s.projectRepo.CreateStage(stage); err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}
	return stage, nil
}

// UpdateStage updates a stage's name, order and due date. Its status is derived from its tasks.
func (s *ProjectService) UpdateStage(projectID, stageID uint64, input UpdateStageInput) (*models.Stage, error) {
	stage, err := s.findStage(projectID, stageID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameEmpty
		}
		stage.Name = name
	}
	if input.Order != nil {
		if *input.Order < 1 {
			return nil, ErrInvalidStageOrder
		}
		stage.Order = *input.Order
	}
	if input.ClearDueDate {
		stage.DueDate = nil
	} else if input.DueDate != nil {
		stage.DueDate = input.DueDate
	}

	if err := s.projectRepo.UpdateStage(stage); err != nil {
		return nil, fmt.Errorf("failed to update stage: %w", err)
	}
	return stage, nil
}

// DeleteStage removes a stage with its tasks and recalculates the project in the same transaction.
func (s *ProjectService) DeleteStage(ctx context.Context, projectID, stageID uint64) error {
	if _, err := s.findStage(projectID, stageID); err != nil {
		return err
	}

	_, err := s.progress.ApplyChange(ctx, projectID, func(tx repository.BoardTx) error {
		if err := tx.Projects().DeleteStage(stageID); err != nil {
			return fmt.Errorf("failed to delete stage: %w", err)
		}
		return nil
	})
	return err
}

// AddAdditional records extra scope billed on top of the project price.
// Additionals raise the project's invoicing budget.
func (s *ProjectService) AddAdditional(projectID uint64, description string, amount decimal.Decimal) (*models.ProjectAdditional, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	amount = money.Round2(amount)
	if amount.LessThan(decimal.RequireFromString(constants.MinAdditionalAmount)) {
		return nil, ErrInvalidAdditionalAmount
	}

	additional := &models.ProjectAdditional{
		ProjectID:   projectID,
		Description: description,
		Amount:      amount,
	}
	if err := s.projectRepo.CreateAdditional(additional); err != nil {
		return nil, fmt.Errorf("failed to create project additional: %w", err)
	}

	s.log.Info("project additional added", "project_id", projectID, "additional_id", additional.ID, "amount", money.Format(amount))
	return additional, nil
}

// ListAdditionals returns the project's additionals and their sum.
func (s *ProjectService) ListAdditionals(projectID uint64) ([]models.ProjectAdditional, decimal.Decimal, error) {
	additionals, err := s.projectRepo.ListAdditionals(projectID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to list project additionals: %w", err)
	}
	amounts := make([]decimal.Decimal, len(additionals))
	for i, a := range additionals {
		amounts[i] = a.Amount
	}
	return additionals, money.Round2(money.Sum(amounts...)), nil
}

func (s *ProjectService) DeleteAdditional(projectID, additionalID uint64) error {
	if _, err := s.projectRepo.FindAdditional(projectID, additionalID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectAdditionalMissing
		}
		return fmt.Errorf("failed to find project additional: %w", err)
	}
	if err := s.projectRepo.DeleteAdditional(additionalID); err != nil {
		return fmt.Errorf("failed to delete project additional: %w", err)
	}
	s.log.Info("project additional deleted", "project_id", projectID, "additional_id", additionalID)
	return nil
}

func (s *ProjectService) findProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) findStage(projectID, stageID uint64) (*models.Stage, error) {
	stage, err := s.projectRepo.FindStage(projectID, stageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to find stage: %w", err)
	}
	return stage, nil
}

func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}
