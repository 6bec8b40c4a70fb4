package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/dto"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/services"
	"github.com/yukikurage/agency-management-api/internal/utils"
)

// ProjectHandler serves projects, their stages and progress recalculation.
type ProjectHandler struct {
	projectService  *services.ProjectService
	progressService *services.ProgressService
}

func NewProjectHandler(projectService *services.ProjectService, progressService *services.ProgressService) *ProjectHandler {
	return &ProjectHandler{
		projectService:  projectService,
		progressService: progressService,
	}
}

// ListProjects returns a page of the company's projects, optionally filtered by status
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	input := services.ListProjectsInput{
		CompanyID:  company.ID,
		Pagination: utils.GetPaginationParams(c),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseProjectStatus(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid status filter")
			return
		}
		input.Status = &status
	}

	projects, total, err := h.projectService.ListProjects(input)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, input.Pagination, total))
}

// CreateProject creates a project in the company
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	type CreateProjectRequest struct {
		Name        string                `json:"name" binding:"required,max=255"`
		Description string                `json:"description"`
		Status      *models.ProjectStatus `json:"status"`
		Price       *decimalInput         `json:"price"`
		StartDate   *string               `json:"start_date"`
		EndDate     *string               `json:"end_date"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	price, ok := parseAmountField(c, "price", req.Price)
	if !ok {
		return
	}
	start, ok := parseDateField(c, "start_date", req.StartDate)
	if !ok {
		return
	}
	end, ok := parseDateField(c, "end_date", req.EndDate)
	if !ok {
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		CompanyID:   company.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Price:       price,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// GetProject returns the project with its stages, tasks and subtasks
func (h *ProjectHandler) GetProject(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	project, err := h.projectService.GetProject(current.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// UpdateProject partially updates a project. An empty string clears price and dates.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	type UpdateProjectRequest struct {
		Name        *string               `json:"name" binding:"omitempty,max=255"`
		Description *string               `json:"description"`
		Status      *models.ProjectStatus `json:"status"`
		Price       *decimalInput         `json:"price"`
		StartDate   *string               `json:"start_date"`
		EndDate     *string               `json:"end_date"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	price, ok := parseAmountField(c, "price", req.Price)
	if !ok {
		return
	}
	start, ok := parseDateField(c, "start_date", req.StartDate)
	if !ok {
		return
	}
	end, ok := parseDateField(c, "end_date", req.EndDate)
	if !ok {
		return
	}

	project, err := h.projectService.UpdateProject(current.ID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Price:       price,
		ClearPrice:  isClearDecimal(req.Price),
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject soft-deletes a project with its board
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	if err := h.projectService.DeleteProject(current.ID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}

// RecalculateProgress re-runs the progress cascade for the project
func (h *ProjectHandler) RecalculateProgress(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	progress, err := h.progressService.Recalculate(c.Request.Context(), current.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": current.ID,
		"progress":   progress,
	})
}

// CreateStage adds a stage to the project board
func (h *ProjectHandler) CreateStage(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	type CreateStageRequest struct {
		Name    string  `json:"name" binding:"required,max=255"`
		Order   *int    `json:"order" binding:"omitempty,min=1"`
		DueDate *string `json:"due_date"`
	}

	var req CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}

	stage, err := h.projectService.CreateStage(services.CreateStageInput{
		ProjectID: current.ID,
		Name:      req.Name,
		Order:     req.Order,
		DueDate:   due,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToStageDTO(*stage))
}

// UpdateStage renames, reorders or re-dates a stage. Its status is derived from its tasks.
func (h *ProjectHandler) UpdateStage(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	stageID, ok := parseIDParam(c, "stage_id", "stage")
	if !ok {
		return
	}

	type UpdateStageRequest struct {
		Name    *string `json:"name" binding:"omitempty,max=255"`
		Order   *int    `json:"order" binding:"omitempty,min=1"`
		DueDate *string `json:"due_date"`
	}

	var req UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}

	stage, err := h.projectService.UpdateStage(current.ID, stageID, services.UpdateStageInput{
		Name:         req.Name,
		Order:        req.Order,
		DueDate:      due,
		ClearDueDate: isClear(req.DueDate),
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStageDTO(*stage))
}

// DeleteStage removes a stage and its tasks, then recalculates progress
func (h *ProjectHandler) DeleteStage(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	stageID, ok := parseIDParam(c, "stage_id", "stage")
	if !ok {
		return
	}

	if err := h.projectService.DeleteStage(c.Request.Context(), current.ID, stageID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stage deleted successfully",
	})
}

// ListAdditionals returns the extra scope billed on the project and its sum
func (h *ProjectHandler) ListAdditionals(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	additionals, total, err := h.projectService.ListAdditionals(current.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	items := make([]dto.ProjectAdditionalDTO, len(additionals))
	for i, a := range additionals {
		items[i] = dto.ToProjectAdditionalDTO(a)
	}

	c.JSON(http.StatusOK, gin.H{
		"additionals": items,
		"total":       money.Format(total),
	})
}

// CreateAdditional records extra scope. It raises the project's invoicing budget.
func (h *ProjectHandler) CreateAdditional(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	type CreateAdditionalRequest struct {
		Description string       `json:"description" binding:"required,max=255"`
		Amount      decimalInput `json:"amount" binding:"required"`
	}

	var req CreateAdditionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	amount, ok := parseAmountField(c, "amount", &req.Amount)
	if !ok {
		return
	}
	if amount == nil {
		fieldError(c, "amount", services.ErrInvalidAdditionalAmount)
		return
	}

	additional, err := h.projectService.AddAdditional(current.ID, req.Description, *amount)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectAdditionalDTO(*additional))
}

func (h *ProjectHandler) DeleteAdditional(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	additionalID, ok := parseIDParam(c, "additional_id", "additional")
	if !ok {
		return
	}

	if err := h.projectService.DeleteAdditional(current.ID, additionalID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Additional deleted successfully",
	})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrNameEmpty):
		fieldError(c, "name", err)
	case errors.Is(err, services.ErrInvalidDateRange):
		fieldError(c, "end_date", err)
	case errors.Is(err, services.ErrNegativePrice):
		fieldError(c, "price", err)
	case errors.Is(err, services.ErrInvalidStageOrder):
		fieldError(c, "order", err)
	case errors.Is(err, services.ErrDescriptionRequired):
		fieldError(c, "description", err)
	case errors.Is(err, services.ErrInvalidAdditionalAmount):
		fieldError(c, "amount", err)
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrProjectAdditionalMissing):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
