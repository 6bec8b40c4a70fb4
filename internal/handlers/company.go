package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/dto"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/services"
)

// CompanyHandler serves company, membership and invite endpoints.
type CompanyHandler struct {
	companyService *services.CompanyService
}

func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
	}
}

// CreateCompany creates a company managed by the caller
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateCompanyRequest struct {
		Name  string `json:"name" binding:"required,max=255"`
		TaxID string `json:"tax_id" binding:"max=64"`
	}

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	company, err := h.companyService.CreateCompany(services.CreateCompanyInput{
		Name:      req.Name,
		TaxID:     req.TaxID,
		ManagerID: userID,
	})
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCompanyDTO(*company, true))
}

// ListCompanies returns all companies the user is a member of
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.companyService.ListCompaniesForUser(userID)
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	companies := make([]dto.CompanyWithRoleDTO, len(memberships))
	for i, m := range memberships {
		companies[i] = dto.ToCompanyWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
	})
}

// GetCompany returns company details with its members
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}
	member, _ := middleware.GetCompanyMember(c)

	_, members, err := h.companyService.GetCompanyWithMembers(company.ID)
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDetailDTO(company, members, member.Role))
}

// UpdateCompany updates the company name or tax ID
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	type UpdateCompanyRequest struct {
		Name  *string `json:"name" binding:"omitempty,max=255"`
		TaxID *string `json:"tax_id" binding:"omitempty,max=64"`
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	updated, err := h.companyService.UpdateCompany(company.ID, services.UpdateCompanyInput{
		Name:  req.Name,
		TaxID: req.TaxID,
	})
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(*updated, true))
}

// DeleteCompany deletes a company with its projects and invoices
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	if err := h.companyService.DeleteCompany(company.ID); err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Company deleted successfully",
	})
}

// JoinCompany allows a user to join via invite code
func (h *CompanyHandler) JoinCompany(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	company, err := h.companyService.JoinCompanyByInvite(userID, req.InviteCode)
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully joined company",
		"company": dto.ToCompanyDTO(*company, false),
	})
}

// RegenerateInviteCode issues a new invite code
func (h *CompanyHandler) RegenerateInviteCode(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	updated, err := h.companyService.RegenerateInviteCode(company.ID)
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite_code": updated.InviteCode,
	})
}

// RemoveMember removes a member from the company
func (h *CompanyHandler) RemoveMember(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	targetID, ok := parseIDParam(c, "user_id", "user")
	if !ok {
		return
	}

	if err := h.companyService.RemoveMember(company.ID, userID, targetID); err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

func respondCompanyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCompanyName):
		fieldError(c, "name", err)
	case errors.Is(err, services.ErrCompanyNotFound),
		errors.Is(err, services.ErrInvalidInviteCode),
		errors.Is(err, services.ErrCompanyMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyCompanyMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
