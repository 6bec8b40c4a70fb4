package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/dto"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/services"
)

// ProposalHandler serves proposals and their conversion into projects.
type ProposalHandler struct {
	proposalService *services.ProposalService
}

func NewProposalHandler(proposalService *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
	}
}

// ListProposals returns the company's proposals, newest first
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	proposals, err := h.proposalService.ListProposals(company.ID)
	if err != nil {
		respondProposalError(c, err)
		return
	}

	items := make([]dto.ProposalDTO, len(proposals))
	for i, p := range proposals {
		items[i] = dto.ToProposalDTO(p)
	}

	c.JSON(http.StatusOK, gin.H{
		"proposals": items,
	})
}

// CreateProposal creates a proposal with line items
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	type CreateProposalRequest struct {
		Title      string                 `json:"title" binding:"required,max=255"`
		Status     *models.ProposalStatus `json:"status"`
		ValidUntil *string                `json:"valid_until"`
		Items      []invoiceItemRequest   `json:"items" binding:"required,min=1,dive"`
	}

	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	validUntil, ok := parseDateField(c, "valid_until", req.ValidUntil)
	if !ok {
		return
	}
	items, ok := parseItems(c, req.Items)
	if !ok {
		return
	}

	proposal, err := h.proposalService.CreateProposal(services.CreateProposalInput{
		CompanyID:  company.ID,
		Title:      req.Title,
		Status:     req.Status,
		ValidUntil: validUntil,
		Items:      items,
	})
	if err != nil {
		respondProposalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProposalDTO(*proposal))
}

// ConvertProposal accepts a proposal, creating its project and a sent invoice
func (h *ProposalHandler) ConvertProposal(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}
	proposalID, ok := parseIDParam(c, "proposal_id", "proposal")
	if !ok {
		return
	}

	result, err := h.proposalService.ConvertProposal(c.Request.Context(), company.ID, proposalID)
	if err != nil {
		respondProposalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToConversionDTO(*result))
}

func respondProposalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired):
		fieldError(c, "title", err)
	case errors.Is(err, services.ErrProposalItemsRequired),
		errors.Is(err, services.ErrInvalidInvoiceItem):
		fieldError(c, "items", err)
	case errors.Is(err, services.ErrProposalNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrProposalNotConvertible),
		errors.Is(err, services.ErrInvoiceNumberUnavailable):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
