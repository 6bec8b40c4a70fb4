package dto

import (
	"time"

	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/services"
)

// ProposalDTO represents a proposal in API responses
type ProposalDTO struct {
	ID         uint64                `json:"id"`
	CompanyID  uint64                `json:"company_id"`
	ProjectID  *uint64               `json:"project_id"`
	Title      string                `json:"title"`
	Total      string                `json:"total"`
	Status     models.ProposalStatus `json:"status"`
	ValidUntil *string               `json:"valid_until"`
	CreatedAt  time.Time             `json:"created_at"`
	Items      []InvoiceItemDTO      `json:"items,omitempty"`
}

// ConversionDTO is returned when a proposal becomes a project
type ConversionDTO struct {
	Proposal ProposalDTO `json:"proposal"`
	Project  ProjectDTO  `json:"project"`
	Invoice  InvoiceDTO  `json:"invoice"`
}

// ToProposalDTO converts a Proposal model to ProposalDTO
func ToProposalDTO(proposal models.Proposal) ProposalDTO {
	dto := ProposalDTO{
		ID:        proposal.ID,
		CompanyID: proposal.CompanyID,
		ProjectID: proposal.ProjectID,
		Title:     proposal.Title,
		Total:     money.Format(proposal.Total),
		Status:    proposal.Status,
		CreatedAt: proposal.CreatedAt,
	}
	if proposal.ValidUntil != nil {
		v := proposal.ValidUntil.Format(constants.DateLayout)
		dto.ValidUntil = &v
	}

	if len(proposal.Items) > 0 {
		dto.Items = make([]InvoiceItemDTO, len(proposal.Items))
		for i, item := range proposal.Items {
			dto.Items[i] = InvoiceItemDTO{
				ID:          item.ID,
				Description: item.Description,
				Quantity:    money.Format(item.Quantity),
				Price:       money.Format(item.Price),
				Total:       money.Format(item.Total),
			}
		}
	}

	return dto
}

// ToConversionDTO converts a conversion result to DTO
func ToConversionDTO(result services.ConversionResult) ConversionDTO {
	return ConversionDTO{
		Proposal: ToProposalDTO(*result.Proposal),
		Project:  ToProjectDTO(*result.Project),
		Invoice:  ToInvoiceDTO(*result.Invoice),
	}
}
