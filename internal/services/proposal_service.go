package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProposalNotFound       = errors.New("proposal not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrProposalItemsRequired  = errors.New("at least one proposal item is required")
	ErrProposalNotConvertible = errors.New("only draft or sent proposals can be converted")
)

// ProposalService handles proposals and their conversion into projects.
type ProposalService struct {
	proposalRepo repository.ProposalRepository
	invoices     *InvoiceService
	publisher    events.Publisher
	log          *logger.Logger
}

// NewProposalService creates a new ProposalService.
func NewProposalService(
	proposalRepo repository.ProposalRepository,
	invoices *InvoiceService,
	publisher events.Publisher,
	log *logger.Logger,
) *ProposalService {
	return &ProposalService{
		proposalRepo: proposalRepo,
		invoices:     invoices,
		publisher:    publisher,
		log:          log.With("service", "ProposalService"),
	}
}

// CreateProposalInput represents input for creating a proposal
type CreateProposalInput struct {
	CompanyID  uint64
	Title      string
	Status     *models.ProposalStatus
	ValidUntil *time.Time
	Items      []InvoiceItemInput
}

// ConversionResult is what a converted proposal produced.
type ConversionResult struct {
	Proposal *models.Proposal
	Project  *models.Project
	Invoice  *models.Invoice
}

// CreateProposal creates a draft proposal whose total is the sum of its items.
func (s *ProposalService) CreateProposal(input CreateProposalInput) (*models.Proposal, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(input.Items) == 0 {
		return nil, ErrProposalItemsRequired
	}

	lines, total, err := buildInvoiceItems(input.Items)
	if err != nil {
		return nil, err
	}

	items := make([]models.ProposalItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.ProposalItem{
			Description: line.Description,
			Quantity:    line.Quantity,
			Price:       line.Price,
			Total:       line.Total,
		})
	}

	proposal := &models.Proposal{
		CompanyID:  input.CompanyID,
		Title:      title,
		Total:      total,
		Status:     models.ProposalStatusDraft,
		ValidUntil: input.ValidUntil,
		Items:      items,
	}
	if input.Status != nil {
		proposal.Status = *input.Status
	}

	if err := s.proposalRepo.Create(proposal); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}
	return proposal, nil
}

// ListProposals lists a company's proposals, newest first.
func (s *ProposalService) ListProposals(companyID uint64) ([]models.Proposal, error) {
	proposals, err := s.proposalRepo.ListByCompany(companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return proposals, nil
}

// ConvertProposal accepts a proposal and, in one transaction, creates an active
// project priced at the proposal total and a sent invoice with the proposal's items.
func (s *ProposalService) ConvertProposal(ctx context.Context, companyID, proposalID uint64) (*ConversionResult, error) {
	proposal, err := s.proposalRepo.FindInCompany(companyID, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to find proposal: %w", err)
	}
	if !proposal.Status.Convertible() {
		return nil, ErrProposalNotConvertible
	}

	today := s.invoices.today()
	project := &models.Project{
		CompanyID: companyID,
		Name:      proposal.Title,
		Status:    models.ProjectStatusActive,
		Price:     decimal.NewNullDecimal(money.Round2(proposal.Total)),
		StartDate: &today,
	}

	items := make([]models.InvoiceItem, 0, len(proposal.Items))
	for _, item := range proposal.Items {
		items = append(items, models.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		})
	}
	invoice := &models.Invoice{
		CompanyID:  companyID,
		Date:       today,
		DueDate:    s.invoices.DueDateFor(today),
		Status:     models.InvoiceStatusSent,
		Total:      money.Round2(proposal.Total),
		BalanceDue: money.Round2(proposal.Total),
		Currency:   s.invoices.opts.Currency,
		Notes:      fmt.Sprintf("Proposal: %s", proposal.Title),
		Items:      items,
	}

	err = s.invoices.withNumber(invoice, func() error {
		project.ID = 0
		for i := range invoice.Items {
			invoice.Items[i].ID = 0
		}
		return s.proposalRepo.Convert(proposal.ID, project, invoice)
	})
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotConvertible) {
			return nil, ErrProposalNotConvertible
		}
		return nil, err
	}

	proposal.Status = models.ProposalStatusAccepted
	proposal.ProjectID = &project.ID

	s.log.Info("proposal converted",
		"proposal_id", proposal.ID,
		"project_id", project.ID,
		"invoice_id", invoice.ID,
		"number", invoice.Number,
	)
	events.PublishAfterCommit(ctx, s.publisher, s.log,
		events.NewInvoiceStatusChanged(invoice.ID, models.InvoiceStatusDraft, models.InvoiceStatusSent))

	return &ConversionResult{Proposal: proposal, Project: project, Invoice: invoice}, nil
}
