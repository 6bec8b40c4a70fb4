package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/testutil"
)

type ProposalServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	service  *ProposalService
	invoices *InvoiceService
	company  *models.Company
}

func (s *ProposalServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	log := logger.NewNop()
	publisher := newMockPublisher()

	s.invoices = NewInvoiceService(
		repository.NewInvoiceRepository(s.db),
		repository.NewProjectRepository(s.db),
		publisher,
		InvoiceOptions{DueDays: 14, Currency: "EUR"},
		log,
	)
	s.invoices.now = func() time.Time { return time.Date(2026, time.May, 20, 9, 0, 0, 0, time.UTC) }
	s.service = NewProposalService(repository.NewProposalRepository(s.db), s.invoices, publisher, log)
	s.company = testutil.CreateCompany(s.T(), s.db, "Acme")
}

func (s *ProposalServiceTestSuite) createProposal() *models.Proposal {
	proposal, err := s.service.CreateProposal(CreateProposalInput{
		CompanyID: s.company.ID,
		Title:     "Brand refresh",
		Items:     items("1", "1200.00", "3", "100.00"),
	})
	s.Require().NoError(err)
	return proposal
}

func (s *ProposalServiceTestSuite) TestCreateProposal() {
	proposal := s.createProposal()
	s.Equal(models.ProposalStatusDraft, proposal.Status)
	s.Equal("1500.00", money.Format(proposal.Total))
	s.Len(proposal.Items, 2)

	_, err := s.service.CreateProposal(CreateProposalInput{CompanyID: s.company.ID, Title: " ", Items: items("1", "1.00")})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.service.CreateProposal(CreateProposalInput{CompanyID: s.company.ID, Title: "Empty"})
	s.ErrorIs(err, ErrProposalItemsRequired)
}

func (s *ProposalServiceTestSuite) TestConvertProposal_CreatesProjectAndSentInvoice() {
	proposal := s.createProposal()

	result, err := s.service.ConvertProposal(context.Background(), s.company.ID, proposal.ID)
	s.Require().NoError(err)

	s.Equal(models.ProposalStatusAccepted, result.Proposal.Status)
	s.Equal("Brand refresh", result.Project.Name)
	s.Equal(models.ProjectStatusActive, result.Project.Status)
	s.True(result.Project.Price.Valid)
	s.Equal("1500.00", money.Format(result.Project.Price.Decimal))

	s.Equal("INV-2026-0001", result.Invoice.Number)
	s.Equal(models.InvoiceStatusSent, result.Invoice.Status)
	s.Equal("1500.00", money.Format(result.Invoice.BalanceDue))
	s.Equal("EUR", result.Invoice.Currency)
	s.Equal(testutil.Date(2026, time.June, 3), result.Invoice.DueDate)
	s.Require().NotNil(result.Invoice.ProjectID)
	s.Equal(result.Project.ID, *result.Invoice.ProjectID)

	stored, err := s.invoices.GetInvoice(s.company.ID, result.Invoice.ID)
	s.Require().NoError(err)
	s.Len(stored.Items, 2)

	var reloaded models.Proposal
	s.Require().NoError(s.db.First(&reloaded, proposal.ID).Error)
	s.Equal(models.ProposalStatusAccepted, reloaded.Status)
	s.Require().NotNil(reloaded.ProjectID)
	s.Equal(result.Project.ID, *reloaded.ProjectID)
}

func (s *ProposalServiceTestSuite) TestConvertProposal_OnlyOnce() {
	proposal := s.createProposal()

	_, err := s.service.ConvertProposal(context.Background(), s.company.ID, proposal.ID)
	s.Require().NoError(err)

	_, err = s.service.ConvertProposal(context.Background(), s.company.ID, proposal.ID)
	s.ErrorIs(err, ErrProposalNotConvertible)

	var projects, invoices int64
	s.Require().NoError(s.db.Model(&models.Project{}).Count(&projects).Error)
	s.Require().NoError(s.db.Model(&models.Invoice{}).Count(&invoices).Error)
	s.Equal(int64(1), projects)
	s.Equal(int64(1), invoices)
}

func (s *ProposalServiceTestSuite) TestConvertProposal_RejectedStatusAndOtherCompany() {
	proposal := s.createProposal()
	s.Require().NoError(s.db.Model(proposal).Update("status", models.ProposalStatusRejected).Error)

	_, err := s.service.ConvertProposal(context.Background(), s.company.ID, proposal.ID)
	s.ErrorIs(err, ErrProposalNotConvertible)

	other := testutil.CreateCompany(s.T(), s.db, "Globex")
	_, err = s.service.ConvertProposal(context.Background(), other.ID, proposal.ID)
	s.ErrorIs(err, ErrProposalNotFound)
}

func TestProposalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProposalServiceTestSuite))
}
