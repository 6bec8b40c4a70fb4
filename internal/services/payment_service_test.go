package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/ledger"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/testutil"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	publisher *mockPublisher
	service   *PaymentService
	company   *models.Company
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.publisher = newMockPublisher()
	s.service = s.newService(ledger.Options{})
	s.company = testutil.CreateCompany(s.T(), s.db, "Acme")
}

func (s *PaymentServiceTestSuite) newService(opts ledger.Options) *PaymentService {
	return NewPaymentService(
		repository.NewLedgerRepository(s.db),
		repository.NewInvoiceRepository(s.db),
		s.publisher,
		opts,
		logger.NewNop(),
	)
}

func (s *PaymentServiceTestSuite) pay(invoiceID uint64, amount string) (*PaymentResult, error) {
	return s.service.RegisterPayment(context.Background(), invoiceID, RegisterPaymentInput{
		CompanyID:   s.company.ID,
		Amount:      testutil.Dec(amount),
		PaymentDate: timePtr(testutil.Date(2026, time.March, 1)),
		Method:      "bank_transfer",
	})
}

func (s *PaymentServiceTestSuite) reload(id uint64) models.Invoice {
	var invoice models.Invoice
	s.Require().NoError(s.db.First(&invoice, id).Error)
	return invoice
}

func (s *PaymentServiceTestSuite) paymentCount(id uint64) int64 {
	var count int64
	s.Require().NoError(s.db.Model(&models.Payment{}).Where("invoice_id = ?", id).Count(&count).Error)
	return count
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_PartialThenFull() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "100.00")

	result, err := s.pay(invoice.ID, "30.00")
	s.Require().NoError(err)
	s.Equal("70.00", money.Format(result.NewBalance))
	s.Equal(models.InvoiceStatusSent, result.Status)
	s.False(result.Overpaid)

	result, err = s.pay(invoice.ID, "70.00")
	s.Require().NoError(err)
	s.Equal("0.00", money.Format(result.NewBalance))
	s.Equal(models.InvoiceStatusPaid, result.Status)

	stored := s.reload(invoice.ID)
	s.Equal(models.InvoiceStatusPaid, stored.Status)
	s.True(stored.BalanceDue.IsZero())
	s.Equal(int64(2), s.paymentCount(invoice.ID))
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_OverpaymentClampsToZero() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "50.00")

	result, err := s.pay(invoice.ID, "60.00")
	s.Require().NoError(err)
	s.Equal("0.00", money.Format(result.NewBalance))
	s.Equal(models.InvoiceStatusPaid, result.Status)
	s.True(result.Overpaid)
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_TenDimesPayADollar() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "1.00")

	var result *PaymentResult
	var err error
	for i := 0; i < 10; i++ {
		result, err = s.pay(invoice.ID, "0.10")
		s.Require().NoError(err)
	}
	s.Equal("0.00", money.Format(result.NewBalance))
	s.Equal(models.InvoiceStatusPaid, result.Status)
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_DraftBecomesSent() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusDraft, "100.00")

	result, err := s.pay(invoice.ID, "10.00")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusSent, result.Status)
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_MarkPartial() {
	s.service = s.newService(ledger.Options{MarkPartial: true})
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "100.00")

	result, err := s.pay(invoice.ID, "40.00")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPartial, result.Status)

	result, err = s.pay(invoice.ID, "60.00")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPaid, result.Status)
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_OverdueStaysOverdueUntilPaid() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusOverdue, "100.00")

	result, err := s.pay(invoice.ID, "25.00")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusOverdue, result.Status)
	s.Equal("75.00", money.Format(result.NewBalance))
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_RejectsBeforeWriting() {
	sent := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "100.00")
	void := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0002", models.InvoiceStatusVoid, "100.00")
	cancelled := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0003", models.InvoiceStatusCancelled, "100.00")

	_, err := s.pay(sent.ID, "0")
	s.ErrorIs(err, ErrInvalidAmount)
	_, err = s.pay(sent.ID, "-5.00")
	s.ErrorIs(err, ErrInvalidAmount)

	_, err = s.service.RegisterPayment(context.Background(), sent.ID, RegisterPaymentInput{
		CompanyID: s.company.ID,
		Amount:    testutil.Dec("5.00"),
	})
	s.ErrorIs(err, ErrPaymentDateRequired)

	_, err = s.pay(void.ID, "5.00")
	s.ErrorIs(err, ErrInvoiceNotPayable)
	_, err = s.pay(cancelled.ID, "5.00")
	s.ErrorIs(err, ErrInvoiceNotPayable)

	_, err = s.pay(9999, "5.00")
	s.ErrorIs(err, ErrInvoiceNotFound)

	s.Zero(s.paymentCount(sent.ID))
	s.Zero(s.paymentCount(void.ID))
	s.Zero(s.paymentCount(cancelled.ID))
	s.Equal("100.00", money.Format(s.reload(sent.ID).BalanceDue))
	s.Empty(s.publisher.eventsOfType(events.TypePaymentRegistered))
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_OtherCompanyIsNotFound() {
	other := testutil.CreateCompany(s.T(), s.db, "Globex")
	invoice := testutil.CreateInvoice(s.T(), s.db, other.ID, "INV-2026-0001", models.InvoiceStatusSent, "100.00")

	_, err := s.pay(invoice.ID, "5.00")
	s.ErrorIs(err, ErrInvoiceNotFound)
	s.Zero(s.paymentCount(invoice.ID))
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_PublishesEvent() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "100.00")

	_, err := s.pay(invoice.ID, "100.00")
	s.Require().NoError(err)

	published := s.publisher.eventsOfType(events.TypePaymentRegistered)
	s.Require().Len(published, 1)
	s.ElementsMatch(events.InvoiceChannels(invoice.ID), published[0].Channels)

	payload, ok := published[0].Data.(events.PaymentRegistered)
	s.Require().True(ok)
	s.Equal(invoice.ID, payload.InvoiceID)
	s.Equal("0.00", payload.NewBalance)
	s.Equal("100.00", payload.PaymentAmount)
	s.Equal(models.InvoiceStatusPaid, payload.Status)
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_PublishesStatusChange() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusDraft, "100.00")

	_, err := s.pay(invoice.ID, "100.00")
	s.Require().NoError(err)

	changed := s.publisher.eventsOfType(events.TypeInvoiceStatusChanged)
	s.Require().Len(changed, 1)
	payload, ok := changed[0].Data.(events.InvoiceStatusChanged)
	s.Require().True(ok)
	s.Equal(invoice.ID, payload.InvoiceID)
	s.Equal(models.InvoiceStatusDraft, payload.From)
	s.Equal(models.InvoiceStatusPaid, payload.To)
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_NoStatusChangeEventWhenStatusHolds() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "100.00")

	_, err := s.pay(invoice.ID, "10.00")
	s.Require().NoError(err)

	s.Len(s.publisher.eventsOfType(events.TypePaymentRegistered), 1)
	s.Empty(s.publisher.eventsOfType(events.TypeInvoiceStatusChanged))
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_LargeAmountsStayExact() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "10000000000000.00")

	result, err := s.pay(invoice.ID, "9999999999999.99")
	s.Require().NoError(err)
	s.Equal("0.01", money.Format(result.NewBalance))

	result, err = s.pay(invoice.ID, "0.01")
	s.Require().NoError(err)
	s.Equal("0.00", money.Format(result.NewBalance))
	s.Equal(models.InvoiceStatusPaid, result.Status)

	stored := s.reload(invoice.ID)
	s.Equal("10000000000000.00", money.Format(stored.Total))
}

func (s *PaymentServiceTestSuite) TestRegisterPayment_PublishFailureDoesNotFail() {
	failing := &mockPublisher{}
	failing.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	s.publisher = failing
	s.service = s.newService(ledger.Options{})

	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "100.00")

	result, err := s.pay(invoice.ID, "20.00")
	s.Require().NoError(err)
	s.Equal("80.00", money.Format(result.NewBalance))
	s.Equal(int64(1), s.paymentCount(invoice.ID))
	failing.AssertNumberOfCalls(s.T(), "Publish", 1)
}

func (s *PaymentServiceTestSuite) TestListPayments() {
	invoice := testutil.CreateInvoice(s.T(), s.db, s.company.ID, "INV-2026-0001", models.InvoiceStatusSent, "100.00")
	_, err := s.pay(invoice.ID, "10.00")
	s.Require().NoError(err)
	_, err = s.pay(invoice.ID, "15.50")
	s.Require().NoError(err)

	payments, err := s.service.ListPayments(s.company.ID, invoice.ID)
	s.Require().NoError(err)
	s.Require().Len(payments, 2)
	s.Equal("15.50", money.Format(payments[1].Amount))

	_, err = s.service.ListPayments(s.company.ID+1, invoice.ID)
	s.ErrorIs(err, ErrInvoiceNotFound)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
