package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/metrics"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvoiceItemsRequired     = errors.New("at least one invoice item is required")
	ErrInvalidInvoiceItem       = errors.New("invoice items need a description, a positive quantity and a non-negative price")
	ErrInvalidDueDate           = errors.New("due date must not be before the invoice date")
	ErrBudgetExceeded           = errors.New("invoice would exceed the project budget")
	ErrInvoiceNotDraft          = errors.New("only draft invoices can be edited")
	ErrInvoiceHasPayments       = errors.New("invoice has payments")
	ErrInvalidStatusTransition  = errors.New("invoice status does not allow this action")
	ErrInvoiceNumberUnavailable = errors.New("could not allocate an invoice number")
)

// numberAttempts bounds retries when two invoices race for the same number.
const numberAttempts = 3

// InvoiceOptions are the invoicing defaults from configuration.
type InvoiceOptions struct {
	DueDays  int
	Currency string
}

// InvoiceService handles invoices outside payment registration.
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	projectRepo repository.ProjectRepository
	publisher   events.Publisher
	opts        InvoiceOptions
	log         *logger.Logger
	now         func() time.Time
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	projectRepo repository.ProjectRepository,
	publisher events.Publisher,
	opts InvoiceOptions,
	log *logger.Logger,
) *InvoiceService {
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		publisher:   publisher,
		opts:        opts,
		log:         log.With("service", "InvoiceService"),
		now:         time.Now,
	}
}

// InvoiceItemInput is one billed line.
type InvoiceItemInput struct {
	Description string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

// CreateInvoiceInput represents input for creating an invoice
type CreateInvoiceInput struct {
	CompanyID uint64
	ProjectID *uint64
	Date      *time.Time
	DueDate   *time.Time
	Currency  string
	Notes     string
	Items     []InvoiceItemInput
}

// UpdateInvoiceInput replaces the editable parts of a draft invoice
type UpdateInvoiceInput struct {
	Date     *time.Time
	DueDate  *time.Time
	Currency *string
	Notes    *string
	Items    []InvoiceItemInput
}

// ListInvoicesInput represents filters for listing invoices
type ListInvoicesInput struct {
	CompanyID  uint64
	ProjectID  *uint64
	Status     *models.InvoiceStatus
	Pagination utils.PaginationParams
}

// InvoiceStats summarises a company's invoices. Void and cancelled invoices are
// counted but excluded from the money totals.
type InvoiceStats struct {
	Counts map[models.InvoiceStatus]int64
	Total  decimal.Decimal
	Paid   decimal.Decimal
	Due    decimal.Decimal
}

// CreateInvoice creates a draft invoice with a fresh number.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	items, total, err := buildInvoiceItems(input.Items)
	if err != nil {
		return nil, err
	}

	date := s.today()
	if input.Date != nil {
		date = dateOnly(*input.Date)
	}
	dueDate := s.DueDateFor(date)
	if input.DueDate != nil {
		dueDate = dateOnly(*input.DueDate)
	}
	if dueDate.Before(date) {
		return nil, ErrInvalidDueDate
	}

	if input.ProjectID != nil {
		if err := s.checkBudget(input.CompanyID, *input.ProjectID, 0, total); err != nil {
			return nil, err
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.opts.Currency
	}

	invoice := &models.Invoice{
		CompanyID:  input.CompanyID,
		ProjectID:  input.ProjectID,
		Date:       date,
		DueDate:    dueDate,
		Status:     models.InvoiceStatusDraft,
		Total:      total,
		BalanceDue: total,
		Currency:   currency,
		Notes:      input.Notes,
		Items:      items,
	}

	if err := s.createNumbered(invoice); err != nil {
		return nil, err
	}

	s.log.Info("invoice created",
		"invoice_id", invoice.ID,
		"number", invoice.Number,
		"company_id", invoice.CompanyID,
		"total", money.Format(total),
	)
	return invoice, nil
}

// GetInvoice returns an invoice with its items and payments.
func (s *InvoiceService) GetInvoice(companyID, invoiceID uint64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindInCompany(companyID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return invoice, nil
}

// ListInvoices lists a company's invoices, newest first.
func (s *InvoiceService) ListInvoices(input ListInvoicesInput) ([]models.Invoice, int64, error) {
	invoices, total, err := s.invoiceRepo.List(repository.InvoiceFilter{
		CompanyID:  input.CompanyID,
		ProjectID:  input.ProjectID,
		Status:     input.Status,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, total, nil
}

// UpdateDraftInvoice replaces the items and header fields of a draft invoice.
func (s *InvoiceService) UpdateDraftInvoice(ctx context.Context, companyID, invoiceID uint64, input UpdateInvoiceInput) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return nil, ErrInvoiceNotDraft
	}
	if len(invoice.Payments) > 0 {
		return nil, ErrInvoiceHasPayments
	}

	items, total, err := buildInvoiceItems(input.Items)
	if err != nil {
		return nil, err
	}

	if input.Date != nil {
		invoice.Date = dateOnly(*input.Date)
	}
	if input.DueDate != nil {
		invoice.DueDate = dateOnly(*input.DueDate)
	}
	if invoice.DueDate.Before(invoice.Date) {
		return nil, ErrInvalidDueDate
	}
	if input.Currency != nil {
		if c := strings.ToUpper(strings.TrimSpace(*input.Currency)); c != "" {
			invoice.Currency = c
		}
	}
	if input.Notes != nil {
		invoice.Notes = *input.Notes
	}

	if invoice.ProjectID != nil {
		if err := s.checkBudget(companyID, *invoice.ProjectID, invoice.ID, total); err != nil {
			return nil, err
		}
	}

	invoice.Total = total
	invoice.BalanceDue = total

	if err := s.invoiceRepo.ReplaceItems(invoice, items); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	return invoice, nil
}

// DeleteInvoice soft deletes an invoice that has never been paid.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, companyID, invoiceID uint64) error {
	invoice, err := s.GetInvoice(companyID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status == models.InvoiceStatusPaid || len(invoice.Payments) > 0 {
		return ErrInvoiceHasPayments
	}

	if err := s.invoiceRepo.Delete(invoiceID); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	s.log.Info("invoice deleted", "invoice_id", invoiceID, "number", invoice.Number)
	return nil
}

// SendInvoice moves a draft invoice to sent.
func (s *InvoiceService) SendInvoice(ctx context.Context, companyID, invoiceID uint64) (*models.Invoice, error) {
	return s.transition(ctx, companyID, invoiceID, models.InvoiceStatusSent, func(inv *models.Invoice) error {
		if inv.Status != models.InvoiceStatusDraft {
			return ErrInvalidStatusTransition
		}
		return nil
	})
}

// VoidInvoice voids an unpaid invoice. Voided invoices no longer count against the project budget.
func (s *InvoiceService) VoidInvoice(ctx context.Context, companyID, invoiceID uint64) (*models.Invoice, error) {
	return s.transition(ctx, companyID, invoiceID, models.InvoiceStatusVoid, closeable)
}

// CancelInvoice cancels an unpaid invoice.
func (s *InvoiceService) CancelInvoice(ctx context.Context, companyID, invoiceID uint64) (*models.Invoice, error) {
	return s.transition(ctx, companyID, invoiceID, models.InvoiceStatusCancelled, closeable)
}

func closeable(inv *models.Invoice) error {
	switch inv.Status {
	case models.InvoiceStatusPaid, models.InvoiceStatusVoid, models.InvoiceStatusCancelled:
		return ErrInvalidStatusTransition
	}
	if len(inv.Payments) > 0 {
		return ErrInvoiceHasPayments
	}
	return nil
}

func (s *InvoiceService) transition(
	ctx context.Context,
	companyID, invoiceID uint64,
	to models.InvoiceStatus,
	allowed func(*models.Invoice) error,
) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := allowed(invoice); err != nil {
		return nil, err
	}

	from := invoice.Status
	ok, err := s.invoiceRepo.UpdateStatus(invoiceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}
	if !ok {
		// A payment or another action changed the status since we read it.
		return nil, ErrInvalidStatusTransition
	}
	invoice.Status = to

	s.log.Info("invoice status changed", "invoice_id", invoiceID, "from", from, "to", to)
	events.PublishAfterCommit(ctx, s.publisher, s.log, events.NewInvoiceStatusChanged(invoiceID, from, to))
	return invoice, nil
}

// InvoiceStats returns counts by status and the billed, paid and due sums.
func (s *InvoiceService) InvoiceStats(companyID uint64) (*InvoiceStats, error) {
	invoices, err := s.invoiceRepo.ListByCompany(companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	stats := &InvoiceStats{
		Counts: make(map[models.InvoiceStatus]int64, len(models.InvoiceStatuses)),
		Total:  decimal.Zero,
		Paid:   decimal.Zero,
		Due:    decimal.Zero,
	}
	for _, st := range models.InvoiceStatuses {
		stats.Counts[st] = 0
	}

	for _, inv := range invoices {
		stats.Counts[inv.Status]++
		if !inv.Status.Billed() {
			continue
		}
		stats.Total = stats.Total.Add(inv.Total)
		stats.Paid = stats.Paid.Add(inv.Total.Sub(inv.BalanceDue))
		stats.Due = stats.Due.Add(inv.BalanceDue)
	}

	stats.Total = money.Round2(stats.Total)
	stats.Paid = money.Round2(stats.Paid)
	stats.Due = money.Round2(stats.Due)
	return stats, nil
}

// MarkOverdue moves sent and partial invoices whose due date is before today
// (in UTC) to overdue. It returns how many invoices changed.
func (s *InvoiceService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	today := dateOnly(now)
	due, err := s.invoiceRepo.ListDue(
		[]models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusPartial},
		today,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to list due invoices: %w", err)
	}

	marked := 0
	for _, inv := range due {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		if !dateOnly(inv.DueDate).Before(today) {
			continue
		}

		ok, err := s.invoiceRepo.UpdateStatus(inv.ID, inv.Status, models.InvoiceStatusOverdue)
		if err != nil {
			return marked, fmt.Errorf("failed to mark invoice %d overdue: %w", inv.ID, err)
		}
		if !ok {
			continue
		}

		marked++
		events.PublishAfterCommit(ctx, s.publisher, s.log,
			events.NewInvoiceStatusChanged(inv.ID, inv.Status, models.InvoiceStatusOverdue))
	}

	metrics.AddInvoicesMarkedOverdue(marked)
	s.log.Info("overdue sweep finished", "candidates", len(due), "marked", marked)
	return marked, nil
}

// NextNumber allocates the next INV-<year>-<seq> number for an invoice dated date.
func (s *InvoiceService) NextNumber(date time.Time) (string, error) {
	prefix := utils.InvoiceNumberPrefix(constants.InvoiceNumberPrefix, date.Year())
	latest, err := s.invoiceRepo.LatestNumber(prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read latest invoice number: %w", err)
	}
	return utils.NextInvoiceNumber(prefix, latest)
}

// DueDateFor is the default due date for an invoice issued on date.
func (s *InvoiceService) DueDateFor(date time.Time) time.Time {
	return dateOnly(date).AddDate(0, 0, s.opts.DueDays)
}

// createNumbered inserts the invoice, retrying with a new number if another
// request took the same one first.
func (s *InvoiceService) createNumbered(invoice *models.Invoice) error {
	return s.withNumber(invoice, func() error {
		return s.invoiceRepo.Create(invoice)
	})
}

func (s *InvoiceService) withNumber(invoice *models.Invoice, insert func() error) error {
	for attempt := 0; attempt < numberAttempts; attempt++ {
		number, err := s.NextNumber(invoice.Date)
		if err != nil {
			return err
		}
		invoice.Number = number

		err = insert()
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		s.log.Warn("invoice number taken, retrying", "number", number, "attempt", attempt+1)
		invoice.ID = 0
	}
	return ErrInvoiceNumberUnavailable
}

// checkBudget rejects an invoice total that would push the project's billed
// amount over its price plus additionals. excludeID leaves out the invoice being edited.
func (s *InvoiceService) checkBudget(companyID, projectID, excludeID uint64, total decimal.Decimal) error {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}
	if project.CompanyID != companyID {
		return ErrProjectNotFound
	}
	if !project.Price.Valid {
		return nil
	}

	billed, err := s.invoiceRepo.BilledTotals(projectID)
	if err != nil {
		return fmt.Errorf("failed to load billed totals: %w", err)
	}
	sum := money.Sum(billed...)
	if excludeID != 0 {
		current, err := s.invoiceRepo.FindInCompany(companyID, excludeID)
		if err != nil {
			return fmt.Errorf("failed to find invoice: %w", err)
		}
		if current.Status.Billed() {
			sum = sum.Sub(current.Total)
		}
	}

	additionals, err := s.projectRepo.ListAdditionals(projectID)
	if err != nil {
		return fmt.Errorf("failed to load project additionals: %w", err)
	}
	budget := project.Price.Decimal
	for _, a := range additionals {
		budget = budget.Add(a.Amount)
	}

	if money.Round2(sum.Add(total)).GreaterThan(money.Round2(budget)) {
		return ErrBudgetExceeded
	}
	return nil
}

func (s *InvoiceService) today() time.Time {
	return dateOnly(s.now())
}

// buildInvoiceItems validates the lines and computes each line total and the invoice total.
func buildInvoiceItems(inputs []InvoiceItemInput) ([]models.InvoiceItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, ErrInvoiceItemsRequired
	}

	items := make([]models.InvoiceItem, 0, len(inputs))
	totals := make([]decimal.Decimal, 0, len(inputs))
	for _, in := range inputs {
		desc := strings.TrimSpace(in.Description)
		if desc == "" || !in.Quantity.IsPositive() || in.Price.IsNegative() {
			return nil, decimal.Zero, ErrInvalidInvoiceItem
		}
		lineTotal := money.LineTotal(in.Quantity, in.Price)
		items = append(items, models.InvoiceItem{
			Description: desc,
			Quantity:    money.Round2(in.Quantity),
			Price:       money.Round2(in.Price),
			Total:       lineTotal,
		})
		totals = append(totals, lineTotal)
	}

	return items, money.Round2(money.Sum(totals...)), nil
}

// dateOnly truncates t to midnight UTC of its UTC calendar day.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
