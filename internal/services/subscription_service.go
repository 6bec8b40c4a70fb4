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
	"github.com/yukikurage/agency-management-api/internal/metrics"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrClientServiceNotFound         = errors.New("client service not found")
	ErrClientServiceClosed           = errors.New("cancelled services cannot change status")
	ErrSubscriptionNotFound          = errors.New("subscription not found")
	ErrInvalidSubscriptionTransition = errors.New("subscription status does not allow this action")
	ErrPlanNameRequired              = errors.New("plan name is required")
	ErrStartDateRequired             = errors.New("start date is required")
	ErrNextBillingDateRequired       = errors.New("next billing date is required")
	ErrRecurringBillingCycleRequired = errors.New("billing cycle must be monthly or annual")
	ErrServiceEndBeforeStart         = errors.New("end date must be after start date")
	ErrProductInactive               = errors.New("inactive products cannot be assigned")
)

// SubscriptionOptions are the recurring billing settings from configuration.
type SubscriptionOptions struct {
	// LeadDays drafts a renewal invoice this many days before the billing date.
	LeadDays int
}

// SubscriptionService handles provisioned client services, their subscriptions
// and the recurring invoices those subscriptions produce.
type SubscriptionService struct {
	serviceRepo      repository.ClientServiceRepository
	subscriptionRepo repository.SubscriptionRepository
	productRepo      repository.ProductRepository
	invoices         *InvoiceService
	opts             SubscriptionOptions
	log              *logger.Logger
	now              func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	serviceRepo repository.ClientServiceRepository,
	subscriptionRepo repository.SubscriptionRepository,
	productRepo repository.ProductRepository,
	invoices *InvoiceService,
	opts SubscriptionOptions,
	log *logger.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		serviceRepo:      serviceRepo,
		subscriptionRepo: subscriptionRepo,
		productRepo:      productRepo,
		invoices:         invoices,
		opts:             opts,
		log:              log.With("service", "SubscriptionService"),
		now:              time.Now,
	}
}

// AssignServiceInput represents input for provisioning a product for a company
type AssignServiceInput struct {
	CompanyID   uint64
	ProductID   uint64
	AddonID     *uint64
	CustomPrice *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	Notes       string
}

// CreateSubscriptionInput represents input for a subscription not tied to a catalogue product
type CreateSubscriptionInput struct {
	CompanyID       uint64
	PlanName        string
	Price           decimal.Decimal
	BillingCycle    models.BillingCycle
	NextBillingDate *time.Time
}

// AssignService provisions a product for a company. Subscription products also
// get a subscription billed from the start date at the service's effective price.
func (s *SubscriptionService) AssignService(input AssignServiceInput) (*models.ClientService, *models.Subscription, error) {
	if input.StartDate == nil {
		return nil, nil, ErrStartDateRequired
	}
	start := dateOnly(*input.StartDate)
	if input.EndDate != nil && !dateOnly(*input.EndDate).After(start) {
		return nil, nil, ErrServiceEndBeforeStart
	}
	if input.CustomPrice != nil && input.CustomPrice.IsNegative() {
		return nil, nil, ErrNegativePrice
	}

	product, err := s.productRepo.FindByID(input.ProductID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("failed to find product: %w", err)
	}
	if !product.IsActive {
		return nil, nil, ErrProductInactive
	}

	service := &models.ClientService{
		CompanyID: input.CompanyID,
		ProductID: product.ID,
		StartDate: start,
		Status:    models.ClientServiceStatusActive,
		Notes:     strings.TrimSpace(input.Notes),
		Product:   *product,
	}
	if input.EndDate != nil {
		end := dateOnly(*input.EndDate)
		service.EndDate = &end
	}
	if input.CustomPrice != nil {
		service.CustomPrice = decimal.NewNullDecimal(money.Round2(*input.CustomPrice))
	}
	if input.AddonID != nil {
		addon := findAddon(product.Addons, *input.AddonID)
		if addon == nil {
			return nil, nil, ErrAddonNotFound
		}
		service.AddonID = &addon.ID
		service.Addon = addon
	}

	var subscription *models.Subscription
	if product.Type == models.ProductTypeSubscription {
		plan := product.Name
		if service.Addon != nil {
			plan += " + " + service.Addon.Name
		}
		subscription = &models.Subscription{
			CompanyID:       input.CompanyID,
			PlanName:        plan,
			Price:           money.Round2(service.EffectivePrice()),
			BillingCycle:    product.BillingCycle,
			NextBillingDate: start,
			Status:          models.SubscriptionStatusActive,
		}
	}

	if err := s.serviceRepo.Create(service, subscription); err != nil {
		return nil, nil, fmt.Errorf("failed to create client service: %w", err)
	}

	s.log.Info("client service assigned",
		"company_id", input.CompanyID,
		"service_id", service.ID,
		"product_id", product.ID,
		"subscription", subscription != nil,
	)
	return service, subscription, nil
}

func (s *SubscriptionService) ListServices(companyID uint64, status *models.ClientServiceStatus) ([]models.ClientService, error) {
	services, err := s.serviceRepo.ListByCompany(companyID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list client services: %w", err)
	}
	return services, nil
}

func (s *SubscriptionService) GetService(companyID, serviceID uint64) (*models.ClientService, error) {
	service, err := s.serviceRepo.FindInCompany(companyID, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientServiceNotFound
		}
		return nil, fmt.Errorf("failed to find client service: %w", err)
	}
	return service, nil
}

// UpdateServiceStatus changes a service's status and carries the change to its
// subscriptions: suspended pauses them, expired and cancelled cancel them, and
// active resumes paused ones. Ending a service without an end date ends it today.
func (s *SubscriptionService) UpdateServiceStatus(companyID, serviceID uint64, status models.ClientServiceStatus) (*models.ClientService, error) {
	service, err := s.GetService(companyID, serviceID)
	if err != nil {
		return nil, err
	}
	if service.Status == models.ClientServiceStatusCancelled {
		return nil, ErrClientServiceClosed
	}

	var subscription models.SubscriptionStatus
	switch status {
	case models.ClientServiceStatusActive:
		subscription = models.SubscriptionStatusActive
	case models.ClientServiceStatusSuspended:
		subscription = models.SubscriptionStatusPaused
	default:
		subscription = models.SubscriptionStatusCancelled
		if service.EndDate == nil {
			today := dateOnly(s.now())
			service.EndDate = &today
		}
	}
	from := service.Status
	service.Status = status

	if err := s.serviceRepo.UpdateStatus(service, subscription); err != nil {
		return nil, fmt.Errorf("failed to update client service: %w", err)
	}

	s.log.Info("client service status changed", "service_id", serviceID, "from", from, "to", status)
	return service, nil
}

// CreateSubscription adds a recurring charge that no catalogue product backs.
func (s *SubscriptionService) CreateSubscription(input CreateSubscriptionInput) (*models.Subscription, error) {
	plan := strings.TrimSpace(input.PlanName)
	if plan == "" {
		return nil, ErrPlanNameRequired
	}
	if input.Price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if !input.BillingCycle.Recurring() {
		return nil, ErrRecurringBillingCycleRequired
	}
	if input.NextBillingDate == nil {
		return nil, ErrNextBillingDateRequired
	}

	subscription := &models.Subscription{
		CompanyID:       input.CompanyID,
		PlanName:        plan,
		Price:           money.Round2(input.Price),
		BillingCycle:    input.BillingCycle,
		NextBillingDate: dateOnly(*input.NextBillingDate),
		Status:          models.SubscriptionStatusActive,
	}
	if err := s.subscriptionRepo.Create(subscription); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return subscription, nil
}

func (s *SubscriptionService) ListSubscriptions(companyID uint64) ([]models.Subscription, error) {
	subscriptions, err := s.subscriptionRepo.ListByCompany(companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subscriptions, nil
}

// PauseSubscription stops renewals until the subscription is resumed.
func (s *SubscriptionService) PauseSubscription(companyID, subscriptionID uint64) (*models.Subscription, error) {
	return s.transition(companyID, subscriptionID, models.SubscriptionStatusPaused, models.SubscriptionStatusActive)
}

func (s *SubscriptionService) ResumeSubscription(companyID, subscriptionID uint64) (*models.Subscription, error) {
	return s.transition(companyID, subscriptionID, models.SubscriptionStatusActive, models.SubscriptionStatusPaused)
}

// CancelSubscription ends an active or paused subscription for good.
func (s *SubscriptionService) CancelSubscription(companyID, subscriptionID uint64) (*models.Subscription, error) {
	return s.transition(companyID, subscriptionID, models.SubscriptionStatusCancelled,
		models.SubscriptionStatusActive, models.SubscriptionStatusPaused)
}

func (s *SubscriptionService) transition(companyID, subscriptionID uint64, to models.SubscriptionStatus, allowed ...models.SubscriptionStatus) (*models.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindInCompany(companyID, subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}

	permitted := false
	for _, from := range allowed {
		if subscription.Status == from {
			permitted = true
			break
		}
	}
	if !permitted {
		return nil, ErrInvalidSubscriptionTransition
	}

	ok, err := s.subscriptionRepo.UpdateStatus(subscription.ID, subscription.Status, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	if !ok {
		return nil, ErrInvalidSubscriptionTransition
	}

	s.log.Info("subscription status changed", "subscription_id", subscription.ID, "from", subscription.Status, "to", to)
	subscription.Status = to
	return subscription, nil
}

// GenerateRecurringInvoices drafts one renewal invoice for every active
// subscription billed within the lead window of now, and advances each billing
// date by one cycle. A subscription that is behind by several cycles catches up
// one cycle per run. It returns how many invoices were generated.
func (s *SubscriptionService) GenerateRecurringInvoices(ctx context.Context, now time.Time) (int, error) {
	today := dateOnly(now)
	through := today.AddDate(0, 0, s.opts.LeadDays)

	due, err := s.subscriptionRepo.ListDue(through)
	if err != nil {
		return 0, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	generated := 0
	for _, sub := range due {
		if err := ctx.Err(); err != nil {
			return generated, err
		}
		if !sub.BillingCycle.Recurring() {
			s.log.Warn("skipping subscription without a recurring cycle", "subscription_id", sub.ID, "cycle", sub.BillingCycle)
			continue
		}

		billingDate := dateOnly(sub.NextBillingDate)
		next := NextBillingDate(billingDate, sub.BillingCycle)
		invoice := s.renewalInvoice(sub, today, billingDate)

		err := s.invoices.withNumber(invoice, func() error {
			for i := range invoice.Items {
				invoice.Items[i].ID = 0
			}
			return s.subscriptionRepo.Renew(sub.ID, billingDate, next, invoice)
		})
		if errors.Is(err, repository.ErrSubscriptionNotDue) {
			continue
		}
		if err != nil {
			return generated, fmt.Errorf("failed to renew subscription %d: %w", sub.ID, err)
		}

		generated++
		s.log.Info("renewal invoice generated",
			"subscription_id", sub.ID,
			"invoice_id", invoice.ID,
			"number", invoice.Number,
			"total", money.Format(invoice.Total),
			"next_billing_date", next.Format(constants.DateLayout),
		)
	}

	metrics.AddRecurringInvoicesGenerated(generated)
	s.log.Info("recurring run finished", "candidates", len(due), "generated", generated)
	return generated, nil
}

// renewalInvoice is the draft invoice for one billing period. It falls due on
// the billing date, or today when that date has already passed.
func (s *SubscriptionService) renewalInvoice(sub models.Subscription, today, billingDate time.Time) *models.Invoice {
	dueDate := billingDate
	if dueDate.Before(today) {
		dueDate = today
	}
	price := money.Round2(sub.Price)

	return &models.Invoice{
		CompanyID:  sub.CompanyID,
		Date:       today,
		DueDate:    dueDate,
		Status:     models.InvoiceStatusDraft,
		Total:      price,
		BalanceDue: price,
		Currency:   s.invoices.opts.Currency,
		Notes:      fmt.Sprintf("Subscription period from %s", billingDate.Format(constants.DateLayout)),
		Items: []models.InvoiceItem{{
			Description: constants.RecurringItemPrefix + sub.PlanName,
			Quantity:    decimal.NewFromInt(1),
			Price:       price,
			Total:       price,
		}},
	}
}

// NextBillingDate moves a billing date forward one cycle. Days past the end of
// the target month fall on its last day, so Jan 31 renews on Feb 28 (or 29).
func NextBillingDate(from time.Time, cycle models.BillingCycle) time.Time {
	switch cycle {
	case models.BillingCycleMonthly:
		return addMonthsClamped(from, 1)
	case models.BillingCycleAnnual:
		return addMonthsClamped(from, 12)
	default:
		return from
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func findAddon(addons []models.ProductAddon, id uint64) *models.ProductAddon {
	for i := range addons {
		if addons[i].ID == id {
			return &addons[i]
		}
	}
	return nil
}
