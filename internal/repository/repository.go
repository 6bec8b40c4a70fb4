package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint64) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	TouchLastLogin(id uint64, at time.Time) error
}

// CompanyRepository defines the interface for company and membership data access
type CompanyRepository interface {
	// CreateWithManager creates a company and its first manager in one transaction
	CreateWithManager(company *models.Company, manager *models.CompanyMember) error

	FindByID(id uint64) (*models.Company, error)
	FindByInviteCode(code string) (*models.Company, error)
	Update(company *models.Company) error

	// Delete removes a company with its memberships, projects, invoices, proposals
	// and marketplace records
	Delete(id uint64) error

	AddMember(member *models.CompanyMember) error
	RemoveMember(companyID, userID uint64) error
	FindMember(companyID, userID uint64) (*models.CompanyMember, error)

	// ListMembersByUserID lists all companies a user is a member of
	ListMembersByUserID(userID uint64) ([]models.CompanyMember, error)

	// ListMembers lists all members of a company
	ListMembers(companyID uint64) ([]models.CompanyMember, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	CompanyID  uint64
	Status     *models.ProjectStatus
	Pagination utils.PaginationParams
}

// ProjectRepository defines the interface for project and stage data access
type ProjectRepository interface {
	Create(project *models.Project) error
	FindByID(id uint64) (*models.Project, error)

	// FindTree loads a project with stages (in board order), tasks and subtasks
	FindTree(id uint64) (*models.Project, error)

	List(filter ProjectFilter) ([]models.Project, int64, error)

	// Update saves user-editable project fields. Progress is never written here.
	Update(project *models.Project) error

	// Delete removes a project and its whole board
	Delete(id uint64) error

	CreateStage(stage *models.Stage) error
	FindStage(projectID, stageID uint64) (*models.Stage, error)
	CountStages(projectID uint64) (int64, error)
	UpdateStage(stage *models.Stage) error

	// DeleteStage removes a stage with its tasks, subtasks and comments
	DeleteStage(stageID uint64) error

	CreateAdditional(additional *models.ProjectAdditional) error
	ListAdditionals(projectID uint64) ([]models.ProjectAdditional, error)
	FindAdditional(projectID, additionalID uint64) (*models.ProjectAdditional, error)
	DeleteAdditional(additionalID uint64) error
}

// TaskRepository defines the interface for task and subtask data access
type TaskRepository interface {
	Create(task *models.Task) error

	// FindInProject finds a task only if it belongs to a stage of the project
	FindInProject(projectID, taskID uint64) (*models.Task, error)

	// Update saves user-editable task fields
	Update(task *models.Task) error

	// Delete soft deletes a task and removes its subtasks
	Delete(id uint64) error

	CreateSubtask(subtask *models.Subtask) error

	// FindSubtaskInProject finds a subtask only if its task belongs to the project
	FindSubtaskInProject(projectID, subtaskID uint64) (*models.Subtask, error)

	UpdateSubtask(subtask *models.Subtask) error
	DeleteSubtask(id uint64) error
}

// ProgressRepository opens the internal write path used by progress recalculation.
// It is separate from ProjectRepository and TaskRepository so recalculation can
// never reach the public update methods that schedule another recalculation.
type ProgressRepository interface {
	WithinTransaction(ctx context.Context, fn func(tx ProgressTx) error) error

	// WithinBoardTransaction runs a board change and the recalculation that
	// follows it in one transaction, so a failed recalculation undoes the change.
	WithinBoardTransaction(ctx context.Context, fn func(tx BoardTx) error) error
}

// BoardTx exposes transaction-bound repositories for a board change. Progress
// is only reachable here through the quiet write path.
type BoardTx interface {
	Tasks() TaskRepository
	Projects() ProjectRepository
	Progress() ProgressTx
}

// ProgressTx is the set of reads and column writes available inside a recalculation.
type ProgressTx interface {
	// LoadTree reads the project with stages, tasks and subtasks
	LoadTree(projectID uint64) (*models.Project, error)

	SetTaskStatus(taskID uint64, status models.TaskStatus) error
	SetStageStatus(stageID uint64, status models.StageStatus) error
	SetProjectProgress(projectID uint64, progress int) error
}

// InvoiceFilter holds filtering options for listing invoices
type InvoiceFilter struct {
	CompanyID  uint64
	ProjectID  *uint64
	Status     *models.InvoiceStatus
	Pagination utils.PaginationParams
}

// InvoiceRepository defines the interface for invoice data access outside payment registration
type InvoiceRepository interface {
	// Create inserts an invoice together with its items
	Create(invoice *models.Invoice) error

	// FindInCompany loads an invoice with items and payments if it belongs to the company
	FindInCompany(companyID, invoiceID uint64) (*models.Invoice, error)

	List(filter InvoiceFilter) ([]models.Invoice, int64, error)

	// ListByCompany returns every invoice of the company without relations
	ListByCompany(companyID uint64) ([]models.Invoice, error)

	// ReplaceItems swaps the invoice's items and saves its totals in one transaction
	ReplaceItems(invoice *models.Invoice, items []models.InvoiceItem) error

	// UpdateStatus moves an invoice from one status to another.
	// It reports false when the invoice was no longer in the expected status.
	UpdateStatus(invoiceID uint64, from, to models.InvoiceStatus) (bool, error)

	// Delete soft deletes the invoice and removes its items
	Delete(invoiceID uint64) error

	CountPayments(invoiceID uint64) (int64, error)
	ListPayments(invoiceID uint64) ([]models.Payment, error)

	// LatestNumber returns the highest invoice number starting with prefix, including deleted invoices
	LatestNumber(prefix string) (string, error)

	// BilledTotals returns the totals of the project's billed invoices
	BilledTotals(projectID uint64) ([]decimal.Decimal, error)

	// ListDue returns invoices in one of the statuses whose due date is before the given day
	ListDue(statuses []models.InvoiceStatus, before time.Time) ([]models.Invoice, error)
}

// LedgerRepository opens the transaction in which a payment is registered.
type LedgerRepository interface {
	WithinTransaction(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the set of reads and writes available while registering a payment.
type LedgerTx interface {
	FindInvoice(invoiceID uint64) (*models.Invoice, error)
	CreatePayment(payment *models.Payment) error

	// PaymentAmounts returns every persisted payment amount for the invoice
	PaymentAmounts(invoiceID uint64) ([]decimal.Decimal, error)

	// SaveBalance writes only balance_due and status
	SaveBalance(invoiceID uint64, balance decimal.Decimal, status models.InvoiceStatus) error
}

// ProposalRepository defines the interface for proposal data access
type ProposalRepository interface {
	// Create inserts a proposal together with its items
	Create(proposal *models.Proposal) error

	// FindInCompany loads a proposal with items if it belongs to the company
	FindInCompany(companyID, proposalID uint64) (*models.Proposal, error)

	ListByCompany(companyID uint64) ([]models.Proposal, error)

	// Convert marks the proposal accepted and creates the project and invoice in one transaction.
	// It returns ErrProposalNotConvertible when the proposal is no longer draft or sent.
	Convert(proposalID uint64, project *models.Project, invoice *models.Invoice) error
}

// ProductFilter holds filtering options for listing catalogue products
type ProductFilter struct {
	ActiveOnly bool
	Category   *models.ProductCategory
	Search     string
	Pagination utils.PaginationParams
}

// ProductRepository defines the interface for catalogue data access
type ProductRepository interface {
	Create(product *models.Product) error

	// FindByID loads a product with its addons. activeAddons drops inactive ones.
	FindByID(id uint64, activeAddons bool) (*models.Product, error)

	// List orders products by base price, cheapest first
	List(filter ProductFilter) ([]models.Product, int64, error)

	Update(product *models.Product) error

	// Delete removes a product and its addons.
	// It returns ErrProductInUse when a client service or service request references it.
	Delete(id uint64) error

	CreateAddon(addon *models.ProductAddon) error
	FindAddon(productID, addonID uint64) (*models.ProductAddon, error)

	// FindActiveAddons returns the active addons of the product among ids
	FindActiveAddons(productID uint64, ids []uint64) ([]models.ProductAddon, error)

	// DeleteAddon removes an addon. It returns ErrProductInUse when a client service uses it.
	DeleteAddon(addonID uint64) error
}

// ClientServiceRepository defines the interface for provisioned service data access
type ClientServiceRepository interface {
	// Create inserts the service and, when not nil, its subscription in one transaction
	Create(service *models.ClientService, subscription *models.Subscription) error

	// FindInCompany loads a service with its product and addon if it belongs to the company
	FindInCompany(companyID, serviceID uint64) (*models.ClientService, error)

	ListByCompany(companyID uint64, status *models.ClientServiceStatus) ([]models.ClientService, error)

	// UpdateStatus saves the service status and moves its subscriptions that are
	// not cancelled to subscription, in one transaction
	UpdateStatus(service *models.ClientService, subscription models.SubscriptionStatus) error
}

// SubscriptionRepository defines the interface for subscription data access
type SubscriptionRepository interface {
	Create(subscription *models.Subscription) error
	FindInCompany(companyID, subscriptionID uint64) (*models.Subscription, error)
	ListByCompany(companyID uint64) ([]models.Subscription, error)

	// UpdateStatus moves a subscription from one status to another.
	// It reports false when the subscription was no longer in the expected status.
	UpdateStatus(subscriptionID uint64, from, to models.SubscriptionStatus) (bool, error)

	// ListDue returns active subscriptions whose next billing date is on or before through
	ListDue(through time.Time) ([]models.Subscription, error)

	// Renew moves next_billing_date from expected to next and creates the invoice in one
	// transaction. It returns ErrSubscriptionNotDue when the subscription is no longer
	// active or was already renewed.
	Renew(subscriptionID uint64, expected, next time.Time, invoice *models.Invoice) error
}

// ServiceRequestRepository defines the interface for service request data access
type ServiceRequestRepository interface {
	// Create inserts a request and links its addons
	Create(request *models.ServiceRequest) error

	// FindInCompany loads a request with its product and addons if it belongs to the company
	FindInCompany(companyID, requestID uint64) (*models.ServiceRequest, error)

	// List returns the company's requests, newest first
	List(companyID uint64, pagination utils.PaginationParams) ([]models.ServiceRequest, int64, error)

	// UpdateStatus moves a request from one status to another.
	// It reports false when the request was no longer in the expected status.
	UpdateStatus(requestID uint64, from, to models.ServiceRequestStatus) (bool, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error

	// FindByID loads a comment with its author
	FindByID(id uint64) (*models.Comment, error)

	// ListByTarget returns a thread oldest first, with authors
	ListByTarget(target models.CommentTarget, targetID uint64) ([]models.Comment, error)

	// UpdateBody saves only the body
	UpdateBody(comment *models.Comment) error

	Delete(id uint64) error
}
