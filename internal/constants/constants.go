package constants

// Session and context keys
const (
	SessionCookieName = "agency_session"
	ContextKeyUserID  = "user_id"

	ContextKeyCompany       = "company"
	ContextKeyCompanyMember = "company_member"
	ContextKeyProject       = "project"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
)

// Tasks
const (
	MaxAIGeneratedTasks = 20
	MinTaskWeight       = "0.01"
	MaxTaskWeight       = "100"
	DefaultTaskWeight   = "1.00"
)

// Invoicing
const (
	DefaultPaymentMethod = "bank_transfer"
	InvoiceNumberPrefix  = "INV"
	DateLayout           = "2006-01-02"
)

// Event channels
const (
	ChannelFinanceDashboard = "finance.dashboard"
	ChannelInvoicePrefix    = "invoices."
	ChannelCommentPrefix    = "comments."
)

// Marketplace
const (
	RecurringItemPrefix = "Renewal: "
	MarketplacePageSize = 12
	MinAdditionalAmount = "0.01"
)
