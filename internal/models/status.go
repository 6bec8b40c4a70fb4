package models

import (
	"database/sql/driver"
	"fmt"
)

// enum is implemented by every closed status type in this package.
type enum interface {
	~string
	Valid() bool
}

func parseEnum[T enum](kind, s string) (T, error) {
	v := T(s)
	if !v.Valid() {
		return v, fmt.Errorf("invalid %s %q", kind, s)
	}
	return v, nil
}

func scanEnum[T enum](kind string, dst *T, src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return fmt.Errorf("invalid %s: NULL", kind)
	default:
		return fmt.Errorf("invalid %s: unsupported type %T", kind, src)
	}
	parsed, err := parseEnum[T](kind, s)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func valueEnum[T enum](kind string, v T) (driver.Value, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid %s %q", kind, string(v))
	}
	return string(v), nil
}

// ProjectStatus

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusArchived  ProjectStatus = "archived"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusOnHold, ProjectStatusArchived, ProjectStatusCancelled:
		return true
	}
	return false
}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	return parseEnum[ProjectStatus]("project status", s)
}
func (s *ProjectStatus) UnmarshalText(b []byte) error {
	v, err := ParseProjectStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
func (s *ProjectStatus) Scan(src interface{}) error { return scanEnum("project status", s, src) }
func (s ProjectStatus) Value() (driver.Value, error) { return valueEnum("project status", s) }

// StageStatus

type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in_progress"
	StageStatusCompleted  StageStatus = "completed"
)

func (s StageStatus) Valid() bool {
	switch s {
	case StageStatusPending, StageStatusInProgress, StageStatusCompleted:
		return true
	}
	return false
}

func ParseStageStatus(s string) (StageStatus, error) {
	return parseEnum[StageStatus]("stage status", s)
}
func (s *StageStatus) UnmarshalText(b []byte) error {
	v, err := ParseStageStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
func (s *StageStatus) Scan(src interface{}) error { return scanEnum("stage status", s, src) }
func (s StageStatus) Value() (driver.Value, error) { return valueEnum("stage status", s) }

// TaskStatus

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	return parseEnum[TaskStatus]("task status", s)
}
func (s *TaskStatus) UnmarshalText(b []byte) error {
	v, err := ParseTaskStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
func (s *TaskStatus) Scan(src interface{}) error { return scanEnum("task status", s, src) }
func (s TaskStatus) Value() (driver.Value, error) { return valueEnum("task status", s) }

// TaskPriority

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

func ParseTaskPriority(s string) (TaskPriority, error) {
	return parseEnum[TaskPriority]("task priority", s)
}
func (p *TaskPriority) UnmarshalText(b []byte) error {
	v, err := ParseTaskPriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
func (p *TaskPriority) Scan(src interface{}) error { return scanEnum("task priority", p, src) }
func (p TaskPriority) Value() (driver.Value, error) { return valueEnum("task priority", p) }

// InvoiceStatus

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusVoid      InvoiceStatus = "void"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceStatuses lists every invoice status in display order.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPartial,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusVoid,
	InvoiceStatusCancelled,
}

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartial, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusVoid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Billed reports whether the invoice counts against a project budget.
func (s InvoiceStatus) Billed() bool {
	switch s {
	case InvoiceStatusVoid, InvoiceStatusCancelled:
		return false
	}
	return true
}

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	return parseEnum[InvoiceStatus]("invoice status", s)
}
func (s *InvoiceStatus) UnmarshalText(b []byte) error {
	v, err := ParseInvoiceStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
func (s *InvoiceStatus) Scan(src interface{}) error { return scanEnum("invoice status", s, src) }
func (s InvoiceStatus) Value() (driver.Value, error) { return valueEnum("invoice status", s) }

// ProposalStatus

type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusSent     ProposalStatus = "sent"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExpired  ProposalStatus = "expired"
)

func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusSent, ProposalStatusAccepted, ProposalStatusRejected, ProposalStatusExpired:
		return true
	}
	return false
}

// Convertible reports whether a proposal in this status may become a project.
func (s ProposalStatus) Convertible() bool {
	return s == ProposalStatusDraft || s == ProposalStatusSent
}

func ParseProposalStatus(s string) (ProposalStatus, error) {
	return parseEnum[ProposalStatus]("proposal status", s)
}
func (s *ProposalStatus) UnmarshalText(b []byte) error {
	v, err := ParseProposalStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
func (s *ProposalStatus) Scan(src interface{}) error { return scanEnum("proposal status", s, src) }
func (s ProposalStatus) Value() (driver.Value, error) { return valueEnum("proposal status", s) }

// CompanyRole

type CompanyRole string

const (
	RoleManager CompanyRole = "manager"
	RoleClient  CompanyRole = "client"
)

func (r CompanyRole) Valid() bool {
	return r == RoleManager || r == RoleClient
}

func (r *CompanyRole) Scan(src interface{}) error { return scanEnum("company role", r, src) }
func (r CompanyRole) Value() (driver.Value, error) { return valueEnum("company role", r) }

// ProductCategory

type ProductCategory string

const (
	ProductCategoryHosting   ProductCategory = "hosting"
	ProductCategoryServers   ProductCategory = "servers"
	ProductCategoryCDN       ProductCategory = "cdn"
	ProductCategoryAntivirus ProductCategory = "antivirus"
	ProductCategoryPlugins   ProductCategory = "plugins"
	ProductCategoryEmail     ProductCategory = "email"
	ProductCategoryOther     ProductCategory = "other"
)

func (c ProductCategory) Valid() bool {
	switch c {
	case ProductCategoryHosting, ProductCategoryServers, ProductCategoryCDN, ProductCategoryAntivirus,
		ProductCategoryPlugins, ProductCategoryEmail, ProductCategoryOther:
		return true
	}
	return false
}

func ParseProductCategory(s string) (ProductCategory, error) {
	return parseEnum[ProductCategory]("product category", s)
}
func (c *ProductCategory) UnmarshalText(b []byte) error {
	v, err := ParseProductCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
func (c *ProductCategory) Scan(src interface{}) error { return scanEnum("product category", c, src) }
func (c ProductCategory) Value() (driver.Value, error) { return valueEnum("product category", c) }

// ProductType

type ProductType string

const (
	ProductTypeSubscription ProductType = "subscription"
	ProductTypeOneTime      ProductType = "one_time"
)

func (t ProductType) Valid() bool {
	return t == ProductTypeSubscription || t == ProductTypeOneTime
}

func ParseProductType(s string) (ProductType, error) {
	return parseEnum[ProductType]("product type", s)
}
func (t *ProductType) UnmarshalText(b []byte) error {
	v, err := ParseProductType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
func (t *ProductType) Scan(src interface{}) error { return scanEnum("product type", t, src) }
func (t ProductType) Value() (driver.Value, error) { return valueEnum("product type", t) }

// BillingCycle

type BillingCycle string

const (
	BillingCycleMonthly  BillingCycle = "monthly"
	BillingCycleAnnual   BillingCycle = "annual"
	BillingCycleLifetime BillingCycle = "lifetime"
)

func (c BillingCycle) Valid() bool {
	switch c {
	case BillingCycleMonthly, BillingCycleAnnual, BillingCycleLifetime:
		return true
	}
	return false
}

// Recurring reports whether the cycle renews.
func (c BillingCycle) Recurring() bool {
	return c == BillingCycleMonthly || c == BillingCycleAnnual
}

func ParseBillingCycle(s string) (BillingCycle, error) {
	return parseEnum[BillingCycle]("billing cycle", s)
}
func (c *BillingCycle) UnmarshalText(b []byte) error {
	v, err := ParseBillingCycle(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
func (c *BillingCycle) Scan(src interface{}) error { return scanEnum("billing cycle", c, src) }
func (c BillingCycle) Value() (driver.Value, error) { return valueEnum("billing cycle", c) }

// ClientServiceStatus

type ClientServiceStatus string

const (
	ClientServiceStatusActive    ClientServiceStatus = "active"
	ClientServiceStatusExpired   ClientServiceStatus = "expired"
	ClientServiceStatusCancelled ClientServiceStatus = "cancelled"
	ClientServiceStatusSuspended ClientServiceStatus = "suspended"
)

func (s ClientServiceStatus) Valid() bool {
	switch s {
	case ClientServiceStatusActive, ClientServiceStatusExpired, ClientServiceStatusCancelled, ClientServiceStatusSuspended:
		return true
	}
	return false
}

func ParseClientServiceStatus(s string) (ClientServiceStatus, error) {
	return parseEnum[ClientServiceStatus]("client service status", s)
}
func (s *ClientServiceStatus) UnmarshalText(b []byte) error {
	v, err := ParseClientServiceStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
func (s *ClientServiceStatus) Scan(src interface{}) error {
	return scanEnum("client service status", s, src)
}
func (s ClientServiceStatus) Value() (driver.Value, error) {
	return valueEnum("client service status", s)
}

// SubscriptionStatus

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusPaused, SubscriptionStatusCancelled:
		return true
	}
	return false
}

func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	return parseEnum[SubscriptionStatus]("subscription status", s)
}
func (s *SubscriptionStatus) UnmarshalText(b []byte) error {
	v, err := ParseSubscriptionStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
func (s *SubscriptionStatus) Scan(src interface{}) error {
	return scanEnum("subscription status", s, src)
}
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return valueEnum("subscription status", s)
}

// ServiceRequestStatus

type ServiceRequestStatus string

const (
	ServiceRequestStatusPending   ServiceRequestStatus = "pending"
	ServiceRequestStatusApproved  ServiceRequestStatus = "approved"
	ServiceRequestStatusRejected  ServiceRequestStatus = "rejected"
	ServiceRequestStatusCompleted ServiceRequestStatus = "completed"
)

func (s ServiceRequestStatus) Valid() bool {
	switch s {
	case ServiceRequestStatusPending, ServiceRequestStatusApproved, ServiceRequestStatusRejected, ServiceRequestStatusCompleted:
		return true
	}
	return false
}

// CanMoveTo reports whether a request may change from s to next.
// Pending may be approved or rejected; approved may be completed.
func (s ServiceRequestStatus) CanMoveTo(next ServiceRequestStatus) bool {
	switch s {
	case ServiceRequestStatusPending:
		return next == ServiceRequestStatusApproved || next == ServiceRequestStatusRejected
	case ServiceRequestStatusApproved:
		return next == ServiceRequestStatusCompleted || next == ServiceRequestStatusRejected
	}
	return false
}

func ParseServiceRequestStatus(s string) (ServiceRequestStatus, error) {
	return parseEnum[ServiceRequestStatus]("service request status", s)
}
func (s *ServiceRequestStatus) UnmarshalText(b []byte) error {
	v, err := ParseServiceRequestStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
func (s *ServiceRequestStatus) Scan(src interface{}) error {
	return scanEnum("service request status", s, src)
}
func (s ServiceRequestStatus) Value() (driver.Value, error) {
	return valueEnum("service request status", s)
}

// CommentTarget

type CommentTarget string

const (
	CommentTargetTask  CommentTarget = "task"
	CommentTargetStage CommentTarget = "stage"
)

func (t CommentTarget) Valid() bool {
	return t == CommentTargetTask || t == CommentTargetStage
}

func (t *CommentTarget) Scan(src interface{}) error { return scanEnum("comment target", t, src) }
func (t CommentTarget) Value() (driver.Value, error) { return valueEnum("comment target", t) }
