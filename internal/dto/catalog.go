package dto

import (
	"time"

	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/utils"
)

// ProductDTO represents a catalogue product
type ProductDTO struct {
	ID           uint64                 `json:"id"`
	Name         string                 `json:"name"`
	Slug         string                 `json:"slug"`
	Category     models.ProductCategory `json:"category"`
	Type         models.ProductType     `json:"type"`
	BillingCycle models.BillingCycle    `json:"billing_cycle"`
	BasePrice    string                 `json:"base_price"`
	Description  string                 `json:"description"`
	IsActive     bool                   `json:"is_active"`
	Addons       []AddonDTO             `json:"addons,omitempty"`
}

// AddonDTO represents an optional product extra
type AddonDTO struct {
	ID              uint64 `json:"id"`
	ProductID       uint64 `json:"product_id"`
	Name            string `json:"name"`
	AdditionalPrice string `json:"additional_price"`
	IsActive        bool   `json:"is_active"`
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Products   []ProductDTO             `json:"products"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ClientServiceDTO represents a product provisioned for a company
type ClientServiceDTO struct {
	ID             uint64                     `json:"id"`
	CompanyID      uint64                     `json:"company_id"`
	Product        ProductDTO                 `json:"product"`
	Addon          *AddonDTO                  `json:"addon"`
	CustomPrice    *string                    `json:"custom_price"`
	EffectivePrice string                     `json:"effective_price"`
	StartDate      string                     `json:"start_date"`
	EndDate        *string                    `json:"end_date"`
	Status         models.ClientServiceStatus `json:"status"`
	Notes          string                     `json:"notes"`
}

// SubscriptionDTO represents a recurring charge
type SubscriptionDTO struct {
	ID              uint64                    `json:"id"`
	CompanyID       uint64                    `json:"company_id"`
	ClientServiceID *uint64                   `json:"client_service_id"`
	PlanName        string                    `json:"plan_name"`
	Price           string                    `json:"price"`
	BillingCycle    models.BillingCycle       `json:"billing_cycle"`
	NextBillingDate string                    `json:"next_billing_date"`
	Status          models.SubscriptionStatus `json:"status"`
}

// AssignedServiceDTO is returned when a product is provisioned
type AssignedServiceDTO struct {
	Service      ClientServiceDTO `json:"service"`
	Subscription *SubscriptionDTO `json:"subscription"`
}

// ServiceRequestDTO represents a member's product order
type ServiceRequestDTO struct {
	ID         uint64                      `json:"id"`
	CompanyID  uint64                      `json:"company_id"`
	UserID     uint64                      `json:"user_id"`
	Product    ProductDTO                  `json:"product"`
	Addons     []AddonDTO                  `json:"addons"`
	TotalPrice string                      `json:"total_price"`
	Notes      string                      `json:"notes"`
	Status     models.ServiceRequestStatus `json:"status"`
	CreatedAt  time.Time                   `json:"created_at"`
}

// ServiceRequestListResponse represents a page of service requests
type ServiceRequestListResponse struct {
	Requests   []ServiceRequestDTO      `json:"requests"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ProjectAdditionalDTO represents extra scope billed on a project
type ProjectAdditionalDTO struct {
	ID          uint64    `json:"id"`
	ProjectID   uint64    `json:"project_id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentDTO represents a message on a task or stage
type CommentDTO struct {
	ID         uint64               `json:"id"`
	TargetType models.CommentTarget `json:"target_type"`
	TargetID   uint64               `json:"target_id"`
	Body       string               `json:"body"`
	User       UserDTO              `json:"user"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ToProductDTO converts a Product model to ProductDTO, including loaded addons
func ToProductDTO(product models.Product) ProductDTO {
	dto := ProductDTO{
		ID:           product.ID,
		Name:         product.Name,
		Slug:         product.Slug,
		Category:     product.Category,
		Type:         product.Type,
		BillingCycle: product.BillingCycle,
		BasePrice:    money.Format(product.BasePrice),
		Description:  product.Description,
		IsActive:     product.IsActive,
	}
	if len(product.Addons) > 0 {
		dto.Addons = ToAddonDTOs(product.Addons)
	}
	return dto
}

func ToAddonDTO(addon models.ProductAddon) AddonDTO {
	return AddonDTO{
		ID:              addon.ID,
		ProductID:       addon.ProductID,
		Name:            addon.Name,
		AdditionalPrice: money.Format(addon.AdditionalPrice),
		IsActive:        addon.IsActive,
	}
}

func ToAddonDTOs(addons []models.ProductAddon) []AddonDTO {
	out := make([]AddonDTO, len(addons))
	for i, a := range addons {
		out[i] = ToAddonDTO(a)
	}
	return out
}

// ToProductListResponse converts a page of products to ProductListResponse
func ToProductListResponse(products []models.Product, params utils.PaginationParams, total int64) ProductListResponse {
	items := make([]ProductDTO, len(products))
	for i, p := range products {
		items[i] = ToProductDTO(p)
	}
	return ProductListResponse{
		Products:   items,
		Pagination: params.Response(total),
	}
}

// ToClientServiceDTO converts a ClientService with its product and addon loaded
func ToClientServiceDTO(service models.ClientService) ClientServiceDTO {
	dto := ClientServiceDTO{
		ID:             service.ID,
		CompanyID:      service.CompanyID,
		Product:        ToProductDTO(service.Product),
		EffectivePrice: money.Format(service.EffectivePrice()),
		StartDate:      service.StartDate.Format(constants.DateLayout),
		Status:         service.Status,
		Notes:          service.Notes,
	}
	if service.Addon != nil {
		addon := ToAddonDTO(*service.Addon)
		dto.Addon = &addon
	}
	if service.CustomPrice.Valid {
		v := money.Format(service.CustomPrice.Decimal)
		dto.CustomPrice = &v
	}
	if service.EndDate != nil {
		v := service.EndDate.Format(constants.DateLayout)
		dto.EndDate = &v
	}
	return dto
}

func ToSubscriptionDTO(sub models.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:              sub.ID,
		CompanyID:       sub.CompanyID,
		ClientServiceID: sub.ClientServiceID,
		PlanName:        sub.PlanName,
		Price:           money.Format(sub.Price),
		BillingCycle:    sub.BillingCycle,
		NextBillingDate: sub.NextBillingDate.Format(constants.DateLayout),
		Status:          sub.Status,
	}
}

// ToAssignedServiceDTO converts a provisioned service and its optional subscription
func ToAssignedServiceDTO(service models.ClientService, sub *models.Subscription) AssignedServiceDTO {
	dto := AssignedServiceDTO{Service: ToClientServiceDTO(service)}
	if sub != nil {
		s := ToSubscriptionDTO(*sub)
		dto.Subscription = &s
	}
	return dto
}

func ToServiceRequestDTO(request models.ServiceRequest) ServiceRequestDTO {
	return ServiceRequestDTO{
		ID:         request.ID,
		CompanyID:  request.CompanyID,
		UserID:     request.UserID,
		Product:    ToProductDTO(request.Product),
		Addons:     ToAddonDTOs(request.Addons),
		TotalPrice: money.Format(request.TotalPrice),
		Notes:      request.Notes,
		Status:     request.Status,
		CreatedAt:  request.CreatedAt,
	}
}

// ToServiceRequestListResponse converts a page of requests to ServiceRequestListResponse
func ToServiceRequestListResponse(requests []models.ServiceRequest, params utils.PaginationParams, total int64) ServiceRequestListResponse {
	items := make([]ServiceRequestDTO, len(requests))
	for i, r := range requests {
		items[i] = ToServiceRequestDTO(r)
	}
	return ServiceRequestListResponse{
		Requests:   items,
		Pagination: params.Response(total),
	}
}

func ToProjectAdditionalDTO(additional models.ProjectAdditional) ProjectAdditionalDTO {
	return ProjectAdditionalDTO{
		ID:          additional.ID,
		ProjectID:   additional.ProjectID,
		Description: additional.Description,
		Amount:      money.Format(additional.Amount),
		CreatedAt:   additional.CreatedAt,
	}
}

// ToCommentDTO converts a Comment with its author loaded
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:         comment.ID,
		TargetType: comment.TargetType,
		TargetID:   comment.TargetID,
		Body:       comment.Body,
		User:       ToUserDTO(comment.User),
		CreatedAt:  comment.CreatedAt,
		UpdatedAt:  comment.UpdatedAt,
	}
}
