package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrServiceRequestNotFound   = errors.New("service request not found")
	ErrInvalidRequestTransition = errors.New("service request status does not allow this change")
	ErrProductNotRequestable    = errors.New("only active products can be requested")
)

// ServiceRequestService handles marketplace orders placed by company members.
type ServiceRequestService struct {
	requestRepo repository.ServiceRequestRepository
	productRepo repository.ProductRepository
	log         *logger.Logger
}

// NewServiceRequestService creates a new ServiceRequestService.
func NewServiceRequestService(requestRepo repository.ServiceRequestRepository, productRepo repository.ProductRepository, log *logger.Logger) *ServiceRequestService {
	return &ServiceRequestService{
		requestRepo: requestRepo,
		productRepo: productRepo,
		log:         log.With("service", "ServiceRequestService"),
	}
}

// CreateServiceRequestInput represents input for ordering a product
type CreateServiceRequestInput struct {
	CompanyID uint64
	UserID    uint64
	ProductID uint64
	AddonIDs  []uint64
	Notes     string
}

// CreateRequest records a pending order. The total is the product's base price
// plus the selected addons, priced from the catalogue at request time.
func (s *ServiceRequestService) CreateRequest(input CreateServiceRequestInput) (*models.ServiceRequest, error) {
	product, err := s.productRepo.FindByID(input.ProductID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductNotRequestable
	}

	ids := uniqueIDs(input.AddonIDs)
	addons, err := s.productRepo.FindActiveAddons(product.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load addons: %w", err)
	}
	if len(addons) != len(ids) {
		return nil, ErrAddonNotFound
	}

	prices := []decimal.Decimal{product.BasePrice}
	for _, a := range addons {
		prices = append(prices, a.AdditionalPrice)
	}

	request := &models.ServiceRequest{
		CompanyID:  input.CompanyID,
		UserID:     input.UserID,
		ProductID:  product.ID,
		TotalPrice: money.Round2(money.Sum(prices...)),
		Notes:      strings.TrimSpace(input.Notes),
		Status:     models.ServiceRequestStatusPending,
		Product:    *product,
		Addons:     addons,
	}
	if err := s.requestRepo.Create(request); err != nil {
		return nil, fmt.Errorf("failed to create service request: %w", err)
	}

	s.log.Info("service request created",
		"request_id", request.ID,
		"company_id", input.CompanyID,
		"product_id", product.ID,
		"total", money.Format(request.TotalPrice),
	)
	return request, nil
}

func (s *ServiceRequestService) ListRequests(companyID uint64, pagination utils.PaginationParams) ([]models.ServiceRequest, int64, error) {
	requests, total, err := s.requestRepo.List(companyID, pagination)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list service requests: %w", err)
	}
	return requests, total, nil
}

// UpdateRequestStatus reviews a request. Pending requests are approved or
// rejected; approved ones are completed or rejected.
func (s *ServiceRequestService) UpdateRequestStatus(companyID, requestID uint64, status models.ServiceRequestStatus) (*models.ServiceRequest, error) {
	request, err := s.requestRepo.FindInCompany(companyID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceRequestNotFound
		}
		return nil, fmt.Errorf("failed to find service request: %w", err)
	}
	if !request.Status.CanMoveTo(status) {
		return nil, ErrInvalidRequestTransition
	}

	ok, err := s.requestRepo.UpdateStatus(request.ID, request.Status, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update service request: %w", err)
	}
	if !ok {
		return nil, ErrInvalidRequestTransition
	}

	s.log.Info("service request status changed", "request_id", request.ID, "from", request.Status, "to", status)
	request.Status = status
	return request, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
