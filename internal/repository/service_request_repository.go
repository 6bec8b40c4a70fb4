package repository

import (
	"github.com/yukikurage/agency-management-api/internal/database"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/utils"
	"gorm.io/gorm"
)

// GormServiceRequestRepository is a GORM implementation of ServiceRequestRepository
type GormServiceRequestRepository struct {
	db *gorm.DB
}

// NewServiceRequestRepository creates a new ServiceRequestRepository
func NewServiceRequestRepository(db *gorm.DB) ServiceRequestRepository {
	return &GormServiceRequestRepository{db: db}
}

// Create links existing addons without writing the addon rows themselves.
func (r *GormServiceRequestRepository) Create(request *models.ServiceRequest) error {
	return r.db.Omit("Product", "Addons.*").Create(request).Error
}

func (r *GormServiceRequestRepository) FindInCompany(companyID, requestID uint64) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	err := r.db.
		Preload("Product").
		Preload("Addons").
		Where("company_id = ?", companyID).
		First(&request, requestID).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *GormServiceRequestRepository) List(companyID uint64, pagination utils.PaginationParams) ([]models.ServiceRequest, int64, error) {
	query := r.db.Model(&models.ServiceRequest{}).Where("company_id = ?", companyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []models.ServiceRequest
	listQuery := query.Preload("Product").Preload("Addons").Scopes(database.NewestFirst)
	if pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(pagination))
	}
	if err := listQuery.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *GormServiceRequestRepository) UpdateStatus(requestID uint64, from, to models.ServiceRequestStatus) (bool, error) {
	result := r.db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", requestID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
