package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

// ErrSubscriptionNotDue is returned by Renew when the subscription was paused,
// cancelled or already renewed since it was listed.
var ErrSubscriptionNotDue = errors.New("subscription repository: subscription is not due")

// GormClientServiceRepository is a GORM implementation of ClientServiceRepository
type GormClientServiceRepository struct {
	db *gorm.DB
}

// NewClientServiceRepository creates a new ClientServiceRepository
func NewClientServiceRepository(db *gorm.DB) ClientServiceRepository {
	return &GormClientServiceRepository{db: db}
}

func (r *GormClientServiceRepository) Create(service *models.ClientService, subscription *models.Subscription) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Product", "Addon").Create(service).Error; err != nil {
			return err
		}
		if subscription == nil {
			return nil
		}
		subscription.ClientServiceID = &service.ID
		return tx.Create(subscription).Error
	})
}

func (r *GormClientServiceRepository) FindInCompany(companyID, serviceID uint64) (*models.ClientService, error) {
	var service models.ClientService
	err := r.db.
		Preload("Product").
		Preload("Addon").
		Where("company_id = ?", companyID).
		First(&service, serviceID).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *GormClientServiceRepository) ListByCompany(companyID uint64, status *models.ClientServiceStatus) ([]models.ClientService, error) {
	query := r.db.Preload("Product").Preload("Addon").Where("company_id = ?", companyID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var services []models.ClientService
	err := query.Order("start_date DESC").Order("id DESC").Find(&services).Error
	return services, err
}

func (r *GormClientServiceRepository) UpdateStatus(service *models.ClientService, subscription models.SubscriptionStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ClientService{}).
			Where("id = ?", service.ID).
			Updates(map[string]interface{}{
				"status":   service.Status,
				"end_date": service.EndDate,
			}).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Subscription{}).
			Where("client_service_id = ? AND status <> ?", service.ID, models.SubscriptionStatusCancelled).
			Update("status", subscription).Error
	})
}

// GormSubscriptionRepository is a GORM implementation of SubscriptionRepository
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) Create(subscription *models.Subscription) error {
	return r.db.Create(subscription).Error
}

func (r *GormSubscriptionRepository) FindInCompany(companyID, subscriptionID uint64) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := r.db.Where("company_id = ?", companyID).First(&subscription, subscriptionID).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *GormSubscriptionRepository) ListByCompany(companyID uint64) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := r.db.
		Where("company_id = ?", companyID).
		Order("next_billing_date ASC").Order("id ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *GormSubscriptionRepository) UpdateStatus(subscriptionID uint64, from, to models.SubscriptionStatus) (bool, error) {
	result := r.db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", subscriptionID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormSubscriptionRepository) ListDue(through time.Time) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := r.db.
		Where("status = ? AND next_billing_date <= ?", models.SubscriptionStatusActive, through).
		Order("next_billing_date ASC").Order("id ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

// Renew claims the billing period with a conditional update, so two runs can
// never invoice the same period, then inserts the invoice.
func (r *GormSubscriptionRepository) Renew(subscriptionID uint64, expected, next time.Time, invoice *models.Invoice) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Subscription{}).
			Where("id = ? AND status = ? AND next_billing_date = ?", subscriptionID, models.SubscriptionStatusActive, expected).
			Update("next_billing_date", next)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrSubscriptionNotDue
		}
		return tx.Create(invoice).Error
	})
}
