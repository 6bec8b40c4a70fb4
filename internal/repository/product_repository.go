package repository

import (
	"errors"
	"strings"

	"github.com/yukikurage/agency-management-api/internal/database"
	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

// ErrProductInUse is returned when deleting a product or addon that client services still reference.
var ErrProductInUse = errors.New("product repository: product is in use")

// GormProductRepository is a GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *GormProductRepository) FindByID(id uint64, activeAddons bool) (*models.Product, error) {
	var product models.Product
	err := r.db.
		Preload("Addons", func(db *gorm.DB) *gorm.DB {
			if activeAddons {
				db = db.Where("is_active = ?", true)
			}
			return db.Order("additional_price ASC").Order("id ASC")
		}).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) List(filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	listQuery := query.Order("base_price ASC").Order("id ASC")
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}
	if err := listQuery.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Update saves the editable catalogue columns.
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Model(product).
		Select("name", "slug", "category", "type", "billing_cycle", "base_price", "description", "is_active").
		Updates(product).Error
}

func (r *GormProductRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUnused(tx, "product_id = ?", id, &models.ClientService{}, &models.ServiceRequest{}); err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductAddon{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Product{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormProductRepository) CreateAddon(addon *models.ProductAddon) error {
	return r.db.Create(addon).Error
}

func (r *GormProductRepository) FindAddon(productID, addonID uint64) (*models.ProductAddon, error) {
	var addon models.ProductAddon
	if err := r.db.Where("product_id = ?", productID).First(&addon, addonID).Error; err != nil {
		return nil, err
	}
	return &addon, nil
}

func (r *GormProductRepository) FindActiveAddons(productID uint64, ids []uint64) ([]models.ProductAddon, error) {
	var addons []models.ProductAddon
	if len(ids) == 0 {
		return addons, nil
	}
	err := r.db.
		Where("product_id = ? AND is_active = ? AND id IN ?", productID, true, ids).
		Order("id ASC").
		Find(&addons).Error
	return addons, err
}

func (r *GormProductRepository) DeleteAddon(addonID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUnused(tx, "addon_id = ?", addonID, &models.ClientService{}); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM service_request_addons WHERE product_addon_id = ?", addonID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ProductAddon{}, addonID).Error
	})
}

// ensureUnused fails with ErrProductInUse when any of the models has a row matching cond.
func ensureUnused(tx *gorm.DB, cond string, id uint64, refs ...interface{}) error {
	for _, model := range refs {
		var count int64
		if err := tx.Model(model).Where(cond, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrProductInUse
		}
	}
	return nil
}
