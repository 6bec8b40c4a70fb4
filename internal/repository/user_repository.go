package repository

import (
	"time"

	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts the user. A taken username surfaces as gorm.ErrDuplicatedKey.
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// TouchLastLogin stamps the login time without bumping updated_at.
func (r *GormUserRepository) TouchLastLogin(id uint64, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}
