package repository

import (
	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return r.db.Omit("User").Create(comment).Error
}

func (r *GormCommentRepository) FindByID(id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GormCommentRepository) ListByTarget(target models.CommentTarget, targetID uint64) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.
		Preload("User").
		Where("target_type = ? AND target_id = ?", target, targetID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *GormCommentRepository) UpdateBody(comment *models.Comment) error {
	return r.db.Model(comment).Select("body").Updates(comment).Error
}

func (r *GormCommentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Comment{}, id).Error
}
