package repository

import (
	"errors"

	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

// ErrProposalNotConvertible is returned when a proposal is no longer draft or sent at conversion time.
var ErrProposalNotConvertible = errors.New("proposal repository: proposal is not convertible")

// GormProposalRepository is a GORM implementation of ProposalRepository
type GormProposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository creates a new ProposalRepository
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &GormProposalRepository{db: db}
}

func (r *GormProposalRepository) Create(proposal *models.Proposal) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(proposal).Error
	})
}

func (r *GormProposalRepository) FindInCompany(companyID, proposalID uint64) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("company_id = ?", companyID).
		First(&proposal, proposalID).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *GormProposalRepository) ListByCompany(companyID uint64) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.
		Where("company_id = ?", companyID).
		Order("created_at DESC").Order("id DESC").
		Find(&proposals).Error
	return proposals, err
}

// Convert accepts the proposal and creates the project and its first invoice atomically.
func (r *GormProposalRepository) Convert(proposalID uint64, project *models.Project, invoice *models.Invoice) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Proposal{}).
			Where("id = ? AND status IN ?", proposalID,
				[]models.ProposalStatus{models.ProposalStatusDraft, models.ProposalStatusSent}).
			Updates(map[string]interface{}{
				"status":     models.ProposalStatusAccepted,
				"project_id": project.ID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrProposalNotConvertible
		}

		invoice.ProjectID = &project.ID
		return tx.Create(invoice).Error
	})
}
