package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateCompany is returned when creating the company fails inside the create transaction.
	ErrCreateCompany = errors.New("company repository: create company failed")
	// ErrCreateCompanyMember is returned when creating the first membership fails inside the create transaction.
	ErrCreateCompanyMember = errors.New("company repository: create company member failed")
)

// GormCompanyRepository is a GORM implementation of CompanyRepository
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &GormCompanyRepository{db: db}
}

// CreateWithManager creates a company and its first manager atomically.
func (r *GormCompanyRepository) CreateWithManager(company *models.Company, manager *models.CompanyMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateCompany, err)
		}

		manager.CompanyID = company.ID
		if err := tx.Create(manager).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateCompanyMember, err)
		}

		return nil
	})
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(id uint64) (*models.Company, error) {
	var company models.Company
	if err := r.db.First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByInviteCode finds a company by invite code
func (r *GormCompanyRepository) FindByInviteCode(code string) (*models.Company, error) {
	var company models.Company
	if err := r.db.Where("invite_code = ?", code).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// Update updates a company
func (r *GormCompanyRepository) Update(company *models.Company) error {
	return r.db.Save(company).Error
}

// Delete deletes a company and all related data in a transaction
func (r *GormCompanyRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		projectIDs := tx.Model(&models.Project{}).Select("id").Where("company_id = ?", id)
		if err := deleteBoards(tx, projectIDs); err != nil {
			return err
		}
		if err := tx.Where("project_id IN (?)", projectIDs).Delete(&models.ProjectAdditional{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return err
		}

		proposalIDs := tx.Model(&models.Proposal{}).Select("id").Where("company_id = ?", id)
		if err := tx.Where("proposal_id IN (?)", proposalIDs).Delete(&models.ProposalItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}

		// Payments stay as the audit trail of the soft-deleted invoices.
		if err := tx.Where("company_id = ?", id).Delete(&models.Invoice{}).Error; err != nil {
			return err
		}

		requestIDs := tx.Model(&models.ServiceRequest{}).Select("id").Where("company_id = ?", id)
		if err := tx.Exec("DELETE FROM service_request_addons WHERE service_request_id IN (?)", requestIDs).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&models.ServiceRequest{}, &models.Subscription{}, &models.ClientService{}} {
			if err := tx.Where("company_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("company_id = ?", id).Delete(&models.CompanyMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Company{}, id).Error
	})
}

// AddMember adds a member to a company
func (r *GormCompanyRepository) AddMember(member *models.CompanyMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a company
func (r *GormCompanyRepository) RemoveMember(companyID, userID uint64) error {
	return r.db.Where("company_id = ? AND user_id = ?", companyID, userID).
		Delete(&models.CompanyMember{}).Error
}

// FindMember finds a specific company member
func (r *GormCompanyRepository) FindMember(companyID, userID uint64) (*models.CompanyMember, error) {
	var member models.CompanyMember
	if err := r.db.Where("company_id = ? AND user_id = ?", companyID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembersByUserID lists all companies a user is a member of
func (r *GormCompanyRepository) ListMembersByUserID(userID uint64) ([]models.CompanyMember, error) {
	var memberships []models.CompanyMember
	if err := r.db.Preload("Company").
		Where("user_id = ?", userID).
		Order("joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembers lists all members of a company
func (r *GormCompanyRepository) ListMembers(companyID uint64) ([]models.CompanyMember, error) {
	var members []models.CompanyMember
	if err := r.db.Preload("User").
		Where("company_id = ?", companyID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
