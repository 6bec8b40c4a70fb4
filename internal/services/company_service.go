package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrCompanyNotFound            = errors.New("company not found")
	ErrInvalidCompanyName         = errors.New("company name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyCompanyMember       = errors.New("user is already a member of this company")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the company")
	ErrCompanyMemberNotFound      = errors.New("company member not found")
)

// CompanyService provides business logic for companies and their members.
type CompanyService struct {
	companyRepo repository.CompanyRepository
	log         *logger.Logger
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companyRepo repository.CompanyRepository, log *logger.Logger) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		log:         log.With("service", "CompanyService"),
	}
}

// CreateCompanyInput represents parameters to create a new company.
type CreateCompanyInput struct {
	Name      string
	TaxID     string
	ManagerID uint64
}

// CreateCompany creates a company and makes the creator its first manager.
func (s *CompanyService) CreateCompany(input CreateCompanyInput) (*models.Company, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidCompanyName
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	company := &models.Company{
		Name:       name,
		TaxID:      strings.TrimSpace(input.TaxID),
		InviteCode: inviteCode,
	}
	manager := &models.CompanyMember{
		UserID:   input.ManagerID,
		Role:     models.RoleManager,
		JoinedAt: time.Now(),
	}

	if err := s.companyRepo.CreateWithManager(company, manager); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.log.Info("company created", "company_id", company.ID, "manager_id", input.ManagerID)
	return company, nil
}

// ListCompaniesForUser returns the memberships of a user, with their companies.
func (s *CompanyService) ListCompaniesForUser(userID uint64) ([]models.CompanyMember, error) {
	memberships, err := s.companyRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return memberships, nil
}

// GetCompanyWithMembers returns a company and all of its members.
func (s *CompanyService) GetCompanyWithMembers(companyID uint64) (*models.Company, []models.CompanyMember, error) {
	company, err := s.findCompany(companyID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.companyRepo.ListMembers(companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list company members: %w", err)
	}

	return company, members, nil
}

// UpdateCompanyInput holds the editable company fields. Nil fields are left unchanged.
type UpdateCompanyInput struct {
	Name  *string
	TaxID *string
}

// UpdateCompany updates a company's name and tax ID.
func (s *CompanyService) UpdateCompany(companyID uint64, input UpdateCompanyInput) (*models.Company, error) {
	company, err := s.findCompany(companyID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidCompanyName
		}
		company.Name = name
	}
	if input.TaxID != nil {
		company.TaxID = strings.TrimSpace(*input.TaxID)
	}

	if err := s.companyRepo.Update(company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return company, nil
}

// DeleteCompany removes a company with everything that belongs to it.
func (s *CompanyService) DeleteCompany(companyID uint64) error {
	if _, err := s.findCompany(companyID); err != nil {
		return err
	}

	if err := s.companyRepo.Delete(companyID); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	s.log.Info("company deleted", "company_id", companyID)
	return nil
}

// JoinCompanyByInvite adds a user to a company as a client.
func (s *CompanyService) JoinCompanyByInvite(userID uint64, inviteCode string) (*models.Company, error) {
	company, err := s.companyRepo.FindByInviteCode(utils.NormalizeInviteCode(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find company by invite code: %w", err)
	}

	if _, err := s.companyRepo.FindMember(company.ID, userID); err == nil {
		return nil, ErrAlreadyCompanyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.CompanyMember{
		CompanyID: company.ID,
		UserID:    userID,
		Role:      models.RoleClient,
		JoinedAt:  time.Now(),
	}

	if err := s.companyRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to company: %w", err)
	}

	return company, nil
}

// RegenerateInviteCode replaces the company's invite code.
func (s *CompanyService) RegenerateInviteCode(companyID uint64) (*models.Company, error) {
	company, err := s.findCompany(companyID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	company.InviteCode = code
	if err := s.companyRepo.Update(company); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return company, nil
}

// RemoveMember removes a member from the company.
func (s *CompanyService) RemoveMember(companyID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.companyRepo.FindMember(companyID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCompanyMemberNotFound
		}
		return fmt.Errorf("failed to find company member: %w", err)
	}

	if err := s.companyRepo.RemoveMember(companyID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

func (s *CompanyService) findCompany(companyID uint64) (*models.Company, error) {
	company, err := s.companyRepo.FindByID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to find company: %w", err)
	}
	return company, nil
}
