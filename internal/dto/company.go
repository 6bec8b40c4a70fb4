package dto

import (
	"time"

	"github.com/yukikurage/agency-management-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// CurrentUserDTO is the session owner with their company memberships
type CurrentUserDTO struct {
	UserDTO
	LastLoginAt *time.Time           `json:"last_login_at"`
	Companies   []CompanyWithRoleDTO `json:"companies"`
}

// CompanyDTO represents a company in API responses
type CompanyDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id,omitempty"`
	InviteCode string `json:"invite_code,omitempty"`
}

// CompanyWithRoleDTO represents a company with the user's role
type CompanyWithRoleDTO struct {
	CompanyDTO
	Role models.CompanyRole `json:"role"`
}

// CompanyMemberDTO represents a member in a company
type CompanyMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.CompanyRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// CompanyDetailDTO represents detailed company information
type CompanyDetailDTO struct {
	CompanyDTO
	Members  []CompanyMemberDTO `json:"members"`
	YourRole models.CompanyRole `json:"your_role"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToCurrentUserDTO converts a user and their memberships
func ToCurrentUserDTO(user models.User, memberships []models.CompanyMember) CurrentUserDTO {
	companies := make([]CompanyWithRoleDTO, len(memberships))
	for i, m := range memberships {
		companies[i] = ToCompanyWithRoleDTO(m)
	}
	return CurrentUserDTO{
		UserDTO:     ToUserDTO(user),
		LastLoginAt: user.LastLoginAt,
		Companies:   companies,
	}
}

// ToCompanyDTO converts a Company model to CompanyDTO.
// The invite code is only shown to managers.
func ToCompanyDTO(company models.Company, includeInviteCode bool) CompanyDTO {
	dto := CompanyDTO{
		ID:    company.ID,
		Name:  company.Name,
		TaxID: company.TaxID,
	}
	if includeInviteCode {
		dto.InviteCode = company.InviteCode
	}
	return dto
}

// ToCompanyWithRoleDTO converts a membership to a company DTO with role
func ToCompanyWithRoleDTO(member models.CompanyMember) CompanyWithRoleDTO {
	return CompanyWithRoleDTO{
		CompanyDTO: ToCompanyDTO(member.Company, false),
		Role:       member.Role,
	}
}

// ToCompanyMemberDTO converts a member to DTO
func ToCompanyMemberDTO(member models.CompanyMember) CompanyMemberDTO {
	return CompanyMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToCompanyDetailDTO converts a company with members to detailed DTO
func ToCompanyDetailDTO(company models.Company, members []models.CompanyMember, yourRole models.CompanyRole) CompanyDetailDTO {
	memberDTOs := make([]CompanyMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToCompanyMemberDTO(member)
	}

	return CompanyDetailDTO{
		CompanyDTO: ToCompanyDTO(company, yourRole == models.RoleManager),
		Members:    memberDTOs,
		YourRole:   yourRole,
	}
}
