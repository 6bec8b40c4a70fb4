package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/testutil"
)

func TestCompanyService_CreateJoinAndRemove(t *testing.T) {
	db := testutil.NewDB(t)
	service := NewCompanyService(repository.NewCompanyRepository(db), logger.NewNop())

	manager := testutil.CreateUser(t, db, "manager")
	client := testutil.CreateUser(t, db, "client")

	company, err := service.CreateCompany(CreateCompanyInput{Name: "  Acme  ", TaxID: "B-123", ManagerID: manager.ID})
	require.NoError(t, err)
	assert.Equal(t, "Acme", company.Name)
	assert.NotEmpty(t, company.InviteCode)

	_, err = service.CreateCompany(CreateCompanyInput{Name: " ", ManagerID: manager.ID})
	assert.ErrorIs(t, err, ErrInvalidCompanyName)

	joined, err := service.JoinCompanyByInvite(client.ID, company.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, company.ID, joined.ID)

	_, err = service.JoinCompanyByInvite(client.ID, company.InviteCode)
	assert.ErrorIs(t, err, ErrAlreadyCompanyMember)

	_, err = service.JoinCompanyByInvite(client.ID, "nope-nope-nope")
	assert.ErrorIs(t, err, ErrInvalidInviteCode)

	partner := testutil.CreateUser(t, db, "partner")
	_, err = service.JoinCompanyByInvite(partner.ID, " "+strings.ToLower(company.InviteCode)+" ")
	require.NoError(t, err)
	require.NoError(t, service.RemoveMember(company.ID, manager.ID, partner.ID))

	_, members, err := service.GetCompanyWithMembers(company.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	roles := map[uint64]models.CompanyRole{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, models.RoleManager, roles[manager.ID])
	assert.Equal(t, models.RoleClient, roles[client.ID])

	assert.ErrorIs(t, service.RemoveMember(company.ID, manager.ID, manager.ID), ErrCannotRemoveYourself)
	require.NoError(t, service.RemoveMember(company.ID, manager.ID, client.ID))
	assert.ErrorIs(t, service.RemoveMember(company.ID, manager.ID, client.ID), ErrCompanyMemberNotFound)
}

func TestCompanyService_RegenerateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	service := NewCompanyService(repository.NewCompanyRepository(db), logger.NewNop())
	manager := testutil.CreateUser(t, db, "manager")

	company, err := service.CreateCompany(CreateCompanyInput{Name: "Acme", ManagerID: manager.ID})
	require.NoError(t, err)
	oldCode := company.InviteCode

	updated, err := service.RegenerateInviteCode(company.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldCode, updated.InviteCode)

	project := testutil.CreateProject(t, db, company.ID, "Website")
	stage := testutil.CreateStage(t, db, project.ID, "Design", 1)
	testutil.CreateTask(t, db, stage.ID, "Logo", models.TaskStatusPending, "1.00")
	testutil.CreateInvoice(t, db, company.ID, "INV-2026-0001", models.InvoiceStatusDraft, "10.00")

	require.NoError(t, service.DeleteCompany(company.ID))
	assert.ErrorIs(t, service.DeleteCompany(company.ID), ErrCompanyNotFound)

	var projects, tasks, invoices, members int64
	require.NoError(t, db.Model(&models.Project{}).Count(&projects).Error)
	require.NoError(t, db.Model(&models.Task{}).Count(&tasks).Error)
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoices).Error)
	require.NoError(t, db.Model(&models.CompanyMember{}).Count(&members).Error)
	assert.Zero(t, projects)
	assert.Zero(t, tasks)
	assert.Zero(t, invoices)
	assert.Zero(t, members)
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	service := NewAuthService(repository.NewUserRepository(db), logger.NewNop())

	user, err := service.Signup(SignupInput{Username: " alice ", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "supersecret", user.PasswordHash)

	_, err = service.Signup(SignupInput{Username: "alice", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = service.Signup(SignupInput{Username: "bob", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = service.Signup(SignupInput{Username: "  ", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrUsernameRequired)

	loggedIn, err := service.Login(LoginInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotNil(t, loggedIn.LastLoginAt)

	stored, err := service.GetUser(user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	_, err = service.Login(LoginInput{Username: "alice", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.GetUser(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
