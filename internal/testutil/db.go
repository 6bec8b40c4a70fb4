// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yukikurage/agency-management-api/internal/database"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
)

// NewDB opens a private in-memory SQLite database with every model migrated.
// A single connection is used so transactions and plain queries share one database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db, logger.NewNop()))
	return db
}

// Dec parses a decimal literal or fails the test.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date returns midnight UTC for the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hashedpassword"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, InviteCode: uuid.NewString()[:14]}
	require.NoError(t, db.Create(company).Error)
	return company
}

func AddMember(t *testing.T, db *gorm.DB, companyID, userID uint64, role models.CompanyRole) *models.CompanyMember {
	t.Helper()
	member := &models.CompanyMember{CompanyID: companyID, UserID: userID, Role: role, JoinedAt: time.Now()}
	require.NoError(t, db.Create(member).Error)
	return member
}

func CreateProject(t *testing.T, db *gorm.DB, companyID uint64, name string) *models.Project {
	t.Helper()
	project := &models.Project{CompanyID: companyID, Name: name, Status: models.ProjectStatusActive}
	require.NoError(t, db.Create(project).Error)
	return project
}

func CreateStage(t *testing.T, db *gorm.DB, projectID uint64, name string, order int) *models.Stage {
	t.Helper()
	stage := &models.Stage{ProjectID: projectID, Name: name, Order: order, Status: models.StageStatusPending}
	require.NoError(t, db.Create(stage).Error)
	return stage
}

func CreateTask(t *testing.T, db *gorm.DB, stageID uint64, name string, status models.TaskStatus, weight string) *models.Task {
	t.Helper()
	task := &models.Task{
		StageID:  stageID,
		Name:     name,
		Status:   status,
		Priority: models.TaskPriorityMedium,
		Weight:   Dec(weight),
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func CreateSubtask(t *testing.T, db *gorm.DB, taskID uint64, name string, done bool) *models.Subtask {
	t.Helper()
	subtask := &models.Subtask{TaskID: taskID, Name: name, IsCompleted: done}
	require.NoError(t, db.Create(subtask).Error)
	return subtask
}

func CreateInvoice(t *testing.T, db *gorm.DB, companyID uint64, number string, status models.InvoiceStatus, total string) *models.Invoice {
	t.Helper()
	invoice := &models.Invoice{
		CompanyID:  companyID,
		Number:     number,
		Date:       Date(2026, time.January, 5),
		DueDate:    Date(2026, time.February, 4),
		Status:     status,
		Total:      Dec(total),
		BalanceDue: Dec(total),
		Currency:   "USD",
	}
	require.NoError(t, db.Create(invoice).Error)
	return invoice
}

func CreateProduct(t *testing.T, db *gorm.DB, name string, typ models.ProductType, cycle models.BillingCycle, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:         name,
		Slug:         uuid.NewString(),
		Category:     models.ProductCategoryHosting,
		Type:         typ,
		BillingCycle: cycle,
		BasePrice:    Dec(price),
		IsActive:     true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func CreateAddon(t *testing.T, db *gorm.DB, productID uint64, name, price string) *models.ProductAddon {
	t.Helper()
	addon := &models.ProductAddon{ProductID: productID, Name: name, AdditionalPrice: Dec(price), IsActive: true}
	require.NoError(t, db.Create(addon).Error)
	return addon
}

func CreateSubscription(t *testing.T, db *gorm.DB, companyID uint64, plan string, cycle models.BillingCycle, price string, next time.Time) *models.Subscription {
	t.Helper()
	subscription := &models.Subscription{
		CompanyID:       companyID,
		PlanName:        plan,
		Price:           Dec(price),
		BillingCycle:    cycle,
		NextBillingDate: next,
		Status:          models.SubscriptionStatusActive,
	}
	require.NoError(t, db.Create(subscription).Error)
	return subscription
}
