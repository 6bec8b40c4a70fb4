package database

import (
	"fmt"
	"strings"

	"github.com/yukikurage/agency-management-api/internal/config"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialector returns the GORM dialector for the configured driver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.DBDriver) {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.DBName), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func Connect(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.GinMode == "debug" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established", "driver", cfg.DBDriver)
	return db, nil
}

// Models lists every persisted model in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Company{},
		&models.CompanyMember{},
		&models.Project{},
		&models.Stage{},
		&models.Task{},
		&models.Subtask{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Proposal{},
		&models.ProposalItem{},
		&models.ProjectAdditional{},
		&models.Product{},
		&models.ProductAddon{},
		&models.ClientService{},
		&models.Subscription{},
		&models.ServiceRequest{},
		&models.Comment{},
	}
}

func Migrate(db *gorm.DB, log *logger.Logger) error {
	log.Info("Running database migrations...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	log.Info("Database migrations completed")
	return nil
}
