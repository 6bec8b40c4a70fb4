package database

import (
	"fmt"

	"github.com/yukikurage/agency-management-api/internal/logger"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// compositeIndexes are the multi-column indexes that struct tags don't declare.
var compositeIndexes = []index{
	// Board ordering and status cascade lookups
	{"stages", "idx_stages_project_order", "project_id, sort_order"},
	{"tasks", "idx_tasks_stage_status", "stage_id, status"},

	// Invoice listing and overdue sweep
	{"invoices", "idx_invoices_company_status", "company_id, status"},
	{"invoices", "idx_invoices_status_due_date", "status, due_date"},

	// Payment history per invoice
	{"payments", "idx_payments_invoice_date", "invoice_id, payment_date"},

	// Recurring invoice run and comment threads
	{"subscriptions", "idx_subscriptions_status_next_billing", "status, next_billing_date"},
	{"comments", "idx_comments_target", "target_type, target_id"},

	// Memberships by user
	{"company_members", "idx_company_members_user_id", "user_id"},
}

// AddIndexes creates missing composite indexes. Safe to run repeatedly.
func AddIndexes(db *gorm.DB, log *logger.Logger) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("Index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
