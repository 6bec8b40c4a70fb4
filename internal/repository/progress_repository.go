package repository

import (
	"context"

	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

// GormProgressRepository is a GORM implementation of ProgressRepository
type GormProgressRepository struct {
	db *gorm.DB
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &GormProgressRepository{db: db}
}

func (r *GormProgressRepository) WithinTransaction(ctx context.Context, fn func(tx ProgressTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormProgressTx{tx: tx})
	})
}

func (r *GormProgressRepository) WithinBoardTransaction(ctx context.Context, fn func(tx BoardTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBoardTx{tx: tx})
	})
}

type gormBoardTx struct {
	tx *gorm.DB
}

func (t *gormBoardTx) Tasks() TaskRepository       { return NewTaskRepository(t.tx) }
func (t *gormBoardTx) Projects() ProjectRepository { return NewProjectRepository(t.tx) }
func (t *gormBoardTx) Progress() ProgressTx        { return &gormProgressTx{tx: t.tx} }

type gormProgressTx struct {
	tx *gorm.DB
}

func (t *gormProgressTx) LoadTree(projectID uint64) (*models.Project, error) {
	return loadTree(t.tx, projectID)
}

// The setters use UpdateColumn: a single column, no hooks, no updated_at bump.

func (t *gormProgressTx) SetTaskStatus(taskID uint64, status models.TaskStatus) error {
	return t.tx.Model(&models.Task{}).Where("id = ?", taskID).UpdateColumn("status", status).Error
}

func (t *gormProgressTx) SetStageStatus(stageID uint64, status models.StageStatus) error {
	return t.tx.Model(&models.Stage{}).Where("id = ?", stageID).UpdateColumn("status", status).Error
}

func (t *gormProgressTx) SetProjectProgress(projectID uint64, progress int) error {
	return t.tx.Model(&models.Project{}).Where("id = ?", projectID).UpdateColumn("progress", progress).Error
}
