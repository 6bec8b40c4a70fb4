package repository

import (
	"github.com/yukikurage/agency-management-api/internal/database"
	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *GormProjectRepository) FindTree(id uint64) (*models.Project, error) {
	return loadTree(r.db, id)
}

// loadTree reads a project with its board in stage order.
func loadTree(db *gorm.DB, id uint64) (*models.Project, error) {
	var project models.Project
	err := db.
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("id ASC")
		}).
		Preload("Stages.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Stages.Tasks.Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.Model(&models.Project{}).Where("company_id = ?", filter.CompanyID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	listQuery := query.Scopes(database.NewestFirst)
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}
	if err := listQuery.Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update saves editable columns only, leaving progress to the recalculation path.
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Model(project).
		Select("name", "description", "status", "price", "start_date", "end_date").
		Updates(project).Error
}

func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteBoards(tx, []uint64{id}); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectAdditional{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}

func (r *GormProjectRepository) CreateStage(stage *models.Stage) error {
	return r.db.Create(stage).Error
}

func (r *GormProjectRepository) FindStage(projectID, stageID uint64) (*models.Stage, error) {
	var stage models.Stage
	if err := r.db.Where("project_id = ?", projectID).First(&stage, stageID).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *GormProjectRepository) CountStages(projectID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Stage{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// UpdateStage saves editable stage columns. Status belongs to the recalculation path.
func (r *GormProjectRepository) UpdateStage(stage *models.Stage) error {
	return r.db.Model(stage).
		Select("name", "sort_order", "due_date").
		Updates(stage).Error
}

func (r *GormProjectRepository) DeleteStage(stageID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Unscoped().Model(&models.Task{}).Select("id").Where("stage_id = ?", stageID)
		if err := deleteComments(tx, models.CommentTargetTask, taskIDs); err != nil {
			return err
		}
		if err := deleteComments(tx, models.CommentTargetStage, []uint64{stageID}); err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Subtask{}).Error; err != nil {
			return err
		}
		if err := tx.Where("stage_id = ?", stageID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Stage{}, stageID).Error
	})
}

func (r *GormProjectRepository) CreateAdditional(additional *models.ProjectAdditional) error {
	return r.db.Create(additional).Error
}

func (r *GormProjectRepository) ListAdditionals(projectID uint64) ([]models.ProjectAdditional, error) {
	var additionals []models.ProjectAdditional
	err := r.db.Where("project_id = ?", projectID).Order("id ASC").Find(&additionals).Error
	return additionals, err
}

func (r *GormProjectRepository) FindAdditional(projectID, additionalID uint64) (*models.ProjectAdditional, error) {
	var additional models.ProjectAdditional
	if err := r.db.Where("project_id = ?", projectID).First(&additional, additionalID).Error; err != nil {
		return nil, err
	}
	return &additional, nil
}

func (r *GormProjectRepository) DeleteAdditional(additionalID uint64) error {
	return r.db.Delete(&models.ProjectAdditional{}, additionalID).Error
}

// deleteBoards removes the stages, tasks and subtasks of the given projects.
// projectIDs may be a slice of IDs or a subquery.
func deleteBoards(tx *gorm.DB, projectIDs interface{}) error {
	stageIDs := tx.Model(&models.Stage{}).Select("id").Where("project_id IN (?)", projectIDs)
	taskIDs := tx.Unscoped().Model(&models.Task{}).Select("id").Where("stage_id IN (?)", stageIDs)

	if err := deleteComments(tx, models.CommentTargetTask, taskIDs); err != nil {
		return err
	}
	if err := deleteComments(tx, models.CommentTargetStage, stageIDs); err != nil {
		return err
	}
	if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Subtask{}).Error; err != nil {
		return err
	}
	if err := tx.Where("stage_id IN (?)", stageIDs).Delete(&models.Task{}).Error; err != nil {
		return err
	}
	return tx.Where("project_id IN (?)", projectIDs).Delete(&models.Stage{}).Error
}

// deleteComments removes the comments on the given targets. targetIDs may be a slice of IDs or a subquery.
func deleteComments(tx *gorm.DB, target models.CommentTarget, targetIDs interface{}) error {
	return tx.Where("target_type = ? AND target_id IN (?)", target, targetIDs).Delete(&models.Comment{}).Error
}
