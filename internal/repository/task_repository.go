package repository

import (
	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindInProject finds a task with its subtasks, scoped to the project's stages
func (r *GormTaskRepository) FindInProject(projectID, taskID uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Joins("JOIN stages ON stages.id = tasks.stage_id").
		Where("stages.project_id = ?", projectID).
		First(&task, "tasks.id = ?", taskID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update saves editable task columns. Weight is fixed at creation.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(task).
		Select("name", "description", "status", "priority", "due_date").
		Updates(task).Error
}

// Delete soft deletes a task and removes its subtasks
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Subtask{}).Error; err != nil {
			return err
		}
		if err := deleteComments(tx, models.CommentTargetTask, []uint64{id}); err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

func (r *GormTaskRepository) CreateSubtask(subtask *models.Subtask) error {
	return r.db.Create(subtask).Error
}

// FindSubtaskInProject finds a subtask whose task lives on one of the project's stages
func (r *GormTaskRepository) FindSubtaskInProject(projectID, subtaskID uint64) (*models.Subtask, error) {
	var subtask models.Subtask
	err := r.db.
		Joins("JOIN tasks ON tasks.id = subtasks.task_id AND tasks.deleted_at IS NULL").
		Joins("JOIN stages ON stages.id = tasks.stage_id").
		Where("stages.project_id = ?", projectID).
		First(&subtask, "subtasks.id = ?", subtaskID).Error
	if err != nil {
		return nil, err
	}
	return &subtask, nil
}

func (r *GormTaskRepository) UpdateSubtask(subtask *models.Subtask) error {
	return r.db.Model(subtask).
		Select("name", "is_completed", "due_date").
		Updates(subtask).Error
}

func (r *GormTaskRepository) DeleteSubtask(id uint64) error {
	return r.db.Delete(&models.Subtask{}, id).Error
}
