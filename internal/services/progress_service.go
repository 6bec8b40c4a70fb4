package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/metrics"
	"github.com/yukikurage/agency-management-api/internal/progress"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"gorm.io/gorm"
)

var ErrProjectNotFound = errors.New("project not found")

// ProgressService recalculates task statuses, stage statuses and project progress.
type ProgressService struct {
	progressRepo repository.ProgressRepository
	log          *logger.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(progressRepo repository.ProgressRepository, log *logger.Logger) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		log:          log.With("service", "ProgressService"),
	}
}

// Recalculate reloads the project tree, cascades statuses and stores the new
// progress in one transaction. Running it twice in a row writes nothing new.
func (s *ProgressService) Recalculate(ctx context.Context, projectID uint64) (int, error) {
	var result progress.Result
	err := s.progressRepo.WithinTransaction(ctx, func(tx repository.ProgressTx) error {
		var err error
		result, err = apply(tx, projectID)
		return err
	})
	return s.finish(projectID, result, err)
}

// ApplyChange runs change and the recalculation of the project in one
// transaction. If either fails nothing is persisted. Errors returned by change
// are passed through unchanged.
func (s *ProgressService) ApplyChange(ctx context.Context, projectID uint64, change func(tx repository.BoardTx) error) (int, error) {
	var result progress.Result
	var changeErr error
	err := s.progressRepo.WithinBoardTransaction(ctx, func(tx repository.BoardTx) error {
		if changeErr = change(tx); changeErr != nil {
			return changeErr
		}
		var err error
		result, err = apply(tx.Progress(), projectID)
		return err
	})
	if changeErr != nil {
		return 0, changeErr
	}
	return s.finish(projectID, result, err)
}

func (s *ProgressService) finish(projectID uint64, result progress.Result, err error) (int, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProjectNotFound
		}
		s.log.Error("progress recalculation failed", "project_id", projectID, "error", err)
		return 0, fmt.Errorf("failed to recalculate progress: %w", err)
	}

	metrics.IncrementProgressRecalculations()
	s.log.Debug("progress recalculated",
		"project_id", projectID,
		"progress", result.Progress,
		"task_changes", len(result.Tasks),
		"stage_changes", len(result.Stages),
	)
	return result.Progress, nil
}

// apply plans the cascade on a fresh tree and writes it through the quiet path.
func apply(tx repository.ProgressTx, projectID uint64) (progress.Result, error) {
	project, err := tx.LoadTree(projectID)
	if err != nil {
		return progress.Result{}, err
	}

	result := progress.Plan(project)

	for _, change := range result.Tasks {
		if err := tx.SetTaskStatus(change.TaskID, change.To); err != nil {
			return result, fmt.Errorf("task %d: %w", change.TaskID, err)
		}
	}
	for _, change := range result.Stages {
		if err := tx.SetStageStatus(change.StageID, change.To); err != nil {
			return result, fmt.Errorf("stage %d: %w", change.StageID, err)
		}
	}

	if project.Progress == result.Progress {
		return result, nil
	}
	return result, tx.SetProjectProgress(projectID, result.Progress)
}
