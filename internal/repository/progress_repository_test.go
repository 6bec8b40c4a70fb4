package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yukikurage/agency-management-api/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestProgressTx_WritesSingleColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "status"=\$1 WHERE id = \$2`).
		WithArgs("completed", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "stages" SET "status"=\$1 WHERE id = \$2`).
		WithArgs("in_progress", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "projects" SET "progress"=\$1 WHERE id = \$2`).
		WithArgs(50, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithinTransaction(context.Background(), func(tx ProgressTx) error {
		if err := tx.SetTaskStatus(5, models.TaskStatusCompleted); err != nil {
			return err
		}
		if err := tx.SetStageStatus(3, models.StageStatusInProgress); err != nil {
			return err
		}
		return tx.SetProjectProgress(1, 50)
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressTx_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProgressRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "status"=\$1`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.WithinTransaction(context.Background(), func(tx ProgressTx) error {
		return tx.SetTaskStatus(5, models.TaskStatusCompleted)
	})

	require.True(t, errors.Is(err, sql.ErrConnDone))
	require.NoError(t, mock.ExpectationsWereMet())
}
