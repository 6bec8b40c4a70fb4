package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/testutil"
)

type ProgressServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ProgressService
	company *models.Company
	project *models.Project
}

func (s *ProgressServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.service = NewProgressService(repository.NewProgressRepository(s.db), logger.NewNop())
	s.company = testutil.CreateCompany(s.T(), s.db, "Acme")
	s.project = testutil.CreateProject(s.T(), s.db, s.company.ID, "Website")
}

func (s *ProgressServiceTestSuite) reload() (*models.Project, error) {
	return repository.NewProjectRepository(s.db).FindTree(s.project.ID)
}

func (s *ProgressServiceTestSuite) TestRecalculate_EmptyProjectIsZero() {
	progress, err := s.service.Recalculate(context.Background(), s.project.ID)
	s.Require().NoError(err)
	s.Equal(0, progress)
}

func (s *ProgressServiceTestSuite) TestRecalculate_UnknownProject() {
	_, err := s.service.Recalculate(context.Background(), 9999)
	s.ErrorIs(err, ErrProjectNotFound)
}

func (s *ProgressServiceTestSuite) TestRecalculate_CascadesAndStoresProgress() {
	design := testutil.CreateStage(s.T(), s.db, s.project.ID, "Design", 1)
	build := testutil.CreateStage(s.T(), s.db, s.project.ID, "Build", 2)

	wireframes := testutil.CreateTask(s.T(), s.db, design.ID, "Wireframes", models.TaskStatusPending, "1.00")
	testutil.CreateSubtask(s.T(), s.db, wireframes.ID, "Home", true)
	testutil.CreateSubtask(s.T(), s.db, wireframes.ID, "About", true)
	testutil.CreateTask(s.T(), s.db, design.ID, "Moodboard", models.TaskStatusCompleted, "1.00")
	testutil.CreateTask(s.T(), s.db, build.ID, "Frontend", models.TaskStatusPending, "1.00")
	testutil.CreateTask(s.T(), s.db, build.ID, "Backend", models.TaskStatusInProgress, "1.00")

	progress, err := s.service.Recalculate(context.Background(), s.project.ID)
	s.Require().NoError(err)
	s.Equal(50, progress)

	project, err := s.reload()
	s.Require().NoError(err)
	s.Equal(50, project.Progress)
	s.Equal(models.StageStatusCompleted, project.Stages[0].Status)
	s.Equal(models.TaskStatusCompleted, project.Stages[0].Tasks[0].Status)
	s.Equal(models.StageStatusPending, project.Stages[1].Status)
}

func (s *ProgressServiceTestSuite) TestRecalculate_WeightedTasks() {
	stage := testutil.CreateStage(s.T(), s.db, s.project.ID, "Launch", 1)
	testutil.CreateTask(s.T(), s.db, stage.ID, "Small", models.TaskStatusCompleted, "1.00")
	testutil.CreateTask(s.T(), s.db, stage.ID, "Large", models.TaskStatusPending, "3.00")

	progress, err := s.service.Recalculate(context.Background(), s.project.ID)
	s.Require().NoError(err)
	s.Equal(25, progress)

	project, err := s.reload()
	s.Require().NoError(err)
	s.Equal(models.StageStatusInProgress, project.Stages[0].Status)
}

func (s *ProgressServiceTestSuite) TestRecalculate_ReopensTaskWhenSubtaskReopened() {
	stage := testutil.CreateStage(s.T(), s.db, s.project.ID, "Content", 1)
	task := testutil.CreateTask(s.T(), s.db, stage.ID, "Copy", models.TaskStatusCompleted, "1.00")
	testutil.CreateSubtask(s.T(), s.db, task.ID, "Draft", true)
	testutil.CreateSubtask(s.T(), s.db, task.ID, "Review", false)

	progress, err := s.service.Recalculate(context.Background(), s.project.ID)
	s.Require().NoError(err)
	s.Equal(50, progress)

	project, err := s.reload()
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, project.Stages[0].Tasks[0].Status)
	s.Equal(models.StageStatusPending, project.Stages[0].Status)
}

func (s *ProgressServiceTestSuite) TestRecalculate_Idempotent() {
	stage := testutil.CreateStage(s.T(), s.db, s.project.ID, "QA", 1)
	task := testutil.CreateTask(s.T(), s.db, stage.ID, "Regression", models.TaskStatusPending, "2.00")
	testutil.CreateSubtask(s.T(), s.db, task.ID, "Chrome", true)
	testutil.CreateSubtask(s.T(), s.db, task.ID, "Safari", false)
	testutil.CreateSubtask(s.T(), s.db, task.ID, "Firefox", false)

	first, err := s.service.Recalculate(context.Background(), s.project.ID)
	s.Require().NoError(err)
	before, err := s.reload()
	s.Require().NoError(err)

	second, err := s.service.Recalculate(context.Background(), s.project.ID)
	s.Require().NoError(err)
	after, err := s.reload()
	s.Require().NoError(err)

	s.Equal(33, first)
	s.Equal(first, second)
	s.Equal(before.Stages[0].Status, after.Stages[0].Status)
	s.Equal(before.Stages[0].Tasks[0].Status, after.Stages[0].Tasks[0].Status)
}

func TestProgressServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProgressServiceTestSuite))
}
