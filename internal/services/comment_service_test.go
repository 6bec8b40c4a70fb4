package services

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/testutil"
)

type CommentServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	publisher *mockPublisher
	service   *CommentService
	tasks     *TaskService
	projects  *ProjectService
	project   *models.Project
	stage     *models.Stage
	task      *models.Task
	author    *models.User
	other     *models.User
}

func (s *CommentServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.publisher = newMockPublisher()
	log := logger.NewNop()
	projectRepo := repository.NewProjectRepository(s.db)
	taskRepo := repository.NewTaskRepository(s.db)
	progress := NewProgressService(repository.NewProgressRepository(s.db), log)

	s.service = NewCommentService(repository.NewCommentRepository(s.db), projectRepo, taskRepo, s.publisher, log)
	s.tasks = NewTaskService(taskRepo, projectRepo, progress, nil, log)
	s.projects = NewProjectService(projectRepo, progress, log)

	company := testutil.CreateCompany(s.T(), s.db, "Acme")
	s.project = testutil.CreateProject(s.T(), s.db, company.ID, "Website")
	s.stage = testutil.CreateStage(s.T(), s.db, s.project.ID, "Build", 1)
	s.task = testutil.CreateTask(s.T(), s.db, s.stage.ID, "Landing page", models.TaskStatusPending, "1.00")
	s.author = testutil.CreateUser(s.T(), s.db, "client")
	s.other = testutil.CreateUser(s.T(), s.db, "designer")
}

func (s *CommentServiceTestSuite) onTask() CommentTargetRef {
	return CommentTargetRef{ProjectID: s.project.ID, Type: models.CommentTargetTask, ID: s.task.ID}
}

func (s *CommentServiceTestSuite) TestCreateComment_PublishesToThread() {
	comment, err := s.service.CreateComment(context.Background(), s.onTask(), s.author.ID, "  Can we use the blue logo?  ")
	s.Require().NoError(err)
	s.Equal("Can we use the blue logo?", comment.Body)
	s.Equal("client", comment.User.Username)

	created := s.publisher.eventsOfType(events.TypeCommentCreated)
	s.Require().Len(created, 1)
	s.Equal([]string{"comments.task." + strconv.FormatUint(s.task.ID, 10)}, created[0].Channels)

	_, err = s.service.CreateComment(context.Background(), s.onTask(), s.author.ID, "   ")
	s.ErrorIs(err, ErrCommentBodyRequired)

	_, err = s.service.CreateComment(context.Background(),
		CommentTargetRef{ProjectID: s.project.ID, Type: models.CommentTargetStage, ID: s.stage.ID + 100}, s.author.ID, "Hi")
	s.ErrorIs(err, ErrStageNotFound)

	otherProject := testutil.CreateProject(s.T(), s.db, s.project.CompanyID, "Other")
	_, err = s.service.CreateComment(context.Background(),
		CommentTargetRef{ProjectID: otherProject.ID, Type: models.CommentTargetTask, ID: s.task.ID}, s.author.ID, "Hi")
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *CommentServiceTestSuite) TestListComments_OldestFirst() {
	stage := CommentTargetRef{ProjectID: s.project.ID, Type: models.CommentTargetStage, ID: s.stage.ID}
	_, err := s.service.CreateComment(context.Background(), stage, s.author.ID, "First")
	s.Require().NoError(err)
	_, err = s.service.CreateComment(context.Background(), stage, s.other.ID, "Second")
	s.Require().NoError(err)
	_, err = s.service.CreateComment(context.Background(), s.onTask(), s.other.ID, "Elsewhere")
	s.Require().NoError(err)

	comments, err := s.service.ListComments(stage)
	s.Require().NoError(err)
	s.Require().Len(comments, 2)
	s.Equal("First", comments[0].Body)
	s.Equal("designer", comments[1].User.Username)
}

func (s *CommentServiceTestSuite) TestUpdateAndDelete_Permissions() {
	comment, err := s.service.CreateComment(context.Background(), s.onTask(), s.author.ID, "Draft")
	s.Require().NoError(err)

	_, err = s.service.UpdateComment(context.Background(), s.project.ID, comment.ID, s.other.ID, "Hijacked")
	s.ErrorIs(err, ErrCommentForbidden)

	updated, err := s.service.UpdateComment(context.Background(), s.project.ID, comment.ID, s.author.ID, "Final")
	s.Require().NoError(err)
	s.Equal("Final", updated.Body)
	s.Len(s.publisher.eventsOfType(events.TypeCommentUpdated), 1)

	s.ErrorIs(s.service.DeleteComment(context.Background(), s.project.ID, comment.ID, s.other.ID, false), ErrCommentForbidden)

	otherProject := testutil.CreateProject(s.T(), s.db, s.project.CompanyID, "Other")
	s.ErrorIs(s.service.DeleteComment(context.Background(), otherProject.ID, comment.ID, s.other.ID, true), ErrCommentNotFound)

	s.Require().NoError(s.service.DeleteComment(context.Background(), s.project.ID, comment.ID, s.other.ID, true))
	deleted := s.publisher.eventsOfType(events.TypeCommentDeleted)
	s.Require().Len(deleted, 1)
	s.Empty(deleted[0].Data.(events.CommentChanged).Body)

	_, err = s.service.UpdateComment(context.Background(), s.project.ID, comment.ID, s.author.ID, "Again")
	s.ErrorIs(err, ErrCommentNotFound)
}

func (s *CommentServiceTestSuite) TestDeletingTaskRemovesItsComments() {
	_, err := s.service.CreateComment(context.Background(), s.onTask(), s.author.ID, "On the task")
	s.Require().NoError(err)

	s.Require().NoError(s.tasks.DeleteTask(context.Background(), s.project.ID, s.task.ID))

	var count int64
	s.Require().NoError(s.db.Model(&models.Comment{}).Where("target_type = ? AND target_id = ?", models.CommentTargetTask, s.task.ID).Count(&count).Error)
	s.Zero(count)
}

func (s *CommentServiceTestSuite) TestProjectAdditionals() {
	first, err := s.projects.AddAdditional(s.project.ID, "Extra landing page", testutil.Dec("250.00"))
	s.Require().NoError(err)
	_, err = s.projects.AddAdditional(s.project.ID, "Copywriting", testutil.Dec("99.995"))
	s.Require().NoError(err)

	_, err = s.projects.AddAdditional(s.project.ID, "Rounding", testutil.Dec("0.004"))
	s.ErrorIs(err, ErrInvalidAdditionalAmount)
	_, err = s.projects.AddAdditional(s.project.ID, " ", testutil.Dec("10"))
	s.ErrorIs(err, ErrDescriptionRequired)

	additionals, total, err := s.projects.ListAdditionals(s.project.ID)
	s.Require().NoError(err)
	s.Len(additionals, 2)
	s.Equal("350.00", money.Format(total))

	otherProject := testutil.CreateProject(s.T(), s.db, s.project.CompanyID, "Other")
	s.ErrorIs(s.projects.DeleteAdditional(otherProject.ID, first.ID), ErrProjectAdditionalMissing)
	s.Require().NoError(s.projects.DeleteAdditional(s.project.ID, first.ID))

	_, total, err = s.projects.ListAdditionals(s.project.ID)
	s.Require().NoError(err)
	s.Equal("100.00", money.Format(total))
}

func TestCommentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CommentServiceTestSuite))
}
