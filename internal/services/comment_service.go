package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrCommentBodyRequired = errors.New("comment body is required")
	ErrCommentForbidden    = errors.New("only the author can edit this comment")
)

// CommentService handles discussion threads on tasks and stages. Every company
// member may comment; only authors edit, and authors or managers delete.
type CommentService struct {
	commentRepo repository.CommentRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	publisher   events.Publisher
	log         *logger.Logger
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	publisher events.Publisher,
	log *logger.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		publisher:   publisher,
		log:         log.With("service", "CommentService"),
	}
}

// CommentTargetRef names the task or stage a thread belongs to.
type CommentTargetRef struct {
	ProjectID uint64
	Type      models.CommentTarget
	ID        uint64
}

// ListComments returns a thread, oldest first.
func (s *CommentService) ListComments(target CommentTargetRef) ([]models.Comment, error) {
	if err := s.checkTarget(target); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByTarget(target.Type, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// CreateComment posts to a thread and announces it on the thread's channel.
func (s *CommentService) CreateComment(ctx context.Context, target CommentTargetRef, userID uint64, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrCommentBodyRequired
	}
	if err := s.checkTarget(target); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:     userID,
		TargetType: target.Type,
		TargetID:   target.ID,
		Body:       body,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	created, err := s.commentRepo.FindByID(comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}

	events.PublishAfterCommit(ctx, s.publisher, s.log, events.NewCommentChanged(events.TypeCommentCreated, *created))
	s.log.Info("comment created", "comment_id", created.ID, "target", target.Type, "target_id", target.ID, "user_id", userID)
	return created, nil
}

// UpdateComment edits the body of the caller's own comment.
func (s *CommentService) UpdateComment(ctx context.Context, projectID, commentID, userID uint64, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrCommentBodyRequired
	}
	comment, err := s.findInProject(projectID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrCommentForbidden
	}

	comment.Body = body
	if err := s.commentRepo.UpdateBody(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	events.PublishAfterCommit(ctx, s.publisher, s.log, events.NewCommentChanged(events.TypeCommentUpdated, *comment))
	return comment, nil
}

// DeleteComment removes a comment. Managers may remove anyone's.
func (s *CommentService) DeleteComment(ctx context.Context, projectID, commentID, userID uint64, isManager bool) error {
	comment, err := s.findInProject(projectID, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID && !isManager {
		return ErrCommentForbidden
	}

	if err := s.commentRepo.Delete(comment.ID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	events.PublishAfterCommit(ctx, s.publisher, s.log, events.NewCommentChanged(events.TypeCommentDeleted, *comment))
	s.log.Info("comment deleted", "comment_id", comment.ID, "by", userID)
	return nil
}

// findInProject loads a comment only if its task or stage is on the project's board.
func (s *CommentService) findInProject(projectID, commentID uint64) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	err = s.checkTarget(CommentTargetRef{ProjectID: projectID, Type: comment.TargetType, ID: comment.TargetID})
	if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrStageNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) checkTarget(target CommentTargetRef) error {
	switch target.Type {
	case models.CommentTargetTask:
		if _, err := s.taskRepo.FindInProject(target.ProjectID, target.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to find task: %w", err)
		}
	case models.CommentTargetStage:
		if _, err := s.projectRepo.FindStage(target.ProjectID, target.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStageNotFound
			}
			return fmt.Errorf("failed to find stage: %w", err)
		}
	default:
		return fmt.Errorf("unknown comment target %q", target.Type)
	}
	return nil
}
