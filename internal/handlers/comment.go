package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/dto"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/services"
)

// CommentHandler serves discussion threads on tasks and stages.
type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

type commentRequest struct {
	Body string `json:"body" binding:"required,max=5000"`
}

func (h *CommentHandler) ListTaskComments(c *gin.Context) {
	h.list(c, models.CommentTargetTask, "task_id", "task")
}

func (h *CommentHandler) ListStageComments(c *gin.Context) {
	h.list(c, models.CommentTargetStage, "stage_id", "stage")
}

func (h *CommentHandler) CreateTaskComment(c *gin.Context) {
	h.create(c, models.CommentTargetTask, "task_id", "task")
}

func (h *CommentHandler) CreateStageComment(c *gin.Context) {
	h.create(c, models.CommentTargetStage, "stage_id", "stage")
}

func (h *CommentHandler) list(c *gin.Context, typ models.CommentTarget, param, label string) {
	target, ok := commentTarget(c, typ, param, label)
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(target)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	items := make([]dto.CommentDTO, len(comments))
	for i, comment := range comments {
		items[i] = dto.ToCommentDTO(comment)
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": items,
	})
}

func (h *CommentHandler) create(c *gin.Context, typ models.CommentTarget, param, label string) {
	target, ok := commentTarget(c, typ, param, label)
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), target, userID, req.Body)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// UpdateComment edits the caller's own comment
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	commentID, ok := parseIDParam(c, "comment_id", "comment")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), current.ID, commentID, userID, req.Body)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

// DeleteComment removes a comment. Authors remove their own, managers any.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}
	commentID, ok := parseIDParam(c, "comment_id", "comment")
	if !ok {
		return
	}
	member, ok := middleware.GetCompanyMember(c)
	if !ok {
		apierrors.Forbidden(c, "Company access required")
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), current.ID, commentID, member.UserID, member.CanManage()); err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}

func commentTarget(c *gin.Context, typ models.CommentTarget, param, label string) (services.CommentTargetRef, bool) {
	current, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return services.CommentTargetRef{}, false
	}
	id, ok := parseIDParam(c, param, label)
	if !ok {
		return services.CommentTargetRef{}, false
	}
	return services.CommentTargetRef{ProjectID: current.ID, Type: typ, ID: id}, true
}

func respondCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCommentBodyRequired):
		fieldError(c, "body", err)
	case errors.Is(err, services.ErrCommentForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrStageNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
