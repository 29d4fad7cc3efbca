package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// CommentHandler handles the public comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// submitResponse is the body of a successful submission
type submitResponse struct {
	OK bool `json:"ok"`
	*models.SubmitResult
}

// ListComments handles GET /api/comments?page=&approved=
// Only approved comments are listed unless approved=false is passed.
func (h *CommentHandler) ListComments(c *gin.Context) {
	page := c.DefaultQuery("page", defaultPage)
	approvedOnly := c.Query("approved") != "false"

	list, err := h.services.Comment.ListComments(c.Request.Context(), page, approvedOnly)
	if err != nil {
		respondError(c, h.log, err, "Failed to list comments")
		return
	}
	if list == nil {
		list = []models.Comment{}
	}

	c.JSON(http.StatusOK, list)
}

// SubmitComment handles POST /api/comments
func (h *CommentHandler) SubmitComment(c *gin.Context) {
	var sub models.CommentSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalid})
		return
	}
	sub.ClientIP = c.ClientIP()

	res, err := h.services.Comment.Submit(c.Request.Context(), &sub)
	if err != nil {
		respondError(c, h.log, err, "Failed to submit comment")
		return
	}

	c.JSON(http.StatusOK, submitResponse{OK: true, SubmitResult: res})
}

// VerifyEmail handles GET /api/verify-email?token=
// Responses are plain text since the link is opened from a mail client.
func (h *CommentHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.String(http.StatusBadRequest, "missing token")
		return
	}

	err := h.services.Comment.VerifyEmail(c.Request.Context(), token)
	switch {
	case err == nil:
		c.String(http.StatusOK, "Email verified - awaiting moderation.")
	case errors.Is(err, service.ErrVerificationNotFound):
		c.String(http.StatusNotFound, "invalid or expired")
	case errors.Is(err, service.ErrVerificationExpired):
		c.String(http.StatusGone, "expired")
	default:
		h.log.Error().Err(err).Msg("Failed to verify email")
		c.String(http.StatusInternalServerError, codeServerError)
	}
}
