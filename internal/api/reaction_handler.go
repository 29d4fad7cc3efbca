package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// defaultPage is used when a read request names no page
const defaultPage = "index"

// ReactionHandler handles reaction counter endpoints
type ReactionHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(services *service.Services, log zerolog.Logger) *ReactionHandler {
	return &ReactionHandler{
		services: services,
		log:      log.With().Str("handler", "reaction").Logger(),
	}
}

// GetReactions handles GET /api/reactions?page=
func (h *ReactionHandler) GetReactions(c *gin.Context) {
	page := c.DefaultQuery("page", defaultPage)

	reactions, err := h.services.Reaction.GetReactions(c.Request.Context(), page)
	if err != nil {
		respondError(c, h.log, err, "Failed to read reactions")
		return
	}

	c.JSON(http.StatusOK, reactions)
}

// IncrementReaction handles POST /api/reactions
func (h *ReactionHandler) IncrementReaction(c *gin.Context) {
	var req models.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalid})
		return
	}

	count, err := h.services.Reaction.IncrementReaction(c.Request.Context(), req.Page, req.Name)
	if err != nil {
		respondError(c, h.log, err, "Failed to increment reaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "count": count})
}
