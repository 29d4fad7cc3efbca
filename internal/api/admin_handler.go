package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/service"
	"github.com/portfolio-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

// maxImportBody bounds the import request body
const maxImportBody = 10 << 20

// AdminHandler handles the authenticated moderation endpoints and login
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.User == "" || req.Pass == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeMissing})
		return
	}

	res, err := h.services.Auth.Login(c.Request.Context(), req.User, req.Pass)
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"error": codeInvalid})
			return
		}
		respondError(c, h.log, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "token": res.Token, "expires": res.Expires})
}

// Logout handles POST /api/admin/logout
func (h *AdminHandler) Logout(c *gin.Context) {
	if err := h.services.Auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		respondError(c, h.log, err, "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ChangePassword handles POST /api/admin/change-password
func (h *AdminHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Current == "" || req.Next == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeMissing})
		return
	}

	if err := h.services.Auth.ChangePassword(c.Request.Context(), req.Current, req.Next); err != nil {
		respondError(c, h.log, err, "Password change failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RotatePassword handles POST /api/admin/rotate-password
func (h *AdminHandler) RotatePassword(c *gin.Context) {
	var req models.RotatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Current == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeMissing})
		return
	}

	if err := h.services.Auth.RotatePassword(c.Request.Context(), req.Current, req.NewPassword); err != nil {
		respondError(c, h.log, err, "Password rotation failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AllComments handles GET /api/admin/comments
func (h *AdminHandler) AllComments(c *gin.Context) {
	doc, err := h.services.Moderation.AllComments(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to read comments")
		return
	}
	if doc == nil {
		doc = models.CommentsDocument{}
	}
	c.JSON(http.StatusOK, doc)
}

// Approve handles POST /api/admin/comments/:id/approve.
// The body {"approved": bool} is optional and defaults to true.
func (h *AdminHandler) Approve(c *gin.Context) {
	id := c.Param("id")

	var body struct {
		Approved *bool `json:"approved"`
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalid})
		return
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": codeInvalid})
			return
		}
	}
	approved := body.Approved == nil || *body.Approved

	found, err := h.services.Moderation.SetApproved(c.Request.Context(), id, approved)
	if err != nil {
		respondError(c, h.log, err, "Failed to approve comment")
		return
	}
	if !found {
		h.log.Info().Str("comment_id", id).Msg("Approve requested for unknown comment")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete handles DELETE /api/admin/comments/:id
func (h *AdminHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	found, err := h.services.Moderation.DeleteComment(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to delete comment")
		return
	}
	if !found {
		h.log.Info().Str("comment_id", id).Msg("Delete requested for unknown comment")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ImportComments handles POST /api/admin/import-comments.
// Preview is requested with ?preview=true or "preview": true in the body.
func (h *AdminHandler) ImportComments(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBody))
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeMissingBody})
		return
	}

	buckets, bodyPreview, err := validation.DecodeImportBody(raw)
	if err != nil {
		respondError(c, h.log, err, "Failed to decode import body")
		return
	}
	preview := bodyPreview || c.Query("preview") == "true"

	by := c.GetString(adminUserKey)
	res, err := h.services.Moderation.BulkImport(c.Request.Context(), buckets, preview, by)
	if err != nil {
		respondError(c, h.log, err, "Import failed")
		return
	}

	if res.Preview {
		c.JSON(http.StatusOK, gin.H{"ok": true, "preview": true, "pages": res.Pages})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": res.Summary})
}

// ImportAudit handles GET /api/admin/import-audit
func (h *AdminHandler) ImportAudit(c *gin.Context) {
	entries, err := h.services.Moderation.AuditLog(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to read import audit")
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
