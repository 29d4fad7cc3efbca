package service

import (
	"context"
	"fmt"
	"time"

	"github.com/portfolio-comments-api/internal/config"
	"github.com/portfolio-comments-api/internal/metrics"
	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/ratelimit"
	"github.com/portfolio-comments-api/internal/recaptcha"
	"github.com/portfolio-comments-api/internal/repository"
	"github.com/portfolio-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

// ReactionService defines the interface for reaction counters
type ReactionService interface {
	GetReactions(ctx context.Context, page string) (models.PageReactions, error)
	IncrementReaction(ctx context.Context, page, code string) (int, error)
}

// CommentService defines the interface for the public comment pipeline
type CommentService interface {
	Submit(ctx context.Context, sub *models.CommentSubmission) (*models.SubmitResult, error)
	ListComments(ctx context.Context, page string, approvedOnly bool) ([]models.Comment, error)
	VerifyEmail(ctx context.Context, token string) error
}

// AuthService defines the interface for admin authentication and sessions
type AuthService interface {
	EnsureAuth(ctx context.Context) error
	LoadSessions(ctx context.Context) error
	Login(ctx context.Context, user, password string) (*models.LoginResult, error)
	Logout(ctx context.Context, token string) error
	CheckToken(ctx context.Context, token string) (string, error)
	ChangePassword(ctx context.Context, current, next string) error
	RotatePassword(ctx context.Context, current, next string) error
	ResetCredentials(ctx context.Context, user, password string) error
	PurgeSessions(ctx context.Context) error
}

// ModerationService defines the interface for admin moderation and bulk import
type ModerationService interface {
	AllComments(ctx context.Context) (models.CommentsDocument, error)
	SetApproved(ctx context.Context, id string, approved bool) (bool, error)
	DeleteComment(ctx context.Context, id string) (bool, error)
	BulkImport(ctx context.Context, buckets []models.ImportBucket, preview bool, by string) (*models.ImportResult, error)
	AuditLog(ctx context.Context) ([]models.AuditEntry, error)
}

// Services holds all service interfaces
type Services struct {
	Reaction   ReactionService
	Comment    CommentService
	Auth       AuthService
	Moderation ModerationService

	// Health probes the backing store; nil reports healthy
	Health func() error
}

// NewServices creates all services. m may be nil.
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*Services, error) {
	emailLimiter, err := ratelimit.NewSlidingWindowLimiter(cfg.Comments.EmailRateMax, cfg.Comments.EmailRateWindow)
	if err != nil {
		return nil, fmt.Errorf("email rate limiter: %w", err)
	}

	var verifier recaptcha.Verifier
	if cfg.Comments.RecaptchaSecret != "" {
		verifier = recaptcha.NewClient(cfg.Comments.RecaptchaSecret, cfg.Comments.RecaptchaVerifyURL)
	}

	validator := validation.NewValidator(cfg.Comments.BadWords)

	return &Services{
		Reaction:   newReactionService(repos.Reaction, log, m),
		Comment:    newCommentService(repos, validator, emailLimiter, verifier, cfg, log, m, time.Now),
		Auth:       newAuthService(repos.Session, repos.Auth, cfg.Admin, log, m, time.Now),
		Moderation: newModerationService(repos, cfg.Import, log, m, time.Now),
	}, nil
}
