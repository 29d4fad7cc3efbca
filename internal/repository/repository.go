package repository

import (
	"context"

	"github.com/portfolio-comments-api/internal/database"
	"github.com/portfolio-comments-api/internal/models"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	ListPage(ctx context.Context, page string) ([]models.Comment, error)
	All(ctx context.Context) (models.CommentsDocument, error)
	Append(ctx context.Context, page string, comment models.Comment) error
	SetApproved(ctx context.Context, id string, approved bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	MarkVerified(ctx context.Context, page, id string) (bool, error)
	// Mutate runs fn on the whole document and persists it when fn reports a change
	Mutate(ctx context.Context, fn func(doc models.CommentsDocument) (bool, error)) error
}

// ReactionRepository defines the interface for reaction counter operations
type ReactionRepository interface {
	Get(ctx context.Context, page string) (models.PageReactions, error)
	Increment(ctx context.Context, page, code string) (int, error)
}

// SessionRepository persists the admin session table
type SessionRepository interface {
	Load(ctx context.Context) (models.SessionsDocument, error)
	Save(ctx context.Context, sessions models.SessionsDocument) error
}

// AuthRepository persists the single admin identity
type AuthRepository interface {
	Get(ctx context.Context) (*models.AuthRecord, error)
	Save(ctx context.Context, rec *models.AuthRecord) error
}

// VerificationRepository persists one-shot email verification tokens
type VerificationRepository interface {
	Create(ctx context.Context, token string, rec models.VerificationToken) error
	// Consume removes the token and returns its binding, or nil when unknown
	Consume(ctx context.Context, token string) (*models.VerificationToken, error)
}

// AuditRepository persists the append-only import audit log
type AuditRepository interface {
	Append(ctx context.Context, entry models.AuditEntry) error
	List(ctx context.Context) ([]models.AuditEntry, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment      CommentRepository
	Reaction     ReactionRepository
	Session      SessionRepository
	Auth         AuthRepository
	Verification VerificationRepository
	Audit        AuditRepository
}

// New creates all repositories over the given JSON store
func New(db *database.DB) *Repositories {
	return &Repositories{
		Comment:      NewCommentRepo(db),
		Reaction:     NewReactionRepo(db),
		Session:      NewSessionRepo(db),
		Auth:         NewAuthRepo(db),
		Verification: NewVerificationRepo(db),
		Audit:        NewAuditRepo(db),
	}
}
