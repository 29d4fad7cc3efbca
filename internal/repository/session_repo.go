package repository

import (
	"context"

	"github.com/portfolio-comments-api/internal/database"
	"github.com/portfolio-comments-api/internal/models"
)

type sessionRepo struct {
	db *database.DB
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *database.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Load(ctx context.Context) (models.SessionsDocument, error) {
	return database.Read(r.db, database.DocSessions, models.SessionsDocument{}), nil
}

// Save overwrites the whole session table
func (r *sessionRepo) Save(ctx context.Context, sessions models.SessionsDocument) error {
	if sessions == nil {
		sessions = models.SessionsDocument{}
	}
	return database.Write(r.db, database.DocSessions, sessions)
}

type authRepo struct {
	db *database.DB
}

// NewAuthRepo creates a new auth record repository
func NewAuthRepo(db *database.DB) AuthRepository {
	return &authRepo{db: db}
}

// Get returns the stored auth record, or nil when none has been written
func (r *authRepo) Get(ctx context.Context) (*models.AuthRecord, error) {
	return database.Read[*models.AuthRecord](r.db, database.DocAuth, nil), nil
}

func (r *authRepo) Save(ctx context.Context, rec *models.AuthRecord) error {
	return database.Write(r.db, database.DocAuth, rec)
}
