package repository

import (
	"context"

	"github.com/portfolio-comments-api/internal/database"
	"github.com/portfolio-comments-api/internal/models"
)

type auditRepo struct {
	db *database.DB
}

// NewAuditRepo creates a new import audit repository
func NewAuditRepo(db *database.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, entry models.AuditEntry) error {
	return database.Update(r.db, database.DocImportAudit, []models.AuditEntry{},
		func(log []models.AuditEntry) ([]models.AuditEntry, bool, error) {
			return append(log, entry), true, nil
		})
}

func (r *auditRepo) List(ctx context.Context) ([]models.AuditEntry, error) {
	return database.Read(r.db, database.DocImportAudit, []models.AuditEntry{}), nil
}
