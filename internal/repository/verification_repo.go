package repository

import (
	"context"

	"github.com/portfolio-comments-api/internal/database"
	"github.com/portfolio-comments-api/internal/models"
)

type verificationRepo struct {
	db *database.DB
}

// NewVerificationRepo creates a new verification token repository
func NewVerificationRepo(db *database.DB) VerificationRepository {
	return &verificationRepo{db: db}
}

func (r *verificationRepo) Create(ctx context.Context, token string, rec models.VerificationToken) error {
	return database.Update(r.db, database.DocVerification, models.VerificationDocument{},
		func(doc models.VerificationDocument) (models.VerificationDocument, bool, error) {
			if doc == nil {
				doc = models.VerificationDocument{}
			}
			doc[token] = rec
			return doc, true, nil
		})
}

func (r *verificationRepo) Consume(ctx context.Context, token string) (*models.VerificationToken, error) {
	var found *models.VerificationToken
	err := database.Update(r.db, database.DocVerification, models.VerificationDocument{},
		func(doc models.VerificationDocument) (models.VerificationDocument, bool, error) {
			rec, ok := doc[token]
			if !ok {
				return doc, false, nil
			}
			found = &rec
			delete(doc, token)
			return doc, true, nil
		})
	if err != nil {
		return nil, err
	}
	return found, nil
}
