package repository

import (
	"context"

	"github.com/portfolio-comments-api/internal/database"
	"github.com/portfolio-comments-api/internal/models"
)

// reactionRepo is the concrete implementation of ReactionRepository
type reactionRepo struct {
	db *database.DB
}

// NewReactionRepo creates a new reaction repository
func NewReactionRepo(db *database.DB) ReactionRepository {
	return &reactionRepo{db: db}
}

// Get returns the counters for a page; an unseen page yields an empty map
func (r *reactionRepo) Get(ctx context.Context, page string) (models.PageReactions, error) {
	doc := database.Read(r.db, database.DocReactions, models.ReactionsDocument{})
	if counters, ok := doc[page]; ok && counters != nil {
		return counters, nil
	}
	return models.PageReactions{}, nil
}

// Increment adds one to a page's counter and returns the new value
func (r *reactionRepo) Increment(ctx context.Context, page, code string) (int, error) {
	var count int
	err := database.Update(r.db, database.DocReactions, models.ReactionsDocument{},
		func(doc models.ReactionsDocument) (models.ReactionsDocument, bool, error) {
			if doc == nil {
				doc = models.ReactionsDocument{}
			}
			if doc[page] == nil {
				doc[page] = models.PageReactions{}
			}
			doc[page][code]++
			count = doc[page][code]
			return doc, true, nil
		})
	if err != nil {
		return 0, err
	}
	return count, nil
}
