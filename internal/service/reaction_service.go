package service

import (
	"context"
	"fmt"

	"github.com/portfolio-comments-api/internal/metrics"
	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

type reactionService struct {
	repo    repository.ReactionRepository
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func newReactionService(repo repository.ReactionRepository, log zerolog.Logger, m *metrics.Metrics) *reactionService {
	return &reactionService{
		repo:    repo,
		log:     log.With().Str("service", "reaction").Logger(),
		metrics: m,
	}
}

// GetReactions returns the counter map for a page (empty when unseen)
func (s *reactionService) GetReactions(ctx context.Context, page string) (models.PageReactions, error) {
	return s.repo.Get(ctx, page)
}

// IncrementReaction adds one to a page's counter and returns the new count
func (s *reactionService) IncrementReaction(ctx context.Context, page, code string) (int, error) {
	if page == "" || code == "" {
		return 0, ErrInvalidRequest
	}

	count, err := s.repo.Increment(ctx, page, code)
	if err != nil {
		return 0, fmt.Errorf("increment reaction: %w", err)
	}
	s.metrics.Reaction()

	s.log.Debug().
		Str("page", page).
		Str("code", code).
		Int("count", count).
		Msg("Reaction incremented")

	return count, nil
}
