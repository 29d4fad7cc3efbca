package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
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

// commentService runs public submissions through the anti-abuse pipeline:
// honeypot, required fields, word filter, (ip, email) throttle, reCAPTCHA, email verification.
// Every accepted comment is stored unapproved.
type commentService struct {
	comments     repository.CommentRepository
	verification repository.VerificationRepository
	validator    *validation.Validator
	limiter      ratelimit.Limiter
	recaptcha    recaptcha.Verifier
	cfg          *config.Config
	log          zerolog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func newCommentService(
	repos *repository.Repositories,
	validator *validation.Validator,
	limiter ratelimit.Limiter,
	verifier recaptcha.Verifier,
	cfg *config.Config,
	log zerolog.Logger,
	m *metrics.Metrics,
	now func() time.Time,
) *commentService {
	return &commentService{
		comments:     repos.Comment,
		verification: repos.Verification,
		validator:    validator,
		limiter:      limiter,
		recaptcha:    verifier,
		cfg:          cfg,
		log:          log.With().Str("service", "comment").Logger(),
		metrics:      m,
		now:          now,
	}
}

// Submit validates a submission and persists it pending moderation
func (s *commentService) Submit(ctx context.Context, sub *models.CommentSubmission) (*models.SubmitResult, error) {
	if validation.HoneypotTriggered(sub) {
		s.metrics.Submission(metrics.OutcomeSpam)
		s.log.Info().Str("client_ip", sub.ClientIP).Msg("Honeypot triggered")
		return nil, ErrSpam
	}

	if errs := s.validator.ValidateSubmission(sub); len(errs) > 0 {
		s.metrics.Submission(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errs[0].Message)
	}

	if s.validator.ContainsBadWords(sub.Text, sub.Name, sub.Email) {
		s.metrics.Submission(metrics.OutcomeProfanity)
		s.log.Info().Str("page", sub.Page).Msg("Comment rejected by word filter")
		return nil, ErrProfanity
	}

	if !s.limiter.Allow(sub.ClientIP + "|" + sub.Email) {
		s.metrics.Submission(metrics.OutcomeRateLimited)
		s.log.Warn().Str("client_ip", sub.ClientIP).Msg("Comment submission throttled")
		return nil, ErrRateLimited
	}

	comment := models.Comment{
		ID:    newCommentID(),
		Name:  s.validator.DisplayName(sub.Name),
		Email: sub.Email,
		Text:  sub.Text,
		Time:  formatTime(s.now()),
	}

	if s.recaptcha != nil {
		result, err := s.recaptcha.Verify(ctx, sub.RecaptchaToken, sub.ClientIP)
		if err != nil || result == nil || !result.Success {
			s.metrics.Submission(metrics.OutcomeRecaptchaFailed)
			event := s.log.Warn().Str("page", sub.Page)
			if err != nil {
				event = event.Err(err)
			} else if result != nil {
				event = event.Strs("error_codes", result.ErrorCodes)
			}
			event.Msg("reCAPTCHA verification failed")
			return nil, ErrRecaptchaFailed
		}

		if result.Score != nil && *result.Score < s.cfg.Comments.RecaptchaThreshold {
			comment.Flagged = true
			comment.RecaptchaScore = result.Score
			if err := s.comments.Append(ctx, sub.Page, comment); err != nil {
				s.metrics.Submission(metrics.OutcomeError)
				return nil, fmt.Errorf("store flagged comment: %w", err)
			}
			s.metrics.Submission(metrics.OutcomeFlagged)
			s.log.Info().
				Str("page", sub.Page).
				Str("comment_id", comment.ID).
				Float64("score", *result.Score).
				Msg("Low reCAPTCHA score, comment flagged")
			return &models.SubmitResult{ID: comment.ID, AwaitingModeration: true, Flagged: true}, nil
		}
	}

	if s.cfg.Comments.EnableEmailVerification && sub.Email != "" {
		return s.submitForVerification(ctx, sub.Page, comment)
	}

	if err := s.comments.Append(ctx, sub.Page, comment); err != nil {
		s.metrics.Submission(metrics.OutcomeError)
		return nil, fmt.Errorf("store comment: %w", err)
	}
	s.metrics.Submission(metrics.OutcomeAwaitingModeration)
	s.log.Info().Str("page", sub.Page).Str("comment_id", comment.ID).Msg("Comment awaiting moderation")

	return &models.SubmitResult{ID: comment.ID, AwaitingModeration: true}, nil
}

func (s *commentService) submitForVerification(ctx context.Context, page string, comment models.Comment) (*models.SubmitResult, error) {
	comment.Verified = models.BoolPtr(false)
	if err := s.comments.Append(ctx, page, comment); err != nil {
		s.metrics.Submission(metrics.OutcomeError)
		return nil, fmt.Errorf("store unverified comment: %w", err)
	}

	token, err := newToken(18)
	if err != nil {
		return nil, err
	}
	rec := models.VerificationToken{
		Page:    page,
		ID:      comment.ID,
		Email:   comment.Email,
		Expires: s.now().Add(s.cfg.Comments.VerificationTTL).UnixMilli(),
	}
	if err := s.verification.Create(ctx, token, rec); err != nil {
		s.metrics.Submission(metrics.OutcomeError)
		return nil, fmt.Errorf("store verification token: %w", err)
	}
	s.metrics.Submission(metrics.OutcomeAwaitingVerification)

	// No mailer is wired; outside production the link goes to the log.
	if !s.cfg.IsProduction() {
		s.log.Info().
			Str("page", page).
			Str("comment_id", comment.ID).
			Str("link", s.verificationLink(token)).
			Msg("Email verification link")
	}

	return &models.SubmitResult{ID: comment.ID, AwaitingVerification: true}, nil
}

func (s *commentService) verificationLink(token string) string {
	base := strings.TrimRight(s.cfg.Server.PublicBaseURL, "/")
	return base + "/api/verify-email?token=" + url.QueryEscape(token)
}

// ListComments returns a page's comments, only approved ones unless approvedOnly is false
func (s *commentService) ListComments(ctx context.Context, page string, approvedOnly bool) ([]models.Comment, error) {
	list, err := s.comments.ListPage(ctx, page)
	if err != nil {
		return nil, err
	}

	out := make([]models.Comment, 0, len(list))
	for _, c := range list {
		if approvedOnly && !c.Approved {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// VerifyEmail consumes a verification token and marks its comment verified.
// Verification does not approve the comment.
func (s *commentService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidRequest
	}

	rec, err := s.verification.Consume(ctx, token)
	if err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}
	if rec == nil {
		return ErrVerificationNotFound
	}
	if rec.Expires < s.now().UnixMilli() {
		return ErrVerificationExpired
	}

	if _, err := s.comments.MarkVerified(ctx, rec.Page, rec.ID); err != nil {
		return fmt.Errorf("mark comment verified: %w", err)
	}

	s.log.Info().Str("page", rec.Page).Str("comment_id", rec.ID).Msg("Comment email verified")
	return nil
}
