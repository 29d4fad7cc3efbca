package service

import (
	"context"
	"fmt"
	"time"

	"github.com/portfolio-comments-api/internal/config"
	"github.com/portfolio-comments-api/internal/metrics"
	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/repository"
	"github.com/portfolio-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

type moderationService struct {
	comments repository.CommentRepository
	audit    repository.AuditRepository
	cfg      config.ImportConfig
	log      zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func newModerationService(repos *repository.Repositories, cfg config.ImportConfig, log zerolog.Logger, m *metrics.Metrics, now func() time.Time) *moderationService {
	return &moderationService{
		comments: repos.Comment,
		audit:    repos.Audit,
		cfg:      cfg,
		log:      log.With().Str("service", "moderation").Logger(),
		metrics:  m,
		now:      now,
	}
}

// AllComments returns every comment on every page, unfiltered
func (s *moderationService) AllComments(ctx context.Context) (models.CommentsDocument, error) {
	return s.comments.All(ctx)
}

// SetApproved approves or unapproves a comment. Unknown IDs are a no-op;
// the boolean reports whether a comment was found.
func (s *moderationService) SetApproved(ctx context.Context, id string, approved bool) (bool, error) {
	found, err := s.comments.SetApproved(ctx, id, approved)
	if err != nil {
		return false, fmt.Errorf("set approved: %w", err)
	}
	if !found {
		s.log.Debug().Str("comment_id", id).Msg("Approve: comment not found")
		return false, nil
	}

	action := "approve"
	if !approved {
		action = "unapprove"
	}
	s.metrics.Moderation(action)
	s.log.Info().Str("comment_id", id).Bool("approved", approved).Msg("Comment moderated")
	return true, nil
}

// DeleteComment removes a comment; deleting an unknown ID is a no-op
func (s *moderationService) DeleteComment(ctx context.Context, id string) (bool, error) {
	found, err := s.comments.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	if found {
		s.metrics.Moderation("delete")
		s.log.Info().Str("comment_id", id).Msg("Comment deleted")
	}
	return found, nil
}

// BulkImport imports comments with de-duplication on (email, text) per page.
// In preview mode nothing is persisted and every candidate is reported with its exists flag.
// In commit mode new comments are stored unapproved in one write and an audit entry is appended.
func (s *moderationService) BulkImport(ctx context.Context, buckets []models.ImportBucket, preview bool, by string) (*models.ImportResult, error) {
	if preview {
		doc, err := s.comments.All(ctx)
		if err != nil {
			return nil, err
		}
		plan := s.plan(doc, buckets)
		return &models.ImportResult{Preview: true, Pages: plan.previews()}, nil
	}

	var plan *importPlan
	err := s.comments.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		plan = s.plan(doc, buckets)
		for _, page := range plan.order {
			for _, item := range plan.items[page] {
				if item.Exists {
					continue
				}
				doc[page] = append(doc[page], models.Comment{
					ID:    item.ID,
					Name:  item.Name,
					Email: item.Email,
					Text:  item.Text,
					Time:  item.Time,
				})
			}
		}
		return plan.imported() > 0, nil
	})
	if err != nil {
		return nil, fmt.Errorf("import comments: %w", err)
	}

	summary := plan.summary()
	if by == "" {
		by = "unknown"
	}
	entry := models.AuditEntry{Time: formatTime(s.now()), By: by, Summary: summary}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Error().Err(err).Msg("Failed to append import audit entry")
	}

	s.metrics.Imported(plan.imported(), plan.skipped())
	s.log.Info().
		Str("by", by).
		Int("pages", len(plan.order)).
		Int("imported", plan.imported()).
		Int("skipped", plan.skipped()).
		Msg("Comments imported")

	return &models.ImportResult{Summary: summary}, nil
}

// AuditLog returns every recorded import
func (s *moderationService) AuditLog(ctx context.Context) ([]models.AuditEntry, error) {
	return s.audit.List(ctx)
}

// importPlan is the per-page outcome of matching candidates against stored comments
type importPlan struct {
	order  []string
	items  map[string][]models.PreviewItem
	counts map[string]*models.ImportSummary
}

// plan caps, normalises and de-duplicates the buckets against doc without modifying it.
// Later candidates are also checked against earlier ones in the same import.
// A supplied ID already used anywhere in the store or the import is replaced.
func (s *moderationService) plan(doc models.CommentsDocument, buckets []models.ImportBucket) *importPlan {
	p := &importPlan{
		items:  make(map[string][]models.PreviewItem),
		counts: make(map[string]*models.ImportSummary),
	}
	seen := make(map[string]map[string]bool)
	ids := make(map[string]bool)
	for _, list := range doc {
		for _, c := range list {
			ids[c.ID] = true
		}
	}
	now := formatTime(s.now())

	for _, bucket := range buckets {
		page := bucket.Page
		if _, ok := p.counts[page]; !ok {
			p.order = append(p.order, page)
			p.counts[page] = &models.ImportSummary{}
			p.items[page] = []models.PreviewItem{}
		}
		if seen[page] == nil {
			seen[page] = make(map[string]bool, len(doc[page]))
			for _, c := range doc[page] {
				seen[page][validation.DedupKey(c.Email, c.Text)] = true
			}
		}

		candidates := bucket.Comments
		if s.cfg.MaxPerBucket > 0 && len(candidates) > s.cfg.MaxPerBucket {
			candidates = candidates[:s.cfg.MaxPerBucket]
		}
		for _, raw := range candidates {
			item := validation.CapImportItem(raw)
			if item.ID == "" {
				item.ID = newCommentID()
			}
			if item.Time == "" {
				item.Time = now
			}

			key := validation.DedupKey(item.Email, item.Text)
			exists := seen[page][key]
			if !exists && ids[item.ID] {
				item.ID = newCommentID()
			}
			p.items[page] = append(p.items[page], models.PreviewItem{
				ID:     item.ID,
				Name:   item.Name,
				Email:  item.Email,
				Text:   item.Text,
				Time:   item.Time,
				Exists: exists,
			})
			if exists {
				p.counts[page].Skipped++
				continue
			}
			seen[page][key] = true
			ids[item.ID] = true
			p.counts[page].Imported++
		}
	}
	return p
}

func (p *importPlan) previews() []models.PagePreview {
	out := make([]models.PagePreview, 0, len(p.order))
	for _, page := range p.order {
		out = append(out, models.PagePreview{Page: page, Items: p.items[page], Summary: *p.counts[page]})
	}
	return out
}

func (p *importPlan) summary() map[string]models.ImportSummary {
	out := make(map[string]models.ImportSummary, len(p.order))
	for _, page := range p.order {
		out[page] = *p.counts[page]
	}
	return out
}

func (p *importPlan) imported() int {
	n := 0
	for _, c := range p.counts {
		n += c.Imported
	}
	return n
}

func (p *importPlan) skipped() int {
	n := 0
	for _, c := range p.counts {
		n += c.Skipped
	}
	return n
}
