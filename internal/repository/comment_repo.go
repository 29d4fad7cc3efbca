package repository

import (
	"context"

	"github.com/portfolio-comments-api/internal/database"
	"github.com/portfolio-comments-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) load() models.CommentsDocument {
	return database.Read(r.db, database.DocComments, models.CommentsDocument{})
}

// ListPage returns every comment stored for a page, in submission order
func (r *commentRepo) ListPage(ctx context.Context, page string) ([]models.Comment, error) {
	return r.load()[page], nil
}

// All returns the whole comments document
func (r *commentRepo) All(ctx context.Context) (models.CommentsDocument, error) {
	return r.load(), nil
}

// Append adds a comment to the end of a page's list
func (r *commentRepo) Append(ctx context.Context, page string, comment models.Comment) error {
	return r.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		doc[page] = append(doc[page], comment)
		return true, nil
	})
}

// SetApproved flips the approved flag of the comment with the given ID on any page
func (r *commentRepo) SetApproved(ctx context.Context, id string, approved bool) (bool, error) {
	found := false
	err := r.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		for page, list := range doc {
			for i := range list {
				if list[i].ID == id {
					list[i].Approved = approved
					found = true
				}
			}
			doc[page] = list
		}
		return found, nil
	})
	return found, err
}

// Delete removes the comment with the given ID from every page
func (r *commentRepo) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := r.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		for page, list := range doc {
			kept := list[:0]
			for _, c := range list {
				if c.ID == id {
					found = true
					continue
				}
				kept = append(kept, c)
			}
			doc[page] = kept
		}
		return found, nil
	})
	return found, err
}

// MarkVerified sets verified=true on a comment of the given page
func (r *commentRepo) MarkVerified(ctx context.Context, page, id string) (bool, error) {
	found := false
	err := r.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		list := doc[page]
		for i := range list {
			if list[i].ID == id {
				list[i].Verified = models.BoolPtr(true)
				found = true
			}
		}
		return found, nil
	})
	return found, err
}

// Mutate runs a read-modify-write cycle on the comments document
func (r *commentRepo) Mutate(ctx context.Context, fn func(doc models.CommentsDocument) (bool, error)) error {
	return database.Update(r.db, database.DocComments, models.CommentsDocument{},
		func(doc models.CommentsDocument) (models.CommentsDocument, bool, error) {
			if doc == nil {
				doc = models.CommentsDocument{}
			}
			changed, err := fn(doc)
			return doc, changed, err
		})
}
