package mocks

import (
	"context"
	"sync"

	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.CommentRepository      = (*MockCommentRepository)(nil)
	_ repository.ReactionRepository     = (*MockReactionRepository)(nil)
	_ repository.SessionRepository      = (*MockSessionRepository)(nil)
	_ repository.AuthRepository         = (*MockAuthRepository)(nil)
	_ repository.VerificationRepository = (*MockVerificationRepository)(nil)
	_ repository.AuditRepository        = (*MockAuditRepository)(nil)
)

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	mu          sync.Mutex
	Doc         models.CommentsDocument
	WriteError  error
	WriteCalls  int
	MutateCalls int
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{Doc: models.CommentsDocument{}}
}

func (m *MockCommentRepository) ListPage(ctx context.Context, page string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Comment(nil), m.Doc[page]...), nil
}

func (m *MockCommentRepository) All(ctx context.Context) (models.CommentsDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneComments(m.Doc), nil
}

func (m *MockCommentRepository) Append(ctx context.Context, page string, comment models.Comment) error {
	return m.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		doc[page] = append(doc[page], comment)
		return true, nil
	})
}

func (m *MockCommentRepository) SetApproved(ctx context.Context, id string, approved bool) (bool, error) {
	found := false
	err := m.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		for _, list := range doc {
			for i := range list {
				if list[i].ID == id {
					list[i].Approved = approved
					found = true
				}
			}
		}
		return found, nil
	})
	return found, err
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := m.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		for page, list := range doc {
			var kept []models.Comment
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

func (m *MockCommentRepository) MarkVerified(ctx context.Context, page, id string) (bool, error) {
	found := false
	err := m.Mutate(ctx, func(doc models.CommentsDocument) (bool, error) {
		for i := range doc[page] {
			if doc[page][i].ID == id {
				doc[page][i].Verified = models.BoolPtr(true)
				found = true
			}
		}
		return found, nil
	})
	return found, err
}

// Mutate applies fn to a copy and keeps it only if fn changed it and no WriteError is set
func (m *MockCommentRepository) Mutate(ctx context.Context, fn func(doc models.CommentsDocument) (bool, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MutateCalls++

	doc := cloneComments(m.Doc)
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	if m.WriteError != nil {
		return m.WriteError
	}
	m.WriteCalls++
	m.Doc = doc
	return nil
}

// Count returns the number of comments across all pages
func (m *MockCommentRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, list := range m.Doc {
		n += len(list)
	}
	return n
}

func cloneComments(doc models.CommentsDocument) models.CommentsDocument {
	out := make(models.CommentsDocument, len(doc))
	for page, list := range doc {
		out[page] = append([]models.Comment(nil), list...)
	}
	return out
}

// MockReactionRepository is a mock implementation of ReactionRepository
type MockReactionRepository struct {
	mu          sync.Mutex
	Doc         models.ReactionsDocument
	InsertError error
}

func NewMockReactionRepository() *MockReactionRepository {
	return &MockReactionRepository{Doc: models.ReactionsDocument{}}
}

func (m *MockReactionRepository) Get(ctx context.Context, page string) (models.PageReactions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := models.PageReactions{}
	for code, n := range m.Doc[page] {
		out[code] = n
	}
	return out, nil
}

func (m *MockReactionRepository) Increment(ctx context.Context, page, code string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	if m.Doc[page] == nil {
		m.Doc[page] = models.PageReactions{}
	}
	m.Doc[page][code]++
	return m.Doc[page][code], nil
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mu        sync.Mutex
	Sessions  models.SessionsDocument
	SaveError error
	SaveCalls int
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{Sessions: models.SessionsDocument{}}
}

func (m *MockSessionRepository) Load(ctx context.Context) (models.SessionsDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(models.SessionsDocument, len(m.Sessions))
	for k, v := range m.Sessions {
		out[k] = v
	}
	return out, nil
}

func (m *MockSessionRepository) Save(ctx context.Context, sessions models.SessionsDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Sessions = make(models.SessionsDocument, len(sessions))
	for k, v := range sessions {
		m.Sessions[k] = v
	}
	return nil
}

// MockAuthRepository is a mock implementation of AuthRepository
type MockAuthRepository struct {
	mu     sync.Mutex
	Record *models.AuthRecord
}

func NewMockAuthRepository() *MockAuthRepository {
	return &MockAuthRepository{}
}

func (m *MockAuthRepository) Get(ctx context.Context) (*models.AuthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Record == nil {
		return nil, nil
	}
	rec := *m.Record
	return &rec, nil
}

func (m *MockAuthRepository) Save(ctx context.Context, rec *models.AuthRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *rec
	m.Record = &copied
	return nil
}

// MockVerificationRepository is a mock implementation of VerificationRepository
type MockVerificationRepository struct {
	mu     sync.Mutex
	Tokens models.VerificationDocument
}

func NewMockVerificationRepository() *MockVerificationRepository {
	return &MockVerificationRepository{Tokens: models.VerificationDocument{}}
}

func (m *MockVerificationRepository) Create(ctx context.Context, token string, rec models.VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens[token] = rec
	return nil
}

func (m *MockVerificationRepository) Consume(ctx context.Context, token string) (*models.VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Tokens[token]
	if !ok {
		return nil, nil
	}
	delete(m.Tokens, token)
	return &rec, nil
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mu      sync.Mutex
	Entries []models.AuditEntry
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Append(ctx context.Context, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context) ([]models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditEntry(nil), m.Entries...), nil
}

// NewRepositories wires a full set of mock repositories
func NewRepositories() (*repository.Repositories, *Set) {
	set := &Set{
		Comment:      NewMockCommentRepository(),
		Reaction:     NewMockReactionRepository(),
		Session:      NewMockSessionRepository(),
		Auth:         NewMockAuthRepository(),
		Verification: NewMockVerificationRepository(),
		Audit:        NewMockAuditRepository(),
	}
	return &repository.Repositories{
		Comment:      set.Comment,
		Reaction:     set.Reaction,
		Session:      set.Session,
		Auth:         set.Auth,
		Verification: set.Verification,
		Audit:        set.Audit,
	}, set
}

// Set gives tests typed access to the mocks behind a Repositories value
type Set struct {
	Comment      *MockCommentRepository
	Reaction     *MockReactionRepository
	Session      *MockSessionRepository
	Auth         *MockAuthRepository
	Verification *MockVerificationRepository
	Audit        *MockAuditRepository
}
