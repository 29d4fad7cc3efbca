package mocks

import (
	"context"

	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/service"
)

// Verify interface compliance
var (
	_ service.ReactionService   = (*MockReactionService)(nil)
	_ service.CommentService    = (*MockCommentService)(nil)
	_ service.AuthService       = (*MockAuthService)(nil)
	_ service.ModerationService = (*MockModerationService)(nil)
)

// MockReactionService is a mock implementation of ReactionService
type MockReactionService struct {
	Reactions map[string]models.PageReactions
	Err       error
}

func NewMockReactionService() *MockReactionService {
	return &MockReactionService{Reactions: make(map[string]models.PageReactions)}
}

func (m *MockReactionService) GetReactions(ctx context.Context, page string) (models.PageReactions, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if r, ok := m.Reactions[page]; ok {
		return r, nil
	}
	return models.PageReactions{}, nil
}

func (m *MockReactionService) IncrementReaction(ctx context.Context, page, code string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if page == "" || code == "" {
		return 0, service.ErrInvalidRequest
	}
	if m.Reactions[page] == nil {
		m.Reactions[page] = models.PageReactions{}
	}
	m.Reactions[page][code]++
	return m.Reactions[page][code], nil
}

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	SubmitFunc      func(ctx context.Context, sub *models.CommentSubmission) (*models.SubmitResult, error)
	VerifyEmailFunc func(ctx context.Context, token string) error
	Comments        map[string][]models.Comment
	Submitted       []*models.CommentSubmission
	LastApproved    bool
}

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{Comments: make(map[string][]models.Comment)}
}

func (m *MockCommentService) Submit(ctx context.Context, sub *models.CommentSubmission) (*models.SubmitResult, error) {
	m.Submitted = append(m.Submitted, sub)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, sub)
	}
	return &models.SubmitResult{ID: "test-comment-id", AwaitingModeration: true}, nil
}

func (m *MockCommentService) ListComments(ctx context.Context, page string, approvedOnly bool) ([]models.Comment, error) {
	m.LastApproved = approvedOnly
	out := []models.Comment{}
	for _, c := range m.Comments[page] {
		if approvedOnly && !c.Approved {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MockCommentService) VerifyEmail(ctx context.Context, token string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return nil
}

// MockAuthService is a mock implementation of AuthService.
// Tokens lists the bearer tokens accepted by CheckToken, mapped to their user.
type MockAuthService struct {
	Tokens            map[string]string
	LoginFunc         func(ctx context.Context, user, password string) (*models.LoginResult, error)
	ChangeErr         error
	RotateErr         error
	LoggedOut         []string
	PasswordChanges   int
	PasswordRotations int
}

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{Tokens: make(map[string]string)}
}

func (m *MockAuthService) EnsureAuth(ctx context.Context) error { return nil }

func (m *MockAuthService) LoadSessions(ctx context.Context) error { return nil }

func (m *MockAuthService) Login(ctx context.Context, user, password string) (*models.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, user, password)
	}
	if user == "" || password == "" {
		return nil, service.ErrInvalidRequest
	}
	m.Tokens["test-token"] = user
	return &models.LoginResult{Token: "test-token", Expires: 1700000000000}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	m.LoggedOut = append(m.LoggedOut, token)
	delete(m.Tokens, token)
	return nil
}

func (m *MockAuthService) CheckToken(ctx context.Context, token string) (string, error) {
	user, ok := m.Tokens[token]
	if !ok {
		return "", service.ErrUnauthorized
	}
	return user, nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return service.ErrInvalidRequest
	}
	if m.ChangeErr != nil {
		return m.ChangeErr
	}
	m.PasswordChanges++
	return nil
}

func (m *MockAuthService) RotatePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return service.ErrInvalidRequest
	}
	if m.RotateErr != nil {
		return m.RotateErr
	}
	m.PasswordRotations++
	m.Tokens = make(map[string]string)
	return nil
}

func (m *MockAuthService) ResetCredentials(ctx context.Context, user, password string) error {
	m.Tokens = make(map[string]string)
	return nil
}

func (m *MockAuthService) PurgeSessions(ctx context.Context) error {
	m.Tokens = make(map[string]string)
	return nil
}

// ApprovalCall records one SetApproved invocation
type ApprovalCall struct {
	ID       string
	Approved bool
}

// ImportCall records one BulkImport invocation
type ImportCall struct {
	Buckets []models.ImportBucket
	Preview bool
	By      string
}

// MockModerationService is a mock implementation of ModerationService
type MockModerationService struct {
	Doc        models.CommentsDocument
	Approvals  []ApprovalCall
	Deleted    []string
	Imports    []ImportCall
	ImportFunc func(ctx context.Context, buckets []models.ImportBucket, preview bool, by string) (*models.ImportResult, error)
	Audit      []models.AuditEntry
	Err        error
}

func NewMockModerationService() *MockModerationService {
	return &MockModerationService{Doc: models.CommentsDocument{}}
}

func (m *MockModerationService) AllComments(ctx context.Context) (models.CommentsDocument, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Doc, nil
}

func (m *MockModerationService) SetApproved(ctx context.Context, id string, approved bool) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.Approvals = append(m.Approvals, ApprovalCall{ID: id, Approved: approved})
	return true, nil
}

func (m *MockModerationService) DeleteComment(ctx context.Context, id string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.Deleted = append(m.Deleted, id)
	return true, nil
}

func (m *MockModerationService) BulkImport(ctx context.Context, buckets []models.ImportBucket, preview bool, by string) (*models.ImportResult, error) {
	m.Imports = append(m.Imports, ImportCall{Buckets: buckets, Preview: preview, By: by})
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, buckets, preview, by)
	}
	if preview {
		return &models.ImportResult{Preview: true, Pages: []models.PagePreview{}}, nil
	}
	return &models.ImportResult{Summary: map[string]models.ImportSummary{}}, nil
}

func (m *MockModerationService) AuditLog(ctx context.Context) ([]models.AuditEntry, error) {
	return m.Audit, nil
}
