package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/portfolio-comments-api/internal/config"
	"github.com/portfolio-comments-api/internal/metrics"
	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// authService owns the admin session table. The table is kept in memory and
// written through to the session repository on every login, logout and rotation.
type authService struct {
	sessionRepo repository.SessionRepository
	authRepo    repository.AuthRepository
	cfg         config.AdminConfig
	log         zerolog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time

	mu       sync.Mutex
	sessions models.SessionsDocument
}

func newAuthService(
	sessionRepo repository.SessionRepository,
	authRepo repository.AuthRepository,
	cfg config.AdminConfig,
	log zerolog.Logger,
	m *metrics.Metrics,
	now func() time.Time,
) *authService {
	return &authService{
		sessionRepo: sessionRepo,
		authRepo:    authRepo,
		cfg:         cfg,
		log:         log.With().Str("service", "auth").Logger(),
		metrics:     m,
		now:         now,
		sessions:    models.SessionsDocument{},
	}
}

// EnsureAuth seeds the auth record from the configured password when none is stored
func (s *authService) EnsureAuth(ctx context.Context) error {
	rec, err := s.authRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("read auth record: %w", err)
	}
	if rec != nil && rec.Hash != "" {
		return nil
	}

	hash, err := hashPassword(s.cfg.Password)
	if err != nil {
		return err
	}
	if err := s.authRepo.Save(ctx, &models.AuthRecord{User: s.cfg.User, Hash: hash}); err != nil {
		return fmt.Errorf("write auth record: %w", err)
	}

	s.log.Info().Str("user", s.cfg.User).Msg("Wrote initial auth hash")
	return nil
}

// LoadSessions restores persisted sessions, dropping expired ones
func (s *authService) LoadSessions(ctx context.Context) error {
	stored, err := s.sessionRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range stored {
		if !sess.Expired(now) {
			s.sessions[token] = sess
		}
	}

	s.log.Info().Int("sessions", len(s.sessions)).Msg("Admin sessions restored")
	return nil
}

// Login checks the credentials and mints a bearer token
func (s *authService) Login(ctx context.Context, user, password string) (*models.LoginResult, error) {
	if user == "" || password == "" {
		return nil, ErrInvalidRequest
	}

	rec, err := s.authRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read auth record: %w", err)
	}
	storedUser := s.cfg.User
	if rec != nil && rec.User != "" {
		storedUser = rec.User
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(storedUser)) == 1
	if rec == nil || rec.Hash == "" || !userOK || !checkPassword(password, rec.Hash) {
		s.metrics.Login(false)
		s.log.Warn().Str("user", user).Msg("Admin login failed")
		return nil, ErrUnauthorized
	}

	token, err := newToken(24)
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(s.cfg.SessionTTL).UnixMilli()

	s.mu.Lock()
	s.sessions[token] = models.Session{User: user, Expires: expires}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.metrics.Login(true)
	s.log.Info().Str("user", user).Msg("Admin logged in")

	return &models.LoginResult{Token: token, Expires: expires}, nil
}

// Logout removes a session; unknown tokens are ignored
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return nil
	}
	delete(s.sessions, token)
	s.persistLocked(ctx)
	return nil
}

// CheckToken returns the admin user of a live session.
// Expired sessions are evicted from memory when seen.
func (s *authService) CheckToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return "", ErrUnauthorized
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, token)
		return "", ErrUnauthorized
	}
	return sess.User, nil
}

// ChangePassword replaces the admin password; existing sessions stay valid
func (s *authService) ChangePassword(ctx context.Context, current, next string) error {
	if err := s.replacePassword(ctx, current, next); err != nil {
		return err
	}
	s.log.Info().Msg("Admin password changed")
	return nil
}

// RotatePassword replaces the admin password and signs every session out
func (s *authService) RotatePassword(ctx context.Context, current, next string) error {
	if err := s.replacePassword(ctx, current, next); err != nil {
		return err
	}
	if err := s.PurgeSessions(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("Admin password rotated and sessions invalidated")
	return nil
}

// ResetCredentials overwrites the auth record without checking the current password
// and clears all sessions. Used by the operator CLI.
func (s *authService) ResetCredentials(ctx context.Context, user, password string) error {
	if user == "" || password == "" {
		return ErrInvalidRequest
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.authRepo.Save(ctx, &models.AuthRecord{User: user, Hash: hash}); err != nil {
		return fmt.Errorf("write auth record: %w", err)
	}
	return s.PurgeSessions(ctx)
}

// PurgeSessions drops every session in memory and on disk
func (s *authService) PurgeSessions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = models.SessionsDocument{}
	if err := s.sessionRepo.Save(ctx, models.SessionsDocument{}); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

func (s *authService) replacePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return ErrInvalidRequest
	}

	rec, err := s.authRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("read auth record: %w", err)
	}
	if rec == nil || rec.Hash == "" || !checkPassword(current, rec.Hash) {
		return ErrInvalidCurrentPassword
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	user := rec.User
	if user == "" {
		user = s.cfg.User
	}
	if err := s.authRepo.Save(ctx, &models.AuthRecord{User: user, Hash: hash}); err != nil {
		return fmt.Errorf("write auth record: %w", err)
	}
	return nil
}

// persistLocked writes the session table; failures are logged, the in-memory table stays authoritative.
// Caller holds mu.
func (s *authService) persistLocked(ctx context.Context) {
	snapshot := make(models.SessionsDocument, len(s.sessions))
	for token, sess := range s.sessions {
		snapshot[token] = sess
	}
	if err := s.sessionRepo.Save(ctx, snapshot); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist admin sessions")
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword compares in constant time
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
