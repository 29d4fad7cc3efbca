package models

import "time"

// Session is a persisted admin bearer session.
// Expires is an absolute epoch time in milliseconds.
type Session struct {
	User    string `json:"user"`
	Expires int64  `json:"expires"`
}

// Expired reports whether the session is no longer valid at now
func (s Session) Expired(now time.Time) bool {
	return s.Expires < now.UnixMilli()
}

// SessionsDocument is the persisted sessions file: token -> session
type SessionsDocument map[string]Session

// AuthRecord is the single admin identity with its bcrypt hash
type AuthRecord struct {
	User string `json:"user"`
	Hash string `json:"hash"`
}

// LoginRequest is the POST /api/admin/login body
type LoginRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

// ChangePasswordRequest is the POST /api/admin/change-password body
type ChangePasswordRequest struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

// RotatePasswordRequest is the POST /api/admin/rotate-password body
type RotatePasswordRequest struct {
	Current     string `json:"current"`
	NewPassword string `json:"newPassword"`
}

// VerificationToken binds a one-shot email verification link to a comment
type VerificationToken struct {
	Page    string `json:"page"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Expires int64  `json:"expires"`
}

// VerificationDocument is the persisted verification file: token -> binding
type VerificationDocument map[string]VerificationToken
