package service

import (
	"errors"

	"github.com/portfolio-comments-api/internal/validation"
)

var (
	// ErrInvalidRequest indicates a required field is missing.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSpam indicates the honeypot field was filled.
	ErrSpam = errors.New("spam")
	// ErrProfanity indicates a block-list match.
	ErrProfanity = errors.New("profanity")
	// ErrRateLimited indicates the submission throttle was exceeded.
	ErrRateLimited = errors.New("rate limited")
	// ErrRecaptchaFailed indicates the verification service rejected the token or was unreachable.
	ErrRecaptchaFailed = errors.New("recaptcha failed")
	// ErrUnauthorized indicates bad credentials or a missing/expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCurrentPassword indicates the current password did not match.
	ErrInvalidCurrentPassword = errors.New("invalid current password")
	// ErrInvalidFormat indicates an unrecognised import body.
	ErrInvalidFormat = validation.ErrInvalidFormat
	// ErrVerificationNotFound indicates an unknown or already used verification token.
	ErrVerificationNotFound = errors.New("verification token not found")
	// ErrVerificationExpired indicates a verification token past its expiry.
	ErrVerificationExpired = errors.New("verification token expired")
)
