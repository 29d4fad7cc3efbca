package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// Error codes returned in {"error": "<code>"} bodies
const (
	codeInvalid        = "invalid"
	codeMissing        = "missing"
	codeSpam           = "spam"
	codeProfanity      = "profanity"
	codeRateLimited    = "rate_limited"
	codeRecaptcha      = "recaptcha_failed"
	codeUnauthorized   = "unauthorized"
	codeInvalidCurrent = "invalid_current"
	codeInvalidFormat  = "invalid_format"
	codeMissingBody    = "missing_body"
	codeServerError    = "server_error"
	codeVerifyExpired  = "expired"
	codeVerifyNotFound = "invalid_or_expired"
)

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrInvalidRequest, http.StatusBadRequest, codeInvalid},
	{service.ErrSpam, http.StatusBadRequest, codeSpam},
	{service.ErrProfanity, http.StatusBadRequest, codeProfanity},
	{service.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
	{service.ErrRecaptchaFailed, http.StatusBadRequest, codeRecaptcha},
	{service.ErrUnauthorized, http.StatusUnauthorized, codeUnauthorized},
	{service.ErrInvalidCurrentPassword, http.StatusUnauthorized, codeInvalidCurrent},
	{service.ErrInvalidFormat, http.StatusBadRequest, codeInvalidFormat},
	{service.ErrVerificationNotFound, http.StatusNotFound, codeVerifyNotFound},
	{service.ErrVerificationExpired, http.StatusGone, codeVerifyExpired},
}

// statusFor maps a service error to its HTTP status and error code.
// Unknown errors are server errors.
func statusFor(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, codeServerError
}

// respondError writes the JSON error body for err, logging server errors
func respondError(c *gin.Context, log zerolog.Logger, err error, msg string) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	}
	c.JSON(status, gin.H{"error": code})
}
