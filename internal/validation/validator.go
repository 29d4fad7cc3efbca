package validation

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/portfolio-comments-api/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator holds the word filter and the display-name sanitiser
type Validator struct {
	badWords []string
	policy   *bluemonday.Policy
}

// NewValidator creates a validator for the given block list.
// Matching is a case-insensitive substring test.
func NewValidator(badWords []string) *Validator {
	words := make([]string, 0, len(badWords))
	for _, w := range badWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}
	return &Validator{
		badWords: words,
		policy:   bluemonday.StrictPolicy(),
	}
}

// HoneypotTriggered reports whether the hidden form field was filled
func HoneypotTriggered(sub *models.CommentSubmission) bool {
	return sub.Honeypot != ""
}

// ValidateSubmission checks the required fields of a public submission
func (v *Validator) ValidateSubmission(sub *models.CommentSubmission) []ValidationError {
	var errors []ValidationError

	if sub.Page == "" {
		errors = append(errors, ValidationError{Field: "page", Message: "page is required"})
	}
	if sub.Text == "" {
		errors = append(errors, ValidationError{Field: "text", Message: "text is required"})
	}

	return errors
}

// ContainsBadWords reports whether any of the values contains a blocked word
func (v *Validator) ContainsBadWords(values ...string) bool {
	for _, value := range values {
		low := strings.ToLower(value)
		for _, w := range v.badWords {
			if strings.Contains(low, w) {
				return true
			}
		}
	}
	return false
}

// DisplayName strips markup from a submitted name and applies the default
func (v *Validator) DisplayName(name string) string {
	clean := strings.TrimSpace(html.UnescapeString(v.policy.Sanitize(name)))
	if clean == "" {
		return models.DefaultCommentName
	}
	return clean
}

// DedupKey is the identity used to detect duplicate comments on a page:
// lowercased trimmed email, a pipe, then the raw text.
func DedupKey(email, text string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + text
}

// Truncate caps s at max characters
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// CapImportItem applies the import length caps and the default name.
// ID and time are left for the caller to fill.
func CapImportItem(item models.ImportItem) models.ImportItem {
	name := item.Name
	if name == "" {
		name = models.DefaultCommentName
	}
	return models.ImportItem{
		ID:    item.ID,
		Name:  Truncate(name, models.MaxNameLength),
		Email: Truncate(item.Email, models.MaxEmailLength),
		Text:  Truncate(item.Text, models.MaxTextLength),
		Time:  item.Time,
	}
}
