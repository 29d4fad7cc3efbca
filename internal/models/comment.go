package models

// Comment represents a reader comment on a page.
// Comments are stored grouped by page, so the page key is not part of the record.
type Comment struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Text           string   `json:"text"`
	Time           string   `json:"time"`
	Approved       bool     `json:"approved"`
	Flagged        bool     `json:"flagged,omitempty"`
	RecaptchaScore *float64 `json:"recaptchaScore,omitempty"`
	Verified       *bool    `json:"verified,omitempty"`
}

// CommentsDocument is the persisted comments file: page -> comments in submission order
type CommentsDocument map[string][]Comment

// DefaultCommentName is used when a submission or import carries no name
const DefaultCommentName = "Anonymous"

// Field length caps applied to imported comments
const (
	MaxNameLength  = 200
	MaxEmailLength = 200
	MaxTextLength  = 2000
)

// CommentSubmission is the public POST /api/comments body
type CommentSubmission struct {
	Page           string `json:"page"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Text           string `json:"text"`
	Honeypot       string `json:"honeypot"`
	RecaptchaToken string `json:"recaptchaToken"`
	ClientIP       string `json:"-"`
}

// SubmitResult describes the state a submitted comment ended up in
type SubmitResult struct {
	ID                   string `json:"-"`
	AwaitingModeration   bool   `json:"awaitingModeration,omitempty"`
	AwaitingVerification bool   `json:"awaitingVerification,omitempty"`
	Flagged              bool   `json:"flagged,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}
