package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is the siteverify response. Score is only present for v3 keys.
type Result struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score,omitempty"`
	Action     string   `json:"action,omitempty"`
	Hostname   string   `json:"hostname,omitempty"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// Verifier checks a client-side reCAPTCHA token
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*Result, error)
}

// Client calls the reCAPTCHA siteverify endpoint over HTTP.
type Client struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
}

// NewClient constructs a siteverify client.
func NewClient(secret, verifyURL string) *Client {
	return &Client{
		secret:     secret,
		verifyURL:  strings.TrimSpace(verifyURL),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify posts the token as a form and decodes the verdict.
// Transport failures and non-2xx answers are returned as errors.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build recaptcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recaptcha request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("recaptcha status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode recaptcha response: %w", err)
	}
	return &result, nil
}
