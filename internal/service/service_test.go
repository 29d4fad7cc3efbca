package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/portfolio-comments-api/internal/config"
	"github.com/portfolio-comments-api/internal/mocks"
	"github.com/portfolio-comments-api/internal/models"
	"github.com/portfolio-comments-api/internal/service"
	"github.com/rs/zerolog"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{PublicBaseURL: "http://localhost:3000"},
		Admin: config.AdminConfig{
			User:       "admin",
			Password:   "secret",
			SessionTTL: time.Hour,
		},
		Comments: config.CommentsConfig{
			EmailRateWindow:    time.Hour,
			EmailRateMax:       10,
			BadWords:           []string{"viagra", "casino"},
			RecaptchaThreshold: 0.5,
			VerificationTTL:    time.Hour,
		},
		Import: config.ImportConfig{MaxPerBucket: 1000},
		Log:    config.LogConfig{Level: "info", Env: "test"},
	}
}

func setupServices(t *testing.T, mutate func(cfg *config.Config)) (*service.Services, *mocks.Set) {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	repos, set := mocks.NewRepositories()
	services, err := service.NewServices(repos, cfg, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("NewServices failed: %v", err)
	}
	return services, set
}

func recaptchaServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func submission(page, text string) *models.CommentSubmission {
	return &models.CommentSubmission{
		Page:     page,
		Name:     "Alice",
		Email:    "alice@example.com",
		Text:     text,
		ClientIP: "10.0.0.1",
	}
}

// Reactions

func TestReactionService_Increment(t *testing.T) {
	services, _ := setupServices(t, nil)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := services.Reaction.IncrementReaction(ctx, "index", "like")
		if err != nil {
			t.Fatalf("IncrementReaction failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected count %d, got %d", want, got)
		}
	}

	reactions, err := services.Reaction.GetReactions(ctx, "index")
	if err != nil {
		t.Fatalf("GetReactions failed: %v", err)
	}
	if reactions["like"] != 3 {
		t.Errorf("Expected 3 likes, got %d", reactions["like"])
	}

	unseen, _ := services.Reaction.GetReactions(ctx, "other.html")
	if len(unseen) != 0 {
		t.Errorf("Expected empty map for unseen page, got %v", unseen)
	}
}

func TestReactionService_RequiresPageAndCode(t *testing.T) {
	services, set := setupServices(t, nil)

	if _, err := services.Reaction.IncrementReaction(context.Background(), "", "like"); !errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for missing page, got %v", err)
	}
	if _, err := services.Reaction.IncrementReaction(context.Background(), "index", ""); !errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for missing code, got %v", err)
	}
	if len(set.Reaction.Doc) != 0 {
		t.Errorf("Expected no reactions stored, got %v", set.Reaction.Doc)
	}
}

// Comment pipeline

func TestCommentService_PendingUntilApproved(t *testing.T) {
	services, _ := setupServices(t, nil)
	ctx := context.Background()

	res, err := services.Comment.Submit(ctx, submission("a.html", "hello"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !res.AwaitingModeration || res.ID == "" {
		t.Fatalf("Expected awaiting moderation with an id, got %+v", res)
	}

	visible, _ := services.Comment.ListComments(ctx, "a.html", true)
	if len(visible) != 0 {
		t.Errorf("Expected no visible comments before approval, got %d", len(visible))
	}
	all, _ := services.Comment.ListComments(ctx, "a.html", false)
	if len(all) != 1 {
		t.Fatalf("Expected 1 stored comment, got %d", len(all))
	}
	if all[0].Approved {
		t.Error("New comment must be unapproved")
	}

	found, err := services.Moderation.SetApproved(ctx, res.ID, true)
	if err != nil || !found {
		t.Fatalf("SetApproved: found=%v err=%v", found, err)
	}

	visible, _ = services.Comment.ListComments(ctx, "a.html", true)
	if len(visible) != 1 || visible[0].Text != "hello" {
		t.Errorf("Expected the approved comment to be visible, got %+v", visible)
	}
}

func TestCommentService_HoneypotNeverStores(t *testing.T) {
	services, set := setupServices(t, nil)

	sub := submission("a.html", "hello")
	sub.Honeypot = "http://spam.example"
	if _, err := services.Comment.Submit(context.Background(), sub); !errors.Is(err, service.ErrSpam) {
		t.Errorf("Expected ErrSpam, got %v", err)
	}
	if set.Comment.Count() != 0 {
		t.Errorf("Expected nothing stored, got %d comments", set.Comment.Count())
	}
}

func TestCommentService_RequiredFields(t *testing.T) {
	services, set := setupServices(t, nil)

	if _, err := services.Comment.Submit(context.Background(), submission("a.html", "")); !errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for missing text, got %v", err)
	}
	if _, err := services.Comment.Submit(context.Background(), submission("", "hi")); !errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for missing page, got %v", err)
	}
	if set.Comment.Count() != 0 {
		t.Errorf("Expected nothing stored, got %d comments", set.Comment.Count())
	}
}

func TestCommentService_ProfanityRejected(t *testing.T) {
	services, set := setupServices(t, nil)

	tests := []*models.CommentSubmission{
		submission("a.html", "cheap VIAGRA here"),
		{Page: "a.html", Name: "casino king", Text: "hi", ClientIP: "10.0.0.1"},
		{Page: "a.html", Email: "me@casino.example", Text: "hi", ClientIP: "10.0.0.1"},
	}
	for i, sub := range tests {
		if _, err := services.Comment.Submit(context.Background(), sub); !errors.Is(err, service.ErrProfanity) {
			t.Errorf("Case %d: expected ErrProfanity, got %v", i, err)
		}
	}
	if set.Comment.Count() != 0 {
		t.Errorf("Expected nothing stored, got %d comments", set.Comment.Count())
	}
}

func TestCommentService_RateLimitPerIPAndEmail(t *testing.T) {
	services, set := setupServices(t, func(cfg *config.Config) {
		cfg.Comments.EmailRateMax = 2
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := services.Comment.Submit(ctx, submission("a.html", fmt.Sprintf("msg %d", i))); err != nil {
			t.Fatalf("Submission %d failed: %v", i, err)
		}
	}
	if _, err := services.Comment.Submit(ctx, submission("a.html", "one too many")); !errors.Is(err, service.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}

	other := submission("a.html", "different sender")
	other.Email = "bob@example.com"
	if _, err := services.Comment.Submit(ctx, other); err != nil {
		t.Errorf("Different email must have its own budget, got %v", err)
	}

	if set.Comment.Count() != 3 {
		t.Errorf("Expected 3 stored comments, got %d", set.Comment.Count())
	}
}

func TestCommentService_DefaultsAndSanitizesName(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()

	anon := submission("a.html", "hi")
	anon.Name = ""
	services.Comment.Submit(ctx, anon)

	tagged := submission("a.html", "hey")
	tagged.Name = "<b>Bob</b>"
	tagged.Email = "bob@example.com"
	services.Comment.Submit(ctx, tagged)

	list := set.Comment.Doc["a.html"]
	if len(list) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(list))
	}
	if list[0].Name != models.DefaultCommentName {
		t.Errorf("Expected default name, got %q", list[0].Name)
	}
	if list[1].Name != "Bob" {
		t.Errorf("Expected markup stripped from name, got %q", list[1].Name)
	}
	if _, err := time.Parse(time.RFC3339, list[0].Time); err != nil {
		t.Errorf("Expected ISO-8601 time, got %q", list[0].Time)
	}
}

func TestCommentService_Recaptcha(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     error
		wantFlagged bool
		wantStored  int
	}{
		{name: "rejected token", body: `{"success":false,"error-codes":["invalid-input-response"]}`, wantErr: service.ErrRecaptchaFailed},
		{name: "low score flagged", body: `{"success":true,"score":0.2}`, wantFlagged: true, wantStored: 1},
		{name: "good score", body: `{"success":true,"score":0.9}`, wantStored: 1},
		{name: "no score", body: `{"success":true}`, wantStored: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := recaptchaServer(t, tt.body)
			services, set := setupServices(t, func(cfg *config.Config) {
				cfg.Comments.RecaptchaSecret = "s3cret"
				cfg.Comments.RecaptchaVerifyURL = srv.URL
			})

			sub := submission("a.html", "hello")
			sub.RecaptchaToken = "tok"
			res, err := services.Comment.Submit(context.Background(), sub)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("Submit failed: %v", err)
			} else if res.Flagged != tt.wantFlagged {
				t.Errorf("Expected flagged=%v, got %v", tt.wantFlagged, res.Flagged)
			}

			if set.Comment.Count() != tt.wantStored {
				t.Fatalf("Expected %d stored, got %d", tt.wantStored, set.Comment.Count())
			}
			if tt.wantFlagged {
				c := set.Comment.Doc["a.html"][0]
				if !c.Flagged || c.Approved {
					t.Errorf("Expected flagged unapproved comment, got %+v", c)
				}
				if c.RecaptchaScore == nil || *c.RecaptchaScore != 0.2 {
					t.Errorf("Expected score 0.2 recorded, got %v", c.RecaptchaScore)
				}
			}
		})
	}
}

func TestCommentService_RecaptchaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	services, set := setupServices(t, func(cfg *config.Config) {
		cfg.Comments.RecaptchaSecret = "s3cret"
		cfg.Comments.RecaptchaVerifyURL = url
	})

	if _, err := services.Comment.Submit(context.Background(), submission("a.html", "hello")); !errors.Is(err, service.ErrRecaptchaFailed) {
		t.Errorf("Expected ErrRecaptchaFailed, got %v", err)
	}
	if set.Comment.Count() != 0 {
		t.Errorf("Expected nothing stored, got %d", set.Comment.Count())
	}
}

func onlyToken(t *testing.T, set *mocks.Set) string {
	t.Helper()
	if len(set.Verification.Tokens) != 1 {
		t.Fatalf("Expected 1 verification token, got %d", len(set.Verification.Tokens))
	}
	for token := range set.Verification.Tokens {
		return token
	}
	return ""
}

func TestCommentService_EmailVerification(t *testing.T) {
	services, set := setupServices(t, func(cfg *config.Config) {
		cfg.Comments.EnableEmailVerification = true
	})
	ctx := context.Background()

	res, err := services.Comment.Submit(ctx, submission("a.html", "hello"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !res.AwaitingVerification || res.AwaitingModeration {
		t.Fatalf("Expected awaiting verification, got %+v", res)
	}

	stored := set.Comment.Doc["a.html"][0]
	if stored.Verified == nil || *stored.Verified {
		t.Fatalf("Expected verified=false, got %v", stored.Verified)
	}

	token := onlyToken(t, set)
	if len(token) != 36 {
		t.Errorf("Expected 36 hex chars, got %d", len(token))
	}
	if err := services.Comment.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	stored = set.Comment.Doc["a.html"][0]
	if stored.Verified == nil || !*stored.Verified {
		t.Error("Expected comment verified")
	}
	if stored.Approved {
		t.Error("Verification must not approve")
	}

	if err := services.Comment.VerifyEmail(ctx, token); !errors.Is(err, service.ErrVerificationNotFound) {
		t.Errorf("Expected token to be single use, got %v", err)
	}
	if err := services.Comment.VerifyEmail(ctx, ""); !errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for empty token, got %v", err)
	}
}

func TestCommentService_EmailVerificationExpired(t *testing.T) {
	services, set := setupServices(t, func(cfg *config.Config) {
		cfg.Comments.EnableEmailVerification = true
		cfg.Comments.VerificationTTL = time.Millisecond
	})
	ctx := context.Background()

	if _, err := services.Comment.Submit(ctx, submission("a.html", "hello")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	token := onlyToken(t, set)
	time.Sleep(10 * time.Millisecond)

	if err := services.Comment.VerifyEmail(ctx, token); !errors.Is(err, service.ErrVerificationExpired) {
		t.Errorf("Expected ErrVerificationExpired, got %v", err)
	}
	if v := set.Comment.Doc["a.html"][0].Verified; v == nil || *v {
		t.Error("Expired token must not verify the comment")
	}
}

func TestCommentService_EmailVerificationSkippedWithoutEmail(t *testing.T) {
	services, set := setupServices(t, func(cfg *config.Config) {
		cfg.Comments.EnableEmailVerification = true
	})

	sub := submission("a.html", "hello")
	sub.Email = ""
	res, err := services.Comment.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !res.AwaitingModeration {
		t.Errorf("Expected awaiting moderation, got %+v", res)
	}
	if len(set.Verification.Tokens) != 0 {
		t.Errorf("Expected no token issued, got %d", len(set.Verification.Tokens))
	}
}

func TestCommentService_StoreFailure(t *testing.T) {
	services, set := setupServices(t, nil)
	set.Comment.WriteError = errors.New("disk full")

	_, err := services.Comment.Submit(context.Background(), submission("a.html", "hello"))
	if err == nil {
		t.Fatal("Expected an error")
	}
	if errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("Store failures must not look like client errors, got %v", err)
	}
}

// Admin sessions

func loggedIn(t *testing.T, services *service.Services) string {
	t.Helper()
	ctx := context.Background()
	if err := services.Auth.EnsureAuth(ctx); err != nil {
		t.Fatalf("EnsureAuth failed: %v", err)
	}
	res, err := services.Auth.Login(ctx, "admin", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return res.Token
}

func TestAuthService_EnsureAuthSeedsOnce(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()

	if err := services.Auth.EnsureAuth(ctx); err != nil {
		t.Fatalf("EnsureAuth failed: %v", err)
	}
	if set.Auth.Record == nil || set.Auth.Record.Hash == "" {
		t.Fatal("Expected auth record written")
	}
	if set.Auth.Record.Hash == "secret" {
		t.Error("Password must not be stored in clear")
	}

	hash := set.Auth.Record.Hash
	if err := services.Auth.EnsureAuth(ctx); err != nil {
		t.Fatalf("Second EnsureAuth failed: %v", err)
	}
	if set.Auth.Record.Hash != hash {
		t.Error("EnsureAuth must not overwrite an existing hash")
	}
}

func TestAuthService_Login(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	services.Auth.EnsureAuth(ctx)

	tests := []struct {
		name    string
		user    string
		pass    string
		wantErr error
	}{
		{name: "wrong password", user: "admin", pass: "nope", wantErr: service.ErrUnauthorized},
		{name: "wrong user", user: "root", pass: "secret", wantErr: service.ErrUnauthorized},
		{name: "missing password", user: "admin", pass: "", wantErr: service.ErrInvalidRequest},
		{name: "valid", user: "admin", pass: "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := services.Auth.Login(ctx, tt.user, tt.pass)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			if len(res.Token) != 48 {
				t.Errorf("Expected 48 hex chars, got %d", len(res.Token))
			}
			if res.Expires <= time.Now().UnixMilli() {
				t.Errorf("Expected expiry in the future, got %d", res.Expires)
			}
			user, err := services.Auth.CheckToken(ctx, res.Token)
			if err != nil || user != "admin" {
				t.Errorf("CheckToken: user=%q err=%v", user, err)
			}
			if _, ok := set.Session.Sessions[res.Token]; !ok {
				t.Error("Expected session persisted")
			}
		})
	}
}

func TestAuthService_LoginWithoutAuthRecord(t *testing.T) {
	services, _ := setupServices(t, nil)

	if _, err := services.Auth.Login(context.Background(), "admin", "secret"); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized before bootstrap, got %v", err)
	}
}

func TestAuthService_TokenExpires(t *testing.T) {
	services, _ := setupServices(t, func(cfg *config.Config) {
		cfg.Admin.SessionTTL = time.Millisecond
	})
	token := loggedIn(t, services)
	time.Sleep(10 * time.Millisecond)

	if _, err := services.Auth.CheckToken(context.Background(), token); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected expired token rejected, got %v", err)
	}
}

func TestAuthService_LogoutIdempotent(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	token := loggedIn(t, services)

	for i := 0; i < 2; i++ {
		if err := services.Auth.Logout(ctx, token); err != nil {
			t.Fatalf("Logout %d failed: %v", i, err)
		}
	}
	if err := services.Auth.Logout(ctx, "never-issued"); err != nil {
		t.Errorf("Unknown token logout failed: %v", err)
	}
	if _, err := services.Auth.CheckToken(ctx, token); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected token invalid after logout, got %v", err)
	}
	if len(set.Session.Sessions) != 0 {
		t.Errorf("Expected no persisted sessions, got %d", len(set.Session.Sessions))
	}
}

func TestAuthService_ChangePasswordKeepsSessions(t *testing.T) {
	services, _ := setupServices(t, nil)
	ctx := context.Background()
	token := loggedIn(t, services)

	if err := services.Auth.ChangePassword(ctx, "wrong", "next"); !errors.Is(err, service.ErrInvalidCurrentPassword) {
		t.Errorf("Expected ErrInvalidCurrentPassword, got %v", err)
	}
	if err := services.Auth.ChangePassword(ctx, "secret", "next"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := services.Auth.CheckToken(ctx, token); err != nil {
		t.Errorf("Existing session must survive a password change, got %v", err)
	}
	if _, err := services.Auth.Login(ctx, "admin", "secret"); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Old password must stop working, got %v", err)
	}
	if _, err := services.Auth.Login(ctx, "admin", "next"); err != nil {
		t.Errorf("New password must work, got %v", err)
	}
}

func TestAuthService_RotatePasswordInvalidatesSessions(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	token := loggedIn(t, services)

	if err := services.Auth.RotatePassword(ctx, "wrong", "next"); !errors.Is(err, service.ErrInvalidCurrentPassword) {
		t.Errorf("Expected ErrInvalidCurrentPassword, got %v", err)
	}
	if _, err := services.Auth.CheckToken(ctx, token); err != nil {
		t.Fatalf("Failed rotation must not sign out, got %v", err)
	}

	if err := services.Auth.RotatePassword(ctx, "secret", "next"); err != nil {
		t.Fatalf("RotatePassword failed: %v", err)
	}
	if _, err := services.Auth.CheckToken(ctx, token); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected token invalid after rotation, got %v", err)
	}
	if len(set.Session.Sessions) != 0 {
		t.Errorf("Expected persisted sessions cleared, got %d", len(set.Session.Sessions))
	}
	if _, err := services.Auth.Login(ctx, "admin", "next"); err != nil {
		t.Errorf("New password must work, got %v", err)
	}
}

func TestAuthService_LoadSessions(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()

	now := time.Now()
	set.Session.Sessions["live"] = models.Session{User: "admin", Expires: now.Add(time.Hour).UnixMilli()}
	set.Session.Sessions["stale"] = models.Session{User: "admin", Expires: now.Add(-time.Hour).UnixMilli()}

	if err := services.Auth.LoadSessions(ctx); err != nil {
		t.Fatalf("LoadSessions failed: %v", err)
	}
	if user, err := services.Auth.CheckToken(ctx, "live"); err != nil || user != "admin" {
		t.Errorf("Expected live session restored, got user=%q err=%v", user, err)
	}
	if _, err := services.Auth.CheckToken(ctx, "stale"); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected stale session dropped, got %v", err)
	}
}

func TestAuthService_PersistFailureDoesNotFailLogin(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	services.Auth.EnsureAuth(ctx)
	set.Session.SaveError = errors.New("read-only filesystem")

	res, err := services.Auth.Login(ctx, "admin", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := services.Auth.CheckToken(ctx, res.Token); err != nil {
		t.Errorf("In-memory session must be usable, got %v", err)
	}
}

func TestAuthService_ResetCredentials(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	token := loggedIn(t, services)

	if err := services.Auth.ResetCredentials(ctx, "ops", "fresh"); err != nil {
		t.Fatalf("ResetCredentials failed: %v", err)
	}
	if set.Auth.Record.User != "ops" {
		t.Errorf("Expected user ops, got %q", set.Auth.Record.User)
	}
	if _, err := services.Auth.CheckToken(ctx, token); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected sessions cleared, got %v", err)
	}
	if _, err := services.Auth.Login(ctx, "ops", "fresh"); err != nil {
		t.Errorf("Login with reset credentials failed: %v", err)
	}
}

// Moderation

func seedComment(set *mocks.Set, page string, c models.Comment) {
	set.Comment.Doc[page] = append(set.Comment.Doc[page], c)
}

func TestModerationService_UnknownIDsAreNoOps(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	seedComment(set, "a.html", models.Comment{ID: "c1", Text: "hi"})

	found, err := services.Moderation.SetApproved(ctx, "missing", true)
	if err != nil || found {
		t.Errorf("Expected silent no-op, got found=%v err=%v", found, err)
	}
	found, err = services.Moderation.DeleteComment(ctx, "missing")
	if err != nil || found {
		t.Errorf("Expected silent no-op, got found=%v err=%v", found, err)
	}
	if set.Comment.WriteCalls != 0 {
		t.Errorf("Expected no writes, got %d", set.Comment.WriteCalls)
	}
}

func TestModerationService_UnapproveAndDelete(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	seedComment(set, "a.html", models.Comment{ID: "c1", Text: "hi", Approved: true})
	seedComment(set, "a.html", models.Comment{ID: "c2", Text: "yo", Approved: true})

	if _, err := services.Moderation.SetApproved(ctx, "c1", false); err != nil {
		t.Fatalf("SetApproved failed: %v", err)
	}
	if set.Comment.Doc["a.html"][0].Approved {
		t.Error("Expected c1 unapproved")
	}

	found, err := services.Moderation.DeleteComment(ctx, "c2")
	if err != nil || !found {
		t.Fatalf("DeleteComment: found=%v err=%v", found, err)
	}
	doc, _ := services.Moderation.AllComments(ctx)
	if len(doc["a.html"]) != 1 || doc["a.html"][0].ID != "c1" {
		t.Errorf("Expected only c1 left, got %+v", doc["a.html"])
	}
}

func importBuckets() []models.ImportBucket {
	return []models.ImportBucket{
		{
			Page: "a.html",
			Comments: []models.ImportItem{
				{Email: "Old@Example.com ", Text: "already here"},
				{Email: "new@example.com", Text: "fresh"},
				{Email: "NEW@example.com", Text: "fresh"},
				{Name: "", Text: "anonymous"},
			},
		},
		{
			Page:     "b.html",
			Comments: []models.ImportItem{{ID: "keep-me", Name: "Zed", Text: "hi", Time: "2024-01-01T00:00:00.000Z"}},
		},
	}
}

func TestModerationService_PreviewDoesNotMutate(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	seedComment(set, "a.html", models.Comment{ID: "c1", Email: "old@example.com", Text: "already here"})

	res, err := services.Moderation.BulkImport(ctx, importBuckets(), true, "admin")
	if err != nil {
		t.Fatalf("BulkImport preview failed: %v", err)
	}
	if !res.Preview || len(res.Pages) != 2 {
		t.Fatalf("Expected 2 previewed pages, got %+v", res)
	}
	if set.Comment.WriteCalls != 0 || set.Comment.Count() != 1 {
		t.Errorf("Preview must not write, got %d writes and %d comments", set.Comment.WriteCalls, set.Comment.Count())
	}
	if len(set.Audit.Entries) != 0 {
		t.Errorf("Preview must not audit, got %d entries", len(set.Audit.Entries))
	}

	a := res.Pages[0]
	if a.Page != "a.html" || len(a.Items) != 4 {
		t.Fatalf("Unexpected preview %+v", a)
	}
	wantExists := []bool{true, false, true, false}
	for i, want := range wantExists {
		if a.Items[i].Exists != want {
			t.Errorf("Item %d: expected exists=%v, got %v", i, want, a.Items[i].Exists)
		}
	}
	if a.Summary.Imported != 2 || a.Summary.Skipped != 2 {
		t.Errorf("Expected 2 imported 2 skipped, got %+v", a.Summary)
	}
	if a.Items[3].Name != models.DefaultCommentName {
		t.Errorf("Expected default name in preview, got %q", a.Items[3].Name)
	}
}

func TestModerationService_CommitImport(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	seedComment(set, "a.html", models.Comment{ID: "c1", Email: "old@example.com", Text: "already here", Approved: true})

	res, err := services.Moderation.BulkImport(ctx, importBuckets(), false, "admin")
	if err != nil {
		t.Fatalf("BulkImport failed: %v", err)
	}
	if res.Summary["a.html"] != (models.ImportSummary{Imported: 2, Skipped: 2}) {
		t.Errorf("Unexpected a.html summary %+v", res.Summary["a.html"])
	}
	if res.Summary["b.html"] != (models.ImportSummary{Imported: 1}) {
		t.Errorf("Unexpected b.html summary %+v", res.Summary["b.html"])
	}
	if set.Comment.WriteCalls != 1 {
		t.Errorf("Expected one write, got %d", set.Comment.WriteCalls)
	}

	a := set.Comment.Doc["a.html"]
	if len(a) != 3 {
		t.Fatalf("Expected 3 comments on a.html, got %d", len(a))
	}
	for _, c := range a[1:] {
		if c.Approved {
			t.Errorf("Imported comment %q must be unapproved", c.ID)
		}
		if c.ID == "" || c.Time == "" {
			t.Errorf("Expected generated id and time, got %+v", c)
		}
	}
	b := set.Comment.Doc["b.html"][0]
	if b.ID != "keep-me" || b.Time != "2024-01-01T00:00:00.000Z" {
		t.Errorf("Expected supplied id and time kept, got %+v", b)
	}

	if len(set.Audit.Entries) != 1 || set.Audit.Entries[0].By != "admin" {
		t.Fatalf("Expected one audit entry by admin, got %+v", set.Audit.Entries)
	}

	again, err := services.Moderation.BulkImport(ctx, importBuckets(), false, "")
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}
	if again.Summary["a.html"].Imported != 0 || again.Summary["b.html"].Imported != 0 {
		t.Errorf("Re-import must be fully de-duplicated, got %+v", again.Summary)
	}
	if set.Comment.WriteCalls != 1 {
		t.Errorf("Expected no write when nothing is imported, got %d writes", set.Comment.WriteCalls)
	}
	entries, _ := services.Moderation.AuditLog(ctx)
	if len(entries) != 2 || entries[1].By != "unknown" {
		t.Errorf("Expected second audit entry by unknown, got %+v", entries)
	}
}

func TestModerationService_ImportReplacesTakenIDs(t *testing.T) {
	services, set := setupServices(t, nil)
	ctx := context.Background()
	seedComment(set, "a.html", models.Comment{ID: "c1", Email: "old@example.com", Text: "already here"})

	buckets := []models.ImportBucket{
		{Page: "b.html", Comments: []models.ImportItem{
			{ID: "c1", Email: "new@example.com", Text: "different text"},
			{ID: "dup", Email: "x@example.com", Text: "first"},
			{ID: "dup", Email: "y@example.com", Text: "second"},
		}},
	}
	res, err := services.Moderation.BulkImport(ctx, buckets, false, "admin")
	if err != nil {
		t.Fatalf("BulkImport failed: %v", err)
	}
	if res.Summary["b.html"].Imported != 3 {
		t.Fatalf("Expected 3 imported, got %+v", res.Summary["b.html"])
	}

	ids := map[string]int{}
	for _, list := range set.Comment.Doc {
		for _, c := range list {
			ids[c.ID]++
		}
	}
	for id, n := range ids {
		if n != 1 {
			t.Errorf("Expected id %q to be unique, found %d times", id, n)
		}
	}
	if set.Comment.Doc["b.html"][1].ID != "dup" {
		t.Errorf("Expected first use of a free id kept, got %q", set.Comment.Doc["b.html"][1].ID)
	}

	found, err := services.Moderation.DeleteComment(ctx, "c1")
	if err != nil || !found {
		t.Fatalf("DeleteComment failed: %v %v", found, err)
	}
	if len(set.Comment.Doc["b.html"]) != 3 {
		t.Errorf("Deleting c1 must not touch imported comments, got %d left", len(set.Comment.Doc["b.html"]))
	}
}

func TestModerationService_ImportCapsBucket(t *testing.T) {
	services, set := setupServices(t, func(cfg *config.Config) {
		cfg.Import.MaxPerBucket = 2
	})

	items := make([]models.ImportItem, 5)
	for i := range items {
		items[i] = models.ImportItem{Text: fmt.Sprintf("c%d", i)}
	}
	res, err := services.Moderation.BulkImport(context.Background(), []models.ImportBucket{{Page: "a.html", Comments: items}}, false, "admin")
	if err != nil {
		t.Fatalf("BulkImport failed: %v", err)
	}
	if res.Summary["a.html"].Imported != 2 {
		t.Errorf("Expected 2 imported, got %+v", res.Summary["a.html"])
	}
	if set.Comment.Count() != 2 {
		t.Errorf("Expected 2 stored, got %d", set.Comment.Count())
	}
}

func TestModerationService_ImportWriteFailure(t *testing.T) {
	services, set := setupServices(t, nil)
	set.Comment.WriteError = errors.New("disk full")

	_, err := services.Moderation.BulkImport(context.Background(), importBuckets(), false, "admin")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if len(set.Audit.Entries) != 0 {
		t.Errorf("Failed import must not be audited, got %d entries", len(set.Audit.Entries))
	}
}
