package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/exileum/toot-migrator/internal/archive"
	"github.com/exileum/toot-migrator/internal/config"
	"github.com/exileum/toot-migrator/internal/mastodon"
	"github.com/exileum/toot-migrator/internal/testutil"
)

type fakeConfirmer struct {
	answer bool
	asked  int
}

func (f *fakeConfirmer) PromptBool(prompt string, defaultValue bool) bool {
	f.asked++
	return f.answer
}

// writeOutbox creates an archive with n plain toots whose ids are "1".."n".
func writeOutbox(t *testing.T, n int) string {
	t.Helper()
	items := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, map[string]any{
			"id":        fmt.Sprintf("%d", i),
			"type":      "Create",
			"published": fmt.Sprintf("2020-01-0%dT10:00:00Z", i),
			"object": map[string]any{
				"content":    fmt.Sprintf("<p>toot %d</p>", i),
				"sensitive":  false,
				"attachment": []archive.Attachment{},
			},
		})
	}
	raw, err := json.Marshal(map[string]any{"orderedItems": items})
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, archive.OutboxFile), raw, 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func testConfig(t *testing.T, archiveDir string) *config.Config {
	t.Helper()
	work := t.TempDir()
	return &config.Config{
		Mastodon: config.MastodonConfig{
			APIBaseURL:     "https://mastodon.test",
			Email:          "me@example.com",
			Password:       "secret",
			AppName:        "toot-migrator",
			ClientCredFile: filepath.Join(work, "clientcred.secret"),
			UserCredFile:   filepath.Join(work, "usercred.secret"),
			Timeout:        time.Second,
			MaxRetries:     1,
		},
		Archive: config.ArchiveConfig{
			Path: archiveDir,
		},
		Migration: config.MigrationConfig{
			Limit:       -1,
			Visibility:  mastodon.VisibilityPrivate,
			UploadMedia: true,
			LogFile:     filepath.Join(work, "log.txt"),
		},
	}
}

func newTestMigrator(cfg *config.Config, client *testutil.MastodonClient, confirmer *fakeConfirmer) (*Migrator, *strings.Builder) {
	var out strings.Builder
	m := NewMigrator(cfg).
		WithClient(client).
		WithClock(clockwork.NewFakeClock()).
		WithConfirmer(confirmer).
		WithOutput(&out)
	return m, &out
}

func TestNewMigrator(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	migrator := NewMigrator(cfg)
	if migrator == nil {
		t.Fatal("NewMigrator returned nil")
	}
	if migrator.config != cfg {
		t.Error("Migrator config not set correctly")
	}
	if migrator.State() != StateUnauthenticated {
		t.Errorf("Expected initial state %s, got %s", StateUnauthenticated, migrator.State())
	}
}

func TestMigratorFullRun(t *testing.T) {
	cfg := testConfig(t, writeOutbox(t, 2))
	client := &testutil.MastodonClient{}
	confirmer := &fakeConfirmer{answer: true}
	m, out := newTestMigrator(cfg, client, confirmer)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if m.State() != StateDone {
		t.Errorf("Expected state %s, got %s", StateDone, m.State())
	}
	if client.RegisterCalls != 1 || client.LoginCalls != 1 || client.VerifyCalls != 1 {
		t.Errorf("Unexpected bootstrap calls: register=%d login=%d verify=%d", client.RegisterCalls, client.LoginCalls, client.VerifyCalls)
	}
	if confirmer.asked != 1 {
		t.Errorf("Expected one confirmation prompt, got %d", confirmer.asked)
	}

	app, err := mastodon.LoadAppCredentials(cfg.Mastodon.ClientCredFile)
	if err != nil {
		t.Fatalf("Client credentials not stored: %v", err)
	}
	if app.ClientID != "test_client_id" {
		t.Errorf("Unexpected client id %q", app.ClientID)
	}
	user, err := mastodon.LoadUserCredentials(cfg.Mastodon.UserCredFile)
	if err != nil {
		t.Fatalf("User credentials not stored: %v", err)
	}
	if user.AccessToken != "test_token" {
		t.Errorf("Unexpected access token %q", user.AccessToken)
	}

	want := []string{
		"[2020-01-01T10:00:00Z]\ntoot 1\n\n",
		"[2020-01-02T10:00:00Z]\ntoot 2\n\n",
	}
	var got []string
	for _, s := range client.Statuses {
		got = append(got, s.Status)
		if s.Visibility != mastodon.VisibilityPrivate {
			t.Errorf("Expected private visibility, got %s", s.Visibility)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Published payloads mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"1", "2"}, readLog(t, cfg.Migration.LogFile)); diff != "" {
		t.Errorf("Migration log mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "Published toots: 2") {
		t.Errorf("Missing summary in %q", out.String())
	}
}

func TestMigratorReusesClientCredentials(t *testing.T) {
	cfg := testConfig(t, writeOutbox(t, 1))
	cfg.Migration.AssumeYes = true
	existing := &mastodon.AppCredentials{ClientID: "saved", ClientSecret: "saved_secret", APIBaseURL: "https://mastodon.test/", AppName: "toot-migrator"}
	if err := existing.Save(cfg.Mastodon.ClientCredFile); err != nil {
		t.Fatal(err)
	}

	var loginApp *mastodon.AppCredentials
	client := &testutil.MastodonClient{
		LoginFunc: func(ctx context.Context, app *mastodon.AppCredentials, email, password string) (*mastodon.UserCredentials, error) {
			loginApp = app
			return &mastodon.UserCredentials{AccessToken: "tok", APIBaseURL: app.APIBaseURL}, nil
		},
	}
	confirmer := &fakeConfirmer{}
	m, _ := newTestMigrator(cfg, client, confirmer)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if client.RegisterCalls != 0 {
		t.Errorf("Expected no app registration, got %d", client.RegisterCalls)
	}
	if loginApp == nil || loginApp.ClientID != "saved" {
		t.Errorf("Login did not use stored credentials: %+v", loginApp)
	}
	if confirmer.asked != 0 {
		t.Error("--yes must skip the confirmation prompt")
	}
}

func TestMigratorReregistersMalformedCredentials(t *testing.T) {
	cfg := testConfig(t, writeOutbox(t, 1))
	cfg.Migration.AssumeYes = true
	if err := os.WriteFile(cfg.Mastodon.ClientCredFile, []byte("only-one-line\n"), 0600); err != nil {
		t.Fatal(err)
	}

	client := &testutil.MastodonClient{}
	m, _ := newTestMigrator(cfg, client, &fakeConfirmer{})

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if client.RegisterCalls != 1 {
		t.Errorf("Expected re-registration, got %d calls", client.RegisterCalls)
	}
	if _, err := mastodon.LoadAppCredentials(cfg.Mastodon.ClientCredFile); err != nil {
		t.Errorf("Credential file not rewritten: %v", err)
	}
}

func TestMigratorResumesFromLog(t *testing.T) {
	cfg := testConfig(t, writeOutbox(t, 3))
	cfg.Migration.AssumeYes = true
	if err := os.WriteFile(cfg.Migration.LogFile, []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	client := &testutil.MastodonClient{}
	m, _ := newTestMigrator(cfg, client, &fakeConfirmer{})

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(client.Statuses) != 2 {
		t.Errorf("Expected 2 toots published, got %d", len(client.Statuses))
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, readLog(t, cfg.Migration.LogFile)); diff != "" {
		t.Errorf("Migration log mismatch (-want +got):\n%s", diff)
	}
}

func TestMigratorLimitAndAllowList(t *testing.T) {
	cfg := testConfig(t, writeOutbox(t, 5))
	cfg.Migration.AssumeYes = true
	cfg.Migration.Limit = 1
	cfg.Archive.UploadListPath = filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(cfg.Archive.UploadListPath, []byte("4\n\n2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	client := &testutil.MastodonClient{}
	m, _ := newTestMigrator(cfg, client, &fakeConfirmer{})

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if diff := cmp.Diff([]string{"2"}, readLog(t, cfg.Migration.LogFile)); diff != "" {
		t.Errorf("Migration log mismatch (-want +got):\n%s", diff)
	}
}

func TestMigratorDryRun(t *testing.T) {
	cfg := testConfig(t, writeOutbox(t, 2))
	cfg.Migration.DryRun = true

	client := &testutil.MastodonClient{}
	confirmer := &fakeConfirmer{}
	m, out := newTestMigrator(cfg, client, confirmer)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if client.RegisterCalls+client.LoginCalls+client.VerifyCalls+len(client.Statuses) != 0 {
		t.Error("Dry run must not call the API")
	}
	if confirmer.asked != 0 {
		t.Error("Dry run must not prompt")
	}
	if _, err := os.Stat(cfg.Migration.LogFile); !errors.Is(err, os.ErrNotExist) {
		t.Error("Dry run must not create the migration log")
	}
	if !strings.Contains(out.String(), "DRY-RUN") {
		t.Errorf("Missing dry run notice in %q", out.String())
	}
	if m.State() != StateDone {
		t.Errorf("Expected state %s, got %s", StateDone, m.State())
	}
}

func TestMigratorDeclined(t *testing.T) {
	cfg := testConfig(t, writeOutbox(t, 2))
	client := &testutil.MastodonClient{}
	m, _ := newTestMigrator(cfg, client, &fakeConfirmer{answer: false})

	err := m.Run(context.Background())
	if !errors.Is(err, ErrMigrationAborted) {
		t.Fatalf("Expected ErrMigrationAborted, got %v", err)
	}
	if len(client.Statuses) != 0 {
		t.Error("Declined run must not publish")
	}
	if m.State() != StateImporting {
		t.Errorf("Expected state %s, got %s", StateImporting, m.State())
	}
}

func TestMigratorNothingToUpload(t *testing.T) {
	cfg := testConfig(t, writeOutbox(t, 1))
	if err := os.WriteFile(cfg.Migration.LogFile, []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	client := &testutil.MastodonClient{}
	confirmer := &fakeConfirmer{}
	m, _ := newTestMigrator(cfg, client, confirmer)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if confirmer.asked != 0 || len(client.Statuses) != 0 {
		t.Error("Empty run must neither prompt nor publish")
	}
	if m.State() != StateDone {
		t.Errorf("Expected state %s, got %s", StateDone, m.State())
	}
}

func TestMigratorFatalErrors(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, cfg *config.Config, client *testutil.MastodonClient)
		wantErr   error
		wantPhase string
	}{
		{
			name: "Missing settings",
			setup: func(t *testing.T, cfg *config.Config, client *testutil.MastodonClient) {
				cfg.Mastodon.Email = ""
			},
			wantErr: config.ErrSettingsMissingOrMalformed,
		},
		{
			name: "Registration rejected",
			setup: func(t *testing.T, cfg *config.Config, client *testutil.MastodonClient) {
				client.RegisterAppFunc = func(ctx context.Context, appName string) (*mastodon.AppCredentials, error) {
					return nil, fmt.Errorf("%w: app registration: 422", mastodon.ErrAuthenticationFailed)
				}
			},
			wantErr:   mastodon.ErrAuthenticationFailed,
			wantPhase: "register",
		},
		{
			name: "Login rejected",
			setup: func(t *testing.T, cfg *config.Config, client *testutil.MastodonClient) {
				client.LoginFunc = func(ctx context.Context, app *mastodon.AppCredentials, email, password string) (*mastodon.UserCredentials, error) {
					return nil, fmt.Errorf("%w: login as %s", mastodon.ErrAuthenticationFailed, email)
				}
			},
			wantErr:   mastodon.ErrAuthenticationFailed,
			wantPhase: "login",
		},
		{
			name: "Token revoked",
			setup: func(t *testing.T, cfg *config.Config, client *testutil.MastodonClient) {
				client.VerifyCredentialsFunc = func(ctx context.Context) (*mastodon.Account, error) {
					return nil, &mastodon.APIError{StatusCode: 401, Message: "The access token is invalid"}
				}
			},
			wantErr: mastodon.ErrAuthenticationFailed,
		},
		{
			name: "Archive missing",
			setup: func(t *testing.T, cfg *config.Config, client *testutil.MastodonClient) {
				cfg.Archive.Path = filepath.Join(t.TempDir(), "nope")
			},
			wantErr: archive.ErrArchiveNotFound,
		},
		{
			name: "Archive malformed",
			setup: func(t *testing.T, cfg *config.Config, client *testutil.MastodonClient) {
				outbox := filepath.Join(cfg.Archive.Path, archive.OutboxFile)
				if err := os.WriteFile(outbox, []byte(`{"type": "OrderedCollection"}`), 0644); err != nil {
					t.Fatal(err)
				}
			},
			wantErr:   archive.ErrArchiveMalformed,
			wantPhase: "import",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, writeOutbox(t, 1))
			cfg.Migration.AssumeYes = true
			client := &testutil.MastodonClient{}
			tt.setup(t, cfg, client)

			m, _ := newTestMigrator(cfg, client, &fakeConfirmer{})
			err := m.Run(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantPhase != "" && GetMigrationPhase(err) != tt.wantPhase {
				t.Errorf("Expected phase %q, got %q", tt.wantPhase, GetMigrationPhase(err))
			}
			if len(client.Statuses) != 0 {
				t.Error("Fatal error must stop before publishing")
			}
		})
	}
}

func TestStateAdvance(t *testing.T) {
	m := NewMigrator(testConfig(t, t.TempDir()))

	if err := m.advance(StateLoggedIn); err != nil {
		t.Fatalf("Forward transition failed: %v", err)
	}
	if err := m.advance(StateAppRegistered); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
	if err := m.advance(StateLoggedIn); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for repeated state, got %v", err)
	}
	if m.State() != StateLoggedIn {
		t.Errorf("Expected state %s, got %s", StateLoggedIn, m.State())
	}
}
