// Package migration republishes the toots of a Mastodon archive on an
// instance. It coordinates authentication, archive import, media upload,
// status publishing, progress tracking, and error recovery.
package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/exileum/toot-migrator/internal/archive"
	"github.com/exileum/toot-migrator/internal/attachments"
	"github.com/exileum/toot-migrator/internal/config"
	"github.com/exileum/toot-migrator/internal/mastodon"
	"github.com/exileum/toot-migrator/internal/progress"
)

// MastodonAPI is the subset of *mastodon.Client the migration uses.
type MastodonAPI interface {
	StatusClient
	AccountVerifier
	RegisterApp(ctx context.Context, appName string) (*mastodon.AppCredentials, error)
	Login(ctx context.Context, app *mastodon.AppCredentials, email, password string) (*mastodon.UserCredentials, error)
}

// State is a step of a migration run. A run only ever moves forward.
type State int

const (
	StateUnauthenticated State = iota
	StateAppRegistered
	StateLoggedIn
	StateImporting
	StatePublishing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAppRegistered:
		return "app-registered"
	case StateLoggedIn:
		return "logged-in"
	case StateImporting:
		return "importing"
	case StatePublishing:
		return "publishing"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Migrator drives one run from authentication to the final summary.
type Migrator struct {
	config    *config.Config
	client    MastodonAPI
	clock     clockwork.Clock
	confirmer Confirmer
	out       io.Writer
	state     State
}

// NewMigrator creates a migrator talking to the configured instance.
// The configuration is validated by Run.
func NewMigrator(cfg *config.Config) *Migrator {
	return &Migrator{
		config:    cfg,
		client:    mastodon.NewClient(cfg.Mastodon.APIBaseURL, cfg.Mastodon.Timeout, cfg.Mastodon.MaxRetries),
		clock:     clockwork.NewRealClock(),
		confirmer: config.NewStdPrompter(),
		out:       os.Stdout,
	}
}

// WithClient replaces the Mastodon client.
func (m *Migrator) WithClient(client MastodonAPI) *Migrator {
	m.client = client
	return m
}

// WithClock replaces the clock used for the delay between toots.
func (m *Migrator) WithClock(clock clockwork.Clock) *Migrator {
	m.clock = clock
	return m
}

// WithConfirmer replaces the prompt shown before publishing.
func (m *Migrator) WithConfirmer(confirmer Confirmer) *Migrator {
	m.confirmer = confirmer
	return m
}

// WithOutput redirects progress and summary output.
func (m *Migrator) WithOutput(w io.Writer) *Migrator {
	m.out = w
	return m
}

func (m *Migrator) State() State {
	return m.state
}

func (m *Migrator) advance(to State) error {
	if to <= m.state {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	log.Debug().Stringer("from", m.state).Stringer("to", to).Msg("State transition")
	m.state = to
	return nil
}

// Run executes the complete migration. Bootstrap failures are fatal;
// failures of single toots end up in the summary.
func (m *Migrator) Run(ctx context.Context) error {
	if err := m.config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if m.config.Migration.DryRun {
		log.Info().Msg("[DRY-RUN] Skipping authentication")
	} else if err := m.authenticate(ctx); err != nil {
		return err
	}

	checker := NewPreflightChecker(m.config, m.client)
	account, err := checker.RunChecks(ctx)
	if err != nil {
		return fmt.Errorf("pre-flight checks failed: %w", err)
	}

	tracker, err := progress.NewTracker(ctx, m.config.Migration.LogFile, m.config.Migration.DryRun)
	if err != nil {
		return NewMigrationError("import", "failed to load migration log", err)
	}
	tracker.SetOutput(m.out)

	if err := m.advance(StateImporting); err != nil {
		return err
	}

	records, err := archive.Read(ctx, m.config.Archive.Path, archive.Options{
		Limit:         m.config.Migration.Limit,
		AllowListPath: m.config.Archive.UploadListPath,
		Done:          tracker,
	})
	if err != nil {
		return NewMigrationError("import", "failed to read archive", err)
	}

	if len(records) == 0 {
		log.Warn().Msg("Nothing to upload")
		return m.advance(StateDone)
	}
	log.Info().Int("count", len(records)).Msg("✓ Toots selected for publishing")

	if m.shouldConfirm(len(records)) && !m.confirmPublish(len(records), account) {
		return ErrMigrationAborted
	}

	if err := m.advance(StatePublishing); err != nil {
		return err
	}

	publisher := NewPublisher(
		m.client,
		attachments.NewLoader(m.config.Archive.Path),
		m.config.Migration.Visibility,
		m.config.Migration.UploadMedia,
		m.config.Migration.DryRun,
	)
	runner := NewRunner(publisher, tracker, m.clock, m.config.Migration.RecordDelay)
	runner.SetOutput(m.out)

	if err := runner.Run(ctx, records); err != nil {
		return err
	}

	return m.advance(StateDone)
}

func (m *Migrator) authenticate(ctx context.Context) error {
	app, err := m.registerApp(ctx)
	if err != nil {
		return NewMigrationError("register", "app registration failed", err)
	}
	if err := m.advance(StateAppRegistered); err != nil {
		return err
	}

	user, err := m.client.Login(ctx, app, m.config.Mastodon.Email, m.config.Mastodon.Password)
	if err != nil {
		return NewMigrationError("login", "login failed", err)
	}
	if err := user.Save(m.config.Mastodon.UserCredFile); err != nil {
		return NewMigrationError("login", "cannot store user credentials", err)
	}
	log.Info().Str("email", m.config.Mastodon.Email).Msg("✓ Logged in")

	return m.advance(StateLoggedIn)
}

// registerApp reuses the stored client credentials of the same instance and
// registers a new app otherwise.
func (m *Migrator) registerApp(ctx context.Context) (*mastodon.AppCredentials, error) {
	path := m.config.Mastodon.ClientCredFile

	if mastodon.CredentialsExist(path) {
		app, err := mastodon.LoadAppCredentials(path)
		switch {
		case err == nil && sameInstance(app.APIBaseURL, m.config.Mastodon.APIBaseURL):
			log.Info().Str("file", path).Msg("✓ Using existing app registration")
			return app, nil
		case err == nil:
			log.Warn().Str("file", path).Str("instance", app.APIBaseURL).Msg("Client credentials belong to another instance, registering again")
		case mastodon.IsInvalidCredentials(err):
			log.Warn().Err(err).Msg("Client credential file is malformed, registering again")
		default:
			return nil, err
		}
	}

	app, err := m.client.RegisterApp(ctx, m.config.Mastodon.AppName)
	if err != nil {
		return nil, err
	}
	if err := app.Save(path); err != nil {
		return nil, err
	}
	log.Info().Str("app", app.AppName).Str("file", path).Msg("✓ Registered app")
	return app, nil
}

func sameInstance(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
