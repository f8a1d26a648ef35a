package migration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/exileum/toot-migrator/internal/archive"
	"github.com/exileum/toot-migrator/internal/config"
	"github.com/exileum/toot-migrator/internal/mastodon"
)

// AccountVerifier confirms the client holds a working access token.
type AccountVerifier interface {
	VerifyCredentials(ctx context.Context) (*mastodon.Account, error)
}

type PreflightChecker struct {
	config *config.Config
	client AccountVerifier
}

func NewPreflightChecker(cfg *config.Config, client AccountVerifier) *PreflightChecker {
	return &PreflightChecker{
		config: cfg,
		client: client,
	}
}

// RunChecks verifies the archive and the log location, then the account
// unless running dry. The account is nil in dry-run mode.
func (p *PreflightChecker) RunChecks(ctx context.Context) (*mastodon.Account, error) {
	log.Info().Msg("Running pre-flight checks...")

	if err := p.checkArchive(); err != nil {
		return nil, err
	}

	if err := p.checkLogFile(); err != nil {
		return nil, err
	}

	if p.config.Migration.DryRun {
		log.Info().Msg("  Running in DRY-RUN mode - no actual changes will be made")
		return nil, nil
	}

	account, err := p.checkMastodonAPI(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().Msg("✓ All pre-flight checks passed")
	return account, nil
}

func (p *PreflightChecker) checkArchive() error {
	outbox := filepath.Join(p.config.Archive.Path, archive.OutboxFile)
	if _, err := os.Stat(outbox); err != nil {
		return fmt.Errorf("%w: %s", archive.ErrArchiveNotFound, outbox)
	}
	log.Info().Str("outbox", outbox).Msg("  ✓ Archive found")

	if p.config.Archive.UploadListPath != "" {
		if _, err := os.Stat(p.config.Archive.UploadListPath); err != nil {
			return fmt.Errorf("upload list check failed: %w", err)
		}
		log.Info().Str("file", p.config.Archive.UploadListPath).Msg("  ✓ Upload list found")
	}
	return nil
}

func (p *PreflightChecker) checkLogFile() error {
	dir := filepath.Dir(p.config.Migration.LogFile)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("migration log directory check failed: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("migration log directory %s is not a directory", dir)
	}
	log.Info().Str("file", p.config.Migration.LogFile).Msg("  ✓ Migration log location ready")
	return nil
}

func (p *PreflightChecker) checkMastodonAPI(ctx context.Context) (*mastodon.Account, error) {
	account, err := p.client.VerifyCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("Mastodon API check failed: %w", err)
	}
	log.Info().Str("account", account.Acct).Msg("  ✓ Mastodon API access verified")
	return account, nil
}
