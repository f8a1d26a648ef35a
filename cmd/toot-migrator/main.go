package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/exileum/toot-migrator/internal/archive"
	"github.com/exileum/toot-migrator/internal/config"
	"github.com/exileum/toot-migrator/internal/mastodon"
	"github.com/exileum/toot-migrator/internal/migration"
)

type options struct {
	number       int
	visibility   mastodon.Visibility
	uploadList   string
	media        bool
	noMedia      bool
	verbose      bool
	settingsPath string
	logFile      string
	dryRun       bool
	yes          bool
	interactive  bool
}

func newRootCmd(opts *options) *cobra.Command {
	opts.visibility = mastodon.VisibilityDirect

	cmd := &cobra.Command{
		Use:           "toot-migrator",
		Short:         "Republish the toots of a Mastodon archive on an instance",
		Long:          `Reads outbox.json from an exported Mastodon archive and posts every toot, oldest first, to the configured account. Published toots are recorded in a log so an interrupted run can be resumed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.number, "number", "n", archive.Unlimited, "Maximum number of toots to publish (-1 for all)")
	flags.VarP(&opts.visibility, "visibility", "v", "Visibility of the published toots")
	flags.StringVarP(&opts.uploadList, "upload-list", "l", "", "File with the ids of the toots to publish, one per line")
	flags.BoolVar(&opts.media, "media", true, "Upload media attachments")
	flags.BoolVar(&opts.noMedia, "no-media", false, "Skip media attachments")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	flags.StringVar(&opts.settingsPath, "settings", config.DefaultSettingsFile, "Settings file (JSON, or YAML for .yaml/.yml)")
	flags.StringVar(&opts.logFile, "log-file", "", "Migration log recording published toot ids")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Run in dry-run mode (no actual API calls)")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Publish without asking for confirmation")
	flags.BoolVar(&opts.interactive, "interactive", false, "Prompt for credentials missing from the settings")

	return cmd
}

func setupLogging(verbose bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// applyOptions copies command-line flags over the loaded settings.
func applyOptions(cfg *config.Config, opts *options) {
	cfg.Migration.Limit = opts.number
	cfg.Migration.Visibility = opts.visibility
	cfg.Migration.UploadMedia = opts.media && !opts.noMedia
	cfg.Migration.Verbose = opts.verbose
	cfg.Migration.DryRun = opts.dryRun
	cfg.Migration.AssumeYes = opts.yes
	cfg.Archive.UploadListPath = opts.uploadList
	if opts.logFile != "" {
		cfg.Migration.LogFile = opts.logFile
	}
}

// loadConfig reads the settings file and applies the flags. Missing
// credentials are only prompted for with --interactive; otherwise
// validation reports them as missing settings.
func loadConfig(opts *options, prompter *config.Prompter) (*config.Config, error) {
	cfg, err := config.Load(opts.settingsPath)
	if err != nil {
		return nil, err
	}
	if opts.interactive {
		cfg.FillMissingSecrets(prompter)
	}
	applyOptions(cfg, opts)
	return cfg, nil
}

func run(ctx context.Context, opts *options) error {
	setupLogging(opts.verbose)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg, err := loadConfig(opts, config.NewStdPrompter())
	if err != nil {
		return err
	}

	log.Debug().Str("config", cfg.String()).Msg("Loaded configuration")

	return migration.NewMigrator(cfg).Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&options{}).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		stop()
		os.Exit(1)
	}
}
