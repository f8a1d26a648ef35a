package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/exileum/toot-migrator/internal/archive"
	"github.com/exileum/toot-migrator/internal/progress"
	"github.com/exileum/toot-migrator/internal/util"
)

const progressBarWidth = 30

type Runner struct {
	publisher *Publisher
	tracker   *progress.Tracker
	clock     clockwork.Clock
	delay     time.Duration
	out       io.Writer
}

func NewRunner(publisher *Publisher, tracker *progress.Tracker, clock clockwork.Clock, delay time.Duration) *Runner {
	return &Runner{
		publisher: publisher,
		tracker:   tracker,
		clock:     clock,
		delay:     delay,
		out:       os.Stdout,
	}
}

// SetOutput redirects the progress bar.
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// Run publishes records one at a time. A failed toot is reported and the
// loop moves on; only cancellation stops it early. The summary is printed
// either way.
func (r *Runner) Run(ctx context.Context, records []archive.Record) error {
	defer r.tracker.PrintSummary()

	for i, record := range records {
		if err := util.WrapContextError(ctx, "migration"); err != nil {
			log.Warn().Int("remaining", len(records)-i).Msg("✗ Migration interrupted")
			return err
		}

		log.Debug().Str("id", record.ID).Msgf("Processing toot %d/%d", i+1, len(records))

		result := r.publisher.Publish(ctx, record)
		if result.OK {
			if err := r.tracker.MarkCompleted(ctx, record.ID); err != nil {
				log.Error().Err(err).Str("id", record.ID).Msg("✗ Warning: Failed to record toot in migration log")
			}
		} else {
			log.Error().Err(result.Err).Str("id", record.ID).Msg("✗ Failed to publish toot")
			r.tracker.MarkFailed(record.ID, result.Reason())
		}

		r.printProgress(i+1, len(records))

		if i < len(records)-1 {
			if err := util.ContextSleep(ctx, r.clock, r.delay); err != nil {
				log.Warn().Int("remaining", len(records)-i-1).Msg("✗ Migration interrupted")
				return fmt.Errorf("migration cancelled: %w", err)
			}
		}
	}

	return nil
}

func (r *Runner) printProgress(done, total int) {
	fmt.Fprintf(r.out, "Progress: %d/%d [%s]\n", done, total, progressBar(done, total, progressBarWidth))
}

// progressBar renders done/total as a bar of the given width.
func progressBar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
