// Package progress tracks which toots have already been migrated. The
// migration log is append-only on disk; in memory it is exposed both as a
// set for membership tests and as a sequence in publish order. Failures of
// the current run are kept for the end-of-run report.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Failure is a toot that could not be published in this run.
type Failure struct {
	ID     string
	Reason string
}

type Tracker struct {
	done      map[string]struct{}
	completed []string
	published int
	failures  []Failure
	persist   *Persistence
	dryRun    bool
	out       io.Writer
}

func NewTracker(ctx context.Context, logFile string, dryRun bool) (*Tracker, error) {
	persist := NewPersistence(logFile)
	ids, err := persist.Load(ctx)
	if err != nil {
		return nil, err
	}

	done := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		done[id] = struct{}{}
	}

	return &Tracker{
		done:      done,
		completed: ids,
		persist:   persist,
		dryRun:    dryRun,
		out:       os.Stdout,
	}, nil
}

// SetOutput redirects the summary output.
func (t *Tracker) SetOutput(w io.Writer) {
	t.out = w
}

// Contains reports whether id has been published by this or a previous run.
func (t *Tracker) Contains(id string) bool {
	_, ok := t.done[id]
	return ok
}

// Completed returns the logged identifiers in the order they were published.
func (t *Tracker) Completed() []string {
	out := make([]string, len(t.completed))
	copy(out, t.completed)
	return out
}

func (t *Tracker) Failures() []Failure {
	out := make([]Failure, len(t.failures))
	copy(out, t.failures)
	return out
}

// Published is the number of toots published during this run.
func (t *Tracker) Published() int {
	return t.published
}

// MarkCompleted appends id to the migration log. In dry-run mode nothing is
// written and the in-memory views are left untouched.
func (t *Tracker) MarkCompleted(ctx context.Context, id string) error {
	if t.dryRun {
		t.published++
		return nil
	}

	// A duplicate outbox id is published again but logged once.
	if t.Contains(id) {
		t.published++
		return nil
	}

	if err := t.persist.Append(ctx, id); err != nil {
		return err
	}

	t.done[id] = struct{}{}
	t.completed = append(t.completed, id)
	t.published++
	return nil
}

func (t *Tracker) MarkFailed(id, reason string) {
	t.failures = append(t.failures, Failure{ID: id, Reason: reason})
}

func (t *Tracker) PrintSummary() {
	fmt.Fprintln(t.out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(t.out, "Migration Summary")
	fmt.Fprintln(t.out, strings.Repeat("=", 50))
	fmt.Fprintf(t.out, "Published toots: %d\n", t.published)
	fmt.Fprintf(t.out, "Failed toots: %d\n", len(t.failures))

	if len(t.failures) > 0 {
		fmt.Fprintln(t.out, "\nFailed toots:")
		for _, f := range t.failures {
			fmt.Fprintf(t.out, "  - %s: %s\n", f.ID, f.Reason)
		}
	}

	if t.dryRun {
		fmt.Fprintln(t.out, "\n[DRY-RUN MODE] No toots were published")
	}
}
