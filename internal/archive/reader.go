// Package archive reads the outbox of an exported Mastodon archive and
// selects the toots a run should republish.
package archive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/exileum/toot-migrator/internal/content"
)

// OutboxFile is the outbox file name inside an archive directory.
const OutboxFile = "outbox.json"

// Unlimited disables the per-run record limit.
const Unlimited = -1

// DoneSet reports whether a toot was published by an earlier run.
type DoneSet interface {
	Contains(id string) bool
}

// Options controls which outbox items Read returns.
type Options struct {
	Limit         int     // Maximum records; <= 0 means unbounded
	AllowListPath string  // Optional file with one id per line
	Done          DoneSet // Already migrated ids; nil means none
}

// Filter is the in-memory form of Options.
type Filter struct {
	Limit int
	Allow map[string]struct{} // nil when no allow-list was supplied
	Done  DoneSet
}

// Read loads <archivePath>/outbox.json and returns the records to publish,
// in archive order.
func Read(ctx context.Context, archivePath string, opts Options) ([]Record, error) {
	info, err := os.Stat(archivePath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: cannot find directory %s", ErrArchiveNotFound, archivePath)
	}

	outboxPath := filepath.Join(archivePath, OutboxFile)
	log.Debug().Str("file", outboxPath).Msg("Reading toots")

	raw, err := os.ReadFile(outboxPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveNotFound, outboxPath, err)
	}

	filter := Filter{
		Limit: opts.Limit,
		Done:  opts.Done,
	}

	if opts.AllowListPath != "" {
		log.Debug().Str("file", opts.AllowListPath).Msg("Reading upload list")
		allow, err := LoadAllowList(opts.AllowListPath)
		if err != nil {
			return nil, err
		}
		if len(allow) == 0 {
			log.Warn().Str("file", opts.AllowListPath).Msg("No toot found in upload list")
		}
		filter.Allow = allow
	}

	return Parse(ctx, raw, filter)
}

// LoadAllowList reads one identifier per line. Blank lines are ignored.
func LoadAllowList(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload list: %w", err)
	}
	defer f.Close()

	allow := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			allow[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read upload list: %w", err)
	}

	return allow, nil
}

// Parse decodes an outbox document and normalizes the activities that pass
// the filter.
func Parse(ctx context.Context, raw []byte, filter Filter) ([]Record, error) {
	var doc struct {
		OrderedItems *[]Activity `json:"orderedItems"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveMalformed, err)
	}
	if doc.OrderedItems == nil {
		return nil, fmt.Errorf("%w: missing orderedItems", ErrArchiveMalformed)
	}

	selected := Select(*doc.OrderedItems, filter)

	processor := content.NewProcessor()
	records := make([]Record, 0, len(selected))
	for _, activity := range selected {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := normalize(processor, activity)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// Select returns the activities to publish, in their original order:
// already migrated ids and ids outside the allow-list are skipped, and at
// most filter.Limit activities are kept.
func Select(items []Activity, filter Filter) []Activity {
	var selected []Activity
	for _, item := range items {
		if filter.Limit > 0 && len(selected) >= filter.Limit {
			break
		}
		if filter.Done != nil && filter.Done.Contains(item.ID) {
			continue
		}
		if filter.Allow != nil {
			if _, ok := filter.Allow[item.ID]; !ok {
				continue
			}
		}
		if !item.HasNote() {
			log.Debug().Str("id", item.ID).Str("type", item.Type).Msg("Skipping activity without a toot")
			continue
		}
		selected = append(selected, item)
	}
	return selected
}

// HasNote reports whether the activity embeds a toot object.
func (a Activity) HasNote() bool {
	trimmed := bytes.TrimSpace(a.Object)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func normalize(processor *content.Processor, activity Activity) (Record, error) {
	var note Note
	if err := json.Unmarshal(activity.Object, &note); err != nil {
		return Record{}, fmt.Errorf("%w: item %s: %v", ErrArchiveMalformed, activity.ID, err)
	}

	payload, err := processor.Compose(activity.Published, note.Content)
	if err != nil {
		return Record{}, fmt.Errorf("%w: item %s: %v", ErrArchiveMalformed, activity.ID, err)
	}

	attachments := make([]Attachment, 0, len(note.Attachments))
	attachments = append(attachments, note.Attachments...)

	return Record{
		ID:          activity.ID,
		Payload:     payload,
		Attachments: attachments,
		Sensitive:   note.Sensitive,
		SpoilerText: note.spoiler(),
	}, nil
}
