package progress

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Persistence reads and appends the plain-text migration log: one
// published toot identifier per line.
type Persistence struct {
	filePath string
}

func NewPersistence(filePath string) *Persistence {
	return &Persistence{
		filePath: filePath,
	}
}

// Load returns the logged identifiers in file order. A missing log file is
// an empty log, not an error.
func (p *Persistence) Load(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(p.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("file", p.filePath).Msg("No migration log yet, starting fresh")
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open migration log %s: %w", p.filePath, err)
	}
	defer f.Close()

	ids := []string{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read migration log %s: %w", p.filePath, err)
	}

	return ids, nil
}

// Append writes id to the end of the log and syncs it to disk before
// returning.
func (p *Persistence) Append(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f, err := os.OpenFile(p.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Error().Err(err).Str("file", p.filePath).Msg("Failed to open migration log")
		return err
	}

	if _, err := f.WriteString(id + "\n"); err != nil {
		_ = f.Close()
		log.Error().Err(err).Str("file", p.filePath).Msg("Failed to append to migration log")
		return err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
