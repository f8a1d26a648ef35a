// Package attachments locates the media files of archived toots inside the
// archive directory and reads them for upload.
package attachments

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/exileum/toot-migrator/internal/archive"
)

// File is an attachment read from disk, ready to upload.
type File struct {
	Path        string
	Filename    string
	MediaType   string
	Description string
	Data        []byte
}

type Loader struct {
	sanitizer   *FileSanitizer
	archiveRoot string
}

func NewLoader(archiveRoot string) *Loader {
	return &Loader{
		sanitizer:   NewFileSanitizer(),
		archiveRoot: archiveRoot,
	}
}

// Resolve maps an attachment URL such as
// "/media_attachments/files/000/001/original/a.png" to a file under the
// archive root. Absolute URLs contribute only their path.
func (l *Loader) Resolve(rawURL string) (string, error) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		p = u.Path
	}

	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", fmt.Errorf("attachment URL %q has no path", rawURL)
	}

	filePath := filepath.Join(l.archiveRoot, filepath.FromSlash(p))
	if err := l.sanitizer.ValidatePath(filePath, l.archiveRoot); err != nil {
		return "", fmt.Errorf("security violation: %w", err)
	}

	return filePath, nil
}

// Load reads the attachment's bytes. A missing MIME type is inferred from
// the file extension, then from the content.
func (l *Loader) Load(ctx context.Context, attachment archive.Attachment) (*File, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("attachment load cancelled: %w", ctx.Err())
	default:
	}

	filePath, err := l.Resolve(attachment.URL)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %s: %w", filePath, err)
	}

	mediaType := attachment.MediaType
	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(filePath))
	}
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}

	log.Debug().Str("file", filePath).Str("media_type", mediaType).Int("bytes", len(data)).Msg("Loaded attachment")

	return &File{
		Path:        filePath,
		Filename:    l.sanitizer.SanitizeFilename(filepath.Base(filePath)),
		MediaType:   mediaType,
		Description: attachment.Name,
		Data:        data,
	}, nil
}
