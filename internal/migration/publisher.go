package migration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/exileum/toot-migrator/internal/archive"
	"github.com/exileum/toot-migrator/internal/attachments"
	"github.com/exileum/toot-migrator/internal/mastodon"
)

// StatusClient is the part of the Mastodon API a Publisher needs.
type StatusClient interface {
	UploadMedia(ctx context.Context, params mastodon.MediaParams) (*mastodon.MediaAttachment, error)
	PostStatus(ctx context.Context, params mastodon.StatusParams) (*mastodon.Status, error)
}

// Result is the outcome of publishing one toot.
type Result struct {
	ID        string
	OK        bool
	Err       error
	MediaIDs  []string
	StatusURL string
}

// Reason is the failure message for the summary, empty on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type Publisher struct {
	client      StatusClient
	loader      *attachments.Loader
	visibility  mastodon.Visibility
	uploadMedia bool
	dryRun      bool
}

func NewPublisher(client StatusClient, loader *attachments.Loader, visibility mastodon.Visibility, uploadMedia, dryRun bool) *Publisher {
	return &Publisher{
		client:      client,
		loader:      loader,
		visibility:  visibility,
		uploadMedia: uploadMedia,
		dryRun:      dryRun,
	}
}

// Publish uploads the record's attachments in order, then posts the status.
// Nothing reaches the network in dry-run mode.
func (p *Publisher) Publish(ctx context.Context, record archive.Record) Result {
	result := Result{ID: record.ID}

	if p.dryRun {
		log.Info().Str("id", record.ID).Int("attachments", len(record.Attachments)).Msg("  [DRY-RUN] Would publish toot")
		log.Debug().Msgf("\n--- Toot Preview ---\n%s--- End Preview ---\n", record.Payload)
		result.OK = true
		return result
	}

	if p.uploadMedia {
		mediaIDs, err := p.uploadAttachments(ctx, record)
		if err != nil {
			result.Err = err
			return result
		}
		result.MediaIDs = mediaIDs
	}

	status, err := p.client.PostStatus(ctx, mastodon.StatusParams{
		Status:      record.Payload,
		MediaIDs:    result.MediaIDs,
		Visibility:  p.visibility,
		Sensitive:   record.Sensitive,
		SpoilerText: record.SpoilerText,
	})
	if err != nil {
		result.Err = NewRecordMigrationError("publish", record.ID, "status rejected", fmt.Errorf("%w: %w", ErrPublishFailed, err))
		return result
	}

	result.OK = true
	result.StatusURL = status.URL
	log.Info().Str("id", record.ID).Str("url", status.URL).Msg("✓ Published toot")
	return result
}

func (p *Publisher) uploadAttachments(ctx context.Context, record archive.Record) ([]string, error) {
	mediaIDs := make([]string, 0, len(record.Attachments))

	for _, attachment := range record.Attachments {
		file, err := p.loader.Load(ctx, attachment)
		if err != nil {
			return nil, NewRecordMigrationError("upload", record.ID, "cannot read attachment "+attachment.URL, fmt.Errorf("%w: %w", ErrMediaUploadFailed, err))
		}

		media, err := p.client.UploadMedia(ctx, mastodon.MediaParams{
			Filename:    file.Filename,
			MediaType:   file.MediaType,
			Description: file.Description,
			Data:        file.Data,
		})
		if err != nil {
			return nil, NewRecordMigrationError("upload", record.ID, "cannot upload attachment "+attachment.URL, fmt.Errorf("%w: %w", ErrMediaUploadFailed, err))
		}

		log.Debug().Str("id", record.ID).Str("media_id", media.ID).Str("file", file.Filename).Msg("  ✓ Uploaded attachment")
		mediaIDs = append(mediaIDs, media.ID)
	}

	return mediaIDs, nil
}
