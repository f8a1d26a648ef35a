package mastodon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/exileum/toot-migrator/internal/util"
)

// maxMediaPolls bounds how often a processing upload is checked.
const maxMediaPolls = 30

// UploadMedia uploads a file and returns the attachment to reference from
// a status. When the server answers 202 the upload is polled until its URL
// is set, so the returned attachment is always ready to be attached.
func (c *Client) UploadMedia(ctx context.Context, params MediaParams) (*MediaAttachment, error) {
	resp, err := c.retryableRequest(ctx, func() (*resty.Response, error) {
		req := c.client.R().
			SetContext(ctx).
			SetMultipartField("file", params.Filename, params.MediaType, bytes.NewReader(params.Data))
		if params.Description != "" {
			req.SetMultipartFormData(map[string]string{"description": params.Description})
		}
		return req.Post(c.url("/api/v2/media"))
	})
	if err != nil {
		return nil, err
	}

	// 202 means the upload was accepted and is processed asynchronously
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return nil, newAPIError(resp)
	}

	var media MediaAttachment
	if err := json.Unmarshal(resp.Body(), &media); err != nil {
		return nil, fmt.Errorf("failed to parse media response: %w", err)
	}
	if media.ID == "" {
		return nil, fmt.Errorf("media upload returned no id")
	}

	if resp.StatusCode() == http.StatusAccepted || media.URL == "" {
		return c.waitForMedia(ctx, media.ID)
	}

	return &media, nil
}

// waitForMedia polls GET /api/v1/media/:id until processing finishes.
// The endpoint answers 206 while the file is still being processed.
func (c *Client) waitForMedia(ctx context.Context, id string) (*MediaAttachment, error) {
	for i := 0; i < maxMediaPolls; i++ {
		if err := util.ContextSleep(ctx, c.clock, c.retryWait); err != nil {
			return nil, err
		}

		resp, err := c.retryableRequest(ctx, func() (*resty.Response, error) {
			return c.client.R().
				SetContext(ctx).
				Get(c.url("/api/v1/media/" + url.PathEscape(id)))
		})
		if err != nil {
			return nil, err
		}

		switch resp.StatusCode() {
		case http.StatusPartialContent:
			log.Debug().Str("media_id", id).Int("poll", i+1).Msg("Media still processing")
			continue
		case http.StatusOK:
		default:
			return nil, newAPIError(resp)
		}

		var media MediaAttachment
		if err := json.Unmarshal(resp.Body(), &media); err != nil {
			return nil, fmt.Errorf("failed to parse media response: %w", err)
		}
		if media.URL != "" {
			return &media, nil
		}
	}

	return nil, fmt.Errorf("media %s still processing after %d checks", id, maxMediaPolls)
}

// PostStatus publishes a status. Every call carries a fresh Idempotency-Key
// so a retried 429 cannot publish the same toot twice.
func (c *Client) PostStatus(ctx context.Context, params StatusParams) (*Status, error) {
	idempotencyKey := uuid.New().String()

	resp, err := c.retryableRequest(ctx, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("Idempotency-Key", idempotencyKey).
			SetBody(params).
			Post(c.url("/api/v1/statuses"))
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError(resp)
	}

	var status Status
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}

	return &status, nil
}
