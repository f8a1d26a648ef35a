// Package mastodon is a small client for the parts of the Mastodon REST API
// a migration needs: registering an application, logging in with the OAuth2
// password grant, uploading media and posting statuses.
package mastodon

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/exileum/toot-migrator/internal/util"
)

const userAgent = "toot-migrator/1.0"

type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	retryWait  time.Duration
	clock      clockwork.Clock
	client     *resty.Client
}

func NewClient(baseURL string, timeout time.Duration, maxRetries int) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		maxRetries: maxRetries,
		retryWait:  1 * time.Second,
		clock:      clockwork.NewRealClock(),
	}
	c.client = c.newRestyClient(&http.Client{})
	return c
}

func (c *Client) newRestyClient(httpClient *http.Client) *resty.Client {
	return resty.NewWithClient(httpClient).
		SetTimeout(c.timeout).
		SetRetryCount(0). // 429 handling lives in retryableRequest
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
}

// BaseURL returns the instance URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetRetryWait sets the base delay of the exponential backoff applied to
// rate-limited requests.
func (c *Client) SetRetryWait(d time.Duration) *Client {
	c.retryWait = d
	return c
}

// Authorize makes every later request carry token as a bearer credential.
func (c *Client) Authorize(ctx context.Context, token *oauth2.Token) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	c.client = c.newRestyClient(httpClient)
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// retryableRequest retries requests answered with 429 Too Many Requests,
// doubling the wait after each attempt.
func (c *Client) retryableRequest(ctx context.Context, req func() (*resty.Response, error)) (*resty.Response, error) {
	attempts := c.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		resp, err := req()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode() != http.StatusTooManyRequests {
			return resp, nil
		}

		if i < attempts-1 {
			delay := time.Duration(math.Pow(2, float64(i))) * c.retryWait
			log.Warn().Str("url", resp.Request.URL).Dur("delay", delay).Msg("Rate limited, retrying")
			if err := util.ContextSleep(ctx, c.clock, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: max retries (%d) exceeded", ErrRateLimited, attempts)
}
