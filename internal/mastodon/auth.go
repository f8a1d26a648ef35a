package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

const (
	// OutOfBandRedirect is the redirect URI for apps without a callback.
	OutOfBandRedirect = "urn:ietf:wg:oauth:2.0:oob"

	scopes = "read write"
)

// RegisterApp creates an OAuth application on the instance.
func (c *Client) RegisterApp(ctx context.Context, appName string) (*AppCredentials, error) {
	resp, err := c.retryableRequest(ctx, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"client_name":   appName,
				"redirect_uris": OutOfBandRedirect,
				"scopes":        scopes,
			}).
			Post(c.url("/api/v1/apps"))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: app registration: %v", ErrAuthenticationFailed, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: app registration: %v", ErrAuthenticationFailed, newAPIError(resp))
	}

	var app Application
	if err := json.Unmarshal(resp.Body(), &app); err != nil {
		return nil, fmt.Errorf("%w: failed to parse app registration response: %v", ErrAuthenticationFailed, err)
	}
	if app.ClientID == "" || app.ClientSecret == "" {
		return nil, fmt.Errorf("%w: app registration returned no client credentials", ErrAuthenticationFailed)
	}

	return &AppCredentials{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		APIBaseURL:   c.baseURL,
		AppName:      appName,
	}, nil
}

func (c *Client) oauthConfig(app *AppCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.url("/oauth/authorize"),
			TokenURL:  c.url("/oauth/token"),
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: OutOfBandRedirect,
		Scopes:      []string{"read", "write"},
	}
}

// Login exchanges the user's email and password for an access token and
// authorizes the client with it.
func (c *Client) Login(ctx context.Context, app *AppCredentials, email, password string) (*UserCredentials, error) {
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.client.GetClient())

	token, err := c.oauthConfig(app).PasswordCredentialsToken(tokenCtx, email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: login as %s: %v", ErrAuthenticationFailed, email, err)
	}

	c.Authorize(ctx, token)

	return &UserCredentials{
		AccessToken: token.AccessToken,
		APIBaseURL:  c.baseURL,
	}, nil
}

// VerifyCredentials returns the account the client is authorized as.
func (c *Client) VerifyCredentials(ctx context.Context) (*Account, error) {
	resp, err := c.retryableRequest(ctx, func() (*resty.Response, error) {
		return c.client.R().
			SetContext(ctx).
			Get(c.url("/api/v1/accounts/verify_credentials"))
	})
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError(resp)
	}

	var account Account
	if err := json.Unmarshal(resp.Body(), &account); err != nil {
		return nil, fmt.Errorf("failed to parse account: %w", err)
	}

	return &account, nil
}
