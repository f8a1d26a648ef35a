package testutil

import (
	"context"
	"fmt"

	"github.com/exileum/toot-migrator/internal/mastodon"
)

// MastodonClient is a scriptable stand-in for *mastodon.Client. Unset
// funcs succeed with canned values; every call is recorded.
type MastodonClient struct {
	RegisterAppFunc       func(ctx context.Context, appName string) (*mastodon.AppCredentials, error)
	LoginFunc             func(ctx context.Context, app *mastodon.AppCredentials, email, password string) (*mastodon.UserCredentials, error)
	VerifyCredentialsFunc func(ctx context.Context) (*mastodon.Account, error)
	UploadMediaFunc       func(ctx context.Context, params mastodon.MediaParams) (*mastodon.MediaAttachment, error)
	PostStatusFunc        func(ctx context.Context, params mastodon.StatusParams) (*mastodon.Status, error)

	RegisterCalls int
	LoginCalls    int
	VerifyCalls   int
	Uploads       []mastodon.MediaParams
	Statuses      []mastodon.StatusParams
}

func (m *MastodonClient) RegisterApp(ctx context.Context, appName string) (*mastodon.AppCredentials, error) {
	m.RegisterCalls++
	if m.RegisterAppFunc != nil {
		return m.RegisterAppFunc(ctx, appName)
	}
	return &mastodon.AppCredentials{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		APIBaseURL:   "https://mastodon.test",
		AppName:      appName,
	}, nil
}

func (m *MastodonClient) Login(ctx context.Context, app *mastodon.AppCredentials, email, password string) (*mastodon.UserCredentials, error) {
	m.LoginCalls++
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, app, email, password)
	}
	return &mastodon.UserCredentials{AccessToken: "test_token", APIBaseURL: app.APIBaseURL}, nil
}

func (m *MastodonClient) VerifyCredentials(ctx context.Context) (*mastodon.Account, error) {
	m.VerifyCalls++
	if m.VerifyCredentialsFunc != nil {
		return m.VerifyCredentialsFunc(ctx)
	}
	return &mastodon.Account{ID: "1", Username: "tester", Acct: "tester"}, nil
}

func (m *MastodonClient) UploadMedia(ctx context.Context, params mastodon.MediaParams) (*mastodon.MediaAttachment, error) {
	m.Uploads = append(m.Uploads, params)
	if m.UploadMediaFunc != nil {
		return m.UploadMediaFunc(ctx, params)
	}
	return &mastodon.MediaAttachment{ID: fmt.Sprintf("media-%d", len(m.Uploads))}, nil
}

func (m *MastodonClient) PostStatus(ctx context.Context, params mastodon.StatusParams) (*mastodon.Status, error) {
	m.Statuses = append(m.Statuses, params)
	if m.PostStatusFunc != nil {
		return m.PostStatusFunc(ctx, params)
	}
	n := len(m.Statuses)
	return &mastodon.Status{
		ID:         fmt.Sprintf("%d", n),
		URL:        fmt.Sprintf("https://mastodon.test/@tester/%d", n),
		Visibility: params.Visibility,
	}, nil
}
