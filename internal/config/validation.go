package config

import (
	"fmt"
	"net/url"

	"github.com/exileum/toot-migrator/internal/mastodon"
)

// Validate checks every field the migration needs before any network
// activity.
func (c *Config) Validate() error {
	if err := c.validateMastodon(); err != nil {
		return fmt.Errorf("Mastodon config validation failed: %w", err)
	}

	if err := c.validateArchive(); err != nil {
		return fmt.Errorf("archive config validation failed: %w", err)
	}

	if err := c.validateMigration(); err != nil {
		return fmt.Errorf("migration config validation failed: %w", err)
	}

	return nil
}

func (c *Config) validateMastodon() error {
	if err := requireField("email", c.Mastodon.Email); err != nil {
		return err
	}
	if err := requireField("password", c.Mastodon.Password); err != nil {
		return err
	}
	if err := requireField("app_name", c.Mastodon.AppName); err != nil {
		return err
	}
	if err := requireField("api_base_url", c.Mastodon.APIBaseURL); err != nil {
		return err
	}

	u, err := url.Parse(c.Mastodon.APIBaseURL)
	if err != nil {
		return NewConfigurationErrorWithCause("api_base_url", "invalid URL", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("api_base_url", c.Mastodon.APIBaseURL, "absolute http(s) URL")
	}

	if c.Mastodon.ClientCredFile == "" || c.Mastodon.UserCredFile == "" {
		return NewConfigurationError("credential files", "credential file paths must be configured")
	}
	if c.Mastodon.Timeout <= 0 {
		return NewValidationError("timeout", c.Mastodon.Timeout.String(), "positive duration")
	}
	if c.Mastodon.MaxRetries < 0 {
		return NewValidationError("max_retries", fmt.Sprint(c.Mastodon.MaxRetries), "non-negative")
	}

	return nil
}

func (c *Config) validateArchive() error {
	return requireField("archive_path", c.Archive.Path)
}

func (c *Config) validateMigration() error {
	if _, err := mastodon.ParseVisibility(string(c.Migration.Visibility)); err != nil {
		return NewConfigurationErrorWithCause("visibility", "unsupported visibility", err)
	}
	if c.Migration.LogFile == "" {
		return NewConfigurationError("log_file", "migration log path must be configured")
	}
	if c.Migration.RecordDelay < 0 {
		return NewValidationError("record_delay", c.Migration.RecordDelay.String(), "non-negative")
	}
	return nil
}

func requireField(field, value string) error {
	if value == "" {
		return NewConfigurationError(field, "required setting is missing")
	}
	return nil
}
