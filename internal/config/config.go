// Package config loads the migration settings file, applies environment
// overrides and validates the result.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/exileum/toot-migrator/internal/mastodon"
)

const (
	DefaultSettingsFile   = "settings.json"
	DefaultClientCredFile = "pytooter_clientcred.secret"
	DefaultUserCredFile   = "pytooter_usercred.secret"
	DefaultLogFile        = "log.txt"
)

type Config struct {
	Mastodon  MastodonConfig
	Archive   ArchiveConfig
	Migration MigrationConfig
}

type MastodonConfig struct {
	APIBaseURL     string
	Email          string
	Password       string
	AppName        string
	ClientCredFile string
	UserCredFile   string
	Timeout        time.Duration
	MaxRetries     int
}

type ArchiveConfig struct {
	Path           string
	UploadListPath string
}

type MigrationConfig struct {
	Limit       int // <= 0 publishes everything
	Visibility  mastodon.Visibility
	UploadMedia bool
	Verbose     bool
	DryRun      bool
	AssumeYes   bool
	LogFile     string
	RecordDelay time.Duration
}

// Settings mirrors the keys of the settings file.
type Settings struct {
	Email       string `json:"email" yaml:"email"`
	Password    string `json:"password" yaml:"password"`
	APIBaseURL  string `json:"api_base_url" yaml:"api_base_url"`
	AppName     string `json:"app_name" yaml:"app_name"`
	ArchivePath string `json:"archive_path" yaml:"archive_path"`
}

// New returns a config holding defaults and environment overrides only.
func New() *Config {
	return &Config{
		Mastodon: MastodonConfig{
			APIBaseURL:     os.Getenv("MASTODON_API_BASE_URL"),
			Email:          os.Getenv("MASTODON_EMAIL"),
			Password:       os.Getenv("MASTODON_PASSWORD"),
			AppName:        os.Getenv("MASTODON_APP_NAME"),
			ClientCredFile: getEnvOrDefault("MASTODON_CLIENT_CRED_FILE", DefaultClientCredFile),
			UserCredFile:   getEnvOrDefault("MASTODON_USER_CRED_FILE", DefaultUserCredFile),
			Timeout:        getEnvDurationOrDefault("HTTP_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvIntOrDefault("MAX_RETRIES", 3),
		},
		Archive: ArchiveConfig{
			Path: os.Getenv("MASTODON_ARCHIVE_PATH"),
		},
		Migration: MigrationConfig{
			Limit:       -1,
			Visibility:  mastodon.VisibilityDirect,
			UploadMedia: true,
			LogFile:     getEnvOrDefault("MIGRATION_LOG_FILE", DefaultLogFile),
			RecordDelay: getEnvDurationOrDefault("RECORD_DELAY", 50*time.Millisecond),
		},
	}
}

// Load reads the settings file at path on top of New. Environment variables
// win over values from the file.
func Load(path string) (*Config, error) {
	settings, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}

	cfg := New()
	cfg.Mastodon.Email = firstNonEmpty(cfg.Mastodon.Email, settings.Email)
	cfg.Mastodon.Password = firstNonEmpty(cfg.Mastodon.Password, settings.Password)
	cfg.Mastodon.APIBaseURL = firstNonEmpty(cfg.Mastodon.APIBaseURL, settings.APIBaseURL)
	cfg.Mastodon.AppName = firstNonEmpty(cfg.Mastodon.AppName, settings.AppName)
	cfg.Archive.Path = firstNonEmpty(cfg.Archive.Path, settings.ArchivePath)

	return cfg, nil
}

// LoadSettings parses a JSON settings file, or YAML when the extension is
// .yaml or .yml.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigurationErrorWithCause(path, "cannot read settings file", err)
	}

	var settings Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &settings)
	default:
		err = json.Unmarshal(data, &settings)
	}
	if err != nil {
		return nil, NewConfigurationErrorWithCause(path, "cannot parse settings file", err)
	}

	return &settings, nil
}

// String renders the config for verbose logs with the password masked.
func (c *Config) String() string {
	password := ""
	if c.Mastodon.Password != "" {
		password = "**********"
	}
	return fmt.Sprintf("instance=%s email=%s password=%s app=%s archive=%s limit=%d visibility=%s media=%t dry_run=%t",
		c.Mastodon.APIBaseURL, c.Mastodon.Email, password, c.Mastodon.AppName, c.Archive.Path,
		c.Migration.Limit, c.Migration.Visibility, c.Migration.UploadMedia, c.Migration.DryRun)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
