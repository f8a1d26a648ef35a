package mastodon

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppCredentials identify the registered OAuth application.
type AppCredentials struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string
	AppName      string
}

// UserCredentials hold the access token obtained by Login.
type UserCredentials struct {
	AccessToken string
	APIBaseURL  string
}

// Both credential files are line oriented: one value per line in the
// field order of the struct.

func (a *AppCredentials) Save(path string) error {
	return writeLines(path, a.ClientID, a.ClientSecret, a.APIBaseURL, a.AppName)
}

func LoadAppCredentials(path string) (*AppCredentials, error) {
	lines, err := readLines(path, 3)
	if err != nil {
		return nil, err
	}

	creds := &AppCredentials{
		ClientID:     lines[0],
		ClientSecret: lines[1],
		APIBaseURL:   lines[2],
	}
	if len(lines) > 3 {
		creds.AppName = lines[3]
	}
	return creds, nil
}

func (u *UserCredentials) Save(path string) error {
	return writeLines(path, u.AccessToken, u.APIBaseURL)
}

func LoadUserCredentials(path string) (*UserCredentials, error) {
	lines, err := readLines(path, 2)
	if err != nil {
		return nil, err
	}
	return &UserCredentials{AccessToken: lines[0], APIBaseURL: lines[1]}, nil
}

// CredentialsExist reports whether path names an existing file.
func CredentialsExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeLines(path string, values ...string) error {
	data := strings.Join(values, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		return fmt.Errorf("failed to write credentials to %s: %w", path, err)
	}
	return nil
}

func readLines(path string, required int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials from %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	if len(lines) < required {
		return nil, fmt.Errorf("%w: %s has %d lines, want at least %d", ErrInvalidCredentials, path, len(lines), required)
	}
	for i := 0; i < required; i++ {
		if lines[i] == "" {
			return nil, fmt.Errorf("%w: %s line %d is empty", ErrInvalidCredentials, path, i+1)
		}
	}

	return lines, nil
}

// IsInvalidCredentials checks if an error comes from a malformed credential file.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
