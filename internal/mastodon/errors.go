package mastodon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrAuthenticationFailed indicates app registration or login was rejected
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRateLimited indicates the instance kept answering 429
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidCredentials indicates a credential file could not be parsed
	ErrInvalidCredentials = errors.New("invalid credential file")
)

// APIError is a non-success response from the Mastodon API.
type APIError struct {
	StatusCode int    // HTTP status code
	Message    string // The "error" field of the response body, or the raw body
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mastodon API error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps 401 and 403 responses to ErrAuthenticationFailed.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrAuthenticationFailed
	}
	return nil
}

func newAPIError(resp *resty.Response) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	msg := resp.String()
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}

// IsAPIError checks if an error is a Mastodon API error.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// GetStatusCode extracts the HTTP status code from an API error.
func GetStatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
