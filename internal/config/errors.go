package config

import (
	"errors"
	"fmt"
)

// ErrSettingsMissingOrMalformed indicates the settings file is absent,
// unparsable, or lacks a required key. Both ConfigurationError and
// ValidationError match it with errors.Is.
var ErrSettingsMissingOrMalformed = errors.New("settings missing or malformed")

// ConfigurationError is a setting that is missing or cannot be used.
type ConfigurationError struct {
	Field   string // Setting key, or the settings file path
	Message string
	Cause   error // Optional
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("setting '%s': %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("setting '%s': %s", e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSettingsMissingOrMalformed}
	}
	return []error{ErrSettingsMissingOrMalformed, e.Cause}
}

func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

func NewConfigurationErrorWithCause(field, message string, cause error) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message, Cause: cause}
}

// ValidationError is a setting whose value breaks a rule.
type ValidationError struct {
	Field string
	Value string
	Rule  string // e.g. "non-negative"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("setting '%s': value '%s' must be %s", e.Field, e.Value, e.Rule)
}

func (e *ValidationError) Unwrap() error {
	return ErrSettingsMissingOrMalformed
}

func NewValidationError(field, value, rule string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Rule: rule}
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// GetConfigurationField returns the offending setting of a configuration
// or validation error.
func GetConfigurationField(err error) string {
	var configErr *ConfigurationError
	if errors.As(err, &configErr) {
		return configErr.Field
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Field
	}
	return ""
}
