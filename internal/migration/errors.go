package migration

import (
	"errors"
	"fmt"
)

// MigrationError represents errors that occur during the migration process.
type MigrationError struct {
	Phase    string // The migration phase where the error occurred (e.g., "register", "upload", "publish")
	RecordID string // The toot being processed when the error occurred (empty if not applicable)
	Message  string // Human-readable error message
	Cause    error  // Underlying error cause
}

func (e *MigrationError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("migration error in phase '%s' for toot %s: %s: %v", e.Phase, e.RecordID, e.Message, e.Cause)
	}
	return fmt.Sprintf("migration error in phase '%s': %s: %v", e.Phase, e.Message, e.Cause)
}

func (e *MigrationError) Unwrap() error {
	return e.Cause
}

// NewMigrationError creates a new migration error.
func NewMigrationError(phase, message string, cause error) *MigrationError {
	return &MigrationError{
		Phase:   phase,
		Message: message,
		Cause:   cause,
	}
}

// NewRecordMigrationError creates a new migration error for a specific toot.
func NewRecordMigrationError(phase, recordID, message string, cause error) *MigrationError {
	return &MigrationError{
		Phase:    phase,
		RecordID: recordID,
		Message:  message,
		Cause:    cause,
	}
}

// Sentinel errors for common migration issues
var (
	// ErrMediaUploadFailed indicates an attachment could not be read or uploaded
	ErrMediaUploadFailed = errors.New("media upload failed")

	// ErrPublishFailed indicates the status post was rejected
	ErrPublishFailed = errors.New("publish failed")

	// ErrMigrationAborted indicates the user declined to publish
	ErrMigrationAborted = errors.New("migration aborted")

	// ErrInvalidTransition indicates the driver was asked to move backwards
	ErrInvalidTransition = errors.New("invalid state transition")
)

// IsMigrationError checks if an error is a migration error.
func IsMigrationError(err error) bool {
	var migrationErr *MigrationError
	return errors.As(err, &migrationErr)
}

// GetMigrationPhase extracts the migration phase from a migration error.
func GetMigrationPhase(err error) string {
	var migrationErr *MigrationError
	if errors.As(err, &migrationErr) {
		return migrationErr.Phase
	}
	return ""
}

// GetRecordID extracts the toot id from a migration error.
func GetRecordID(err error) string {
	var migrationErr *MigrationError
	if errors.As(err, &migrationErr) {
		return migrationErr.RecordID
	}
	return ""
}
