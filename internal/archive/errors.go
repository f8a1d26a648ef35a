package archive

import "errors"

var (
	// ErrArchiveNotFound indicates the archive directory or its outbox is missing
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrArchiveMalformed indicates the outbox could not be parsed
	ErrArchiveMalformed = errors.New("archive malformed")
)
