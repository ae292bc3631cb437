package types

import "errors"

var (
	// ErrTransport covers network failures and non-success HTTP statuses alike.
	ErrTransport = errors.New("content server request failed")
	// ErrParse reports a catalog or suggestion payload that could not be decoded.
	ErrParse = errors.New("content server response could not be parsed")
	// ErrDirectoryUnavailable reports a missing or unreadable archive directory.
	ErrDirectoryUnavailable = errors.New("archive directory unavailable")
	// ErrInvalidQuery reports an empty archive or query at dispatch time.
	ErrInvalidQuery = errors.New("archive and query must not be empty")
	// ErrServerUnavailable reports a content server that could not be reached or started.
	ErrServerUnavailable = errors.New("content server unavailable")
)
