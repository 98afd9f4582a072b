package crawler

import "errors"

// Common errors returned by the crawler package.
var (
	// ErrEmptyKeyword is returned when Run is called without a keyword.
	ErrEmptyKeyword = errors.New("keyword must not be empty")
	// ErrInvalidMaxPages is returned when Run is called with maxPages < 1.
	ErrInvalidMaxPages = errors.New("max pages must be >= 1")
	// ErrNilAdapter is returned when Run is called without an adapter.
	ErrNilAdapter = errors.New("adapter must not be nil")
)
