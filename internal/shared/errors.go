package shared

import (
	"errors"
	"fmt"
)

// ErrNoMatch is returned when the search engine produced no usable file for a query.
var ErrNoMatch = errors.New("no matching search result")

// ErrMalformedEntry marks a catalog entry missing its title or artist.
var ErrMalformedEntry = errors.New("catalog entry has no title or artist")

// InvalidReferenceError is returned when a reference matches none of the known shapes.
type InvalidReferenceError struct {
	Reference string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference %q: expected a track, album or playlist identifier", e.Reference)
}

// CatalogError wraps a failed catalog lookup for one reference.
type CatalogError struct {
	Reference string
	Err       error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog lookup failed for %q: %v", e.Reference, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// DownloadError wraps a search or stream failure for one track.
type DownloadError struct {
	Query string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %q: %v", e.Query, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// TagError wraps a metadata or cover embedding failure after a successful download.
type TagError struct {
	Path string
	Err  error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("tagging failed for %s: %v", e.Path, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

// CancelledError is recorded for a track whose acquisition was interrupted.
type CancelledError struct {
	Query string
	Err   error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("download cancelled for %q", e.Query)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must abort the whole run rather than a single track.
func IsFatal(err error) bool {
	var invalid *InvalidReferenceError
	var catalog *CatalogError
	return errors.As(err, &invalid) || errors.As(err, &catalog)
}
