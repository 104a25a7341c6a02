// Package matcher turns track descriptors into search queries and file names.
package matcher

import (
	"spotube-downloader/internal/shared"
)

const (
	// audioToken biases the search toward audio uploads over music videos
	audioToken   = "audio"
	searchPrefix = "ytsearch1:"
)

// BuildQuery returns the search query for a descriptor: "Artist - Title audio"
func BuildQuery(d shared.TrackDescriptor) string {
	return d.Artist + " - " + d.Title + " " + audioToken
}

// FileStem returns the output file name without extension. It only depends on
// artist and title, so re-running a batch overwrites instead of duplicating.
func FileStem(d shared.TrackDescriptor) string {
	return shared.SanitizeFileName(d.Artist + " - " + d.Title)
}

// SearchTarget restricts the engine to the single best result for query
func SearchTarget(query string) string {
	return searchPrefix + query
}
