package resolver

import (
	"strings"

	"spotube-downloader/internal/shared"
)

// kindPriority is the order in which reference keywords are checked; first match wins.
var kindPriority = []shared.ReferenceKind{
	shared.ReferenceTrack,
	shared.ReferenceAlbum,
	shared.ReferencePlaylist,
}

// ParseReference classifies a raw reference and extracts its catalog ID.
// URLs (https://open.spotify.com/album/ID?si=..), URIs (spotify:track:ID)
// and the short form (playlist:ID) are all accepted.
func ParseReference(raw string) (shared.Reference, error) {
	trimmed := strings.TrimSpace(raw)

	var kind shared.ReferenceKind
	for _, k := range kindPriority {
		if strings.Contains(trimmed, string(k)) {
			kind = k
			break
		}
	}
	if kind == "" {
		return shared.Reference{}, &shared.InvalidReferenceError{Reference: raw}
	}

	id := extractID(trimmed)
	if id == "" || id == string(kind) {
		return shared.Reference{}, &shared.InvalidReferenceError{Reference: raw}
	}

	return shared.Reference{Raw: raw, Kind: kind, ID: id}, nil
}

// extractID returns the last non-empty path or URI segment without query or fragment
func extractID(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	segments := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ':'
	})
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}
