package shared

import (
	"fmt"
	"time"
)

// Supported target formats
const (
	FormatMP3  = "mp3"
	FormatM4A  = "m4a"
	FormatFLAC = "flac"
	FormatWAV  = "wav"
)

// SupportedFormats lists the target containers in the order they are offered to the user.
var SupportedFormats = []string{FormatMP3, FormatM4A, FormatFLAC, FormatWAV}

// IsSupportedFormat reports whether format is one of SupportedFormats
func IsSupportedFormat(format string) bool {
	for _, f := range SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// TrackDescriptor is the resolved metadata for one song to be acquired.
// It is passed by value and never modified after the resolver produced it.
type TrackDescriptor struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	CoverURL string `json:"coverUrl,omitempty"` // empty when the catalog has no image
}

// HasCover reports whether the descriptor carries a cover image URL
func (d TrackDescriptor) HasCover() bool {
	return d.CoverURL != ""
}

// String returns the "Artist - Title" label used in logs and progress bars
func (d TrackDescriptor) String() string {
	return fmt.Sprintf("%s - %s", d.Artist, d.Title)
}

// ReferenceKind is the catalog resource type a reference points at
type ReferenceKind string

const (
	ReferenceTrack    ReferenceKind = "track"
	ReferenceAlbum    ReferenceKind = "album"
	ReferencePlaylist ReferenceKind = "playlist"
)

// Reference is one classified input identifier
type Reference struct {
	Raw  string
	Kind ReferenceKind
	ID   string
}

// RunConfiguration is supplied once per batch and stays the same for its whole duration.
type RunConfiguration struct {
	DownloadPath     string
	AudioFormat      string
	AudioQuality     string
	FFmpegLocation   string
	Parallelism      int
	CoverTimeout     time.Duration
	MaxRetryAttempts int
}

// AcquisitionStatus is the outcome of processing one descriptor
type AcquisitionStatus string

const (
	StatusSucceeded AcquisitionStatus = "succeeded"
	StatusFailed    AcquisitionStatus = "failed"
)

// AcquisitionResult records what happened to one descriptor.
type AcquisitionResult struct {
	Descriptor TrackDescriptor
	Status     AcquisitionStatus
	Err        error  // failure reason, nil when Status is StatusSucceeded
	OutputPath string // empty when the track failed
	TagErr     error  // tagging problem after a successful download
}

// Succeeded reports whether the track was downloaded
func (r AcquisitionResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Download statistics
type DownloadStats struct {
	SuccessCount int
	FailedCount  int
	TagWarnings  int
	FailedItems  []string
}

// SummarizeResults aggregates per-track results into DownloadStats
func SummarizeResults(results []AcquisitionResult) *DownloadStats {
	stats := &DownloadStats{}
	for _, r := range results {
		if r.Succeeded() {
			stats.SuccessCount++
			if r.TagErr != nil {
				stats.TagWarnings++
			}
			continue
		}
		stats.FailedCount++
		stats.FailedItems = append(stats.FailedItems, r.Descriptor.String())
	}
	return stats
}

// ProgressPhase is the stage a progress event reports
type ProgressPhase string

const (
	PhaseDownloading ProgressPhase = "downloading"
	PhaseFinished    ProgressPhase = "finished"
)

// ProgressEvent is emitted by the acquisition engine while a track streams.
type ProgressEvent struct {
	TaskID          int
	Phase           ProgressPhase
	BytesDownloaded int64
	BytesTotal      *int64 // nil while the source has not reported a size
	Label           string
}

// PostprocessChain describes the transcode and metadata steps run by the
// download engine as a continuation of the same invocation.
type PostprocessChain struct {
	Codec    string
	Quality  string
	Metadata []MetadataField
}

// MetadataField is one container-level tag written by the transcoder
type MetadataField struct {
	Key   string
	Value string
}

// DownloadRequest is one search-and-download invocation of the external engine.
type DownloadRequest struct {
	Target         string // search expression, e.g. "ytsearch1:<query>"
	OutputTemplate string // destination with the extension left to the engine
	Format         string // stream selection policy
	NoPlaylist     bool
	FFmpegLocation string
	Chain          PostprocessChain
	OnProgress     func(ProgressEvent)
}

// Catalog types
type CatalogTrack struct {
	ID      string
	Name    string
	Artists []string
	Album   *CatalogAlbum // nil for album members and playlist items without album info
}

type CatalogAlbum struct {
	ID     string
	Name   string
	Images []string // image URLs, largest first
	Tracks []CatalogTrack
}

// FirstImage returns the album's first image URL or "" when it has none
func (a *CatalogAlbum) FirstImage() string {
	if a == nil || len(a.Images) == 0 {
		return ""
	}
	return a.Images[0]
}
