package interfaces

import (
	"context"

	"spotube-downloader/internal/config"
	"spotube-downloader/internal/shared"
)

// CatalogService is the read-only catalog lookup the resolver expands references with
type CatalogService interface {
	// GetTrack retrieves one track with its album
	GetTrack(ctx context.Context, id string) (*shared.CatalogTrack, error)

	// GetAlbum retrieves an album with its ordered member tracks
	GetAlbum(ctx context.Context, id string) (*shared.CatalogAlbum, error)

	// GetPlaylistTracks retrieves the ordered playlist items
	GetPlaylistTracks(ctx context.Context, id string) ([]shared.CatalogTrack, error)
}

// ReferenceResolver expands one reference into track descriptors
type ReferenceResolver interface {
	Resolve(ctx context.Context, reference string) ([]shared.TrackDescriptor, error)
}

// SearchEngine is the external search/download engine (yt-dlp)
type SearchEngine interface {
	// Download runs one search-and-download invocation including its postprocessing chain
	Download(ctx context.Context, req shared.DownloadRequest) error
}

// AcquisitionEngine downloads the best match for a query to a local file
type AcquisitionEngine interface {
	Acquire(ctx context.Context, query, destinationTemplate string, chain shared.PostprocessChain, sink ProgressSink) (string, error)
}

// ProgressSink receives the events of exactly one track
type ProgressSink interface {
	Emit(event shared.ProgressEvent)

	// Close releases the track's display resources; safe to call more than once
	Close()
}

// ProgressReporter hands out one sink per track
type ProgressReporter interface {
	NewSink(taskID int, label string) ProgressSink

	// Stop flushes any pooled output once the batch is over
	Stop()
}

// Postprocessor configures the transcode/tag chain and enriches the finished file
type Postprocessor interface {
	// Chain builds the postprocessing steps run inside the download invocation
	Chain(descriptor shared.TrackDescriptor, format, quality string) shared.PostprocessChain

	// Tag embeds metadata into the transcoded file; failures are *shared.TagError
	Tag(ctx context.Context, path string, descriptor shared.TrackDescriptor, format string) error
}

// CoverFetcher downloads cover art
type CoverFetcher interface {
	FetchCover(ctx context.Context, url string) ([]byte, error)
}

// LibraryService is a media server that can be asked to pick up new files
type LibraryService interface {
	Authenticate() error
	StartScan(ctx context.Context) error
}

// ConfigService defines the interface for configuration management
type ConfigService interface {
	// LoadConfig loads configuration from file
	LoadConfig(configFile string) (*config.Config, error)

	// SaveConfig saves configuration to file
	SaveConfig(configFile string, config *config.Config) error

	// ValidateConfig validates configuration settings
	ValidateConfig(config *config.Config) error

	// GetDefaultConfig returns a default configuration
	GetDefaultConfig() *config.Config

	// EnsureConfigExists creates a default config file if it doesn't exist
	EnsureConfigExists(configFile string) error
}

// LoggerService defines the interface for logging operations
type LoggerService interface {
	// Info logs an informational message
	Info(message string, args ...interface{})

	// Warning logs a warning message
	Warning(message string, args ...interface{})

	// Error logs an error message
	Error(message string, args ...interface{})

	// Debug logs a debug message
	Debug(message string, args ...interface{})

	// Success logs a success message
	Success(message string, args ...interface{})

	// SetDebugMode enables or disables debug logging
	SetDebugMode(enabled bool)
}

// WarningCollectorService defines the interface for warning collection
type WarningCollectorService interface {
	AddCatalogEntrySkippedWarning(reference string, position int, details string)
	AddCoverArtDownloadWarning(track, details string)
	AddCoverArtMetadataWarning(track, details string)
	AddTagWarning(track, details string)
	AddLibraryScanWarning(server, details string)

	// HasWarnings returns true if there are any warnings
	HasWarnings() bool

	// GetWarningCount returns the total number of warnings
	GetWarningCount() int

	// PrintSummary prints a formatted summary of all warnings
	PrintSummary()

	// Reset clears collected warnings between batches
	Reset()
}
