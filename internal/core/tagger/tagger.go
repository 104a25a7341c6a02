package tagger

import (
	"context"

	"spotube-downloader/internal/interfaces"
	"spotube-downloader/internal/shared"
)

// DefaultQuality is the transcode bitrate handed to the extract-audio step
const DefaultQuality = "192"

// Tagger configures the transcode chain and enriches finished files with tags and cover art
type Tagger struct {
	covers   interfaces.CoverFetcher
	warnings interfaces.WarningCollectorService
	logger   interfaces.LoggerService
}

// NewTagger creates a tagger. warnings and logger may be nil.
func NewTagger(covers interfaces.CoverFetcher, warnings interfaces.WarningCollectorService, logger interfaces.LoggerService) *Tagger {
	return &Tagger{
		covers:   covers,
		warnings: warnings,
		logger:   logger,
	}
}

// Chain builds the extract-audio and metadata steps run inside the download invocation
func (t *Tagger) Chain(d shared.TrackDescriptor, format, quality string) shared.PostprocessChain {
	if quality == "" {
		quality = DefaultQuality
	}
	return shared.PostprocessChain{
		Codec:   format,
		Quality: quality,
		Metadata: []shared.MetadataField{
			{Key: "artist", Value: d.Artist},
			{Key: "title", Value: d.Title},
			{Key: "album", Value: d.Album},
		},
	}
}

// Tag writes artist, title and album into the file's native tag container and, for
// mp3 only, embeds the cover. A cover that cannot be fetched is a warning, not an error.
func (t *Tagger) Tag(ctx context.Context, path string, d shared.TrackDescriptor, format string) error {
	var err error
	switch format {
	case shared.FormatMP3:
		err = t.tagMP3(ctx, path, d)
	case shared.FormatFLAC:
		err = fillVorbisComments(path, d)
	default:
		// m4a and wav carry what the transcoder wrote
		return nil
	}
	if err != nil {
		return &shared.TagError{Path: path, Err: err}
	}
	return nil
}

// cover returns the image for d, or nil when there is none or it could not be fetched
func (t *Tagger) cover(ctx context.Context, d shared.TrackDescriptor) []byte {
	if !d.HasCover() || t.covers == nil {
		return nil
	}
	data, err := t.covers.FetchCover(ctx, d.CoverURL)
	if err != nil {
		if t.warnings != nil {
			t.warnings.AddCoverArtDownloadWarning(d.String(), err.Error())
		}
		if t.logger != nil {
			t.logger.Debug("Cover fetch failed for %s: %v", d.String(), err)
		}
		return nil
	}
	return data
}
