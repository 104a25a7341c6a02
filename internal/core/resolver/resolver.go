package resolver

import (
	"context"
	"fmt"
	"strings"

	"spotube-downloader/internal/interfaces"
	"spotube-downloader/internal/shared"
)

// Resolver expands references into track descriptors using a catalog lookup service
type Resolver struct {
	catalog  interfaces.CatalogService
	warnings interfaces.WarningCollectorService
	logger   interfaces.LoggerService
}

// NewResolver creates a resolver. warnings and logger may be nil.
func NewResolver(catalog interfaces.CatalogService, warnings interfaces.WarningCollectorService, logger interfaces.LoggerService) *Resolver {
	return &Resolver{
		catalog:  catalog,
		warnings: warnings,
		logger:   logger,
	}
}

// Resolve classifies the reference and returns its tracks in catalog order.
// A bad reference shape is *shared.InvalidReferenceError, any lookup failure *shared.CatalogError.
func (r *Resolver) Resolve(ctx context.Context, raw string) ([]shared.TrackDescriptor, error) {
	ref, err := ParseReference(raw)
	if err != nil {
		return nil, err
	}
	r.debug("Resolving %s %s", ref.Kind, ref.ID)

	switch ref.Kind {
	case shared.ReferenceTrack:
		return r.resolveTrack(ctx, ref)
	case shared.ReferenceAlbum:
		return r.resolveAlbum(ctx, ref)
	default:
		return r.resolvePlaylist(ctx, ref)
	}
}

func (r *Resolver) resolveTrack(ctx context.Context, ref shared.Reference) ([]shared.TrackDescriptor, error) {
	track, err := r.catalog.GetTrack(ctx, ref.ID)
	if err != nil {
		return nil, &shared.CatalogError{Reference: ref.Raw, Err: err}
	}
	if track == nil {
		return nil, &shared.CatalogError{Reference: ref.Raw, Err: fmt.Errorf("track %s not found", ref.ID)}
	}

	descriptor, ok := newDescriptor(*track, track.Album)
	if !ok {
		return nil, &shared.CatalogError{Reference: ref.Raw, Err: shared.ErrMalformedEntry}
	}
	return []shared.TrackDescriptor{descriptor}, nil
}

func (r *Resolver) resolveAlbum(ctx context.Context, ref shared.Reference) ([]shared.TrackDescriptor, error) {
	album, err := r.catalog.GetAlbum(ctx, ref.ID)
	if err != nil {
		return nil, &shared.CatalogError{Reference: ref.Raw, Err: err}
	}
	if album == nil {
		return nil, &shared.CatalogError{Reference: ref.Raw, Err: fmt.Errorf("album %s not found", ref.ID)}
	}

	descriptors := make([]shared.TrackDescriptor, 0, len(album.Tracks))
	for i, track := range album.Tracks {
		descriptor, ok := newDescriptor(track, album)
		if !ok {
			r.skip(ref, i, track)
			continue
		}
		descriptors = append(descriptors, descriptor)
	}
	r.debug("Album %q resolved to %d tracks", album.Name, len(descriptors))
	return descriptors, nil
}

func (r *Resolver) resolvePlaylist(ctx context.Context, ref shared.Reference) ([]shared.TrackDescriptor, error) {
	tracks, err := r.catalog.GetPlaylistTracks(ctx, ref.ID)
	if err != nil {
		return nil, &shared.CatalogError{Reference: ref.Raw, Err: err}
	}

	descriptors := make([]shared.TrackDescriptor, 0, len(tracks))
	for i, track := range tracks {
		descriptor, ok := newDescriptor(track, track.Album)
		if !ok {
			r.skip(ref, i, track)
			continue
		}
		descriptors = append(descriptors, descriptor)
	}
	r.debug("Playlist %s resolved to %d tracks", ref.ID, len(descriptors))
	return descriptors, nil
}

// newDescriptor builds a descriptor from a catalog track and its owning album.
// ok is false when the entry has no title or no artist.
func newDescriptor(track shared.CatalogTrack, album *shared.CatalogAlbum) (shared.TrackDescriptor, bool) {
	title := strings.TrimSpace(track.Name)
	artist := ""
	if len(track.Artists) > 0 {
		artist = strings.TrimSpace(track.Artists[0])
	}
	if title == "" || artist == "" {
		return shared.TrackDescriptor{}, false
	}

	descriptor := shared.TrackDescriptor{
		Title:  title,
		Artist: artist,
	}
	if album != nil {
		descriptor.Album = album.Name
		descriptor.CoverURL = album.FirstImage()
	}
	return descriptor, true
}

func (r *Resolver) skip(ref shared.Reference, position int, track shared.CatalogTrack) {
	details := shared.ErrMalformedEntry.Error()
	if track.ID != "" {
		details = fmt.Sprintf("%s (id %s)", details, track.ID)
	}
	if r.warnings != nil {
		r.warnings.AddCatalogEntrySkippedWarning(ref.Raw, position+1, details)
	}
	if r.logger != nil {
		r.logger.Debug("Skipping entry %d of %s: %s", position+1, ref.Raw, details)
	}
}

func (r *Resolver) debug(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(format, args...)
	}
}
