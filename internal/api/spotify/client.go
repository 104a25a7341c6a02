package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"spotube-downloader/internal/shared"
)

const (
	lookupInterval = 100 * time.Millisecond // Web API rate limits are per 30s window; stay well under
	lookupBurst    = 5
	playlistLimit  = 100
)

// ErrNotAuthenticated is returned when no credentials were configured
var ErrNotAuthenticated = errors.New("spotify client credentials are not configured")

// Authenticate authenticates the client with the spotify api
func (s *SpotifyClient) Authenticate(ctx context.Context) error {
	if s.ID == "" || s.Secret == "" {
		return ErrNotAuthenticated
	}
	config := &clientcredentials.Config{
		ClientID:     s.ID,
		ClientSecret: s.Secret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain spotify token: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	s.mu.Lock()
	s.client = spotify.New(httpClient)
	s.mu.Unlock()
	return nil
}

// api returns the authenticated client, authenticating on first use
func (s *SpotifyClient) api(ctx context.Context) (*spotify.Client, error) {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client != nil {
		return client, nil
	}
	if err := s.Authenticate(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client, nil
}

func (s *SpotifyClient) wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

// GetTrack gets a single track with its album
func (s *SpotifyClient) GetTrack(ctx context.Context, id string) (*shared.CatalogTrack, error) {
	client, err := s.api(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	track, err := client.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}

	result := convertSimpleTrack(track.SimpleTrack)
	result.Album = convertAlbum(track.Album)
	return &result, nil
}

// GetAlbum gets an album and all of its tracks, following pagination
func (s *SpotifyClient) GetAlbum(ctx context.Context, id string) (*shared.CatalogAlbum, error) {
	client, err := s.api(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	album, err := client.GetAlbum(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get album %s: %w", id, err)
	}

	result := convertAlbum(album.SimpleAlbum)
	if result == nil {
		result = &shared.CatalogAlbum{ID: id}
	}

	page := &album.Tracks
	for {
		for _, track := range page.Tracks {
			result.Tracks = append(result.Tracks, convertSimpleTrack(track))
		}
		if page.Next == "" {
			break
		}
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		if err := client.NextPage(ctx, page); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				break
			}
			return nil, fmt.Errorf("failed to page album %s: %w", id, err)
		}
	}

	return result, nil
}

// GetPlaylistTracks gets the tracks from a spotify playlist, following pagination.
// Items that are not tracks (episodes, removed tracks) come back with an empty name.
func (s *SpotifyClient) GetPlaylistTracks(ctx context.Context, id string) ([]shared.CatalogTrack, error) {
	client, err := s.api(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	page, err := client.GetPlaylistItems(ctx, spotify.ID(id), spotify.Limit(playlistLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist %s: %w", id, err)
	}

	var tracks []shared.CatalogTrack
	for {
		for _, item := range page.Items {
			full := item.Track.Track
			if full == nil {
				tracks = append(tracks, shared.CatalogTrack{})
				continue
			}
			track := convertSimpleTrack(full.SimpleTrack)
			track.Album = convertAlbum(full.Album)
			tracks = append(tracks, track)
		}
		if page.Next == "" {
			break
		}
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		if err := client.NextPage(ctx, page); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				break
			}
			return nil, fmt.Errorf("failed to page playlist %s: %w", id, err)
		}
	}

	return tracks, nil
}

func convertSimpleTrack(track spotify.SimpleTrack) shared.CatalogTrack {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}
	return shared.CatalogTrack{
		ID:      string(track.ID),
		Name:    track.Name,
		Artists: artists,
	}
}

// convertAlbum returns nil when the catalog sent no album information
func convertAlbum(album spotify.SimpleAlbum) *shared.CatalogAlbum {
	if album.Name == "" && album.ID == "" {
		return nil
	}
	images := make([]string, 0, len(album.Images))
	for _, image := range album.Images {
		if image.URL != "" {
			images = append(images, image.URL)
		}
	}
	return &shared.CatalogAlbum{
		ID:     string(album.ID),
		Name:   album.Name,
		Images: images,
	}
}
