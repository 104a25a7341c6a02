package spotify

import (
	"sync"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

// SpotifyClient holds the spotify client and other required fields
type SpotifyClient struct {
	client  *spotify.Client
	ID      string
	Secret  string
	limiter *rate.Limiter
	mu      sync.Mutex
}

// NewSpotifyClient creates a new spotify client
func NewSpotifyClient(id, secret string) *SpotifyClient {
	return &SpotifyClient{
		ID:      id,
		Secret:  secret,
		limiter: rate.NewLimiter(rate.Every(lookupInterval), lookupBurst),
	}
}

// NewSpotifyClientWithHTTP wraps an already authenticated API client, used by tests
func NewSpotifyClientWithHTTP(client *spotify.Client) *SpotifyClient {
	c := NewSpotifyClient("", "")
	c.client = client
	return c
}
