package navidrome

import (
	"net/http"

	subsonic "github.com/delucks/go-subsonic"
)

const clientName = "spotube-downloader"

// NavidromeClient holds the navidrome client and other required fields
type NavidromeClient struct {
	URL        string
	Username   string
	Password   string
	Client     subsonic.Client
	HTTPClient *http.Client
	authed     bool
}

// NewNavidromeClient creates a new navidrome client
func NewNavidromeClient(url, username, password string) *NavidromeClient {
	return &NavidromeClient{
		URL:        url,
		Username:   username,
		Password:   password,
		HTTPClient: http.DefaultClient,
	}
}
