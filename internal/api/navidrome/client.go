package navidrome

import (
	"context"
	"errors"
	"fmt"
	"strings"

	subsonic "github.com/delucks/go-subsonic"
)

// ErrNotConfigured is returned when no server URL or user was given
var ErrNotConfigured = errors.New("navidrome server is not configured")

// Authenticate authenticates the client with the navidrome api
func (n *NavidromeClient) Authenticate() error {
	if n.URL == "" || n.Username == "" {
		return ErrNotConfigured
	}

	n.Client = subsonic.Client{
		Client:       n.HTTPClient,
		BaseUrl:      strings.TrimSuffix(n.URL, "/"),
		User:         n.Username,
		ClientName:   clientName,
		PasswordAuth: true,
	}
	if err := n.Client.Authenticate(n.Password); err != nil {
		return fmt.Errorf("navidrome authentication failed: %w", err)
	}
	n.authed = true
	return nil
}

// StartScan asks the server to rescan its library so freshly downloaded files show up
func (n *NavidromeClient) StartScan(ctx context.Context) error {
	if !n.authed {
		if err := n.Authenticate(); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.Client.StartScan(); err != nil {
		return fmt.Errorf("failed to start library scan: %w", err)
	}
	return nil
}
