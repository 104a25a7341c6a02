package tagger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"spotube-downloader/internal/shared"
)

const maxCoverBytes = 10 << 20

// HTTPCoverFetcher downloads cover images with a bounded timeout
type HTTPCoverFetcher struct {
	client     *http.Client
	maxRetries int
	debug      bool
}

// NewHTTPCoverFetcher creates a fetcher whose requests give up after timeout
func NewHTTPCoverFetcher(timeout time.Duration, maxRetries int, debug bool) *HTTPCoverFetcher {
	return &HTTPCoverFetcher{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		debug:      debug,
	}
}

// FetchCover GETs url and returns the body. Non-2xx responses are *shared.HTTPError;
// only rate limiting and gateway errors are retried.
func (c *HTTPCoverFetcher) FetchCover(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := shared.RetryWithBackoffForHTTPWithDebug(ctx, c.maxRetries, time.Second, 5*time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create cover request: %w", err)
		}
		req.Header.Set("User-Agent", shared.UserAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch cover: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &shared.HTTPError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Message:    "cover request failed",
			}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
		if err != nil {
			return fmt.Errorf("failed to read cover: %w", err)
		}
		data = body
		return nil
	}, c.debug)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty cover image from %s", url)
	}
	return data, nil
}
