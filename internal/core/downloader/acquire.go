package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"spotube-downloader/internal/core/matcher"
	"spotube-downloader/internal/interfaces"
	"spotube-downloader/internal/shared"
)

const (
	// streamFormat selects the best audio-only stream, falling back to the best muxed one
	streamFormat      = "bestaudio/best"
	defaultRetryDelay = 2 * time.Second
)

// Acquirer drives one search-and-download invocation per track
type Acquirer struct {
	engine         interfaces.SearchEngine
	ffmpegLocation string
	maxRetries     int
	retryDelay     time.Duration
	logger         interfaces.LoggerService
}

// NewAcquirer creates an acquirer. maxRetries is the number of extra attempts after the first failure.
func NewAcquirer(engine interfaces.SearchEngine, cfg shared.RunConfiguration, logger interfaces.LoggerService) *Acquirer {
	retries := cfg.MaxRetryAttempts
	if retries < 0 {
		retries = 0
	}
	return &Acquirer{
		engine:         engine,
		ffmpegLocation: cfg.FFmpegLocation,
		maxRetries:     retries,
		retryDelay:     defaultRetryDelay,
		logger:         logger,
	}
}

// SetRetryDelay changes the wait between attempts
func (a *Acquirer) SetRetryDelay(d time.Duration) {
	a.retryDelay = d
}

// OutputTemplate turns a destination path without extension into an engine output template
func OutputTemplate(destination string) string {
	return strings.ReplaceAll(destination, "%", "%%") + ".%(ext)s"
}

// Acquire downloads the best match for query to destination (a path without extension)
// and returns the final transcoded file. Failures are *shared.DownloadError, or
// *shared.CancelledError when ctx ends first.
func (a *Acquirer) Acquire(ctx context.Context, query, destination string, chain shared.PostprocessChain, sink interfaces.ProgressSink) (string, error) {
	guard := newProgressGuard(sink, filepath.Base(destination))

	req := shared.DownloadRequest{
		Target:         matcher.SearchTarget(query),
		OutputTemplate: OutputTemplate(destination),
		Format:         streamFormat,
		NoPlaylist:     true,
		FFmpegLocation: a.ffmpegLocation,
		Chain:          chain,
		OnProgress:     guard.Emit,
	}

	// a file left by an earlier run must not pass for this run's result
	if err := removeStale(destination, chain.Codec); err != nil {
		return "", &shared.DownloadError{Query: query, Err: err}
	}
	started := time.Now()

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			a.debug("Retrying %q (attempt %d/%d)", query, attempt+1, a.maxRetries+1)
			select {
			case <-time.After(a.retryDelay):
			case <-ctx.Done():
				return "", &shared.CancelledError{Query: query, Err: ctx.Err()}
			}
		}
		if err := ctx.Err(); err != nil {
			return "", &shared.CancelledError{Query: query, Err: err}
		}

		lastErr = a.engine.Download(ctx, req)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return "", &shared.CancelledError{Query: query, Err: ctx.Err()}
		}
		a.debug("Download attempt %d failed for %q: %v", attempt+1, query, lastErr)
	}
	if lastErr != nil {
		return "", &shared.DownloadError{Query: query, Err: lastErr}
	}

	path, err := finalPath(destination, chain.Codec, started)
	if err != nil {
		return "", &shared.DownloadError{Query: query, Err: err}
	}

	guard.finish()
	return path, nil
}

// removeStale deletes the target file of a previous run
func removeStale(destination, codec string) error {
	if codec == "" {
		return nil
	}
	if err := os.Remove(destination + "." + codec); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove previous output: %w", err)
	}
	return nil
}

// finalPath locates the file the engine left behind after the transcode step.
// Without a codec the extension is unknown, so only files written since started count.
func finalPath(destination, codec string, started time.Time) (string, error) {
	if codec != "" {
		path := destination + "." + codec
		if shared.FileExists(path) {
			return path, nil
		}
		return "", shared.ErrNoMatch
	}
	matches, err := filepath.Glob(globEscape(destination) + ".*")
	if err != nil {
		return "", fmt.Errorf("failed to look for output file: %w", err)
	}
	// mtime resolution is one second on some filesystems
	since := started.Truncate(time.Second)
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() || info.ModTime().Before(since) {
			continue
		}
		return m, nil
	}
	return "", shared.ErrNoMatch
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

func (a *Acquirer) debug(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(format, args...)
	}
}

// progressGuard gives the sink exactly one finished event per track. The engine's
// own finished events only record the byte count; the sink's finished event is sent
// by finish once the output file is confirmed, so a failed attempt never reports it.
type progressGuard struct {
	mu         sync.Mutex
	sink       interfaces.ProgressSink
	label      string
	finished   bool
	downloaded int64
	total      *int64
}

func newProgressGuard(sink interfaces.ProgressSink, label string) *progressGuard {
	return &progressGuard{sink: sink, label: label}
}

// Emit forwards one engine event
func (g *progressGuard) Emit(event shared.ProgressEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished || g.sink == nil {
		return
	}
	event.Label = g.label
	if event.BytesTotal != nil {
		total := *event.BytesTotal
		g.total = &total
	} else if g.total != nil {
		event.BytesTotal = g.total
	}
	g.downloaded = event.BytesDownloaded
	if event.Phase == shared.PhaseFinished {
		return
	}
	g.sink.Emit(event)
}

func (g *progressGuard) finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished || g.sink == nil {
		return
	}
	g.finished = true
	downloaded := g.downloaded
	if g.total != nil && *g.total > downloaded {
		downloaded = *g.total
	}
	g.sink.Emit(shared.ProgressEvent{
		Phase:           shared.PhaseFinished,
		BytesDownloaded: downloaded,
		BytesTotal:      g.total,
		Label:           g.label,
	})
}
