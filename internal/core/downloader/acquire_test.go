package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"spotube-downloader/internal/shared"
)

// fakeEngine writes the expected output file and replays scripted progress events
type fakeEngine struct {
	mu       sync.Mutex
	requests []shared.DownloadRequest
	events   []shared.ProgressEvent
	failures int  // number of leading calls that fail
	late     bool // failing calls replay the events before returning the error
	noFile   bool
	ext      string // extension written when the chain has no codec
	calls    int
}

func (f *fakeEngine) Download(ctx context.Context, req shared.DownloadRequest) error {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	failing := call <= f.failures
	if failing && !f.late {
		return errors.New("HTTP Error 403: Forbidden")
	}
	for _, e := range f.events {
		req.OnProgress(e)
	}
	if failing {
		return errors.New("ERROR: Postprocessing: audio conversion failed")
	}
	if f.noFile {
		return nil
	}
	ext := req.Chain.Codec
	if ext == "" {
		ext = f.ext
	}
	path := strings.TrimSuffix(req.OutputTemplate, ".%(ext)s")
	path = strings.ReplaceAll(path, "%%", "%") + "." + ext
	return os.WriteFile(path, []byte("audio"), 0644)
}

type recordingSink struct {
	mu     sync.Mutex
	events []shared.ProgressEvent
	closed bool
}

func (s *recordingSink) Emit(e shared.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) Close() { s.closed = true }

func (s *recordingSink) finishedCount() int {
	n := 0
	for _, e := range s.events {
		if e.Phase == shared.PhaseFinished {
			n++
		}
	}
	return n
}

func int64Ptr(v int64) *int64 { return &v }

func newTestAcquirer(engine *fakeEngine, retries int) *Acquirer {
	a := NewAcquirer(engine, shared.RunConfiguration{MaxRetryAttempts: retries, FFmpegLocation: "/opt/ffmpeg"}, nil)
	a.SetRetryDelay(time.Millisecond)
	return a
}

func mp3Chain() shared.PostprocessChain {
	return shared.PostprocessChain{Codec: "mp3", Quality: "192"}
}

func TestAcquireBuildsRequest(t *testing.T) {
	engine := &fakeEngine{}
	dest := filepath.Join(t.TempDir(), "Band - Song")

	path, err := newTestAcquirer(engine, 0).Acquire(context.Background(), "Band - Song audio", dest, mp3Chain(), &recordingSink{})
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if path != dest+".mp3" {
		t.Errorf("expected %s.mp3, got %s", dest, path)
	}

	req := engine.requests[0]
	if req.Target != "ytsearch1:Band - Song audio" {
		t.Errorf("unexpected target %q", req.Target)
	}
	if !req.NoPlaylist {
		t.Error("playlist traversal must be disabled")
	}
	if req.Format != "bestaudio/best" {
		t.Errorf("unexpected format %q", req.Format)
	}
	if req.OutputTemplate != dest+".%(ext)s" {
		t.Errorf("unexpected template %q", req.OutputTemplate)
	}
	if req.FFmpegLocation != "/opt/ffmpeg" {
		t.Errorf("ffmpeg location not passed: %q", req.FFmpegLocation)
	}
	if req.Chain.Codec != "mp3" {
		t.Errorf("chain not passed: %+v", req.Chain)
	}
}

func TestOutputTemplateEscapesPercent(t *testing.T) {
	if got := OutputTemplate("/music/100% Band - Song"); got != "/music/100%% Band - Song.%(ext)s" {
		t.Errorf("OutputTemplate() = %q", got)
	}
}

func TestAcquireProgressContract(t *testing.T) {
	tests := []struct {
		name   string
		events []shared.ProgressEvent
	}{
		{"no events", nil},
		{"downloading only", []shared.ProgressEvent{
			{Phase: shared.PhaseDownloading, BytesDownloaded: 10},
			{Phase: shared.PhaseDownloading, BytesDownloaded: 50, BytesTotal: int64Ptr(100)},
		}},
		{"duplicate finished", []shared.ProgressEvent{
			{Phase: shared.PhaseDownloading, BytesDownloaded: 50, BytesTotal: int64Ptr(100)},
			{Phase: shared.PhaseFinished, BytesDownloaded: 100, BytesTotal: int64Ptr(100)},
			{Phase: shared.PhaseFinished, BytesDownloaded: 100, BytesTotal: int64Ptr(100)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{events: tt.events}
			sink := &recordingSink{}
			dest := filepath.Join(t.TempDir(), "Band - Song")

			if _, err := newTestAcquirer(engine, 0).Acquire(context.Background(), "q", dest, mp3Chain(), sink); err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
			if got := sink.finishedCount(); got != 1 {
				t.Fatalf("expected exactly one finished event, got %d", got)
			}
			last := sink.events[len(sink.events)-1]
			if last.Phase != shared.PhaseFinished {
				t.Errorf("finished must be the last event, got %s", last.Phase)
			}
			for _, e := range sink.events {
				if e.Label != "Band - Song" {
					t.Errorf("event carries label %q", e.Label)
				}
			}
		})
	}
}

func TestAcquireKeepsKnownTotal(t *testing.T) {
	engine := &fakeEngine{events: []shared.ProgressEvent{
		{Phase: shared.PhaseDownloading, BytesDownloaded: 10, BytesTotal: int64Ptr(100)},
		{Phase: shared.PhaseDownloading, BytesDownloaded: 20},
	}}
	sink := &recordingSink{}

	if _, err := newTestAcquirer(engine, 0).Acquire(context.Background(), "q", filepath.Join(t.TempDir(), "x"), mp3Chain(), sink); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if sink.events[1].BytesTotal == nil || *sink.events[1].BytesTotal != 100 {
		t.Errorf("total should carry over once known, got %v", sink.events[1].BytesTotal)
	}
	if sink.events[0].BytesTotal == nil || *sink.events[0].BytesTotal != 100 {
		t.Errorf("first event total lost")
	}
}

func TestAcquireNoMatch(t *testing.T) {
	engine := &fakeEngine{noFile: true}
	sink := &recordingSink{}

	_, err := newTestAcquirer(engine, 0).Acquire(context.Background(), "nothing", filepath.Join(t.TempDir(), "x"), mp3Chain(), sink)
	var dlErr *shared.DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if !errors.Is(err, shared.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch in chain, got %v", err)
	}
	if sink.finishedCount() != 0 {
		t.Error("failed track must not report finished")
	}
}

func TestAcquireRetries(t *testing.T) {
	engine := &fakeEngine{failures: 1}

	if _, err := newTestAcquirer(engine, 1).Acquire(context.Background(), "q", filepath.Join(t.TempDir(), "x"), mp3Chain(), nil); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if engine.calls != 2 {
		t.Errorf("expected 2 calls, got %d", engine.calls)
	}
}

func TestAcquireGivesUpAfterRetries(t *testing.T) {
	engine := &fakeEngine{failures: 5}

	_, err := newTestAcquirer(engine, 2).Acquire(context.Background(), "q", filepath.Join(t.TempDir(), "x"), mp3Chain(), nil)
	var dlErr *shared.DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if dlErr.Query != "q" {
		t.Errorf("expected query in error, got %q", dlErr.Query)
	}
	if engine.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", engine.calls)
	}
}

func TestAcquireCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAcquirer(&fakeEngine{}, 0).Acquire(ctx, "q", filepath.Join(t.TempDir(), "x"), mp3Chain(), nil)
	var cancelled *shared.CancelledError
	if !errors.As(err, &cancelled) {
		t.Fatalf("expected CancelledError, got %v", err)
	}
	var dlErr *shared.DownloadError
	if errors.As(err, &dlErr) {
		t.Error("cancellation must not be reported as a download error")
	}
}

func TestAcquireWithoutCodecFindsFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Band - Song")
	engine := &fakeEngine{ext: "webm"}

	path, err := newTestAcquirer(engine, 0).Acquire(context.Background(), "q", dest, shared.PostprocessChain{}, nil)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if path != dest+".webm" {
		t.Errorf("expected webm file, got %s", path)
	}
}

func TestAcquireIgnoresPreviousRunOutput(t *testing.T) {
	tests := []struct {
		name  string
		chain shared.PostprocessChain
		ext   string
	}{
		{"with codec", mp3Chain(), "mp3"},
		{"without codec", shared.PostprocessChain{}, "webm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "Band - Song")
			stale := dest + "." + tt.ext
			if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
				t.Fatal(err)
			}
			old := time.Now().Add(-time.Hour)
			if err := os.Chtimes(stale, old, old); err != nil {
				t.Fatal(err)
			}

			_, err := newTestAcquirer(&fakeEngine{noFile: true}, 0).Acquire(context.Background(), "q", dest, tt.chain, nil)
			if !errors.Is(err, shared.ErrNoMatch) {
				t.Fatalf("expected ErrNoMatch when the engine wrote nothing, got %v", err)
			}
		})
	}
}

func TestAcquireRetryAfterLateFailure(t *testing.T) {
	events := []shared.ProgressEvent{
		{Phase: shared.PhaseDownloading, BytesDownloaded: 50, BytesTotal: int64Ptr(100)},
		{Phase: shared.PhaseFinished, BytesDownloaded: 100, BytesTotal: int64Ptr(100)},
	}

	t.Run("every attempt fails", func(t *testing.T) {
		engine := &fakeEngine{events: events, failures: 2, late: true}
		sink := &recordingSink{}

		_, err := newTestAcquirer(engine, 1).Acquire(context.Background(), "q", filepath.Join(t.TempDir(), "x"), mp3Chain(), sink)
		var dlErr *shared.DownloadError
		if !errors.As(err, &dlErr) {
			t.Fatalf("expected DownloadError, got %v", err)
		}
		if engine.calls != 2 {
			t.Errorf("expected 2 attempts, got %d", engine.calls)
		}
		if sink.finishedCount() != 0 {
			t.Error("failed track must not report finished")
		}
		if len(sink.events) != 2 {
			t.Errorf("expected the downloading event of both attempts, got %d events", len(sink.events))
		}
	})

	t.Run("second attempt succeeds", func(t *testing.T) {
		engine := &fakeEngine{events: events, failures: 1, late: true}
		sink := &recordingSink{}

		if _, err := newTestAcquirer(engine, 1).Acquire(context.Background(), "q", filepath.Join(t.TempDir(), "x"), mp3Chain(), sink); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if sink.finishedCount() != 1 {
			t.Errorf("expected exactly one finished event, got %d", sink.finishedCount())
		}
		last := sink.events[len(sink.events)-1]
		if last.Phase != shared.PhaseFinished || last.BytesDownloaded != 100 {
			t.Errorf("unexpected final event %+v", last)
		}
		if len(sink.events) != 3 {
			t.Errorf("expected 2 downloading events and 1 finished, got %d events", len(sink.events))
		}
	})
}
