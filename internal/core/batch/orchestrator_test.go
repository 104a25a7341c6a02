package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bogem/id3v2/v2"

	"spotube-downloader/internal/core/downloader"
	"spotube-downloader/internal/core/resolver"
	"spotube-downloader/internal/core/tagger"
	"spotube-downloader/internal/interfaces"
	"spotube-downloader/internal/shared"
)

type fakeCatalog struct {
	tracks    map[string]*shared.CatalogTrack
	playlists map[string][]shared.CatalogTrack
}

func (f *fakeCatalog) GetTrack(ctx context.Context, id string) (*shared.CatalogTrack, error) {
	if t, ok := f.tracks[id]; ok {
		return t, nil
	}
	return nil, errors.New("404 not found")
}

func (f *fakeCatalog) GetAlbum(ctx context.Context, id string) (*shared.CatalogAlbum, error) {
	return nil, errors.New("404 not found")
}

func (f *fakeCatalog) GetPlaylistTracks(ctx context.Context, id string) ([]shared.CatalogTrack, error) {
	if t, ok := f.playlists[id]; ok {
		return t, nil
	}
	return nil, errors.New("404 not found")
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracks: map[string]*shared.CatalogTrack{
			"ABC": {ID: "ABC", Name: "Song", Artists: []string{"Band"}, Album: &shared.CatalogAlbum{Name: "LP", Images: []string{"http://x/y.jpg"}}},
		},
		playlists: map[string][]shared.CatalogTrack{
			"PL": {
				{Name: "First", Artists: []string{"A"}},
				{Name: "Missing", Artists: []string{"B"}},
				{Name: "Third", Artists: []string{"C"}},
			},
		},
	}
}

// fakeEngine writes the transcoded file unless the query mentions "Missing"
type fakeEngine struct {
	mu      sync.Mutex
	targets []string
	delay   func(target string) time.Duration
}

func (f *fakeEngine) Download(ctx context.Context, req shared.DownloadRequest) error {
	f.mu.Lock()
	f.targets = append(f.targets, req.Target)
	f.mu.Unlock()

	if f.delay != nil {
		time.Sleep(f.delay(req.Target))
	}
	if strings.Contains(req.Target, "Missing") {
		return nil // no search result, nothing written
	}
	req.OnProgress(shared.ProgressEvent{Phase: shared.PhaseDownloading, BytesDownloaded: 5})
	path := strings.TrimSuffix(req.OutputTemplate, ".%(ext)s") + "." + req.Chain.Codec
	return os.WriteFile(path, []byte("fake mpeg audio frames"), 0644)
}

func (f *fakeEngine) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.targets)
}

type staticFetcher struct {
	calls int
}

func (f *staticFetcher) FetchCover(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, nil
}

type recordingReporter struct {
	mu     sync.Mutex
	events map[int][]shared.ProgressEvent
	sinks  int
	closed int
	stops  int
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{events: make(map[int][]shared.ProgressEvent)}
}

func (r *recordingReporter) NewSink(taskID int, label string) interfaces.ProgressSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks++
	return &recordingSink{r: r}
}

func (r *recordingReporter) Stop() { r.stops++ }

type recordingSink struct {
	r *recordingReporter
}

func (s *recordingSink) Emit(e shared.ProgressEvent) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.events[e.TaskID] = append(s.r.events[e.TaskID], e)
}

func (s *recordingSink) Close() {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.closed++
}

type pipeline struct {
	orchestrator *Orchestrator
	engine       *fakeEngine
	fetcher      *staticFetcher
	reporter     *recordingReporter
}

func newPipeline(engine *fakeEngine) *pipeline {
	fetcher := &staticFetcher{}
	reporter := newRecordingReporter()
	acquirer := downloader.NewAcquirer(engine, shared.RunConfiguration{}, nil)
	o := NewOrchestrator(
		resolver.NewResolver(newCatalog(), nil, nil),
		acquirer,
		tagger.NewTagger(fetcher, nil, nil),
		reporter,
		nil,
		nil,
	)
	return &pipeline{orchestrator: o, engine: engine, fetcher: fetcher, reporter: reporter}
}

func runConfig(dir string, parallelism int) shared.RunConfiguration {
	return shared.RunConfiguration{DownloadPath: dir, AudioFormat: "mp3", AudioQuality: "192", Parallelism: parallelism}
}

func TestRunSingleTrackScenario(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(&fakeEngine{})

	results, err := p.orchestrator.Run(context.Background(), []string{"track:ABC"}, runConfig(dir, 1))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Status != shared.StatusSucceeded {
		t.Fatalf("expected success, got %s: %v", r.Status, r.Err)
	}
	if !strings.HasSuffix(r.OutputPath, "Band - Song.mp3") {
		t.Errorf("unexpected output path %s", r.OutputPath)
	}
	if p.fetcher.calls != 1 {
		t.Errorf("expected one cover fetch, got %d", p.fetcher.calls)
	}

	tag, err := id3v2.Open(r.OutputPath, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("failed to open tag: %v", err)
	}
	defer tag.Close()
	if tag.Artist() != "Band" || tag.Title() != "Song" || tag.Album() != "LP" {
		t.Errorf("unexpected tags: %s / %s / %s", tag.Artist(), tag.Title(), tag.Album())
	}
	if len(tag.GetFrames(tag.CommonID("Attached picture"))) != 1 {
		t.Error("expected an embedded front cover")
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	for _, parallelism := range []int{1, 3} {
		t.Run(map[int]string{1: "sequential", 3: "pool"}[parallelism], func(t *testing.T) {
			engine := &fakeEngine{}
			if parallelism > 1 {
				// finish out of order
				engine.delay = func(target string) time.Duration {
					if strings.Contains(target, "First") {
						return 30 * time.Millisecond
					}
					return 0
				}
			}
			p := newPipeline(engine)

			results, err := p.orchestrator.Run(context.Background(), []string{"playlist:PL"}, runConfig(t.TempDir(), parallelism))
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if len(results) != 3 {
				t.Fatalf("expected 3 results, got %d", len(results))
			}

			wantTitles := []string{"First", "Missing", "Third"}
			for i, r := range results {
				if r.Descriptor.Title != wantTitles[i] {
					t.Errorf("result %d is %s, want %s", i, r.Descriptor.Title, wantTitles[i])
				}
			}
			if !results[0].Succeeded() || !results[2].Succeeded() {
				t.Errorf("expected tracks 1 and 3 to succeed: %+v", results)
			}
			var dlErr *shared.DownloadError
			if results[1].Succeeded() || !errors.As(results[1].Err, &dlErr) {
				t.Errorf("expected track 2 to fail with DownloadError, got %v", results[1].Err)
			}
			if results[1].OutputPath != "" {
				t.Errorf("failed track should have no output path")
			}
			if engine.calls() != 3 {
				t.Errorf("every track must be attempted, got %d calls", engine.calls())
			}

			stats := shared.SummarizeResults(results)
			if stats.SuccessCount != 2 || stats.FailedCount != 1 {
				t.Errorf("unexpected stats %+v", stats)
			}
		})
	}
}

func TestRunInvalidReferenceAborts(t *testing.T) {
	engine := &fakeEngine{}
	p := newPipeline(engine)

	results, err := p.orchestrator.Run(context.Background(), []string{"track:ABC", "spotify:foo"}, runConfig(t.TempDir(), 1))
	var invalid *shared.InvalidReferenceError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidReferenceError, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected zero results, got %d", len(results))
	}
	if engine.calls() != 0 {
		t.Errorf("no track may be downloaded after a fatal resolve error, got %d calls", engine.calls())
	}
}

func TestRunCatalogErrorAborts(t *testing.T) {
	p := newPipeline(&fakeEngine{})

	_, err := p.orchestrator.Run(context.Background(), []string{"track:NOPE"}, runConfig(t.TempDir(), 1))
	var catalogErr *shared.CatalogError
	if !errors.As(err, &catalogErr) {
		t.Fatalf("expected CatalogError, got %v", err)
	}
	if !shared.IsFatal(err) {
		t.Error("catalog errors are fatal")
	}
}

type failingTagger struct {
	*tagger.Tagger
}

func (f failingTagger) Tag(ctx context.Context, path string, d shared.TrackDescriptor, format string) error {
	return &shared.TagError{Path: path, Err: errors.New("read-only file system")}
}

func TestRunTagFailureKeepsSuccess(t *testing.T) {
	engine := &fakeEngine{}
	o := NewOrchestrator(
		resolver.NewResolver(newCatalog(), nil, nil),
		downloader.NewAcquirer(engine, shared.RunConfiguration{}, nil),
		failingTagger{tagger.NewTagger(nil, nil, nil)},
		nil,
		shared.NewWarningCollector(true),
		nil,
	)

	results, err := o.Run(context.Background(), []string{"track:ABC"}, runConfig(t.TempDir(), 1))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	r := results[0]
	if !r.Succeeded() {
		t.Fatalf("tag failure must not demote the download: %+v", r)
	}
	if r.OutputPath == "" || !shared.FileExists(r.OutputPath) {
		t.Errorf("expected a valid output path, got %q", r.OutputPath)
	}
	var tagErr *shared.TagError
	if !errors.As(r.TagErr, &tagErr) {
		t.Errorf("expected TagErr to be recorded, got %v", r.TagErr)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(&fakeEngine{})

	for i := 0; i < 2; i++ {
		if _, err := p.orchestrator.Run(context.Background(), []string{"track:ABC", "playlist:PL"}, runConfig(dir, 1)); err != nil {
			t.Fatalf("run %d failed: %v", i+1, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"A - First.mp3", "Band - Song.mp3", "C - Third.mp3"}
	if len(names) != len(want) {
		t.Fatalf("expected files %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("file %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestRunProgressIdentity(t *testing.T) {
	p := newPipeline(&fakeEngine{})

	if _, err := p.orchestrator.Run(context.Background(), []string{"playlist:PL"}, runConfig(t.TempDir(), 2)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	r := p.reporter
	if r.sinks != 3 || r.closed != 3 {
		t.Errorf("expected 3 sinks opened and closed, got %d/%d", r.sinks, r.closed)
	}
	if r.stops != 1 {
		t.Errorf("expected reporter to be stopped once, got %d", r.stops)
	}
	for _, id := range []int{0, 2} {
		events := r.events[id]
		if len(events) == 0 || events[len(events)-1].Phase != shared.PhaseFinished {
			t.Errorf("task %d should end with a finished event: %+v", id, events)
		}
		for _, e := range events {
			if e.TaskID != id {
				t.Errorf("event for task %d carries id %d", id, e.TaskID)
			}
		}
	}
	for _, e := range r.events[1] {
		if e.Phase == shared.PhaseFinished {
			t.Error("failed track must not report finished")
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := &fakeEngine{}
	p := newPipeline(engine)

	results, err := p.orchestrator.Run(ctx, []string{"playlist:PL"}, runConfig(t.TempDir(), 1))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, r := range results {
		var cancelled *shared.CancelledError
		if !errors.As(r.Err, &cancelled) {
			t.Errorf("result %d: expected CancelledError, got %v", i, r.Err)
		}
	}
	if engine.calls() != 0 {
		t.Errorf("cancelled run should not call the engine, got %d", engine.calls())
	}
}

func TestRenderSummary(t *testing.T) {
	results := []shared.AcquisitionResult{
		{Descriptor: shared.TrackDescriptor{Artist: "Band", Title: "Song"}, Status: shared.StatusSucceeded, OutputPath: "/music/Band - Song.mp3"},
		{Descriptor: shared.TrackDescriptor{Artist: "B", Title: "Missing"}, Status: shared.StatusFailed, Err: &shared.DownloadError{Query: "q", Err: shared.ErrNoMatch}},
	}

	var buf bytes.Buffer
	RenderSummary(&buf, results)
	out := buf.String()
	for _, want := range []string{"Band - Song.mp3", "no match", "B - Missing"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
