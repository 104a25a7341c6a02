package downloader

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"

	"spotube-downloader/internal/interfaces"
	"spotube-downloader/internal/shared"
)

const barTemplate = `{{ string . "prefix" }} {{ bar . }} {{ percent . }} | {{ speed . "%s/s" }} | ETA {{ rtime . "%s" }}`

// BarReporter renders one progress bar per track. With parallelism above one the
// bars share a pool so concurrent tracks redraw on their own lines.
type BarReporter struct {
	mu      sync.Mutex
	pooled  bool
	pool    *pb.Pool
	writer  io.Writer
	enabled bool
}

// NewBarReporter creates a reporter; when enabled is false sinks discard events
func NewBarReporter(parallelism int, enabled bool) *BarReporter {
	return &BarReporter{
		pooled:  parallelism > 1,
		writer:  os.Stdout,
		enabled: enabled,
	}
}

// NewSink creates the progress task for one track
func (r *BarReporter) NewSink(taskID int, label string) interfaces.ProgressSink {
	if !r.enabled {
		return nopSink{}
	}

	bar := pb.New64(0)
	bar.SetTemplateString(barTemplate)
	bar.Set("prefix", fmt.Sprintf("Track %-3d: %-40s", taskID+1, shared.TruncateString(label, 40)))
	bar.Set(pb.Bytes, true)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pooled {
		if r.pool == nil {
			pool, err := pb.StartPool()
			if err != nil {
				// fall back to plain bars
				r.pooled = false
			} else {
				r.pool = pool
			}
		}
		if r.pool != nil {
			r.pool.Add(bar)
			return &barSink{bar: bar}
		}
	}
	bar.SetWriter(r.writer)
	bar.Start()
	return &barSink{bar: bar}
}

// Stop stops the shared pool, if any
func (r *BarReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		r.pool.Stop()
		r.pool = nil
	}
}

type barSink struct {
	mu     sync.Mutex
	bar    *pb.ProgressBar
	closed bool
}

func (s *barSink) Emit(event shared.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if event.BytesTotal != nil {
		s.bar.SetTotal(*event.BytesTotal)
	}
	s.bar.SetCurrent(event.BytesDownloaded)
	if event.Phase == shared.PhaseFinished {
		if event.BytesTotal == nil {
			s.bar.SetTotal(event.BytesDownloaded)
		}
		s.bar.Finish()
		s.closed = true
	}
}

func (s *barSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.bar.Finish()
		s.closed = true
	}
}

type nopSink struct{}

func (nopSink) Emit(shared.ProgressEvent) {}
func (nopSink) Close()                    {}
