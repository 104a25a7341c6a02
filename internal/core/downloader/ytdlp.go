package downloader

import (
	"context"
	"fmt"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/lrstanley/go-ytdlp"

	"spotube-downloader/internal/shared"
)

const progressInterval = 500 * time.Millisecond

// YTDLPEngine runs searches and downloads through the yt-dlp binary
type YTDLPEngine struct {
	debug bool
}

// NewYTDLPEngine creates the engine
func NewYTDLPEngine(debug bool) *YTDLPEngine {
	return &YTDLPEngine{debug: debug}
}

// Install makes sure a yt-dlp binary is available, downloading one into the
// user cache when none is found on the PATH.
func (e *YTDLPEngine) Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

// Download runs one yt-dlp invocation with the transcode and metadata steps chained onto it
func (e *YTDLPEngine) Download(ctx context.Context, req shared.DownloadRequest) error {
	cmd := ytdlp.New().
		Format(req.Format).
		Output(req.OutputTemplate).
		ForceOverwrites()

	if req.NoPlaylist {
		cmd = cmd.NoPlaylist()
	}
	if req.FFmpegLocation != "" {
		cmd = cmd.FFmpegLocation(req.FFmpegLocation)
	}
	if req.Chain.Codec != "" {
		cmd = cmd.ExtractAudio().AudioFormat(req.Chain.Codec)
		if req.Chain.Quality != "" {
			cmd = cmd.AudioQuality(req.Chain.Quality)
		}
	}
	if len(req.Chain.Metadata) > 0 {
		cmd = cmd.EmbedMetadata().PostProcessorArgs("Metadata+ffmpeg_o:" + metadataArgs(req.Chain.Metadata))
	}
	if req.OnProgress != nil {
		cmd = cmd.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			if event, ok := progressEvent(update); ok {
				req.OnProgress(event)
			}
		})
	}

	shared.DebugPrint(e.debug, "yt-dlp %s -> %s", req.Target, req.OutputTemplate)
	if _, err := cmd.Run(ctx, req.Target); err != nil {
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	return nil
}

// metadataArgs renders the container tags as ffmpeg output options
func metadataArgs(fields []shared.MetadataField) string {
	args := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, "-metadata", f.Key+"="+f.Value)
	}
	return shellquote.Join(args...)
}

// progressEvent maps a yt-dlp progress update; ok is false for phases the sink does not track
func progressEvent(update ytdlp.ProgressUpdate) (shared.ProgressEvent, bool) {
	var phase shared.ProgressPhase
	switch update.Status {
	case ytdlp.ProgressStatusDownloading:
		phase = shared.PhaseDownloading
	case ytdlp.ProgressStatusFinished:
		phase = shared.PhaseFinished
	default:
		return shared.ProgressEvent{}, false
	}

	event := shared.ProgressEvent{
		Phase:           phase,
		BytesDownloaded: int64(update.DownloadedBytes),
	}
	if update.TotalBytes > 0 {
		total := int64(update.TotalBytes)
		event.BytesTotal = &total
	}
	return event, true
}
