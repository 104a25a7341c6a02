package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"spotube-downloader/internal/config"
	"spotube-downloader/internal/core/batch"
	"spotube-downloader/internal/core/downloader"
	"spotube-downloader/internal/services"
	"spotube-downloader/internal/shared"
)

// signalContext cancels the batch on Ctrl+C
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// prepareTools makes sure ffmpeg is reachable and yt-dlp is installed
func prepareTools(ctx context.Context, cfg *config.Config, container *services.ServiceContainer, debug bool) error {
	if !downloader.CheckFFmpeg(cfg.FFmpegLocation) {
		shared.ColorError.Println("❌ ffmpeg was not found.")
		printInstallInstructions()
		return errors.New("ffmpeg is required to transcode downloads")
	}
	shared.DebugPrint(debug, "ffmpeg found")

	container.Logger.Info("🔧 Checking yt-dlp...")
	if err := container.Engine.Install(ctx); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

func printInstallInstructions() {
	shared.ColorWarning.Println(downloader.InstallInstructions())
}

// runBatch runs one batch and prints its summary. Only errors that abort the
// whole batch are returned; per-track failures are reported in the summary.
func runBatch(ctx context.Context, cfg *config.Config, container *services.ServiceContainer, refs []string) error {
	if len(refs) == 0 {
		return errors.New("no references given")
	}
	if err := shared.CreateDirIfNotExists(cfg.DownloadLocation); err != nil {
		return fmt.Errorf("failed to create download folder %s: %w", cfg.DownloadLocation, err)
	}

	results, err := container.Orchestrator.Run(ctx, refs, cfg.RunConfig())
	if err != nil {
		var invalid *shared.InvalidReferenceError
		if errors.As(err, &invalid) {
			shared.ColorInfo.Println("Use a Spotify track, album or playlist URL, e.g. https://open.spotify.com/track/<id>")
		}
		if shared.IsFatal(err) {
			return fmt.Errorf("nothing was downloaded: %w", err)
		}
		return err
	}

	printSummary(results)

	if cfg.WarningBehavior == config.WarningsSummary && container.WarningCollector.HasWarnings() {
		container.WarningCollector.PrintSummary()
	}
	container.WarningCollector.Reset()

	if ctx.Err() == nil && len(results) > 0 {
		container.RescanLibrary(ctx, cfg.NavidromeURL)
	}
	return nil
}

func printSummary(results []shared.AcquisitionResult) {
	if len(results) == 0 {
		return
	}
	fmt.Println()
	batch.RenderSummary(os.Stdout, results)

	stats := shared.SummarizeResults(results)
	shared.ColorTitle.Println("\n=== Download Summary ===")
	shared.ColorSuccess.Printf("✅ Successfully downloaded: %d tracks\n", stats.SuccessCount)
	if stats.TagWarnings > 0 {
		shared.ColorWarning.Printf("⚠️ Downloaded without full tags: %d tracks\n", stats.TagWarnings)
	}
	if stats.FailedCount > 0 {
		shared.ColorError.Printf("❌ Failed downloads: %d tracks\n", stats.FailedCount)
		for i, item := range stats.FailedItems {
			shared.ColorError.Printf("  %d. %s\n", i+1, item)
		}
	}
}
