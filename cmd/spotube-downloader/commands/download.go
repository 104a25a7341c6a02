package commands

import (
	"github.com/spf13/cobra"

	"spotube-downloader/internal/shared"
)

// NewDownloadCommand creates the non-interactive download command
func NewDownloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "download [reference...]",
		Short: "Download Spotify tracks, albums or playlists.",
		Long: `Download one or more Spotify references. A reference may be a URL
(https://open.spotify.com/album/...), a URI (spotify:track:...) or kind:id.
Comma separated lists are accepted as well.`,
		Example: `  spotube-downloader download https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC
  spotube-downloader download -f flac -o ~/Music playlist:37i9dQZF1DXcBWIGoYBM5M`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDownloadCommand,
	}
}

func runDownloadCommand(cmd *cobra.Command, args []string) error {
	cfg, container, debug, err := initConfigAndServices(cmd)
	if err != nil {
		return err
	}

	refs := shared.SplitReferences(args...)
	ctx, stop := signalContext()
	defer stop()

	if err := prepareTools(ctx, cfg, container, debug); err != nil {
		return err
	}
	return runBatch(ctx, cfg, container, refs)
}
