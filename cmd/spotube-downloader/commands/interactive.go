package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"spotube-downloader/internal/shared"
)

// NewInteractiveCommand creates the prompt-driven download loop
func NewInteractiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for references, folder and format, then download.",
		Args:  cobra.NoArgs,
		RunE:  runInteractiveCommand,
	}
}

func runInteractiveCommand(cmd *cobra.Command, args []string) error {
	cfg, container, debug, err := initConfigAndServices(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	shared.ColorTitle.Println("🎧 Spotify → YouTube Downloader")
	if err := prepareTools(ctx, cfg, container, debug); err != nil {
		return err
	}

	for {
		refs, err := promptReferences()
		if err != nil {
			return quietInterrupt(err)
		}
		if len(refs) == 0 {
			container.Logger.Warning("No references entered")
		} else {
			folder, err := promptFolder(cfg.DownloadLocation)
			if err != nil {
				return quietInterrupt(err)
			}
			format, err := promptFormat(cfg.Format)
			if err != nil {
				return quietInterrupt(err)
			}

			batchCfg := *cfg
			batchCfg.DownloadLocation = folder
			batchCfg.Format = format
			if err := runBatch(ctx, &batchCfg, container, refs); err != nil {
				return err
			}
		}

		if ctx.Err() != nil {
			return nil
		}
		more, err := promptContinue()
		if err != nil {
			return quietInterrupt(err)
		}
		if !more {
			shared.ColorInfo.Println("👋 Exiting...")
			return nil
		}
		container.WarningCollector.Reset()
	}
}

// quietInterrupt turns a Ctrl+C at a prompt into a normal exit
func quietInterrupt(err error) error {
	if errors.Is(err, errInterrupted) {
		shared.ColorInfo.Println("\n👋 Exiting...")
		return nil
	}
	return err
}
