package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"spotube-downloader/internal/config"
	"spotube-downloader/internal/services"
	"spotube-downloader/internal/shared"
)

const toolVersion = "1.0.0"

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand creates the root command with all subcommands
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "spotube-downloader",
		Version: toolVersion,
		Short:   "Download Spotify tracks, albums and playlists by matching them on YouTube.",
		Long: fmt.Sprintf(`Spotube Downloader (v%s)

Turns Spotify track, album and playlist links into a folder of tagged audio files.
Each track is looked up on Spotify, matched on YouTube with yt-dlp, transcoded with
ffmpeg to mp3, m4a, flac or wav, and tagged with artist, title, album and cover art.

Run without arguments for the interactive mode.`, toolVersion),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return runDownloadCommand(cmd, args)
			}
			return runInteractiveCommand(cmd, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", config.DefaultConfigFile, "Path to the configuration file")
	flags.Bool("debug", false, "Enable debug logging")
	flags.StringP("output", "o", "", "Directory to save downloads")
	flags.StringP("format", "f", "", "Target format (mp3, m4a, flac, wav)")
	flags.String("quality", "", "Transcode quality in kbps for lossy formats")
	flags.String("ffmpeg-location", "", "Path to ffmpeg or the folder containing it")
	flags.IntP("parallel", "p", 0, "Number of tracks to download at once")
	flags.String("warnings", "", "Show warnings immediately or as a summary (immediate, summary)")

	cmd.AddCommand(NewDownloadCommand())
	cmd.AddCommand(NewInteractiveCommand())

	return cmd
}

// initConfigAndServices loads the config file (creating it on first run),
// applies flag overrides and builds the service container.
func initConfigAndServices(cmd *cobra.Command) (*config.Config, *services.ServiceContainer, bool, error) {
	shared.InitializeColors()

	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")
	debug, _ := flags.GetBool("debug")
	debug = debug || shared.IsDebugMode()

	configService := services.NewConfigService()
	if !shared.FileExists(configFile) {
		shared.ColorInfo.Println("✨ Welcome to Spotube Downloader! Creating a default configuration.")
		if err := configService.EnsureConfigExists(configFile); err != nil {
			shared.ColorError.Printf("❌ Failed to save initial config: %v\n", err)
		} else {
			shared.ColorSuccess.Println("✅ Configuration saved to", configFile)
		}
	}

	cfg, err := configService.LoadConfig(configFile)
	if err != nil {
		shared.ColorWarning.Printf("⚠️ Failed to load config from %s: %v. Using defaults.\n", configFile, err)
		cfg = configService.GetDefaultConfig()
		cfg.ApplyEnv()
	} else {
		shared.DebugPrint(debug, "Loaded configuration from %s", configFile)
	}

	// Command-line flags override config file
	if flags.Changed("output") {
		cfg.DownloadLocation, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("quality") {
		cfg.AudioQuality, _ = flags.GetString("quality")
	}
	if flags.Changed("ffmpeg-location") {
		cfg.FFmpegLocation, _ = flags.GetString("ffmpeg-location")
	}
	if flags.Changed("parallel") {
		cfg.Parallelism, _ = flags.GetInt("parallel")
	}
	if flags.Changed("warnings") {
		cfg.WarningBehavior, _ = flags.GetString("warnings")
	}

	if err := configService.ValidateConfig(cfg); err != nil {
		return nil, nil, debug, fmt.Errorf("invalid configuration: %w", err)
	}

	if !cfg.HasSpotifyCredentials() {
		if err := promptCredentials(cfg); err != nil {
			return nil, nil, debug, err
		}
		if err := configService.SaveConfig(configFile, cfg); err != nil {
			shared.ColorWarning.Printf("⚠️ Could not save credentials: %v\n", err)
		}
	}

	return cfg, services.NewServiceContainer(cfg, debug), debug, nil
}
