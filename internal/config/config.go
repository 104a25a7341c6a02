package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"spotube-downloader/internal/shared"
)

const (
	DefaultConfigFile   = "config.json"
	DefaultFormat       = shared.FormatMP3
	DefaultAudioQuality = "192"
	DefaultParallelism  = 1
	DefaultCoverTimeout = 10 // seconds
	DefaultMaxRetries   = 1
)

// Environment variables that override the stored Spotify credentials
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
)

// Warning display modes
const (
	WarningsImmediate = "immediate"
	WarningsSummary   = "summary"
)

// Configuration structure
type Config struct {
	DownloadLocation    string `json:"DownloadLocation"`
	Format              string `json:"Format"`
	AudioQuality        string `json:"AudioQuality"` // passed to the transcoder, kbps for lossy codecs
	FFmpegLocation      string `json:"FFmpegLocation"`
	Parallelism         int    `json:"Parallelism"`
	SpotifyClientID     string `json:"SpotifyClientID"`
	SpotifyClientSecret string `json:"SpotifyClientSecret"`
	NavidromeURL        string `json:"NavidromeURL"`
	NavidromeUsername   string `json:"NavidromeUsername"`
	NavidromePassword   string `json:"NavidromePassword"`
	CoverTimeoutSeconds int    `json:"CoverTimeoutSeconds"`
	MaxRetryAttempts    int    `json:"MaxRetryAttempts"`
	WarningBehavior     string `json:"WarningBehavior"` // "immediate" or "summary"
}

// DefaultConfig returns the configuration written on first run
func DefaultConfig() *Config {
	return &Config{
		DownloadLocation:    filepath.Join(homeDir(), "Music"),
		Format:              DefaultFormat,
		AudioQuality:        DefaultAudioQuality,
		Parallelism:         DefaultParallelism,
		CoverTimeoutSeconds: DefaultCoverTimeout,
		MaxRetryAttempts:    DefaultMaxRetries,
		WarningBehavior:     WarningsSummary,
	}
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// ApplyDefaults fills zero values left by older or hand-edited config files
func (cfg *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if cfg.DownloadLocation == "" {
		cfg.DownloadLocation = defaults.DownloadLocation
	}
	if cfg.Format == "" {
		cfg.Format = defaults.Format
	}
	if cfg.AudioQuality == "" {
		cfg.AudioQuality = defaults.AudioQuality
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaults.Parallelism
	}
	if cfg.CoverTimeoutSeconds <= 0 {
		cfg.CoverTimeoutSeconds = defaults.CoverTimeoutSeconds
	}
	if cfg.MaxRetryAttempts < 0 {
		cfg.MaxRetryAttempts = defaults.MaxRetryAttempts
	}
	if cfg.WarningBehavior == "" {
		cfg.WarningBehavior = defaults.WarningBehavior
	}
}

// ApplyEnv lets SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET override the stored credentials
func (cfg *Config) ApplyEnv() {
	if v := os.Getenv(EnvSpotifyClientID); v != "" {
		cfg.SpotifyClientID = v
	}
	if v := os.Getenv(EnvSpotifyClientSecret); v != "" {
		cfg.SpotifyClientSecret = v
	}
}

// Validate checks the settings a batch depends on
func (cfg *Config) Validate() error {
	if cfg.DownloadLocation == "" {
		return fmt.Errorf("download location is required")
	}
	if !shared.IsSupportedFormat(cfg.Format) {
		return fmt.Errorf("unsupported format %q (choose one of %v)", cfg.Format, shared.SupportedFormats)
	}
	if q, err := strconv.Atoi(cfg.AudioQuality); err != nil || q <= 0 {
		return fmt.Errorf("invalid audio quality %q: must be a positive number", cfg.AudioQuality)
	}
	if cfg.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", cfg.Parallelism)
	}
	if cfg.WarningBehavior != WarningsImmediate && cfg.WarningBehavior != WarningsSummary {
		return fmt.Errorf("unknown warning behavior %q", cfg.WarningBehavior)
	}
	return nil
}

// HasSpotifyCredentials reports whether both client credentials are set
func (cfg *Config) HasSpotifyCredentials() bool {
	return cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != ""
}

// HasNavidrome reports whether a media server rescan is configured
func (cfg *Config) HasNavidrome() bool {
	return cfg.NavidromeURL != "" && cfg.NavidromeUsername != ""
}

// RunConfig derives the per-batch run configuration
func (cfg *Config) RunConfig() shared.RunConfiguration {
	return shared.RunConfiguration{
		DownloadPath:     cfg.DownloadLocation,
		AudioFormat:      cfg.Format,
		AudioQuality:     cfg.AudioQuality,
		FFmpegLocation:   cfg.FFmpegLocation,
		Parallelism:      cfg.Parallelism,
		CoverTimeout:     time.Duration(cfg.CoverTimeoutSeconds) * time.Second,
		MaxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a JSON file
func SaveConfig(filePath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(filePath)
	if err := shared.CreateDirIfNotExists(dir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
