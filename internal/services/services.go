package services

import (
	"context"
	"fmt"

	"spotube-downloader/internal/api/navidrome"
	"spotube-downloader/internal/api/spotify"
	"spotube-downloader/internal/config"
	"spotube-downloader/internal/core/batch"
	"spotube-downloader/internal/core/downloader"
	"spotube-downloader/internal/core/resolver"
	"spotube-downloader/internal/core/tagger"
	"spotube-downloader/internal/interfaces"
	"spotube-downloader/internal/shared"
)

// ServiceContainer holds all application services
type ServiceContainer struct {
	Config           interfaces.ConfigService
	Catalog          interfaces.CatalogService
	Resolver         interfaces.ReferenceResolver
	Engine           *downloader.YTDLPEngine
	Acquirer         interfaces.AcquisitionEngine
	Postprocessor    interfaces.Postprocessor
	Progress         interfaces.ProgressReporter
	Library          interfaces.LibraryService // nil when no media server is configured
	Logger           interfaces.LoggerService
	WarningCollector interfaces.WarningCollectorService
	Orchestrator     *batch.Orchestrator
}

// NewServiceContainer creates a new service container with all services initialized
func NewServiceContainer(cfg *config.Config, debug bool) *ServiceContainer {
	// Create logger first as other services may need it
	logger := NewConsoleLogger()
	logger.SetDebugMode(debug)

	var warnings interfaces.WarningCollectorService = shared.NewWarningCollector(true)
	if cfg.WarningBehavior == config.WarningsImmediate {
		warnings = &immediateWarnings{WarningCollectorService: warnings, logger: logger}
	}

	run := cfg.RunConfig()

	catalog := spotify.NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	res := resolver.NewResolver(catalog, warnings, logger)

	engine := downloader.NewYTDLPEngine(debug)
	acquirer := downloader.NewAcquirer(engine, run, logger)

	covers := tagger.NewHTTPCoverFetcher(run.CoverTimeout, shared.DefaultMaxRetries, debug)
	post := tagger.NewTagger(covers, warnings, logger)

	progress := downloader.NewBarReporter(run.Parallelism, shared.IsTTY() && !debug)

	var library interfaces.LibraryService
	if cfg.HasNavidrome() {
		library = navidrome.NewNavidromeClient(cfg.NavidromeURL, cfg.NavidromeUsername, cfg.NavidromePassword)
	}

	return &ServiceContainer{
		Config:           NewConfigService(),
		Catalog:          catalog,
		Resolver:         res,
		Engine:           engine,
		Acquirer:         acquirer,
		Postprocessor:    post,
		Progress:         progress,
		Library:          library,
		Logger:           logger,
		WarningCollector: warnings,
		Orchestrator:     batch.NewOrchestrator(res, acquirer, post, progress, warnings, logger),
	}
}

// RescanLibrary asks the configured media server to pick up new files.
// Failures are recorded as warnings; nothing happens when no server is configured.
func (c *ServiceContainer) RescanLibrary(ctx context.Context, server string) {
	if c.Library == nil {
		return
	}
	c.Logger.Info("🔄 Asking %s to rescan its library", server)
	if err := c.Library.StartScan(ctx); err != nil {
		c.WarningCollector.AddLibraryScanWarning(server, err.Error())
		return
	}
	c.Logger.Success("Library scan started on %s", server)
}

// ConfigService implementation
type ConfigService struct{}

func NewConfigService() *ConfigService {
	return &ConfigService{}
}

// LoadConfig reads the file, fills missing values and applies environment overrides
func (cs *ConfigService) LoadConfig(configFile string) (*config.Config, error) {
	cfg := &config.Config{}
	if err := config.LoadConfig(configFile, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	return cfg, nil
}

func (cs *ConfigService) SaveConfig(configFile string, cfg *config.Config) error {
	return config.SaveConfig(configFile, cfg)
}

func (cs *ConfigService) ValidateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	return cfg.Validate()
}

func (cs *ConfigService) GetDefaultConfig() *config.Config {
	return config.DefaultConfig()
}

func (cs *ConfigService) EnsureConfigExists(configFile string) error {
	if !shared.FileExists(configFile) {
		return cs.SaveConfig(configFile, cs.GetDefaultConfig())
	}
	return nil
}

// ConsoleLogger implementation
type ConsoleLogger struct {
	debugMode bool
}

func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{debugMode: shared.IsDebugMode()}
}

func (cl *ConsoleLogger) Info(message string, args ...interface{}) {
	shared.ColorInfo.Printf(message+"\n", args...)
}

func (cl *ConsoleLogger) Warning(message string, args ...interface{}) {
	shared.ColorWarning.Printf("⚠️ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Error(message string, args ...interface{}) {
	shared.ColorError.Printf("❌ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Debug(message string, args ...interface{}) {
	shared.DebugPrint(cl.debugMode, message, args...)
}

func (cl *ConsoleLogger) Success(message string, args ...interface{}) {
	shared.ColorSuccess.Printf("✅ "+message+"\n", args...)
}

func (cl *ConsoleLogger) SetDebugMode(enabled bool) {
	cl.debugMode = enabled
}

// immediateWarnings prints each warning as it is recorded, for WarningBehavior "immediate".
// Tag failures are already reported inline by the orchestrator.
type immediateWarnings struct {
	interfaces.WarningCollectorService
	logger interfaces.LoggerService
}

func (w *immediateWarnings) AddCatalogEntrySkippedWarning(reference string, position int, details string) {
	w.WarningCollectorService.AddCatalogEntrySkippedWarning(reference, position, details)
	w.logger.Warning("Skipped entry %d of %s: %s", position, reference, details)
}

func (w *immediateWarnings) AddCoverArtDownloadWarning(track, details string) {
	w.WarningCollectorService.AddCoverArtDownloadWarning(track, details)
	w.logger.Warning("No cover for %s: %s", track, details)
}

func (w *immediateWarnings) AddCoverArtMetadataWarning(track, details string) {
	w.WarningCollectorService.AddCoverArtMetadataWarning(track, details)
	w.logger.Warning("Cover not embedded for %s: %s", track, details)
}

func (w *immediateWarnings) AddLibraryScanWarning(server, details string) {
	w.WarningCollectorService.AddLibraryScanWarning(server, details)
	w.logger.Warning("Library scan on %s failed: %s", server, details)
}
