package shared

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// WarningType represents different types of warnings
type WarningType int

const (
	CatalogEntrySkippedWarning WarningType = iota
	CoverArtDownloadWarning
	CoverArtMetadataWarning
	TagWarning
	LibraryScanWarning
)

// Warning represents a single warning with context
type Warning struct {
	Type    WarningType
	Message string
	Context string // Track/Reference context
	Details string // Additional details like error message
}

// WarningCollector collects non-fatal problems during a run. Safe for concurrent use.
type WarningCollector struct {
	mu       sync.Mutex
	warnings []Warning
	enabled  bool
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector(enabled bool) *WarningCollector {
	return &WarningCollector{
		warnings: make([]Warning, 0),
		enabled:  enabled,
	}
}

// AddWarning adds a warning to the collector
func (wc *WarningCollector) AddWarning(warningType WarningType, context, message, details string) {
	if !wc.enabled {
		return
	}

	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.warnings = append(wc.warnings, Warning{
		Type:    warningType,
		Message: message,
		Context: context,
		Details: details,
	})
}

// AddCatalogEntrySkippedWarning records a playlist or album member that could not be used
func (wc *WarningCollector) AddCatalogEntrySkippedWarning(reference string, position int, details string) {
	context := fmt.Sprintf("%s (item %d)", reference, position)
	wc.AddWarning(CatalogEntrySkippedWarning, context, "Skipped malformed catalog entry", details)
}

// AddCoverArtDownloadWarning adds a cover art download warning
func (wc *WarningCollector) AddCoverArtDownloadWarning(track, details string) {
	wc.AddWarning(CoverArtDownloadWarning, track, "Could not download cover art", details)
}

// AddCoverArtMetadataWarning adds a cover art metadata warning
func (wc *WarningCollector) AddCoverArtMetadataWarning(track, details string) {
	wc.AddWarning(CoverArtMetadataWarning, track, "Failed to add cover art to metadata", details)
}

// AddTagWarning records a tagging failure on an otherwise successful download
func (wc *WarningCollector) AddTagWarning(track, details string) {
	wc.AddWarning(TagWarning, track, "Failed to write tags", details)
}

// AddLibraryScanWarning records a failed media server rescan
func (wc *WarningCollector) AddLibraryScanWarning(server, details string) {
	wc.AddWarning(LibraryScanWarning, server, "Library rescan failed", details)
}

// HasWarnings returns true if there are any warnings
func (wc *WarningCollector) HasWarnings() bool {
	return wc.GetWarningCount() > 0
}

// GetWarningCount returns the total number of warnings
func (wc *WarningCollector) GetWarningCount() int {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.warnings)
}

// GetWarningsByType returns warnings grouped by type
func (wc *WarningCollector) GetWarningsByType() map[WarningType][]Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	grouped := make(map[WarningType][]Warning)
	for _, warning := range wc.warnings {
		grouped[warning.Type] = append(grouped[warning.Type], warning)
	}
	return grouped
}

// Reset drops all collected warnings, used between interactive batches
func (wc *WarningCollector) Reset() {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.warnings = wc.warnings[:0]
}

// PrintSummary prints a formatted summary of all warnings
func (wc *WarningCollector) PrintSummary() {
	if !wc.HasWarnings() {
		return
	}

	grouped := wc.GetWarningsByType()
	total := 0
	for _, warnings := range grouped {
		total += len(warnings)
	}

	ColorWarning.Printf("\n⚠️  Warning Summary (%d warnings):\n", total)
	ColorWarning.Println(strings.Repeat("─", 50))

	var types []WarningType
	for warningType := range grouped {
		types = append(types, warningType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, warningType := range types {
		wc.printWarningTypeSection(warningType, grouped[warningType])
	}
}

// printWarningTypeSection prints warnings for a specific type
func (wc *WarningCollector) printWarningTypeSection(warningType WarningType, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}

	ColorWarning.Printf("\n%s (%d):\n", getWarningTypeTitle(warningType), len(warnings))

	contextCounts := make(map[string]int)
	details := make(map[string]string)
	for _, warning := range warnings {
		contextCounts[warning.Context]++
		details[warning.Context] = warning.Details
	}

	var contexts []string
	for context := range contextCounts {
		contexts = append(contexts, context)
	}
	sort.Strings(contexts)

	for _, context := range contexts {
		line := "  • " + context
		if count := contextCounts[context]; count > 1 {
			line += fmt.Sprintf(" (×%d)", count)
		}
		if d := details[context]; d != "" {
			line += ": " + d
		}
		ColorWarning.Println(line)
	}
}

// getWarningTypeTitle returns a human-readable title for a warning type
func getWarningTypeTitle(warningType WarningType) string {
	switch warningType {
	case CatalogEntrySkippedWarning:
		return "Catalog Entries Skipped"
	case CoverArtDownloadWarning:
		return "Cover Art Download Failures"
	case CoverArtMetadataWarning:
		return "Cover Art Metadata Failures"
	case TagWarning:
		return "Tagging Failures"
	case LibraryScanWarning:
		return "Library Rescan Failures"
	default:
		return "Other Warnings"
	}
}
