package batch

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/olekukonko/tablewriter"

	"spotube-downloader/internal/shared"
)

// RenderSummary writes one table row per result
func RenderSummary(w io.Writer, results []shared.AcquisitionResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Track", "Status", "File / Reason"})
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	for i, r := range results {
		table.Append([]string{
			fmt.Sprint(i + 1),
			shared.TruncateString(r.Descriptor.String(), 50),
			statusLabel(r),
			detail(r),
		})
	}
	table.Render()
}

func statusLabel(r shared.AcquisitionResult) string {
	switch {
	case r.Succeeded() && r.TagErr != nil:
		return "ok (untagged)"
	case r.Succeeded():
		return "ok"
	}
	var cancelled *shared.CancelledError
	if errors.As(r.Err, &cancelled) {
		return "cancelled"
	}
	if errors.Is(r.Err, shared.ErrNoMatch) {
		return "no match"
	}
	return "failed"
}

func detail(r shared.AcquisitionResult) string {
	if r.Succeeded() {
		return filepath.Base(r.OutputPath)
	}
	if r.Err == nil {
		return ""
	}
	return shared.TruncateString(r.Err.Error(), 60)
}
