package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/law-makers/scrollgrab/internal/config"
	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/law-makers/scrollgrab/internal/ui"
	"github.com/law-makers/scrollgrab/pkg/models"
)

// showProgress reports whether progress bars should be drawn
func showProgress(cfg *config.Config) bool {
	return !cfg.Quiet && !cfg.JSONLog
}

func printDiscovery(w io.Writer, urls []string, stats discovery.Stats, listPath string) {
	fmt.Fprintf(w, "\n%s %s\n", ui.Bold("Found"), ui.Value(fmt.Sprintf("%d media URL(s)", len(urls))))
	fmt.Fprintf(w, "  %s %d %s, %s\n", ui.Dim("Scrolled:"), stats.Steps, "step(s)", stats.StopReason)
	fmt.Fprintf(w, "  %s network %d, page %d, embedded data %d\n",
		ui.Dim("Sources:"), stats.FromNetwork, stats.FromDOM, stats.FromJSON)
	if stats.Overlay != "" {
		fmt.Fprintf(w, "  %s %s\n", ui.Dim("Dismissed:"), stats.Overlay)
	}
	if len(urls) > 0 {
		fmt.Fprintf(w, "  %s %s\n", ui.Dim("Saved list:"), ui.Value(absPath(listPath)))
	}
}

func printNoMedia(w io.Writer) {
	fmt.Fprintln(w, "\n"+ui.Info("No media URLs found."))
	fmt.Fprintln(w, ui.Info("💡 TIP: Try --kind=all, a longer --settle, or --headless=false to watch the page"))
}

// printSummary prints the per-item failures and the final tally
func printSummary(w io.Writer, run *models.Run) {
	var failed []models.ItemResult
	totalSize := int64(0)
	for _, item := range run.Items {
		switch item.State {
		case models.StateFailed:
			failed = append(failed, item)
		case models.StateSucceeded:
			totalSize += item.Size
		}
	}

	if len(failed) > 0 {
		fmt.Fprintln(w, "\n"+ui.Bold("Failed downloads:"))
		fmt.Fprintln(w, strings.Repeat("=", 80))
		for i, item := range failed {
			fmt.Fprintf(w, "%s [%d/%d] %s\n", ui.Error("✗"), i+1, len(failed), ui.Value(item.URL))
			fmt.Fprintf(w, "  %s %s\n", ui.Dim("Error:"), ui.Error(item.ErrorString()))
		}
		fmt.Fprintln(w, strings.Repeat("=", 80))
	}

	fmt.Fprintf(w, "\n%s\n", ui.Bold("Summary:"))
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Total:"), ui.Value(fmt.Sprintf("%d files", run.Tally.Total())))
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Succeeded:"), ui.Success(fmt.Sprintf("%d", run.Tally.Succeeded)))
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Failed:"), ui.Error(fmt.Sprintf("%d", run.Tally.Failed)))
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Skipped:"), ui.Info(fmt.Sprintf("%d (already present)", run.Tally.Skipped)))
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Total Size:"), ui.Value(formatBytes(totalSize)))
	elapsed := run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Elapsed:"), ui.Value(elapsed.String()))
	fmt.Fprintf(w, "  %s %s\n", ui.Label("Output Directory:"), ui.Value(absPath(run.OutputDir)))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// formatBytes formats byte count as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
