// Package tui renders the run's console surface: header, progress bar,
// and final summary.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/solidmetrics/solidmetrics/pkg/chunk"
	"github.com/solidmetrics/solidmetrics/pkg/merge"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// PrintHeader prints the run banner.
func PrintHeader(input, layer string, records, workers, chunkSize int) {
	fmt.Println()
	fmt.Println(titleStyle.Render("solidmetrics") + mutedStyle.Render("  3D building solid analysis"))
	fmt.Println()
	fmt.Printf("  %s %s\n", mutedStyle.Render("Input:"), input)
	fmt.Printf("  %s %s\n", mutedStyle.Render("Layer:"), layer)
	fmt.Printf("  %s %s buildings, %d workers, chunks of %s\n",
		mutedStyle.Render("Plan: "), formatNumber(int64(records)), workers, formatNumber(int64(chunkSize)))
	fmt.Println()
}

// ShowProgress creates the record-level progress bar.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// PrintSummary prints the final run report.
func PrintSummary(s *chunk.Summary, out *merge.Output) {
	fmt.Println()
	fmt.Println(titleStyle.Render("=== Processing Complete ==="))
	fmt.Println()
	fmt.Printf("  Buildings:    %s\n", formatNumber(int64(s.TotalRecords)))
	fmt.Printf("  Succeeded:    %s\n", successStyle.Render(formatNumber(int64(s.RowsSucceeded))))
	if s.RowsFailed > 0 {
		fmt.Printf("  Failed rows:  %s\n", accentStyle.Render(formatNumber(int64(s.RowsFailed))))
	} else {
		fmt.Printf("  Failed rows:  0\n")
	}
	fmt.Printf("  Volumes:      %s\n", formatNumber(int64(s.Volumes)))
	fmt.Printf("  Chunks:       %d", s.ChunkCount)
	if s.ChunksFailed > 0 {
		fmt.Printf(" (%s failed)", accentStyle.Render(fmt.Sprintf("%d", s.ChunksFailed)))
	}
	fmt.Println()
	fmt.Printf("  Duration:     %v\n", s.Elapsed.Round(time.Millisecond))
	if s.Elapsed > 0 {
		fmt.Printf("  Throughput:   %.1f buildings/sec\n", float64(s.TotalRecords)/s.Elapsed.Seconds())
	}
	fmt.Println()
	if out != nil {
		fmt.Printf("  %s %s\n", mutedStyle.Render("CSV:  "), out.CSVPath)
		if out.XLSXPath != "" {
			fmt.Printf("  %s %s\n", mutedStyle.Render("XLSX: "), out.XLSXPath)
		} else {
			fmt.Printf("  %s %s\n", mutedStyle.Render("XLSX: "), "skipped (row count exceeds sheet limit)")
		}
	}
	fmt.Println()
}

// PrintChunkFailures lists chunks that could not be persisted.
func PrintChunkFailures(s *chunk.Summary) {
	if s.ChunksFailed == 0 {
		return
	}
	fmt.Println(accentStyle.Render("Failed chunks:"))
	for _, r := range s.Reports {
		if r.Err != nil {
			fmt.Printf("  chunk %04d: %v\n", r.Seq, r.Err)
		}
	}
	fmt.Println()
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}
