// =============================================================================
// OC Harvester - File Manager Utility
// =============================================================================
//
// This module owns the on-disk layout of a harvest run:
//   - Daily file naming (<prefix>_<yyyymmdd>_detalle.csv / _errores.csv)
//   - Output directory creation
//   - Run identifiers and the end-of-run summary file
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hbsjo/oc-harvester/internal/types"
)

// fileDateLayout is the date stamp used in daily file names.
const fileDateLayout = "20060102"

// =============================================================================
// OUTPUT MANAGER
// =============================================================================

// OutputManager names and places the daily output files.
type OutputManager struct {
	// OutputDir is the directory where daily files are written.
	OutputDir string

	// Prefix starts every file name. Example: "OC_HBSJO".
	Prefix string
}

// NewOutputManager creates an OutputManager for the given directory and prefix.
func NewOutputManager(outputDir, prefix string) *OutputManager {
	return &OutputManager{OutputDir: outputDir, Prefix: prefix}
}

// EnsureDirectories creates the output directory if it does not exist.
func (om *OutputManager) EnsureDirectories() error {
	if err := os.MkdirAll(om.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", om.OutputDir, err)
	}
	return nil
}

// DetailPath returns the detail file path for a day.
func (om *OutputManager) DetailPath(day time.Time) string {
	return om.dayFile(day, "detalle", ".csv")
}

// ErrorPath returns the error file path for a day.
func (om *OutputManager) ErrorPath(day time.Time) string {
	return om.dayFile(day, "errores", ".csv")
}

// XLSXPath returns the workbook path for a day.
func (om *OutputManager) XLSXPath(day time.Time) string {
	return om.dayFile(day, "detalle", ".xlsx")
}

func (om *OutputManager) dayFile(day time.Time, kind, ext string) string {
	name := fmt.Sprintf("%s_%s_%s%s", om.Prefix, day.Format(fileDateLayout), kind, ext)
	return filepath.Join(om.OutputDir, name)
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// NewRunID returns a fresh identifier for one harvest invocation.
func NewRunID() string {
	return uuid.New().String()
}

// RunSummary contains summary information about a harvest run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Mode      string
	Days      []types.DayReport
}

// Totals adds up the per-day counts.
func (s RunSummary) Totals() (listed, processed, rows, errs, failedDays int) {
	for _, d := range s.Days {
		listed += d.Listed
		processed += d.Processed
		rows += d.Rows
		errs += len(d.Errors)
		if d.ListingFailed || d.WriteErr != nil {
			failedDays++
		}
	}
	return
}

// WriteRunSummary writes a run summary text file to the output directory.
//
// PARAMETERS:
//   - summary: The run summary.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (om *OutputManager) WriteRunSummary(summary RunSummary) (string, error) {
	if err := om.EnsureDirectories(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("run_summary_%s_%s.txt", summary.StartTime.Format("20060102_150405"), shortID(summary.RunID))
	summaryPath := filepath.Join(om.OutputDir, name)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	listed, processed, rows, errs, failedDays := summary.Totals()
	fmt.Fprintf(writer, "OC Harvester - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Mode:           %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Days:               %d\n"+
		"  Days With Failures: %d\n"+
		"  Orders Listed:      %d\n"+
		"  Orders Processed:   %d\n"+
		"  Rows Written:       %d\n"+
		"  Errors:             %d\n\n",
		summary.RunID,
		summary.Mode,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond).String(),
		len(summary.Days),
		failedDays,
		listed,
		processed,
		rows,
		errs)

	if len(summary.Days) > 0 {
		writer.WriteString("Days:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, d := range summary.Days {
			fmt.Fprintf(writer, "  Date:      %s\n", d.Date.Format("02-01-2006"))
			fmt.Fprintf(writer, "  Listed:    %d (special %d, skipped %d)\n", d.Listed, d.Special, d.Skipped)
			fmt.Fprintf(writer, "  Processed: %d\n", d.Processed)
			fmt.Fprintf(writer, "  Rows:      %d\n", d.Rows)
			fmt.Fprintf(writer, "  Errors:    %d\n", len(d.Errors))
			if d.ListingFailed {
				writer.WriteString("  Listing:   FAILED\n")
			}
			if d.DetailFile != "" {
				fmt.Fprintf(writer, "  Detail:    %s\n", d.DetailFile)
			}
			if d.ErrorFile != "" {
				fmt.Fprintf(writer, "  Error CSV: %s\n", d.ErrorFile)
			}
			if d.XLSXFile != "" {
				fmt.Fprintf(writer, "  Workbook:  %s\n", d.XLSXFile)
			}
			if d.WriteErr != nil {
				fmt.Fprintf(writer, "  Write Err: %v\n", d.WriteErr)
			}
			writer.WriteString("\n")
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
