// =============================================================================
// OC Harvester - Inspect Command
// =============================================================================
//
// COMMAND USAGE:
//   oc-harvester inspect <detalle.csv|detalle.xlsx> [--log findings.txt]
//
// Reads a produced detail file (or its workbook copy) back and runs the reconciliation checks:
//   - per-order item taxes add up to the order tax
//   - item gross = item net + item tax
//   - header fields are identical on every row of an order
//
// Exits with an error when any check of severity "error" fails. Tax-sum
// mismatches are warnings.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hbsjo/oc-harvester/internal/csvparser"
	"github.com/hbsjo/oc-harvester/internal/validation"
	"github.com/hbsjo/oc-harvester/internal/xlsxparser"
)

var inspectLog string

var inspectCmd = &cobra.Command{
	Use:   "inspect <detalle.csv|detalle.xlsx>",
	Short: "Check a produced detail file for internal consistency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readDetail(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		result := validation.ValidateDetail(data)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File:     %s\n", data.SourceFile)
		fmt.Fprintf(out, "Rows:     %d\n", result.RowsValidated)
		fmt.Fprintf(out, "Orders:   %d\n", result.OrdersValidated)
		if hasHeader(data, "FechaConsulta") {
			fmt.Fprintf(out, "Days:     %s\n", strings.Join(csvparser.GetUniqueValues(data, "FechaConsulta"), ", "))
		}
		if hasHeader(data, "EsFarmacos") {
			fmt.Fprintf(out, "Pharma:   %d row(s)\n", countValue(csvparser.GetColumnByHeader(data, "EsFarmacos"), "SI"))
		}
		fmt.Fprintf(out, "Errors:   %d\n", result.ErrorCount)
		fmt.Fprintf(out, "Warnings: %d\n\n", result.WarningCount)
		fmt.Fprint(out, validation.FormatErrors(result.Errors))

		if inspectLog != "" {
			if err := validation.WriteErrorLog(result.Errors, inspectLog); err != nil {
				return err
			}
		}

		if !result.IsValid {
			return fmt.Errorf("%s failed %d check(s)", args[0], result.ErrorCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectLog, "log", "", "Also write the findings to this file")
}

// readDetail reads a detail file, choosing the reader by extension.
func readDetail(path string) (*csvparser.CSVData, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return xlsxparser.ParseFile(path)
	}
	return csvparser.ParseFile(path, csvparser.DefaultSettings())
}

func hasHeader(data *csvparser.CSVData, header string) bool {
	for _, h := range data.Headers {
		if h == header {
			return true
		}
	}
	return false
}

func countValue(values []string, want string) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}
