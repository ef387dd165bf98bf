// =============================================================================
// OC Harvester - History Command
// =============================================================================
//
// COMMAND USAGE:
//   oc-harvester history [--limit N] [--errors]
//
// Lists the most recently harvested days recorded in the ledger
// (ledger_path in config.yaml).
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hbsjo/oc-harvester/internal/config"
	"github.com/hbsjo/oc-harvester/internal/ledger"
)

var (
	historyLimit  int
	historyErrors bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently harvested days from the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.LedgerPath == "" {
			return fmt.Errorf("ledger_path is not set in %s", cfgFile)
		}

		repo, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer repo.Close()

		entries, err := repo.ListDays(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), entries, historyErrors)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of days to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyErrors, "errors", false, "Also list each day's error records")
}

func printHistory(out io.Writer, entries []ledger.DayEntry, withErrors bool) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No harvested days recorded.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tLISTED\tSPECIAL\tSKIPPED\tPROCESSED\tROWS\tERRORS\tSTATUS\tRECORDED\tRUN")
	for _, e := range entries {
		status := "ok"
		switch {
		case e.ListingFailed:
			status = "listing failed"
		case e.WriteError != "":
			status = "write failed"
		case e.ErrorCount > 0:
			status = "partial"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			e.Day.Format("02-01-2006"), e.Listed, e.Special, e.Skipped, e.Processed,
			e.Rows, e.ErrorCount, status, e.RecordedAt.Local().Format("2006-01-02 15:04"), shortRunID(e.RunID))
	}
	tw.Flush()

	if !withErrors {
		return
	}
	for _, e := range entries {
		if len(e.Errors) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s:\n", e.Day.Format("02-01-2006"))
		for _, rec := range e.Errors {
			fmt.Fprintf(out, "  %s  %s\n", rec.Code, rec.Reason)
		}
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
