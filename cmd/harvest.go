// =============================================================================
// OC Harvester - Harvest Command
// =============================================================================
//
// This file defines the 'harvest' command, which runs the daily pipeline for
// one day or an inclusive range of days.
//
// COMMAND USAGE:
//   oc-harvester harvest --today
//   oc-harvester harvest --date dd-mm-yyyy
//   oc-harvester harvest --from dd-mm-yyyy --to dd-mm-yyyy
//   oc-harvester harvest --interactive
//
// FLAGS:
//   --include-pharma : keep orders whose code starts with the pharmaceutical
//                      prefix (default true)
//
// PROCESSING PIPELINE:
//   1. Build the run selection (flags or interactive menu)
//   2. Load configuration and open the log
//   3. Wire the API client, day processor, ledger and metrics
//   4. Process each day in ascending order
//   5. Write the run summary and the metrics textfile
//
// =============================================================================

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hbsjo/oc-harvester/internal/config"
	"github.com/hbsjo/oc-harvester/internal/harvest"
	"github.com/hbsjo/oc-harvester/internal/ledger"
	"github.com/hbsjo/oc-harvester/internal/mercadopublico"
	"github.com/hbsjo/oc-harvester/internal/metrics"
	"github.com/hbsjo/oc-harvester/internal/retry"
	"github.com/hbsjo/oc-harvester/internal/rows"
	"github.com/hbsjo/oc-harvester/internal/types"
	"github.com/hbsjo/oc-harvester/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type harvestFlags struct {
	today         bool
	date          string
	from          string
	to            string
	includePharma bool
	interactive   bool
}

var hFlags harvestFlags

// errNoSelection is returned when no date selection flag was given.
var errNoSelection = errors.New("choose one of --today, --date, --from/--to or --interactive")

// =============================================================================
// HARVEST COMMAND DEFINITION
// =============================================================================

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest purchase orders for one day or a range of days",
	Long: `The harvest command lists the purchase orders issued to the configured
organization on each selected day, fetches their detail and writes:

  <output_dir>/<prefix>_<yyyymmdd>_detalle.csv   (only when there are rows)
  <output_dir>/<prefix>_<yyyymmdd>_errores.csv   (only when there are errors)

A failed listing or order never stops the run; it is recorded in the day's
error file instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			rc  config.RunConfig
			err error
		)
		if hFlags.interactive {
			rc, err = promptRunConfig(cmd.InOrStdin(), cmd.OutOrStdout())
		} else {
			rc, err = hFlags.runConfig()
		}
		if err != nil {
			return err
		}
		return runHarvest(cmd.Context(), rc)
	},
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	f := harvestCmd.Flags()
	f.BoolVar(&hFlags.today, "today", false, "Harvest today's orders")
	f.StringVar(&hFlags.date, "date", "", "Harvest one day (dd-mm-yyyy)")
	f.StringVar(&hFlags.from, "from", "", "First day of a range (dd-mm-yyyy)")
	f.StringVar(&hFlags.to, "to", "", "Last day of a range (dd-mm-yyyy)")
	f.BoolVar(&hFlags.includePharma, "include-pharma", true, "Include pharmaceutical orders")
	f.BoolVarP(&hFlags.interactive, "interactive", "i", false, "Choose the days and pharmaceutical policy from a menu")

	harvestCmd.MarkFlagsMutuallyExclusive("today", "date", "from")
	harvestCmd.MarkFlagsMutuallyExclusive("today", "date", "to")
	harvestCmd.MarkFlagsRequiredTogether("from", "to")
}

// =============================================================================
// RUN SELECTION
// =============================================================================

// runConfig turns the flags into a RunConfig.
func (f harvestFlags) runConfig() (config.RunConfig, error) {
	rc := config.RunConfig{IncludeSpecial: f.includePharma}

	switch {
	case f.today:
		rc.Mode = config.ModeToday
	case f.date != "":
		d, err := config.ParseInputDate(f.date)
		if err != nil {
			return rc, err
		}
		rc.Mode = config.ModeSingle
		rc.Date = d
	case f.from != "" || f.to != "":
		if f.from == "" || f.to == "" {
			return rc, fmt.Errorf("--from and --to must be given together")
		}
		from, err := config.ParseInputDate(f.from)
		if err != nil {
			return rc, err
		}
		to, err := config.ParseInputDate(f.to)
		if err != nil {
			return rc, err
		}
		rc.Mode = config.ModeRange
		rc.From, rc.To = from, to
	default:
		return rc, errNoSelection
	}
	return rc, nil
}

// promptRunConfig asks for the run selection on in/out: the mode menu, the
// pharmaceutical S/N question and then the date(s) the mode needs.
func promptRunConfig(in io.Reader, out io.Writer) (config.RunConfig, error) {
	var rc config.RunConfig
	scanner := bufio.NewScanner(in)

	readLine := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "ÓRDENES DE COMPRA - Exportador por día (archivos diarios)")
	fmt.Fprintln(out, "Selecciona opción:")
	fmt.Fprintln(out, "1) Solo un día: HOY")
	fmt.Fprintln(out, "2) Solo un día: FECHA MANUAL (dd-mm-aaaa)")
	fmt.Fprintln(out, "3) RANGO DE FECHAS (dd-mm-aaaa a dd-mm-aaaa)  [genera un archivo por cada día]")

	option, err := readLine("Opción: ")
	if err != nil {
		return rc, err
	}
	if option != "1" && option != "2" && option != "3" {
		return rc, fmt.Errorf("invalid option %q", option)
	}

	for {
		answer, err := readLine("¿Deseas incluir las OCs de Fármacos? (S/N): ")
		if err != nil {
			return rc, err
		}
		answer = strings.ToUpper(answer)
		if answer == "S" || answer == "N" {
			rc.IncludeSpecial = answer == "S"
			break
		}
		fmt.Fprintln(out, "Por favor responde 'S' o 'N'.")
	}

	switch option {
	case "1":
		rc.Mode = config.ModeToday
	case "2":
		text, err := readLine("Ingresa la fecha en formato dd-mm-aaaa: ")
		if err != nil {
			return rc, err
		}
		d, err := config.ParseInputDate(text)
		if err != nil {
			return rc, err
		}
		rc.Mode = config.ModeSingle
		rc.Date = d
	case "3":
		fmt.Fprintln(out, "Ingresa el rango de fechas:")
		fromText, err := readLine("  Fecha INICIO (dd-mm-aaaa): ")
		if err != nil {
			return rc, err
		}
		toText, err := readLine("  Fecha FIN    (dd-mm-aaaa): ")
		if err != nil {
			return rc, err
		}
		from, err := config.ParseInputDate(fromText)
		if err != nil {
			return rc, err
		}
		to, err := config.ParseInputDate(toText)
		if err != nil {
			return rc, err
		}
		rc.Mode = config.ModeRange
		rc.From, rc.To = from, to
	}
	return rc, nil
}

// =============================================================================
// HARVEST EXECUTION
// =============================================================================

func runHarvest(parent context.Context, rc config.RunConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, logCloser, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	startTime := time.Now()
	runID := utils.NewRunID()
	start, end := rc.Bounds(startTime)
	days := harvest.Days(start, end)

	logger.Info("Run %s: mode=%s days=%d include_pharma=%t", runID, rc.Mode, len(days), rc.IncludeSpecial)

	reg := metrics.NewRegistry()
	client := mercadopublico.NewClient(mercadopublico.ClientOptions{
		Timeout:            cfg.API.Timeout.Std(),
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
		UserAgent:          cfg.API.UserAgent,
	}, logger, reg)

	service := mercadopublico.NewService(client, mercadopublico.ServiceConfig{
		OrganizationCode: cfg.OrganizationCode,
		Ticket:           cfg.Ticket,
		ListingURL:       cfg.API.ListingURL,
		DetailURL:        cfg.API.DetailURL,
		LegacyDetailURL:  cfg.API.LegacyDetailURL,
		ListingRetry: retry.Policy{
			Attempts: cfg.Retry.ListingAttempts,
			Delay:    cfg.Retry.ListingDelay.Std(),
		},
	}, logger)

	output := utils.NewOutputManager(cfg.OutputDir, cfg.FilePrefix)
	if err := output.EnsureDirectories(); err != nil {
		return err
	}

	processor := harvest.NewProcessor(service, output, harvest.Options{
		DetailRetry: retry.Policy{
			Attempts: cfg.Retry.DetailAttempts,
			Delay:    cfg.Retry.DetailDelay.Std(),
		},
		OrderPacing:   cfg.Retry.OrderPacing.Std(),
		SpecialPrefix: cfg.SpecialPrefix,
		Rows: rows.Options{
			StatusLabels:             cfg.StatusLabels,
			SupplierDispatchFallback: *cfg.SupplierDispatchFallback,
		},
		ExportXLSX: cfg.Export.XLSX,
		RunID:      runID,
	}, logger).WithMetrics(reg)

	if cfg.LedgerPath != "" {
		repo, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			logger.Warn("Ledger disabled: %v", err)
		} else {
			defer repo.Close()
			processor.WithRecorder(repo)
		}
	}

	var progress harvest.ProgressFunc
	if len(days) > 1 {
		bar := progressbar.NewOptions(len(days),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Harvesting days"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		progress = func(done, total int, report types.DayReport) {
			bar.Describe(fmt.Sprintf("Harvested %s", report.Date.Format("02-01-2006")))
			bar.Add(1)
			if done == total {
				bar.Finish()
			}
		}
	}

	reports, runErr := processor.ProcessRange(ctx, start, end, rc.IncludeSpecial, progress)

	finished := time.Now()
	summaryPath, err := output.WriteRunSummary(utils.RunSummary{
		RunID:     runID,
		StartTime: startTime,
		EndTime:   finished,
		Mode:      rc.Mode.String(),
		Days:      reports,
	})
	if err != nil {
		logger.Warn("Could not write run summary: %v", err)
	} else {
		logger.Info("Run summary written: %s", summaryPath)
	}

	if err := reg.WriteTextfile(cfg.MetricsTextfile, finished); err != nil {
		logger.Warn("Could not write metrics: %v", err)
	}

	if runErr != nil {
		logger.Warn("Run interrupted after %d of %d days", len(reports), len(days))
		return fmt.Errorf("harvest interrupted: %w", runErr)
	}

	_, processed, rowCount, errCount, failedDays := utils.RunSummary{Days: reports}.Totals()
	logger.Info("Run %s finished in %s: %d days, %d orders processed, %d rows, %d errors, %d days with failures",
		runID, finished.Sub(startTime).Round(time.Millisecond), len(reports), processed, rowCount, errCount, failedDays)
	return nil
}
