// =============================================================================
// OC Harvester - Day Processor
// =============================================================================
//
// This module harvests one calendar day:
//
//   1. LISTING:   fetch the day's order codes (retried by the lister). If the
//                 listing never answers, one synthetic error is recorded and
//                 the day moves on to WRITING with no rows.
//   2. PER_ORDER: for each code, classify it as pharmaceutical by prefix,
//                 skip it if excluded, otherwise fetch its detail (retried
//                 here) and build its rows.
//   3. WRITING:   sort the rows, write the detail file if there are rows and
//                 the error file if there are errors.
//
// Failures never escape a day. Only context cancellation stops processing.
//
// =============================================================================

package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hbsjo/oc-harvester/internal/export"
	"github.com/hbsjo/oc-harvester/internal/logging"
	"github.com/hbsjo/oc-harvester/internal/mercadopublico"
	"github.com/hbsjo/oc-harvester/internal/metrics"
	"github.com/hbsjo/oc-harvester/internal/normalize"
	"github.com/hbsjo/oc-harvester/internal/retry"
	"github.com/hbsjo/oc-harvester/internal/rows"
	"github.com/hbsjo/oc-harvester/internal/types"
	"github.com/hbsjo/oc-harvester/pkg/utils"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// OrderSource lists a day's orders and fetches order details.
type OrderSource interface {
	ListOrders(ctx context.Context, date time.Time) ([]mercadopublico.OrderSummary, error)
	FetchDetail(ctx context.Context, code string) (*mercadopublico.OrderDetail, bool)
}

// Recorder persists finished day reports.
type Recorder interface {
	RecordDay(ctx context.Context, runID string, report types.DayReport) error
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Options configures a Processor.
type Options struct {
	// DetailRetry wraps every detail fetch. Default: 3 attempts, 1s apart.
	DetailRetry retry.Policy

	// OrderPacing is the pause between successive detail fetches.
	OrderPacing time.Duration

	// Sleep implements the pacing pause. Defaults to retry.Sleep.
	Sleep retry.Sleeper

	// SpecialPrefix marks pharmaceutical orders.
	SpecialPrefix string

	// Rows tunes row building.
	Rows rows.Options

	// ExportXLSX also writes the detail rows as a workbook.
	ExportXLSX bool

	// RunID tags ledger entries.
	RunID string
}

// Processor runs the day pipeline.
type Processor struct {
	source   OrderSource
	output   *utils.OutputManager
	opts     Options
	logger   logging.Logger
	metrics  *metrics.Registry
	recorder Recorder
}

// NewProcessor creates a Processor. Metrics and the recorder are optional
// and are attached with WithMetrics and WithRecorder.
func NewProcessor(source OrderSource, output *utils.OutputManager, opts Options, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Sleep
	}
	if opts.DetailRetry.Sleep == nil {
		opts.DetailRetry.Sleep = opts.Sleep
	}
	if opts.DetailRetry.Attempts < 1 {
		opts.DetailRetry.Attempts = 3
	}
	return &Processor{source: source, output: output, opts: opts, logger: logger}
}

// WithMetrics attaches a metrics registry.
func (p *Processor) WithMetrics(m *metrics.Registry) *Processor {
	p.metrics = m
	return p
}

// WithRecorder attaches a day recorder.
func (p *Processor) WithRecorder(r Recorder) *Processor {
	p.recorder = r
	return p
}

// ListingErrorCode is the synthetic order code recorded when a day's listing
// fails.
func ListingErrorCode(day time.Time) string {
	return "LISTADO_" + day.Format("20060102")
}

const listingErrorReason = "Error en listado diario (API no respondió después de reintentos)"

func detailErrorReason(attempts int) string {
	return fmt.Sprintf("Error al obtener detalle (API sin respuesta tras %d intentos)", attempts)
}

// ProcessDay harvests one calendar day.
//
// PARAMETERS:
//   - ctx: Cancelling it stops the day between requests; nothing is written.
//   - day: The calendar day to harvest.
//   - includeSpecial: Keep pharmaceutical orders.
//
// RETURNS:
//   - The day report. File-write failures are reported in WriteErr.
//   - An error only when ctx was cancelled.
func (p *Processor) ProcessDay(ctx context.Context, day time.Time, includeSpecial bool) (types.DayReport, error) {
	report := types.DayReport{Date: day}
	queryDate := day.Format(normalize.OutputDateLayout)

	p.logger.Info("=== Processing day: %s ===", day.Format("02-01-2006"))

	var collected []rows.OutputRow

	orders, err := p.source.ListOrders(ctx, day)
	switch {
	case errors.Is(err, mercadopublico.ErrListingExhausted):
		p.logger.Warn("    Could not retrieve the order listing (the API did not respond).")
		report.ListingFailed = true
		report.Errors = append(report.Errors, types.ErrorRecord{
			Code:   ListingErrorCode(day),
			Reason: listingErrorReason,
		})
	case err != nil:
		return report, err
	default:
		report.Listed = len(orders)
		if report.Listed == 0 {
			p.logger.Info("    No orders found for this day (empty listing).")
		} else {
			p.logger.Info("    Found %d orders for this day.", report.Listed)
		}

		collected, err = p.processOrders(ctx, orders, queryDate, includeSpecial, &report)
		if err != nil {
			return report, err
		}
	}

	p.logger.Info("    ---- Day summary ----")
	p.logger.Info("    Orders in listing: %d", report.Listed)
	p.logger.Info("    Pharmaceutical orders (prefix %s): %d", p.opts.SpecialPrefix, report.Special)
	p.logger.Info("    Orders processed (detail OK): %d", report.Processed)
	p.logger.Info("    ---------------------")

	rows.Sort(collected)
	report.Rows = len(collected)
	p.write(day, collected, &report)

	p.metrics.ObserveDay(metrics.DayCounts{
		Listed:        report.Listed,
		Special:       report.Special,
		Skipped:       report.Skipped,
		Processed:     report.Processed,
		Errors:        len(report.Errors),
		Rows:          report.Rows,
		ListingFailed: report.ListingFailed,
	})

	if p.recorder != nil {
		if err := p.recorder.RecordDay(ctx, p.opts.RunID, report); err != nil {
			p.logger.Warn("    Could not record the day in the ledger: %v", err)
		}
	}

	return report, nil
}

// processOrders runs the PER_ORDER phase and returns the collected rows.
func (p *Processor) processOrders(ctx context.Context, orders []mercadopublico.OrderSummary, queryDate string, includeSpecial bool, report *types.DayReport) ([]rows.OutputRow, error) {
	var collected []rows.OutputRow
	total := len(orders)
	fetched := 0

	for i, summary := range orders {
		code := summary.Code()
		if code == "" {
			continue
		}

		special := p.opts.SpecialPrefix != "" && strings.HasPrefix(code, p.opts.SpecialPrefix)
		if special {
			report.Special++
		}
		if special && !includeSpecial {
			p.logger.Info("    (%d/%d) Order %s: pharmaceutical, excluded by configuration.", i+1, total, code)
			report.Skipped++
			continue
		}

		p.logger.Info("    (%d/%d) Order %s (EsFarmacos=%s)", i+1, total, code, rows.YesNo(special))

		if fetched > 0 && p.opts.OrderPacing > 0 {
			if err := p.opts.Sleep(ctx, p.opts.OrderPacing); err != nil {
				return collected, err
			}
		}
		fetched++

		detail, err := p.fetchDetail(ctx, code)
		if err != nil {
			return collected, err
		}
		if detail == nil {
			p.logger.Warn("        Could not retrieve detail for order %s after %d attempts.", code, p.opts.DetailRetry.Attempts)
			report.Errors = append(report.Errors, types.ErrorRecord{
				Code:   code,
				Reason: detailErrorReason(p.opts.DetailRetry.Attempts),
			})
			continue
		}

		orderRows := rows.Build(detail, queryDate, special, p.opts.Rows)
		if len(orderRows) > 0 {
			collected = append(collected, orderRows...)
			report.Processed++
		}
	}

	return collected, nil
}

// fetchDetail wraps the source's single-pass fetch in the detail retry.
func (p *Processor) fetchDetail(ctx context.Context, code string) (*mercadopublico.OrderDetail, error) {
	attempts := p.opts.DetailRetry.Attempts
	res := retry.Do(ctx, p.opts.DetailRetry, func(ctx context.Context, attempt int) (*mercadopublico.OrderDetail, bool) {
		p.logger.Info("        [detail] attempt %d of %d...", attempt, attempts)
		return p.source.FetchDetail(ctx, code)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	if !res.OK {
		return nil, nil
	}
	return res.Value, nil
}

// write runs the WRITING phase. Failures are logged and kept in the report.
func (p *Processor) write(day time.Time, collected []rows.OutputRow, report *types.DayReport) {
	var errs []error

	if len(collected) > 0 {
		path := p.output.DetailPath(day)
		if err := export.WriteDetailCSV(path, collected); err != nil {
			p.logger.Error("    Failed to write detail file %s: %v", path, err)
			errs = append(errs, err)
		} else {
			report.DetailFile = path
			p.logger.Info("    Detail file written: %s", path)
		}

		if p.opts.ExportXLSX {
			xlsxPath := p.output.XLSXPath(day)
			if err := export.WriteDetailXLSX(xlsxPath, collected); err != nil {
				p.logger.Error("    Failed to write workbook %s: %v", xlsxPath, err)
				errs = append(errs, err)
			} else {
				report.XLSXFile = xlsxPath
				p.logger.Info("    Workbook written: %s", xlsxPath)
			}
		}
	} else {
		p.logger.Info("    No detail file for this day (no rows).")
	}

	if len(report.Errors) > 0 {
		path := p.output.ErrorPath(day)
		if err := export.WriteErrorCSV(path, report.Errors); err != nil {
			p.logger.Error("    Failed to write error file %s: %v", path, err)
			errs = append(errs, err)
		} else {
			report.ErrorFile = path
			p.logger.Info("    Error file written: %s", path)
		}
	} else {
		p.logger.Info("    No errors for this day.")
	}

	report.WriteErr = errors.Join(errs...)
}
