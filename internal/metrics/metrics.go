// =============================================================================
// OC Harvester - Metrics
// =============================================================================
//
// The harvester is a batch job, so nothing scrapes it while it runs. Counters
// are collected in a private registry and, when metrics_textfile is set, the
// whole registry is written once at the end of the run in the node_exporter
// textfile format.
//
// All methods are safe to call on a nil *Registry.
//
// =============================================================================

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry groups every harvester metric.
type Registry struct {
	reg *prometheus.Registry

	OrdersListed    prometheus.Counter
	OrdersSpecial   prometheus.Counter
	OrdersSkipped   prometheus.Counter
	OrdersProcessed prometheus.Counter
	OrderErrors     prometheus.Counter
	ListingFailures prometheus.Counter
	RowsWritten     prometheus.Counter
	DaysProcessed   prometheus.Counter
	APIRequests     *prometheus.CounterVec
	APILatencySec   *prometheus.HistogramVec
	LastRunUnix     prometheus.Gauge
}

// NewRegistry creates and registers all metrics.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	listed := prometheus.NewCounter(prometheus.CounterOpts{Name: "oc_orders_listed_total", Help: "Orders returned by the daily listing."})
	special := prometheus.NewCounter(prometheus.CounterOpts{Name: "oc_orders_special_total", Help: "Listed orders in the pharmaceutical category."})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "oc_orders_skipped_total", Help: "Pharmaceutical orders excluded by policy."})
	processed := prometheus.NewCounter(prometheus.CounterOpts{Name: "oc_orders_processed_total", Help: "Orders that produced at least one row."})
	orderErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "oc_order_errors_total", Help: "Orders whose detail could not be retrieved."})
	listingFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "oc_listing_failures_total", Help: "Days whose listing could not be retrieved."})
	rows := prometheus.NewCounter(prometheus.CounterOpts{Name: "oc_rows_written_total", Help: "Detail rows written to daily files."})
	days := prometheus.NewCounter(prometheus.CounterOpts{Name: "oc_days_processed_total", Help: "Days processed."})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oc_api_requests_total",
		Help: "Requests sent to the Mercado Público API.",
	}, []string{"endpoint", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oc_api_request_seconds",
		Help:    "Latency of Mercado Público API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{Name: "oc_last_run_timestamp_seconds", Help: "Unix time the last run finished."})

	r.MustRegister(listed, special, skipped, processed, orderErrors, listingFailures, rows, days, requests, latency, lastRun)
	return &Registry{
		reg:             r,
		OrdersListed:    listed,
		OrdersSpecial:   special,
		OrdersSkipped:   skipped,
		OrdersProcessed: processed,
		OrderErrors:     orderErrors,
		ListingFailures: listingFailures,
		RowsWritten:     rows,
		DaysProcessed:   days,
		APIRequests:     requests,
		APILatencySec:   latency,
		LastRunUnix:     lastRun,
	}
}

// ObserveRequest records one API call.
func (r *Registry) ObserveRequest(endpoint string, ok bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.APIRequests.WithLabelValues(endpoint, outcome).Inc()
	r.APILatencySec.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// DayCounts is the per-day tally fed into the counters.
type DayCounts struct {
	Listed        int
	Special       int
	Skipped       int
	Processed     int
	Errors        int
	Rows          int
	ListingFailed bool
}

// ObserveDay adds one day's tally.
func (r *Registry) ObserveDay(c DayCounts) {
	if r == nil {
		return
	}
	r.OrdersListed.Add(float64(c.Listed))
	r.OrdersSpecial.Add(float64(c.Special))
	r.OrdersSkipped.Add(float64(c.Skipped))
	r.OrdersProcessed.Add(float64(c.Processed))
	r.RowsWritten.Add(float64(c.Rows))
	r.DaysProcessed.Inc()
	if c.ListingFailed {
		r.ListingFailures.Inc()
	} else {
		r.OrderErrors.Add(float64(c.Errors))
	}
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// WriteTextfile stamps the finish time and writes the registry to path.
func (r *Registry) WriteTextfile(path string, finished time.Time) error {
	if r == nil || path == "" {
		return nil
	}
	r.LastRunUnix.Set(float64(finished.Unix()))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
