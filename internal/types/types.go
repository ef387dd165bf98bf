// =============================================================================
// OC Harvester - Shared Types
// =============================================================================
//
// Types shared by the day processor, the exporters and the ledger. They live
// here to avoid import cycles between those packages.
//
// =============================================================================

package types

import "time"

// =============================================================================
// ERROR RECORDS
// =============================================================================

// ErrorRecord is one line of the daily error file.
type ErrorRecord struct {
	// Code is the order code, or "LISTADO_yyyymmdd" for a failed listing.
	Code string

	// Reason is a human-readable explanation.
	Reason string
}

// ErrorColumns is the header of the daily error file.
var ErrorColumns = []string{"CodigoOC", "Motivo"}

// Record renders the error in ErrorColumns order.
func (e ErrorRecord) Record() []string {
	return []string{e.Code, e.Reason}
}

// =============================================================================
// DAY REPORT
// =============================================================================

// DayReport summarizes the processing of one calendar day.
type DayReport struct {
	// Date is the harvested calendar day.
	Date time.Time

	// Listed is the number of orders in the daily listing.
	Listed int

	// Special is the number of listed pharmaceutical orders.
	Special int

	// Skipped is the number of pharmaceutical orders excluded by policy.
	Skipped int

	// Processed is the number of orders that produced at least one row.
	Processed int

	// Rows is the number of detail rows written.
	Rows int

	// ListingFailed is set when the daily listing could not be retrieved.
	ListingFailed bool

	// Errors are the error records of the day.
	Errors []ErrorRecord

	// DetailFile and ErrorFile are the written paths, empty when not written.
	DetailFile string
	ErrorFile  string
	XLSXFile   string

	// WriteErr is set when writing one of the files failed.
	WriteErr error
}
