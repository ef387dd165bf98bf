// =============================================================================
// OC Harvester - Reconciliation Checks
// =============================================================================
//
// This module checks a produced detail file for internal consistency. It is
// what the `inspect` command runs after reading a file back.
//
// VALIDATION STRATEGY:
//   Checks run at two levels:
//   1. Row-level: gross item total equals net item total plus item tax,
//      and amount cells are integers.
//   2. Order-level: header fields are identical on every row of an order,
//      and item taxes add up to the order tax.
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first failure
//   - Each error carries the order code, the file row number and the column
//   - A tax sum that does not match the order tax is a warning: the API may
//     supply per-line taxes that legitimately differ from the header
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hbsjo/oc-harvester/internal/csvparser"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a single failed check.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// OrderCode is the order the error belongs to.
	OrderCode string

	// Field is the column that failed the check.
	Field string

	// Value is the offending value.
	Value string

	// Rule names the check that failed.
	Rule string

	// Message is a human-readable explanation.
	Message string

	// RowNumber is the 1-based file line (the header is line 1). Zero for
	// order-level checks.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	location := fmt.Sprintf("Order %s", e.OrderCode)
	if e.RowNumber > 0 {
		location = fmt.Sprintf("%s, row %d", location, e.RowNumber)
	}
	return fmt.Sprintf("[%s] %s, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		location,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors (warnings allowed).
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsValidated and OrdersValidated count what was checked.
	RowsValidated   int
	OrdersValidated int
}

func (r *ValidationResult) add(err *ValidationError) {
	r.Errors = append(r.Errors, err)
	if err.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
}

// =============================================================================
// COLUMNS
// =============================================================================

// HeaderFields are the columns that must be identical across an order's rows.
var HeaderFields = []string{
	"FechaCreacionOC",
	"FechaEnvioOC",
	"FechaEnvioProveedorOC",
	"FechaAceptacionOC",
	"CodigoLicitacion",
	"TipoOrdenCompra",
	"EsFarmacos",
	"EstadoOC",
	"NombreComprador",
	"NombreUnidad",
	"NombreOrganizacion",
	"RutProveedor",
	"NombreProveedor",
	"TotalNetoOC",
	"ImpuestosOC",
	"TotalBrutoOC",
}

// AmountFields must be empty or an integer.
var AmountFields = []string{
	"Cantidad",
	"ValorUnitario",
	"TotalNetoItem",
	"ImpuestosItem",
	"TotalBrutoItem",
	"TotalNetoOC",
	"ImpuestosOC",
	"TotalBrutoOC",
}

const orderCodeField = "CodigoOC"

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateDetail runs every check on a parsed detail file.
//
// PARAMETERS:
//   - data: The parsed detail file.
//
// RETURNS:
//   - The collected result. A file missing the order code column yields a
//     single error.
func ValidateDetail(data *csvparser.CSVData) *ValidationResult {
	result := &ValidationResult{IsValid: true, RowsValidated: data.RowCount()}

	if !hasColumn(data.Headers, orderCodeField) {
		result.add(&ValidationError{
			Severity: SeverityError,
			Field:    orderCodeField,
			Rule:     "missing_column",
			Message:  "Detail file has no order code column",
		})
		return result
	}

	orders := make(map[string][]int)
	var order []string
	for i, row := range data.Rows {
		lineNo := i + 2
		code := row[orderCodeField]
		if _, seen := orders[code]; !seen {
			order = append(order, code)
		}
		orders[code] = append(orders[code], i)

		for _, err := range validateRow(row, lineNo) {
			result.add(err)
		}
	}

	for _, code := range order {
		for _, err := range validateOrder(code, data.Rows, orders[code]) {
			result.add(err)
		}
	}
	result.OrdersValidated = len(order)

	return result
}

// validateRow checks amounts and the item gross total of one row.
func validateRow(row map[string]string, lineNo int) []*ValidationError {
	var errs []*ValidationError
	code := row[orderCodeField]

	for _, field := range AmountFields {
		value := strings.TrimSpace(row[field])
		if value == "" {
			continue
		}
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			errs = append(errs, &ValidationError{
				Severity:  SeverityError,
				OrderCode: code,
				Field:     field,
				Value:     value,
				Rule:      "integer",
				Message:   "Amount is not an integer",
				RowNumber: lineNo,
			})
		}
	}

	net, okNet := parseAmount(row["TotalNetoItem"])
	tax, okTax := parseAmount(row["ImpuestosItem"])
	gross, okGross := parseAmount(row["TotalBrutoItem"])
	if okNet && okTax && okGross && gross != net+tax {
		errs = append(errs, &ValidationError{
			Severity:  SeverityError,
			OrderCode: code,
			Field:     "TotalBrutoItem",
			Value:     row["TotalBrutoItem"],
			Rule:      "gross_equals_net_plus_tax",
			Message:   fmt.Sprintf("Gross total should be %d (net %d + tax %d)", net+tax, net, tax),
			RowNumber: lineNo,
		})
	}

	return errs
}

// validateOrder checks the rows of one order together.
func validateOrder(code string, rows []map[string]string, indexes []int) []*ValidationError {
	var errs []*ValidationError
	first := rows[indexes[0]]

	for _, idx := range indexes[1:] {
		row := rows[idx]
		for _, field := range HeaderFields {
			if row[field] != first[field] {
				errs = append(errs, &ValidationError{
					Severity:  SeverityError,
					OrderCode: code,
					Field:     field,
					Value:     row[field],
					Rule:      "header_consistent",
					Message:   fmt.Sprintf("Differs from the order's first row ('%s')", first[field]),
					RowNumber: idx + 2,
				})
			}
		}
	}

	headerTax, ok := parseAmount(first["ImpuestosOC"])
	if !ok || headerTax <= 0 {
		return errs
	}

	var sum int64
	for _, idx := range indexes {
		tax, ok := parseAmount(rows[idx]["ImpuestosItem"])
		if !ok {
			// Untaxed lines mean the tax was never distributed.
			errs = append(errs, &ValidationError{
				Severity:  SeverityWarning,
				OrderCode: code,
				Field:     "ImpuestosItem",
				Rule:      "tax_sum",
				Message:   fmt.Sprintf("Order tax is %d but some lines carry no tax", headerTax),
			})
			return errs
		}
		sum += tax
	}

	if sum != headerTax {
		errs = append(errs, &ValidationError{
			Severity:  SeverityWarning,
			OrderCode: code,
			Field:     "ImpuestosItem",
			Value:     strconv.FormatInt(sum, 10),
			Rule:      "tax_sum",
			Message:   fmt.Sprintf("Line taxes add up to %d, order tax is %d", sum, headerTax),
		})
	}

	return errs
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func parseAmount(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func hasColumn(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes the formatted findings to filePath.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	if err := os.WriteFile(filePath, []byte(FormatErrors(errors)), 0644); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
