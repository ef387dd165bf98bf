// =============================================================================
// OC Harvester - Value Normalizers
// =============================================================================
//
// The Mercado Público API is not consistent about how it encodes amounts and
// dates. The same field may arrive as a JSON number on one order and as a
// locale-formatted string ("1.234,56") on the next, and dates show up in at
// least four layouts. Everything that ends up in an output row goes through
// this package first.
//
// FAILURE POLICY:
//   Normalizers never return errors. Amounts degrade to nil, dates degrade
//   to the raw (trimmed) input string.
//
// =============================================================================

package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNTS
// =============================================================================

// Amount converts an amount or quantity to a whole number.
//
// Accepted inputs:
//   - nil                    -> nil
//   - float64, float32, int  -> rounded value
//   - json.Number            -> parsed as a plain number, then rounded
//   - string                 -> "." removed as thousands separator, "," used
//     as decimal separator, then rounded ("1.234,56" -> 1235)
//
// Anything empty, unparseable, NaN or infinite yields nil. Exact halves
// round to the nearest even number ("2,5" -> 2, "3,5" -> 4).
func Amount(v any) *int64 {
	var d decimal.Decimal

	switch x := v.(type) {
	case nil:
		return nil
	case int:
		n := int64(x)
		return &n
	case int64:
		n := x
		return &n
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		parsed, err := decimal.NewFromString(strings.TrimSpace(x.String()))
		if err != nil {
			return nil
		}
		d = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}

	n := d.RoundBank(0).IntPart()
	return &n
}

func fromFloat(f float64) *int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := decimal.NewFromFloat(f).RoundBank(0).IntPart()
	return &n
}

// =============================================================================
// DATES
// =============================================================================

// OutputDateLayout is the canonical DD/MM/YYYY layout used in every row.
const OutputDateLayout = "02/01/2006"

// dateLayouts are tried in this order. The first one that parses wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"02/01/2006",
}

// Date reformats a date string as DD/MM/YYYY.
//
// RETURNS:
//   - nil when the input is empty or blank.
//   - The reformatted date when one of the known layouts matches.
//   - The trimmed input unchanged otherwise.
func Date(s string) *string {
	txt := strings.TrimSpace(s)
	if txt == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, txt); err == nil {
			out := d.Format(OutputDateLayout)
			return &out
		}
	}

	return &txt
}
