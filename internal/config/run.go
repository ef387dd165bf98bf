package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// RUN CONFIGURATION
// =============================================================================

// DateMode selects which days a run covers.
type DateMode int

const (
	// ModeToday harvests the current local date.
	ModeToday DateMode = iota

	// ModeSingle harvests one explicitly given date.
	ModeSingle

	// ModeRange harvests every day of an inclusive range.
	ModeRange
)

func (m DateMode) String() string {
	switch m {
	case ModeToday:
		return "today"
	case ModeSingle:
		return "single"
	case ModeRange:
		return "range"
	default:
		return fmt.Sprintf("DateMode(%d)", int(m))
	}
}

// RunConfig is the per-invocation selection built by the CLI.
type RunConfig struct {
	Mode DateMode

	// Date is used by ModeSingle.
	Date time.Time

	// From and To are used by ModeRange. Their order does not matter.
	From time.Time
	To   time.Time

	// IncludeSpecial keeps pharmaceutical orders in the output.
	IncludeSpecial bool
}

// Bounds returns the first and last day to harvest, given today's date.
func (r RunConfig) Bounds(today time.Time) (time.Time, time.Time) {
	switch r.Mode {
	case ModeSingle:
		return r.Date, r.Date
	case ModeRange:
		return r.From, r.To
	default:
		d := DateOnly(today)
		return d, d
	}
}

// DateOnly returns the calendar day of t, read in t's own location, as a
// UTC midnight. Calendar days are kept in UTC so that stepping with AddDate
// never lands on a local midnight skipped by a DST change.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseInputDate parses an operator-entered "dd-mm-yyyy" date into a UTC
// midnight. Single-digit day and month ("1-2-2025") are accepted.
func ParseInputDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q: expected dd-mm-yyyy (e.g. 11-12-2025)", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: expected dd-mm-yyyy (e.g. 11-12-2025)", s)
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date %q: no such calendar day", s)
	}
	return t, nil
}
