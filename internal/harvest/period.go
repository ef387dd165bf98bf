package harvest

import (
	"context"
	"time"

	"github.com/hbsjo/oc-harvester/internal/config"
	"github.com/hbsjo/oc-harvester/internal/types"
)

// ProgressFunc is called after each finished day with the number of days
// done so far and the total.
type ProgressFunc func(done, total int, report types.DayReport)

// Days returns every calendar day from start to end inclusive, ascending.
// Reversed bounds are swapped.
func Days(start, end time.Time) []time.Time {
	start, end = config.DateOnly(start), config.DateOnly(end)
	if start.After(end) {
		start, end = end, start
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ProcessRange harvests each day of the inclusive range in ascending order,
// one day at a time. A failed day never stops the range; a cancelled
// context does, and the reports finished so far are returned with its error.
func (p *Processor) ProcessRange(ctx context.Context, start, end time.Time, includeSpecial bool, progress ProgressFunc) ([]types.DayReport, error) {
	days := Days(start, end)
	reports := make([]types.DayReport, 0, len(days))

	for i, day := range days {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		report, err := p.ProcessDay(ctx, day, includeSpecial)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)

		if progress != nil {
			progress(i+1, len(days), report)
		}
	}

	return reports, nil
}
