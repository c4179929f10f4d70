package benefit

import (
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
	"github.com/warp/benefit-engine/source"
)

// =============================================================================
// VACATION OVERLAP
// =============================================================================

// VacationOverlap counts the business days of vacation that fall inside the
// period for one employee's rows:
//
//   - start and end present: business days of [start,end] ∩ period
//   - otherwise: the day count, capped at the period's business days
//
// Identical rows are counted once, so a batch delivered twice does not
// double the result.
func VacationOverlap(rows []source.VacationRow, period generic.Period, cal generic.HolidayCalendar, reg generic.Region) int {
	return sumVacations(rows, period, cal, reg, true)
}

// datedOverlap is VacationOverlap restricted to rows with both dates. A bare
// day count says nothing about which days were taken.
func datedOverlap(rows []source.VacationRow, period generic.Period, cal generic.HolidayCalendar, reg generic.Region) int {
	return sumVacations(rows, period, cal, reg, false)
}

func sumVacations(rows []source.VacationRow, period generic.Period, cal generic.HolidayCalendar, reg generic.Region, withCounts bool) int {
	total := 0
	seen := make(map[vacationKey]bool, len(rows))
	periodDays := -1

	for _, row := range rows {
		key := keyOf(row)
		if seen[key] {
			continue
		}
		seen[key] = true

		if row.Start != nil && row.End != nil {
			if overlap, ok := period.Intersect(*row.Start, *row.End); ok {
				total += overlap.BusinessDays(cal, reg)
			}
			continue
		}
		if withCounts && row.Days > 0 {
			if periodDays < 0 {
				periodDays = period.BusinessDays(cal, reg)
			}
			total += min(row.Days, periodDays)
		}
	}
	return total
}

type vacationKey struct {
	id         generic.EmployeeID
	days       int
	start, end string
}

func keyOf(row source.VacationRow) vacationKey {
	k := vacationKey{id: row.ID, days: row.Days}
	if row.Start != nil {
		k.start = row.Start.String()
	}
	if row.End != nil {
		k.end = row.End.String()
	}
	return k
}

// groupVacations indexes rows by employee.
func groupVacations(rows []source.VacationRow) map[generic.EmployeeID][]source.VacationRow {
	out := make(map[generic.EmployeeID][]source.VacationRow)
	for _, row := range rows {
		if !row.ID.IsZero() {
			out[row.ID] = append(out[row.ID], row)
		}
	}
	return out
}

// ApplyVacations writes each record's in-period vacation days. The value is
// overwritten, never accumulated. Rows for ids not in the table are skipped.
func ApplyVacations(in *Table, rows []source.VacationRow, rules Rules, regions *region.Table) (*Table, generic.StageReport) {
	report := generic.StageReport{Stage: generic.StageVacations}
	t := in.clone()
	grouped := groupVacations(rows)
	cal := regions.Calendar()

	t.each(func(r *generic.EmployeeRecord) {
		vr, ok := grouped[r.ID]
		if !ok {
			r.VacationDays = 0
			return
		}
		r.VacationDays = VacationOverlap(vr, rules.Period, cal, r.Region)
		report.Merged++
	})
	for id := range grouped {
		if !t.Contains(id) {
			report.Skipped++
		}
	}
	return t, report
}
