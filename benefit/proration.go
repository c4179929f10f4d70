package benefit

import (
	"github.com/shopspring/decimal"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
)

// =============================================================================
// PRORATION
// =============================================================================

// ProratedDays computes
//
//	round(baseline * overlap / total) - vacationDays, clamped at 0
//
// where overlap and total are business days of window and period in the
// region's calendar. When the period has no business days at all the
// ratio falls back to calendar days. An inverted window yields 0.
func ProratedDays(baseline int, window, period generic.Period, cal generic.HolidayCalendar, reg generic.Region, vacationDays int) int {
	if baseline <= 0 || window.Empty() {
		return 0
	}

	overlap := window.BusinessDays(cal, reg)
	total := period.BusinessDays(cal, reg)
	if total == 0 {
		overlap = window.CalendarDays()
		total = period.CalendarDays()
	}
	if total == 0 {
		return 0
	}

	days := decimal.NewFromInt(int64(baseline) * int64(overlap)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0).
		IntPart()

	days -= int64(vacationDays)
	if days < 0 {
		return 0
	}
	return int(days)
}

// Prorate writes BaselineDays and EntitledDays on every record.
func Prorate(in *Table, rules Rules, regions *region.Table) (*Table, generic.StageReport) {
	report := generic.StageReport{Stage: generic.StageProration}
	t := in.clone()
	cal := regions.Calendar()

	t.each(func(r *generic.EmployeeRecord) {
		r.BaselineDays = regions.Baseline(r.Region, r.UnionName)
		window := rules.Period.Window(r.AdmissionDate, r.TerminationDate)
		r.EntitledDays = ProratedDays(r.BaselineDays, window, rules.Period, cal, r.Region, r.VacationDays)
		if r.EntitledDays == 0 {
			report.Skipped++
		}
	})
	return t, report
}
