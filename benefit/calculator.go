package benefit

import (
	"github.com/shopspring/decimal"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
)

// =============================================================================
// BENEFIT CALCULATOR
// =============================================================================

// Split prices entitled days. The two shares are rounded independently
// and may differ from total by at most one cent.
func Split(days int, rate, employerShare decimal.Decimal) (total, employer, employee decimal.Decimal) {
	if days <= 0 || !rate.IsPositive() {
		return decimal.Zero, decimal.Zero, decimal.Zero
	}
	total = generic.RoundMoney(decimal.NewFromInt(int64(days)).Mul(rate))
	employer = generic.RoundMoney(total.Mul(employerShare))
	employee = generic.RoundMoney(total.Mul(decimal.NewFromInt(1).Sub(employerShare)))
	return total, employer, employee
}

// NoteFor picks the status note, first match wins: termination, admission
// inside the period, reduced day count, active.
func NoteFor(r generic.EmployeeRecord, period generic.Period) generic.StatusNote {
	switch r.Termination {
	case generic.TerminationPendingAck:
		return generic.NoteTerminationPendingAck
	case generic.TerminationPostCutoff:
		return generic.NoteTerminationPostCutoff
	}
	if r.AdmissionDate != nil && period.Contains(*r.AdmissionDate) {
		return generic.NoteAdmissionInMonth
	}
	if r.BaselineDays != r.EntitledDays {
		return generic.NoteVacation
	}
	return generic.NoteActive
}

// Calculate prices every record and assigns its status note.
func Calculate(in *Table, rules Rules, regions *region.Table) (*Table, generic.StageReport) {
	report := generic.StageReport{Stage: generic.StageBenefit}
	t := in.clone()

	t.each(func(r *generic.EmployeeRecord) {
		r.DailyRate = regions.Rate(r.Region)
		r.Total, r.EmployerCost, r.EmployeeCost = Split(r.EntitledDays, r.DailyRate, rules.EmployerShare)
		r.StatusNote = NoteFor(*r, rules.Period)
		if r.DailyRate.IsZero() {
			report.Skipped++
		}
	})
	return t, report
}
