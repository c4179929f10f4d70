package benefit

import (
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
	"github.com/warp/benefit-engine/source"
)

// =============================================================================
// EXCLUSION CASCADE
// =============================================================================

// CascadeInput holds the datasets the cascade consumes. A nil set or slice
// means the source was not supplied and its step removes nothing.
type CascadeInput struct {
	Interns      source.IDSet
	Apprentices  source.IDSet
	Overseas     source.IDSet
	Terminations []source.TerminationRow
	Leave        source.IDSet
	Vacations    []source.VacationRow
}

// CascadeInputOf extracts the cascade datasets from a batch set.
func CascadeInputOf(b *source.Batches) CascadeInput {
	return CascadeInput{
		Interns:      b.Interns,
		Apprentices:  b.Apprentices,
		Overseas:     b.Overseas,
		Terminations: b.Terminations,
		Leave:        b.Leave,
		Vacations:    b.Vacations,
	}
}

// Exclude removes ineligible employees in a fixed order:
//
//  1. interns        (id list)
//  2. apprentices    (id list)
//  3. overseas       (id list)
//  4. terminations   (EXCLUDE outcome of the cutoff rule)
//  5. leave          (id list)
//  6. roles          (excluded role keywords)
//  7. full_vacation  (dated vacations cover every business day of the period)
//
// Id lists run before role text so an intern with a generic role is still
// removed. Every step records its count, including zero. Vacation rows that
// only carry a day count never exclude; they reduce entitled days instead.
func Exclude(in *Table, input CascadeInput, rules Rules, regions *region.Table) (*Table, generic.StageReport) {
	report := generic.StageReport{Stage: generic.StageExclusions, Removed: map[string]int{}}
	t := in.clone()

	byID := func(set source.IDSet) func(generic.EmployeeRecord) bool {
		return func(r generic.EmployeeRecord) bool { return set.Contains(r.ID) }
	}

	report.Removed[StepInterns] = t.remove(StepInterns, byID(input.Interns))
	report.Removed[StepApprentices] = t.remove(StepApprentices, byID(input.Apprentices))
	report.Removed[StepOverseas] = t.remove(StepOverseas, byID(input.Overseas))

	removed, skipped := applyTerminations(t, ClassifyTerminations(input.Terminations, rules.CutoffDay))
	report.Removed[StepTerminations] = removed
	report.Skipped += skipped

	report.Removed[StepLeave] = t.remove(StepLeave, byID(input.Leave))

	report.Removed[StepRoles] = t.remove(StepRoles, func(r generic.EmployeeRecord) bool {
		return rules.RoleExcluded(r.Role)
	})

	grouped := groupVacations(input.Vacations)
	cal := regions.Calendar()
	report.Removed[StepFullVacation] = t.remove(StepFullVacation, func(r generic.EmployeeRecord) bool {
		rows, ok := grouped[r.ID]
		if !ok {
			return false
		}
		periodDays := rules.Period.BusinessDays(cal, r.Region)
		return periodDays > 0 && datedOverlap(rows, rules.Period, cal, r.Region) >= periodDays
	})

	return t, report
}
