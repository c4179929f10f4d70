package benefit

import (
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
	"github.com/warp/benefit-engine/source"
)

// Removal step names, as they appear in StageReport.Removed.
const (
	StepStatus       = "status"
	StepInterns      = "interns"
	StepApprentices  = "apprentices"
	StepOverseas     = "overseas"
	StepTerminations = "terminations"
	StepLeave        = "leave"
	StepRoles        = "roles"
	StepFullVacation = "full_vacation"
	StepUnpriceable  = "unpriceable"
)

// Consolidate builds the base set from the active roster. Duplicate ids
// collapse into one record, first non-blank value per field wins. Rows
// whose status matches an excluded keyword are removed.
func Consolidate(active []source.ActiveRow, rules Rules, regions *region.Table) (*Table, generic.StageReport) {
	report := generic.StageReport{Stage: generic.StageConsolidate, Removed: map[string]int{}}
	t := NewTable()

	for _, row := range active {
		if row.ID.IsZero() {
			report.Skipped++
			continue
		}
		if existing, ok := t.Get(row.ID); ok {
			report.Merged++
			t.update(row.ID, func(r *generic.EmployeeRecord) {
				r.Role = firstNonBlank(existing.Role, row.Role)
				r.Status = firstNonBlank(existing.Status, row.Status)
				if r.UnionName == "" && row.Union != "" {
					r.UnionName = row.Union
					r.Region = regions.Resolve(row.Union)
				}
			})
			continue
		}

		rec := generic.NewEmployeeRecord(row.ID)
		rec.Role = row.Role
		rec.Status = row.Status
		rec.UnionName = row.Union
		rec.Region = regions.Resolve(row.Union)
		t.put(rec)
		report.Created++
	}

	report.Removed[StepStatus] = t.remove(StepStatus, func(r generic.EmployeeRecord) bool {
		return rules.StatusExcluded(r.Status)
	})

	for _, r := range t.records {
		if !r.Region.Resolved() {
			report.Warnings = append(report.Warnings, "unresolved region for "+string(r.ID)+": "+r.UnionName)
		}
	}
	return t, report
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
