package benefit

import (
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
	"github.com/warp/benefit-engine/source"
)

// MergeAdmissions folds new hires into the table.
//
//   - Hires whose role matches an excluded keyword are ignored.
//   - Ids removed by an earlier step are never re-added.
//   - Known ids get their admission date overwritten when the hire carries
//     one; a blank date never erases a known date.
//   - Unknown ids become new records. A hire whose union is blank or does
//     not resolve inherits the union and region of the most recent priced
//     record. A hire that still has no region cannot be priced and is dropped.
//
// Duplicate hire rows collapse to one, first non-blank value per field.
func MergeAdmissions(in *Table, hires []source.AdmissionRow, rules Rules, regions *region.Table) (*Table, generic.StageReport) {
	report := generic.StageReport{Stage: generic.StageAdmissions, Removed: map[string]int{}}
	t := in.clone()

	for _, hire := range dedupeHires(hires) {
		if rules.RoleExcluded(hire.Role) {
			if t.Contains(hire.ID) {
				report.Skipped++
			} else {
				report.Removed[StepRoles]++
			}
			continue
		}
		if _, gone := t.RemovedBy(hire.ID); gone {
			report.Skipped++
			continue
		}

		if t.Contains(hire.ID) {
			t.update(hire.ID, func(r *generic.EmployeeRecord) {
				if hire.Date != nil {
					d := *hire.Date
					r.AdmissionDate = &d
				}
				if r.Role == "" {
					r.Role = hire.Role
				}
			})
			report.Merged++
			continue
		}

		rec := generic.NewEmployeeRecord(hire.ID)
		rec.Role = hire.Role
		rec.AdmissionDate = hire.Date
		rec.UnionName = hire.Union
		rec.Region = regions.Resolve(hire.Union)
		if !rec.Region.Resolved() {
			if last, ok := t.lastRegion(); ok {
				rec.UnionName = last.UnionName
				rec.Region = last.Region
			}
		}
		if !rec.Region.Resolved() {
			report.Removed[StepUnpriceable]++
			report.Warnings = append(report.Warnings, "hire "+string(hire.ID)+" has no resolvable region")
			continue
		}
		t.put(rec)
		report.Created++
	}
	return t, report
}

func dedupeHires(hires []source.AdmissionRow) []source.AdmissionRow {
	out := make([]source.AdmissionRow, 0, len(hires))
	seen := make(map[generic.EmployeeID]int, len(hires))
	for _, h := range hires {
		if h.ID.IsZero() {
			continue
		}
		if i, ok := seen[h.ID]; ok {
			if out[i].Date == nil {
				out[i].Date = h.Date
			}
			out[i].Role = firstNonBlank(out[i].Role, h.Role)
			out[i].Union = firstNonBlank(out[i].Union, h.Union)
			continue
		}
		seen[h.ID] = len(out)
		out = append(out, h)
	}
	return out
}
