package benefit

import (
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
	"github.com/warp/benefit-engine/source"
)

// ApplyReference returns a copy of base with the month's business-day and
// rate tables applied. Business-day rows keyed by a region code or name set
// that region's baseline; any other row becomes a per-union baseline. Rate
// rows are resolved to a region by name. Rows that resolve to no known
// region are skipped with a warning.
func ApplyReference(base *region.Table, days []source.BusinessDayRow, rates []source.RateRow) (*region.Table, generic.StageReport) {
	report := generic.StageReport{Stage: generic.StageReference}
	t := base.Clone()

	for _, row := range days {
		if code, ok := t.Named(row.Union); ok {
			t.SetBaseline(code, row.Days)
		} else {
			t.SetUnionBaseline(row.Union, row.Days)
		}
		report.Merged++
	}
	for _, row := range rates {
		code := t.Resolve(row.Region)
		if !t.SetRate(code, row.Rate) {
			report.Skipped++
			report.Warnings = append(report.Warnings, "rate for unknown region: "+row.Region)
			continue
		}
		report.Merged++
	}
	return t, report
}
