package region

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/normalize"
)

// =============================================================================
// TABLE - Static reference data for one competence month
// =============================================================================

// Entry is the reference data of one region.
type Entry struct {
	Definition
	Baseline  int             // full-period business-day count
	DailyRate decimal.Decimal // non-negative
}

// Table maps region -> {baseline, rate} plus per-union baseline overrides
// and holiday lists. Unknown regions have baseline 0 and rate 0.
//
// A Table is built once before a run and treated as read-only while the
// engine executes. Use Clone before applying source overrides.
type Table struct {
	entries  map[generic.Region]Entry
	order    []generic.Region
	unions   map[string]int
	holidays generic.HolidaySet
	resolver *Resolver
}

// NewTable builds a table from entries, keeping their order for resolution.
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries:  make(map[generic.Region]Entry, len(entries)),
		unions:   make(map[string]int),
		holidays: generic.HolidaySet{},
	}
	defs := make([]Definition, 0, len(entries))
	for _, e := range entries {
		if e.DailyRate.IsNegative() {
			e.DailyRate = decimal.Zero
		}
		if e.Baseline < 0 {
			e.Baseline = 0
		}
		if _, dup := t.entries[e.Code]; !dup {
			t.order = append(t.order, e.Code)
		}
		t.entries[e.Code] = e
		defs = append(defs, e.Definition)
	}
	t.resolver = NewResolver(defs)
	return t
}

// Resolve maps a union name to a region using the table's definitions.
func (t *Table) Resolve(union string) generic.Region {
	return t.resolver.Resolve(union)
}

// Resolver exposes the underlying resolver.
func (t *Table) Resolver() *Resolver { return t.resolver }

// Regions returns entries in definition order.
func (t *Table) Regions() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.entries[code])
	}
	return out
}

func (t *Table) Entry(region generic.Region) (Entry, bool) {
	e, ok := t.entries[region]
	return e, ok
}

// Baseline returns the full-period business-day count for an employee.
// A union-specific override wins over the region baseline.
func (t *Table) Baseline(region generic.Region, union string) int {
	if region == generic.Unresolved {
		return 0
	}
	if days, ok := t.unions[normalize.Fold(union)]; ok {
		return days
	}
	return t.entries[region].Baseline
}

// Rate returns the daily rate, zero for unknown regions.
func (t *Table) Rate(region generic.Region) decimal.Decimal {
	e, ok := t.entries[region]
	if !ok {
		return decimal.Zero
	}
	return e.DailyRate
}

// Calendar returns the holiday calendar of every region.
func (t *Table) Calendar() generic.HolidayCalendar { return t.holidays }

// =============================================================================
// OVERRIDES - Applied from the business-day and rate sources
// =============================================================================

// SetRate overrides a region's daily rate. Unknown regions are ignored and
// reported false.
func (t *Table) SetRate(region generic.Region, rate decimal.Decimal) bool {
	e, ok := t.entries[region]
	if !ok {
		return false
	}
	e.DailyRate = generic.NonNegative(rate)
	t.entries[region] = e
	return true
}

// Named returns the region whose code or full name equals name, ignoring
// case and accents. Union text is not matched.
func (t *Table) Named(name string) (generic.Region, bool) {
	f := normalize.Fold(name)
	if f == "" {
		return generic.Unresolved, false
	}
	for _, code := range t.order {
		e := t.entries[code]
		if f == normalize.Fold(string(e.Code)) || f == normalize.Fold(e.Name) {
			return code, true
		}
	}
	return generic.Unresolved, false
}

// SetBaseline overrides a region's baseline.
func (t *Table) SetBaseline(region generic.Region, days int) bool {
	e, ok := t.entries[region]
	if !ok {
		return false
	}
	if days < 0 {
		days = 0
	}
	e.Baseline = days
	t.entries[region] = e
	return true
}

// SetUnionBaseline records a baseline for one union name.
func (t *Table) SetUnionBaseline(union string, days int) {
	if days < 0 {
		days = 0
	}
	t.unions[normalize.Fold(union)] = days
}

// AddHoliday registers a holiday. Use generic.Unresolved for national ones.
func (t *Table) AddHoliday(region generic.Region, date generic.Date, name string) {
	t.holidays.Add(region, date, name)
}

// Holidays lists the holidays registered for a region, sorted by date.
func (t *Table) Holidays(region generic.Region) []generic.Date {
	var out []generic.Date
	for iso := range t.holidays[region] {
		if d, err := generic.ParseISODate(iso); err == nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Clone returns an independent copy sharing only the immutable resolver.
func (t *Table) Clone() *Table {
	c := &Table{
		entries:  make(map[generic.Region]Entry, len(t.entries)),
		order:    append([]generic.Region(nil), t.order...),
		unions:   make(map[string]int, len(t.unions)),
		holidays: generic.HolidaySet{},
		resolver: t.resolver,
	}
	for k, v := range t.entries {
		c.entries[k] = v
	}
	for k, v := range t.unions {
		c.unions[k] = v
	}
	for region, days := range t.holidays {
		for iso, name := range days {
			if d, err := generic.ParseISODate(iso); err == nil {
				c.holidays.Add(region, d, name)
			}
		}
	}
	return c
}
