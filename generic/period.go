package generic

import "fmt"

// =============================================================================
// PERIOD - The benefit period every record in a run is computed against
// =============================================================================

// Period is a closed date interval [Start, End].
//
// Examples:
//   - April/May competence: 2025-04-15 .. 2025-05-15
//   - Calendar month: 2025-05-01 .. 2025-05-31
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates and returns a period.
func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidPeriod)
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	return nil
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Empty reports an inverted interval.
func (p Period) Empty() bool { return p.End.Before(p.Start) }

// Intersect returns the overlap of p with [start, end]. ok is false when
// the intervals are disjoint.
func (p Period) Intersect(start, end Date) (Period, bool) {
	out := Period{Start: MaxDate(p.Start, start), End: MinDate(p.End, end)}
	if out.Empty() {
		return Period{}, false
	}
	return out, true
}

// Window returns the active window of an employee inside p. A nil bound
// is unbounded on its side.
func (p Period) Window(from, to *Date) Period {
	w := p
	if from != nil {
		w.Start = MaxDate(p.Start, *from)
	}
	if to != nil {
		w.End = MinDate(p.End, *to)
	}
	return w
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// CalendarDays counts days in [Start, End], inclusive. Inverted periods count 0.
func (p Period) CalendarDays() int {
	if p.Empty() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// BusinessDays counts Mon-Fri days in [Start, End] that are not holidays
// in region. A nil calendar means weekends only.
func (p Period) BusinessDays(calendar HolidayCalendar, region Region) int {
	n := 0
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		if current.IsWorkdayIn(calendar, region) {
			n++
		}
	}
	return n
}

// CompetenceLabel is the MM/YYYY label of the month the period closes in.
func (p Period) CompetenceLabel() string {
	return fmt.Sprintf("%02d/%d", int(p.End.Month()), p.End.Year())
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
