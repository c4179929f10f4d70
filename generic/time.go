package generic

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (all benefit rules are per day)
// =============================================================================

type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseISODate parses YYYY-MM-DD.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// DatePtr is a convenience for optional fields.
func DatePtr(d Date) *Date { return &d }

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsWeekend() bool       { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) String() string        { return d.Time.Format("2006-01-02") }

func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// HOLIDAY CALENDAR - Region-specific holidays
// =============================================================================

// HolidayCalendar provides holiday lookup per region.
type HolidayCalendar interface {
	// IsHoliday checks if a date is a holiday in the given region.
	// Regional holidays are checked first, then national ones.
	IsHoliday(region Region, date Date) bool
}

// HolidaySet is an in-memory calendar keyed by ISO date. Holidays stored
// under Unresolved apply to every region.
type HolidaySet map[Region]map[string]string

// Add registers a holiday. Use Unresolved as region for national holidays.
func (h HolidaySet) Add(region Region, date Date, name string) {
	if h[region] == nil {
		h[region] = make(map[string]string)
	}
	h[region][date.String()] = name
}

func (h HolidaySet) IsHoliday(region Region, date Date) bool {
	key := date.String()
	if _, ok := h[region][key]; ok {
		return true
	}
	if region != Unresolved {
		_, ok := h[Unresolved][key]
		return ok
	}
	return false
}

// IsWorkdayIn checks if a date is a working day in region, considering holidays.
func (d Date) IsWorkdayIn(calendar HolidayCalendar, region Region) bool {
	if d.IsWeekend() {
		return false
	}
	if calendar != nil && calendar.IsHoliday(region, d) {
		return false
	}
	return true
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }
