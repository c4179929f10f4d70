/*
Package factory provides JSON to Go region-table conversion.

PURPOSE:
  Converts JSON region definitions into a region.Table (resolver rules,
  business-day baselines, daily rates, holidays). Payroll operators can
  change rates or add a chapter code without a code change.

JSON SCHEMA:
  {
    "regions": [
      {
        "code": "SP",
        "name": "São Paulo",
        "chapters": ["SINDPD SP"],
        "business_days": 22,
        "daily_rate": "37.50",
        "holidays": [{"date": "2025-01-25", "name": "Aniversario de Sao Paulo"}]
      }
    ],
    "national_holidays": [{"date": "2025-05-01", "name": "Dia do Trabalho"}]
  }

  daily_rate accepts a JSON number or string. Array order is resolution
  order when two regions could match the same union name.

USAGE:
  f := NewRegionFactory()
  table, err := f.ParseRegions(jsonString)

  // Built-in preset for the four unions in the payroll
  table := DefaultTable()

SEE ALSO:
  - region/table.go: Table type
  - region/resolver.go: Resolution rules
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/region"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RegionsJSON is the JSON representation of a region table.
type RegionsJSON struct {
	Regions          []RegionJSON  `json:"regions"`
	NationalHolidays []HolidayJSON `json:"national_holidays,omitempty"`
}

// RegionJSON represents one region.
type RegionJSON struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Chapters     []string        `json:"chapters,omitempty"`
	BusinessDays int             `json:"business_days"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	Holidays     []HolidayJSON   `json:"holidays,omitempty"`
}

// HolidayJSON is an ISO date with a display name.
type HolidayJSON struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// =============================================================================
// REGION FACTORY
// =============================================================================

// RegionFactory converts JSON region definitions to a region.Table.
type RegionFactory struct{}

// NewRegionFactory creates a new region factory.
func NewRegionFactory() *RegionFactory {
	return &RegionFactory{}
}

// ParseRegions parses a JSON string into a Table.
func (f *RegionFactory) ParseRegions(jsonStr string) (*region.Table, error) {
	var rj RegionsJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("failed to parse regions JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// LoadFile reads a regions JSON file.
func (f *RegionFactory) LoadFile(path string) (*region.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	return f.ParseRegions(string(data))
}

// FromJSON validates RegionsJSON and builds the table.
func (f *RegionFactory) FromJSON(rj RegionsJSON) (*region.Table, error) {
	if len(rj.Regions) == 0 {
		return nil, fmt.Errorf("regions: at least one region is required")
	}

	seen := make(map[string]bool, len(rj.Regions))
	entries := make([]region.Entry, 0, len(rj.Regions))
	for i, r := range rj.Regions {
		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if code == "" {
			return nil, fmt.Errorf("regions[%d]: code is required", i)
		}
		if seen[code] {
			return nil, fmt.Errorf("regions[%d]: duplicate code %q", i, code)
		}
		seen[code] = true
		if r.BusinessDays < 0 {
			return nil, fmt.Errorf("regions[%d]: business_days must be >= 0", i)
		}
		if r.DailyRate.IsNegative() {
			return nil, fmt.Errorf("regions[%d]: daily_rate must be >= 0", i)
		}

		entries = append(entries, region.Entry{
			Definition: region.Definition{
				Code:     generic.Region(code),
				Name:     r.Name,
				Chapters: r.Chapters,
			},
			Baseline:  r.BusinessDays,
			DailyRate: r.DailyRate,
		})
	}

	table := region.NewTable(entries)

	for _, h := range rj.NationalHolidays {
		if err := addHoliday(table, generic.Unresolved, h); err != nil {
			return nil, fmt.Errorf("national_holidays: %w", err)
		}
	}
	for i, r := range rj.Regions {
		code := generic.Region(strings.ToUpper(strings.TrimSpace(r.Code)))
		for _, h := range r.Holidays {
			if err := addHoliday(table, code, h); err != nil {
				return nil, fmt.Errorf("regions[%d].holidays: %w", i, err)
			}
		}
	}

	return table, nil
}

func addHoliday(table *region.Table, code generic.Region, h HolidayJSON) error {
	d, err := generic.ParseISODate(strings.TrimSpace(h.Date))
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", h.Date, err)
	}
	table.AddHoliday(code, d, h.Name)
	return nil
}

// ToJSON renders a table back to its JSON schema.
func ToJSON(table *region.Table) RegionsJSON {
	out := RegionsJSON{}
	for _, d := range table.Holidays(generic.Unresolved) {
		out.NationalHolidays = append(out.NationalHolidays, HolidayJSON{Date: d.String()})
	}
	for _, e := range table.Regions() {
		rj := RegionJSON{
			Code:         string(e.Code),
			Name:         e.Name,
			Chapters:     e.Chapters,
			BusinessDays: e.Baseline,
			DailyRate:    e.DailyRate,
		}
		for _, d := range table.Holidays(e.Code) {
			rj.Holidays = append(rj.Holidays, HolidayJSON{Date: d.String()})
		}
		out.Regions = append(out.Regions, rj)
	}
	return out
}

// =============================================================================
// PRESETS
// =============================================================================

// DefaultRegionsJSON is the union table of the payroll the engine was built for.
const DefaultRegionsJSON = `{
  "regions": [
    {"code": "SP", "name": "São Paulo", "chapters": ["SINDPD SP"], "business_days": 22, "daily_rate": "37.50"},
    {"code": "RJ", "name": "Rio de Janeiro", "chapters": ["SINDPD RJ"], "business_days": 21, "daily_rate": "35.00"},
    {"code": "RS", "name": "Rio Grande do Sul", "chapters": ["SINDPPD RS"], "business_days": 21, "daily_rate": "35.00"},
    {"code": "PR", "name": "Paraná", "chapters": ["SITEPD PR", "CURITIBA"], "business_days": 22, "daily_rate": "35.00"}
  ]
}`

// DefaultTable returns a fresh copy of the built-in preset.
func DefaultTable() *region.Table {
	table, err := NewRegionFactory().ParseRegions(DefaultRegionsJSON)
	if err != nil {
		panic(fmt.Sprintf("factory: invalid default regions: %v", err))
	}
	return table
}
