/*
Package assist is the boundary to an optional language-model helper.

PURPOSE:
  The deterministic engine is the system of record. A model may be shown
  the shape of the final table and a few rows, and may answer with UPDATE
  statements. This package describes the table, extracts statements from
  free-form model text, validates them and applies the survivors as plain
  field overwrites on a copy of the frozen records.

ACCEPTED STATEMENTS:
  UPDATE report SET col = literal [, col = literal ...]
    [WHERE col = literal | WHERE col IN (literal, ...)]

  - the target table must be "report"
  - only writable columns may be assigned (derived values never change)
  - literals are 'quoted strings' or numbers

  Anything else is rejected with a generic.StatementError.

SEE ALSO:
  - assist/statements.go: Extraction and parsing
  - assist/apply.go: Application
*/
package assist

import (
	"strconv"

	"github.com/warp/benefit-engine/generic"
)

// TableName is the only table statements may target.
const TableName = "report"

// Column describes one column of the working table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Writable bool   `json:"writable"`
}

type field struct {
	Column
	get func(r generic.EmployeeRecord) string
	set func(r *generic.EmployeeRecord, v string)
}

func dateString(d *generic.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

var fields = []field{
	{Column{"id", "TEXT", false}, func(r generic.EmployeeRecord) string { return string(r.ID) }, nil},
	{Column{"admission_date", "DATE", false}, func(r generic.EmployeeRecord) string { return dateString(r.AdmissionDate) }, nil},
	{Column{"union_name", "TEXT", false}, func(r generic.EmployeeRecord) string { return r.UnionName }, nil},
	{Column{"region", "TEXT", false}, func(r generic.EmployeeRecord) string { return string(r.Region) }, nil},
	{Column{"role", "TEXT", false}, func(r generic.EmployeeRecord) string { return r.Role }, nil},
	{Column{"termination_date", "DATE", false}, func(r generic.EmployeeRecord) string { return dateString(r.TerminationDate) }, nil},
	{Column{"termination_state", "TEXT", false}, func(r generic.EmployeeRecord) string { return string(r.Termination) }, nil},
	{Column{"vacation_days", "INTEGER", false}, func(r generic.EmployeeRecord) string { return strconv.Itoa(r.VacationDays) }, nil},
	{Column{"baseline_days", "INTEGER", false}, func(r generic.EmployeeRecord) string { return strconv.Itoa(r.BaselineDays) }, nil},
	{Column{"entitled_days", "INTEGER", false}, func(r generic.EmployeeRecord) string { return strconv.Itoa(r.EntitledDays) }, nil},
	{Column{"daily_rate", "DECIMAL", false}, func(r generic.EmployeeRecord) string { return r.DailyRate.StringFixed(2) }, nil},
	{Column{"total", "DECIMAL", false}, func(r generic.EmployeeRecord) string { return r.Total.StringFixed(2) }, nil},
	{Column{"employer_cost", "DECIMAL", false}, func(r generic.EmployeeRecord) string { return r.EmployerCost.StringFixed(2) }, nil},
	{Column{"employee_cost", "DECIMAL", false}, func(r generic.EmployeeRecord) string { return r.EmployeeCost.StringFixed(2) }, nil},
	{Column{"status_note", "TEXT", true},
		func(r generic.EmployeeRecord) string { return string(r.StatusNote) },
		func(r *generic.EmployeeRecord, v string) { r.StatusNote = generic.StatusNote(v) }},
}

func lookup(name string) (field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return field{}, false
}

// Schema lists every column with its declared type.
func Schema() []Column {
	out := make([]Column, len(fields))
	for i, f := range fields {
		out[i] = f.Column
	}
	return out
}

// Row renders a record as column -> text.
func Row(r generic.EmployeeRecord) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = f.get(r)
	}
	return out
}

// Sample returns up to n rows from the start of records.
func Sample(records []generic.EmployeeRecord, n int) []map[string]string {
	if n > len(records) {
		n = len(records)
	}
	if n < 0 {
		n = 0
	}
	out := make([]map[string]string, 0, n)
	for _, r := range records[:n] {
		out = append(out, Row(r))
	}
	return out
}

// Context is what a model is shown.
type Context struct {
	Table  string              `json:"table"`
	Schema []Column            `json:"schema"`
	Sample []map[string]string `json:"sample"`
}

// NewContext describes records for a model.
func NewContext(records []generic.EmployeeRecord, sampleSize int) Context {
	return Context{Table: TableName, Schema: Schema(), Sample: Sample(records, sampleSize)}
}
