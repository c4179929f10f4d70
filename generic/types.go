/*
Package generic provides the core types shared by the benefit engine.

PURPOSE:
  This package contains the data model and the calendar/money primitives used
  by every stage of the monthly meal-benefit computation. The algorithms live
  in the benefit package; this package only knows what an employee record,
  a benefit period and a run look like.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID / Region: Type-safe identifiers
  - EmployeeRecord: One row per eligible employee for the competence month
  - TerminationState: Outcome of the termination cutoff rule
  - StatusNote: Fixed vocabulary explaining how a value was derived

DESIGN PRINCIPLES:
  1. Precision: Money uses decimal.Decimal, rounded half-up to cents
  2. Explicit optionality: nullable dates/flags are pointers, defaults at construction
  3. Type Safety: EmployeeID and Region cannot be mixed with free text

USAGE:
  rec := generic.NewEmployeeRecord("1001")
  rec.UnionName = "SINDPD SP - SIND.TRAB.EM PROC DADOS"
  rec.Region = "SP"

SEE ALSO:
  - time.go: Date and holiday calendars
  - period.go: Benefit period and business-day counting
  - run.go: Run metadata and stage audit
*/
package generic

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EmployeeID is the registration key identifying a person across all datasets.
type EmployeeID string

// NewEmployeeID trims surrounding whitespace. Spreadsheet exports frequently
// carry numeric ids as "1001.0" or " 1001"; both collapse to "1001".
func NewEmployeeID(raw string) EmployeeID {
	s := strings.TrimSpace(raw)
	if strings.HasSuffix(s, ".0") && isDigits(strings.TrimSuffix(s, ".0")) {
		s = strings.TrimSuffix(s, ".0")
	}
	return EmployeeID(s)
}

func (id EmployeeID) IsZero() bool { return id == "" }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Region is a canonical geography code (e.g. "SP"). The zero value means
// the union name could not be resolved.
type Region string

// Unresolved is returned by the resolver when no rule matches.
const Unresolved Region = ""

func (r Region) Resolved() bool { return r != Unresolved }

// =============================================================================
// MONEY
// =============================================================================

// EmployerShare is the default fraction of the benefit paid by the employer.
var EmployerShare = decimal.RequireFromString("0.80")

// RoundMoney rounds to cents. For non-negative values decimal.Round is
// half-up, which is the only case the engine produces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// TERMINATION STATE
// =============================================================================

type TerminationState string

const (
	TerminationActive     TerminationState = "ACTIVE"
	TerminationExclude    TerminationState = "EXCLUDE"
	TerminationPendingAck TerminationState = "FULL_ENTITLEMENT_PENDING_ACK"
	TerminationPostCutoff TerminationState = "FULL_ENTITLEMENT_POST_CUTOFF"
)

// Retained reports whether the employee stays in the final set.
func (s TerminationState) Retained() bool { return s != TerminationExclude }

// =============================================================================
// STATUS NOTE - Explanatory tag attached by the benefit calculator
// =============================================================================

type StatusNote string

const (
	NoteTerminationPendingAck StatusNote = "termination before cutoff — pending acknowledgment, full proration applies"
	NoteTerminationPostCutoff StatusNote = "termination after cutoff — settlement-time proportional adjustment"
	NoteAdmissionInMonth      StatusNote = "admission in month — proportional value"
	NoteVacation              StatusNote = "vacation — proportional value"
	NoteActive                StatusNote = "active employee — full value"
)

// =============================================================================
// EMPLOYEE RECORD - The central entity
// =============================================================================

// EmployeeRecord is one row of the working table. Records are created by the
// consolidator, enriched by each later stage and frozen once the benefit
// calculator has run.
type EmployeeRecord struct {
	ID        EmployeeID
	Role      string
	Status    string
	UnionName string
	Region    Region

	AdmissionDate   *Date
	TerminationDate *Date
	TerminationAck  *bool
	Termination     TerminationState

	VacationDays int
	BaselineDays int
	EntitledDays int

	DailyRate    decimal.Decimal
	Total        decimal.Decimal
	EmployerCost decimal.Decimal
	EmployeeCost decimal.Decimal

	StatusNote StatusNote
}

// NewEmployeeRecord returns a record with every optional field defaulted.
func NewEmployeeRecord(id EmployeeID) EmployeeRecord {
	return EmployeeRecord{
		ID:           id,
		Termination:  TerminationActive,
		DailyRate:    decimal.Zero,
		Total:        decimal.Zero,
		EmployerCost: decimal.Zero,
		EmployeeCost: decimal.Zero,
	}
}

// Clone returns a deep copy; pointer fields are not shared.
func (r EmployeeRecord) Clone() EmployeeRecord {
	out := r
	if r.AdmissionDate != nil {
		d := *r.AdmissionDate
		out.AdmissionDate = &d
	}
	if r.TerminationDate != nil {
		d := *r.TerminationDate
		out.TerminationDate = &d
	}
	if r.TerminationAck != nil {
		b := *r.TerminationAck
		out.TerminationAck = &b
	}
	return out
}
