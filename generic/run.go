package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RUN - One execution of the pipeline for a competence month
// =============================================================================

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Stage names, in execution order.
const (
	StageReference   = "reference"
	StageConsolidate = "consolidate"
	StageAdmissions  = "admissions"
	StageExclusions  = "exclusions"
	StageVacations   = "vacations"
	StageProration   = "proration"
	StageBenefit     = "benefit"
	StageAssist      = "assist"
)

// StageReport is the audit line a stage produces. Counts are never fatal.
type StageReport struct {
	Stage    string
	Removed  map[string]int // step -> ids removed
	Merged   int
	Created  int
	Skipped  int
	Warnings []string
}

// TotalRemoved sums every exclusion step.
func (s StageReport) TotalRemoved() int {
	n := 0
	for _, c := range s.Removed {
		n += c
	}
	return n
}

// Summary aggregates the final table.
type Summary struct {
	Employees    int
	Total        decimal.Decimal
	EmployerCost decimal.Decimal
	EmployeeCost decimal.Decimal
}

// Summarize adds up money columns over records.
func Summarize(records []EmployeeRecord) Summary {
	s := Summary{Total: decimal.Zero, EmployerCost: decimal.Zero, EmployeeCost: decimal.Zero}
	for _, r := range records {
		s.Employees++
		s.Total = s.Total.Add(r.Total)
		s.EmployerCost = s.EmployerCost.Add(r.EmployerCost)
		s.EmployeeCost = s.EmployeeCost.Add(r.EmployeeCost)
	}
	return s
}

type Run struct {
	ID          string
	Competence  string
	Period      Period
	Status      RunStatus
	Stages      []StageReport
	Summary     Summary
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
