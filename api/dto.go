/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Runs:    RunDTO, StageDTO, SummaryDTO
  Records: RecordDTO
  Assist:  AssistRequest, AssistResponse

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/regions.go: RegionsJSON returned by /api/regions
*/
package api

import (
	"time"

	"github.com/warp/benefit-engine/assist"
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/report"
)

// =============================================================================
// RUNS
// =============================================================================

// RunDTO represents a run in API responses.
type RunDTO struct {
	ID          string            `json:"id"`
	Competence  string            `json:"competence"`
	PeriodStart string            `json:"period_start"`
	PeriodEnd   string            `json:"period_end"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Summary     SummaryDTO        `json:"summary"`
	Stages      []StageDTO        `json:"stages,omitempty"`
	CreatedAt   string            `json:"created_at"`
	CompletedAt *string           `json:"completed_at,omitempty"`
	Files       map[string]string `json:"files,omitempty"`
}

// StageDTO is one stage audit line.
type StageDTO struct {
	Stage    string         `json:"stage"`
	Removed  map[string]int `json:"removed,omitempty"`
	Merged   int            `json:"merged"`
	Created  int            `json:"created"`
	Skipped  int            `json:"skipped"`
	Warnings []string       `json:"warnings,omitempty"`
}

// SummaryDTO carries money as BRL-formatted strings and plain decimals.
type SummaryDTO struct {
	Employees       int    `json:"employees"`
	Total           string `json:"total"`
	EmployerCost    string `json:"employer_cost"`
	EmployeeCost    string `json:"employee_cost"`
	TotalBRL        string `json:"total_brl"`
	EmployerCostBRL string `json:"employer_cost_brl"`
	EmployeeCostBRL string `json:"employee_cost_brl"`
}

func toRunDTO(run generic.Run, withStages bool) RunDTO {
	dto := RunDTO{
		ID:          run.ID,
		Competence:  run.Competence,
		PeriodStart: run.Period.Start.String(),
		PeriodEnd:   run.Period.End.String(),
		Status:      string(run.Status),
		Error:       run.Error,
		Summary:     toSummaryDTO(run.Summary),
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		s := run.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	if withStages {
		dto.Stages = make([]StageDTO, len(run.Stages))
		for i, s := range run.Stages {
			dto.Stages[i] = StageDTO{
				Stage:    s.Stage,
				Removed:  s.Removed,
				Merged:   s.Merged,
				Created:  s.Created,
				Skipped:  s.Skipped,
				Warnings: s.Warnings,
			}
		}
	}
	return dto
}

func toSummaryDTO(s generic.Summary) SummaryDTO {
	return SummaryDTO{
		Employees:       s.Employees,
		Total:           s.Total.StringFixed(2),
		EmployerCost:    s.EmployerCost.StringFixed(2),
		EmployeeCost:    s.EmployeeCost.StringFixed(2),
		TotalBRL:        report.FormatBRL(s.Total),
		EmployerCostBRL: report.FormatBRL(s.EmployerCost),
		EmployeeCostBRL: report.FormatBRL(s.EmployeeCost),
	}
}

// =============================================================================
// RECORDS
// =============================================================================

// RecordDTO is one row of the final table.
type RecordDTO struct {
	ID              string  `json:"id"`
	Admission       *string `json:"admission_date,omitempty"`
	Union           string  `json:"union"`
	Region          string  `json:"region"`
	Termination     string  `json:"termination_state"`
	TerminationDate *string `json:"termination_date,omitempty"`
	VacationDays    int     `json:"vacation_days"`
	BaselineDays    int     `json:"baseline_days"`
	EntitledDays    int     `json:"entitled_days"`
	DailyRate       string  `json:"daily_rate"`
	Total           string  `json:"total"`
	EmployerCost    string  `json:"employer_cost"`
	EmployeeCost    string  `json:"employee_cost"`
	StatusNote      string  `json:"status_note"`
}

func toRecordDTO(r generic.EmployeeRecord) RecordDTO {
	return RecordDTO{
		ID:              string(r.ID),
		Admission:       datePtr(r.AdmissionDate),
		Union:           r.UnionName,
		Region:          string(r.Region),
		Termination:     string(r.Termination),
		TerminationDate: datePtr(r.TerminationDate),
		VacationDays:    r.VacationDays,
		BaselineDays:    r.BaselineDays,
		EntitledDays:    r.EntitledDays,
		DailyRate:       r.DailyRate.StringFixed(2),
		Total:           r.Total.StringFixed(2),
		EmployerCost:    r.EmployerCost.StringFixed(2),
		EmployeeCost:    r.EmployeeCost.StringFixed(2),
		StatusNote:      string(r.StatusNote),
	}
}

func datePtr(d *generic.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// =============================================================================
// ASSIST
// =============================================================================

// AssistRequest carries raw model output, explicit statements, or both.
// Text is run through assist.Extract; Statements are used as given.
type AssistRequest struct {
	Text       string   `json:"text"`
	Statements []string `json:"statements"`
}

// AssistResponse reports what was applied.
type AssistResponse struct {
	Applied  int                `json:"applied"`
	Rows     int                `json:"rows"`
	Rejected []assist.Rejection `json:"rejected"`
}

// ErrorResponse is the error body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}
