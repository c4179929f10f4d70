// Package report turns a run's final table into the distributable
// monthly workbook: one row per eligible employee plus a cost summary.
package report

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/warp/benefit-engine/generic"
)

// Headers of the main sheet, in column order.
var Headers = []string{
	"Matrícula",
	"Admissão",
	"Sindicato do Colaborador",
	"Competência",
	"Dias",
	"VALOR DIÁRIO VR",
	"TOTAL",
	"Custo empresa",
	"Desconto profissional",
	"OBS GERAL",
}

// Row is one output line.
type Row struct {
	ID           string          `json:"id"`
	Admission    string          `json:"admission"`
	Union        string          `json:"union"`
	Competence   string          `json:"competence"`
	Days         int             `json:"days"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	Total        decimal.Decimal `json:"total"`
	EmployerCost decimal.Decimal `json:"employer_cost"`
	EmployeeCost decimal.Decimal `json:"employee_cost"`
	Note         string          `json:"note"`
}

// Rows maps records to output lines stamped with competence.
func Rows(records []generic.EmployeeRecord, competence string) []Row {
	out := make([]Row, 0, len(records))
	for _, r := range records {
		row := Row{
			ID:           string(r.ID),
			Union:        r.UnionName,
			Competence:   competence,
			Days:         r.EntitledDays,
			DailyRate:    r.DailyRate,
			Total:        r.Total,
			EmployerCost: r.EmployerCost,
			EmployeeCost: r.EmployeeCost,
			Note:         string(r.StatusNote),
		}
		if r.AdmissionDate != nil {
			row.Admission = r.AdmissionDate.Time.Format("02/01/2006")
		}
		out = append(out, row)
	}
	return out
}

// Values renders a row as spreadsheet cells.
func (r Row) Values() []any {
	return []any{
		r.ID,
		r.Admission,
		r.Union,
		r.Competence,
		r.Days,
		FormatBRL(r.DailyRate),
		FormatBRL(r.Total),
		FormatBRL(r.EmployerCost),
		FormatBRL(r.EmployeeCost),
		r.Note,
	}
}

// FormatBRL renders d as "R$ 1.234,56" using pt-BR digit grouping.
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	p := message.NewPrinter(language.BrazilianPortuguese)
	return sign + "R$ " + p.Sprintf("%.2f", generic.RoundMoney(d).InexactFloat64())
}

// Title is the workbook title for a competence label "MM/YYYY".
func Title(competence string) string {
	return "VR MENSAL " + strings.ReplaceAll(competence, "/", ".")
}

// FileName is the conventional workbook name, e.g. "VR MENSAL 05.2025.xlsx".
func FileName(competence string) string {
	return Title(competence) + ".xlsx"
}

// SlugFileName is a URL and shell safe variant of FileName.
func SlugFileName(competence string) string {
	return fmt.Sprintf("%s.xlsx", slug.Make(Title(competence)))
}
