package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/warp/benefit-engine/generic"
)

const (
	MainSheet    = "Relatorio"
	SummarySheet = "Custos totais"
)

// Workbook builds the two-sheet workbook. Callers own the returned file
// and must Close it.
func Workbook(records []generic.EmployeeRecord, competence string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := build(f, records, competence); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func build(f *excelize.File, records []generic.EmployeeRecord, competence string) error {
	if err := f.SetSheetName(f.GetSheetName(0), MainSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(MainSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(MainSheet, 1, 1, bold); err != nil {
		return err
	}
	for i, row := range Rows(records, competence) {
		values := row.Values()
		if err := f.SetSheetRow(MainSheet, "A"+strconv.Itoa(i+2), &values); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(MainSheet, "A", "J", 18); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	s := generic.Summarize(records)
	summary := [][]any{
		{"Competência", competence},
		{"Colaboradores", s.Employees},
		{"TOTAL", FormatBRL(s.Total)},
		{"Custo empresa", FormatBRL(s.EmployerCost)},
		{"Desconto profissional", FormatBRL(s.EmployeeCost)},
	}
	for i, line := range summary {
		if err := f.SetSheetRow(SummarySheet, "A"+strconv.Itoa(i+1), &line); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(SummarySheet, "A", bold); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "B", 24)
}

// Write streams the workbook to w.
func Write(w io.Writer, records []generic.EmployeeRecord, competence string) error {
	f, err := Workbook(records, competence)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// WriteFile saves the workbook at path.
func WriteFile(path string, records []generic.EmployeeRecord, competence string) error {
	f, err := Workbook(records, competence)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}
