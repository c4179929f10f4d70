package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/report"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sample() []generic.EmployeeRecord {
	a := generic.NewEmployeeRecord("34941")
	a.UnionName = "SINDPD SP"
	a.AdmissionDate = generic.DatePtr(generic.NewDate(2025, time.May, 2))
	a.EntitledDays = 10
	a.DailyRate = money("37.50")
	a.Total = money("375.00")
	a.EmployerCost = money("300.00")
	a.EmployeeCost = money("75.00")
	a.StatusNote = generic.NoteAdmissionInMonth

	b := generic.NewEmployeeRecord("35000")
	b.UnionName = "SINDPD RJ"
	b.EntitledDays = 21
	b.DailyRate = money("35.00")
	b.Total = money("735.00")
	b.EmployerCost = money("588.00")
	b.EmployeeCost = money("147.00")
	b.StatusNote = generic.NoteActive
	return []generic.EmployeeRecord{a, b}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"37.5", "R$ 37,50"},
		{"999.999", "R$ 1.000,00"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567.8", "R$ 1.234.567,80"},
		{"-12.3", "-R$ 12,30"},
		{"1234567890.125", "R$ 1.234.567.890,13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, report.FormatBRL(money(tt.in)))
		})
	}
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "VR MENSAL 05.2025.xlsx", report.FileName("05/2025"))
	assert.Equal(t, "vr-mensal-05-2025.xlsx", report.SlugFileName("05/2025"))
}

func TestRows(t *testing.T) {
	rows := report.Rows(sample(), "05/2025")

	require.Len(t, rows, 2)
	assert.Equal(t, "02/05/2025", rows[0].Admission)
	assert.Equal(t, "", rows[1].Admission)
	assert.Equal(t, "05/2025", rows[1].Competence)
	assert.Equal(t, 21, rows[1].Days)
	assert.Len(t, rows[0].Values(), len(report.Headers))
}

func TestWrite_RoundTrip(t *testing.T) {
	// GIVEN
	var buf bytes.Buffer

	// WHEN
	require.NoError(t, report.Write(&buf, sample(), "05/2025"))

	// THEN the workbook carries both sheets
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	main, err := f.GetRows(report.MainSheet)
	require.NoError(t, err)
	require.Len(t, main, 3)
	assert.Equal(t, report.Headers, main[0])
	assert.Equal(t, "34941", main[1][0])
	assert.Equal(t, "R$ 375,00", main[1][6])
	assert.Equal(t, string(generic.NoteActive), main[2][9])

	summary, err := f.GetRows(report.SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 5)
	assert.Equal(t, []string{"Colaboradores", "2"}, summary[1])
	assert.Equal(t, []string{"TOTAL", "R$ 1.110,00"}, summary[2])
	assert.Equal(t, []string{"Custo empresa", "R$ 888,00"}, summary[3])
	assert.Equal(t, []string{"Desconto profissional", "R$ 222,00"}, summary[4])
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, nil, "05/2025"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	main, err := f.GetRows(report.MainSheet)
	require.NoError(t, err)
	assert.Len(t, main, 1)
}
