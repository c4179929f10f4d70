package source_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/source"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func xlsxBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// =============================================================================
// READER
// =============================================================================

func TestRead_CSVSemicolon(t *testing.T) {
	// GIVEN: A ';' separated export with a BOM and accented headers
	data := "\xef\xbb\xbfMATRÍCULA;TITULO DO CARGO;DESC. SITUACAO;Sindicato\n" +
		"1001;ANALISTA;Trabalhando;SINDPD SP\n" +
		";;;\n" +
		"1002;DIRETOR;Trabalhando;SINDPD RJ\n"

	tbl, err := source.Read(strings.NewReader(data), "ATIVOS.csv", source.KindActive)
	require.NoError(t, err)

	assert.Equal(t, []string{"matricula", "titulo_do_cargo", "desc._situacao", "sindicato"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "active", tbl.Name)
}

func TestRead_XLSXHeaderOnSecondRow(t *testing.T) {
	// GIVEN: The business-day workbook with a title line above the header
	data := xlsxBytes(t, [][]interface{}{
		{"Base dias uteis 04/2025 - 05/2025"},
		{"SINDICADO", "DIAS UTEIS "},
		{"SINDPD SP - SIND.TRAB.EM PROC DADOS", 22},
	})

	tbl, err := source.Read(bytes.NewReader(data), "Base_dias_uteis.xlsx", source.KindBusinessDays)
	require.NoError(t, err)

	// THEN: The header is found and the single data row survives
	assert.Equal(t, []string{"sindicado", "dias_uteis"}, tbl.Columns)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "22", tbl.Rows[0][1])
}

func TestRead_XLSXDatesAreSerials(t *testing.T) {
	data := xlsxBytes(t, [][]interface{}{
		{"MATRICULA", "Admissão", "Cargo"},
		{1001, time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC), "ANALISTA"},
	})

	tbl, err := source.Read(bytes.NewReader(data), "ADMISSAO_ABRIL.xlsx", source.KindAdmissions)
	require.NoError(t, err)

	col, ok := tbl.Column("admissao")
	require.True(t, ok)
	d := source.ParseDate(tbl.Rows[0][col])
	require.NotNil(t, d)
	assert.Equal(t, "2025-05-02", d.String())
}

func TestRead_UnsupportedFormat(t *testing.T) {
	_, err := source.Read(strings.NewReader("x"), "ATIVOS.pdf", source.KindActive)
	assert.ErrorIs(t, err, generic.ErrUnsupportedFormat)
}

// =============================================================================
// KINDS
// =============================================================================

func TestDetectKind(t *testing.T) {
	tests := map[string]source.Kind{
		"ATIVOS.xlsx":                 source.KindActive,
		"ADMISSÃO_ABRIL.xlsx":         source.KindAdmissions,
		"DESLIGADOS.xlsx":             source.KindTerminations,
		"FÉRIAS.xlsx":                 source.KindVacations,
		"AFASTAMENTOS.xlsx":           source.KindLeave,
		"ESTÁGIO.xlsx":                source.KindInterns,
		"APRENDIZ.xlsx":               source.KindApprentices,
		"EXTERIOR.xlsx":               source.KindOverseas,
		"Base_dias_uteis.xlsx":        source.KindBusinessDays,
		"Base_sindicato_x_valor.xlsx": source.KindRates,
		"notes.xlsx":                  source.KindUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, source.DetectKind(name), name)
	}
	assert.Equal(t, source.KindBusinessDays, source.ParseKind("business_days"))
}

func TestLoadDir(t *testing.T) {
	// GIVEN: A directory with a roster, an intern list and an unrelated file
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	write("ATIVOS.csv", "MATRICULA;CARGO;SITUACAO;SINDICATO\n1;ANALISTA;Trabalhando;SINDPD SP\n")
	write("ESTAGIO.csv", "MATRICULA\n1\n")
	write("readme.csv", "x\n")

	// WHEN: Loading the directory
	bundle, skipped, err := source.LoadDir(dir)
	require.NoError(t, err)

	// THEN: Known kinds are loaded, the rest reported
	assert.Equal(t, []string{"readme.csv"}, skipped)
	assert.NotNil(t, bundle.Table(source.KindActive))
	assert.NotNil(t, bundle.Table(source.KindInterns))
	assert.Nil(t, bundle.Table(source.KindVacations))
	assert.Equal(t, "ATIVOS.csv", bundle.Files()["active"])
}
