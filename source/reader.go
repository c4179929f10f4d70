/*
Package source turns personnel spreadsheets into typed, read-only batches.

PURPOSE:
  The engine never sees files. This package reads .xlsx, .xls and .csv
  exports, folds their headers (normalize.Table), finds the header row,
  detects which dataset a file is from its name, and coerces cells into
  typed values (dates, BRL money, acknowledgment flags, day counts).

COERCION POLICY:
  Malformed values never fail a run. A bad date becomes nil (unbounded),
  a bad number becomes 0. The only fatal condition is a dataset missing a
  required column (generic.MissingColumnError).

SEE ALSO:
  - source/batches.go: Typed batches consumed by the benefit engine
  - source/coerce.go: Value parsers
  - source/kinds.go: File-kind detection and bundles
*/
package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/normalize"
)

// maxXLSRows bounds legacy workbook reads.
const maxXLSRows = 100000

// headerScanRows is how far down a sheet the header row may sit.
const headerScanRows = 5

// =============================================================================
// READER
// =============================================================================

// ReadFile reads a spreadsheet from disk. See Read.
func ReadFile(path string, kind Kind) (*normalize.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), kind)
}

// Read parses the first sheet of a workbook (or a CSV file) and returns a
// normalized table. The header row is the first of the top rows that
// contains one of the kind's key columns; the business-day export, for
// example, carries a title line above its header.
func Read(r io.Reader, filename string, kind Kind) (*normalize.Table, error) {
	rows, err := readRows(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if len(rows) == 0 {
		return normalize.NewTable(kind.String(), nil, nil), nil
	}

	h := locateHeader(rows, kind.keyColumns())
	return normalize.NewTable(kind.String(), rows[h], rows[h+1:]), nil
}

func readRows(r io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readXLSX(data)
	case ".xls":
		return readXLS(data)
	case ".csv", ".txt":
		return readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", generic.ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// readXLSX returns raw cell values so dates arrive as Excel serials rather
// than in the workbook's display format.
func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	return file.GetRows(sheetName, excelize.Options{RawCellValue: true})
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	if workbook.NumSheets() == 1 {
		return workbook.ReadAllCells(maxXLSRows), nil
	}

	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found")
	}
	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow) && i < maxXLSRows; i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// readCSV accepts ';' (the payroll export default) or ',' separated files.
func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func sniffSeparator(data []byte) rune {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if bytes.Count(sample, []byte(";")) >= bytes.Count(sample, []byte(",")) && bytes.Contains(sample, []byte(";")) {
		return ';'
	}
	return ','
}

func locateHeader(rows [][]string, keys []string) int {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[normalize.Header(k)] = true
	}
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		for _, cell := range rows[i] {
			if want[normalize.Header(cell)] {
				return i
			}
		}
	}
	return 0
}
