/*
Package normalize canonicalizes heterogeneous tabular inputs.

PURPOSE:
  Every personnel dataset arrives with its own header conventions
  ("Matrícula", "MATRICULA ", "Desc. Situação"). Before any stage looks at
  a dataset its headers are folded to one canonical form and its cells are
  trimmed, so later code can address columns by a fixed vocabulary.

HEADER FOLDING:
  accent-strip -> trim -> lower-case -> spaces to "_" -> collapse "__"

  "Matrícula"          -> "matricula"
  "Desc. Situação"     -> "desc._situacao"
  "DIAS DE FÉRIAS"     -> "dias_de_ferias"

VALUE FOLDING:
  Fold is the comparison form for free text (roles, statuses, union names):
  accent-strip -> trim -> upper-case -> single spaces.

SEE ALSO:
  - source/reader.go: Produces raw tables from spreadsheets
  - region/resolver.go: Compares folded union names
*/
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks: "São Paulo" -> "Sao Paulo".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Header folds a column name to its canonical key.
func Header(s string) string {
	s = strings.ToLower(strings.TrimSpace(StripAccents(s)))
	s = strings.ReplaceAll(s, " ", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// Fold is the comparison form of a free-text value.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(StripAccents(s))), " ")
}

// =============================================================================
// TABLE - A dataset with canonical headers
// =============================================================================

// Table is a normalized dataset. Rows are padded or truncated to the header
// width so every cell lookup is in range.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable folds headers and trims every cell. Duplicate headers keep their
// first position for lookups.
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		key := Header(h)
		t.Columns[i] = key
		if _, dup := t.index[key]; !dup && key != "" {
			t.index[key] = i
		}
	}

	t.Rows = make([][]string, 0, len(rows))
	for _, raw := range rows {
		row := make([]string, len(header))
		empty := true
		for i := range row {
			if i < len(raw) {
				row[i] = strings.TrimSpace(raw[i])
			}
			if row[i] != "" {
				empty = false
			}
		}
		if !empty {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// Column returns the index of the first alias present in the table.
// Aliases are folded with Header before lookup.
func (t *Table) Column(aliases ...string) (int, bool) {
	if t == nil {
		return -1, false
	}
	for _, a := range aliases {
		if i, ok := t.index[Header(a)]; ok {
			return i, true
		}
	}
	return -1, false
}

// Has reports whether any alias is present.
func (t *Table) Has(aliases ...string) bool {
	_, ok := t.Column(aliases...)
	return ok
}

// Cell returns row[col], or "" when col is negative.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Len is the number of non-blank rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports a missing or row-less dataset.
func (t *Table) Empty() bool { return t.Len() == 0 }
