package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/warp/benefit-engine/normalize"
)

// =============================================================================
// KIND - Which dataset a file holds
// =============================================================================

type Kind int

const (
	KindUnknown Kind = iota
	KindActive
	KindAdmissions
	KindTerminations
	KindVacations
	KindLeave
	KindInterns
	KindApprentices
	KindOverseas
	KindBusinessDays
	KindRates
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindActive:       "active",
	KindAdmissions:   "admissions",
	KindTerminations: "terminations",
	KindVacations:    "vacations",
	KindLeave:        "leave",
	KindInterns:      "interns",
	KindApprentices:  "apprentices",
	KindOverseas:     "overseas",
	KindBusinessDays: "business_days",
	KindRates:        "rates",
}

func (k Kind) String() string { return kindNames[k] }

// Kinds lists every known dataset in pipeline order.
var Kinds = []Kind{
	KindActive, KindAdmissions, KindTerminations, KindVacations, KindLeave,
	KindInterns, KindApprentices, KindOverseas, KindBusinessDays, KindRates,
}

// ParseKind maps a kind name (as used in multipart field names) to a Kind.
func ParseKind(name string) Kind {
	name = normalize.Header(name)
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// Detection patterns are matched against the file name folded to
// lower-case ASCII letters and digits. More specific kinds come first.
var kindPatterns = []struct {
	kind     Kind
	patterns []string
}{
	{KindRates, []string{"sindicatoxvalor", "valorsindicato", "valordiario"}},
	{KindBusinessDays, []string{"diasuteis", "businessdays"}},
	{KindAdmissions, []string{"admissao", "admission", "admitidos"}},
	{KindTerminations, []string{"desligados", "deslig", "fired", "demitidos", "demit"}},
	{KindVacations, []string{"ferias", "feria", "vacation"}},
	{KindLeave, []string{"afastamento", "afastados", "licenca", "leave"}},
	{KindInterns, []string{"estagio", "estagiario", "intern"}},
	{KindApprentices, []string{"aprendiz", "apprentice"}},
	{KindOverseas, []string{"exterior", "overseas"}},
	{KindActive, []string{"ativos", "ativo", "active", "funcionarios"}},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// DetectKind classifies a file by its name.
func DetectKind(filename string) Kind {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	folded := nonAlnum.ReplaceAllString(strings.ToLower(normalize.StripAccents(base)), "")
	for _, kp := range kindPatterns {
		for _, p := range kp.patterns {
			if strings.Contains(folded, p) {
				return kp.kind
			}
		}
	}
	return KindUnknown
}

// keyColumns are the aliases used to locate the header row.
func (k Kind) keyColumns() []string {
	switch k {
	case KindBusinessDays:
		return append(aliasUnion, aliasBusinessDays...)
	case KindRates:
		return append(aliasRegion, aliasRate...)
	default:
		return aliasID
	}
}

// =============================================================================
// BUNDLE - The normalized datasets of one run
// =============================================================================

// Bundle holds at most one table per kind. Missing kinds are nil.
type Bundle struct {
	tables map[Kind]*normalize.Table
	files  map[Kind]string
}

func NewBundle() *Bundle {
	return &Bundle{tables: make(map[Kind]*normalize.Table), files: make(map[Kind]string)}
}

// Add stores a dataset. A second file of the same kind replaces the first.
func (b *Bundle) Add(kind Kind, filename string, t *normalize.Table) {
	b.tables[kind] = t
	b.files[kind] = filename
}

// AddReader reads and stores a file. KindUnknown detects the kind from the name.
func (b *Bundle) AddReader(kind Kind, filename string, r io.Reader) (Kind, error) {
	if kind == KindUnknown {
		kind = DetectKind(filename)
	}
	if kind == KindUnknown {
		return KindUnknown, fmt.Errorf("%s: cannot tell which dataset this file holds", filename)
	}
	t, err := Read(r, filename, kind)
	if err != nil {
		return kind, err
	}
	b.Add(kind, filename, t)
	return kind, nil
}

// Table returns the dataset of a kind, or nil.
func (b *Bundle) Table(kind Kind) *normalize.Table { return b.tables[kind] }

// Files maps kind names to the file each came from.
func (b *Bundle) Files() map[string]string {
	out := make(map[string]string, len(b.files))
	for k, f := range b.files {
		out[k.String()] = f
	}
	return out
}

// LoadDir reads every spreadsheet in dir whose name identifies a dataset.
// Files that match no kind are returned in skipped.
func LoadDir(dir string) (bundle *Bundle, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read source dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".xlsx", ".xlsm", ".xls", ".csv":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	bundle = NewBundle()
	for _, name := range names {
		kind := DetectKind(name)
		if kind == KindUnknown {
			skipped = append(skipped, name)
			continue
		}
		t, err := ReadFile(filepath.Join(dir, name), kind)
		if err != nil {
			return nil, skipped, err
		}
		bundle.Add(kind, name, t)
	}
	return bundle, skipped, nil
}
