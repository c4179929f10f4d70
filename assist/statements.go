package assist

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/warp/benefit-engine/generic"
)

// Assignment sets one column to a literal.
type Assignment struct {
	Column string
	Value  string
}

// Filter restricts which rows a statement touches. A zero Filter matches
// every row.
type Filter struct {
	Column string
	Values []string
}

func (f Filter) Matches(row map[string]string) bool {
	if f.Column == "" {
		return true
	}
	got := row[f.Column]
	for _, v := range f.Values {
		if got == v {
			return true
		}
	}
	return false
}

// Statement is a validated UPDATE.
type Statement struct {
	Raw   string
	Set   []Assignment
	Where Filter
}

// Extract pulls candidate UPDATE statements out of free-form model text.
// Code fences are dropped and statements are split on ';'. Only fragments
// that start with UPDATE and name the working table survive.
func Extract(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		lines = append(lines, line)
	}

	var out []string
	for _, part := range splitStatements(strings.Join(lines, "\n")) {
		stmt := strings.Join(strings.Fields(fromUpdate(part)), " ")
		upper := strings.ToUpper(stmt)
		if !strings.HasPrefix(upper, "UPDATE ") {
			continue
		}
		if !strings.Contains(upper, strings.ToUpper(TableName)) {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

// fromUpdate drops any prose preceding the first line that opens an UPDATE.
func fromUpdate(part string) string {
	lines := strings.Split(part, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "UPDATE ") {
			return strings.Join(lines[i:], "\n")
		}
	}
	return part
}

// splitStatements splits on ';' outside quoted literals.
func splitStatements(s string) []string {
	var (
		parts   []string
		cur     strings.Builder
		inQuote bool
	)
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ';' && !inQuote:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}

// =============================================================================
// PARSER
// =============================================================================

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokSymbol
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'':
			var b strings.Builder
			i++
			closed := false
			for i < len(rs) {
				if rs[i] == '\'' {
					if i+1 < len(rs) && rs[i+1] == '\'' {
						b.WriteRune('\'')
						i += 2
						continue
					}
					closed = true
					i++
					break
				}
				b.WriteRune(rs[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{tokString, b.String()})
		case r == '=' || r == ',' || r == '(' || r == ')':
			toks = append(toks, token{tokSymbol, string(r)})
			i++
		case unicode.IsDigit(r) || r == '-' || r == '.':
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, string(rs[i:j])})
			i = j
		case unicode.IsLetter(r) || r == '_' || r == '"' || r == '`':
			if r == '"' || r == '`' {
				j := i + 1
				for j < len(rs) && rs[j] != r {
					j++
				}
				if j == len(rs) {
					return nil, fmt.Errorf("unterminated identifier")
				}
				toks = append(toks, token{tokIdent, string(rs[i+1 : j])})
				i = j + 1
				continue
			}
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, string(rs[i:j])})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	return toks, nil
}

type parser struct {
	raw  string
	toks []token
	pos  int
}

func (p *parser) reject(format string, args ...any) error {
	return &generic.StatementError{Statement: p.raw, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) keyword(word string) error {
	t, ok := p.next()
	if !ok || t.kind != tokIdent || !strings.EqualFold(t.text, word) {
		return p.reject("expected %s", word)
	}
	return nil
}

func (p *parser) symbol(sym string) error {
	t, ok := p.next()
	if !ok || t.kind != tokSymbol || t.text != sym {
		return p.reject("expected %q", sym)
	}
	return nil
}

func (p *parser) column() (field, error) {
	t, ok := p.next()
	if !ok || t.kind != tokIdent {
		return field{}, p.reject("expected column name")
	}
	f, found := lookup(strings.ToLower(t.text))
	if !found {
		return field{}, p.reject("unknown column %q", t.text)
	}
	return f, nil
}

func (p *parser) literal() (string, error) {
	t, ok := p.next()
	if !ok || (t.kind != tokString && t.kind != tokNumber) {
		return "", p.reject("expected literal")
	}
	return t.text, nil
}

// Parse validates one UPDATE statement against the working table.
func Parse(raw string) (Statement, error) {
	stmt := Statement{Raw: raw}
	toks, err := tokenize(raw)
	if err != nil {
		return stmt, &generic.StatementError{Statement: raw, Reason: err.Error()}
	}
	p := &parser{raw: raw, toks: toks}

	if err := p.keyword("UPDATE"); err != nil {
		return stmt, err
	}
	t, ok := p.next()
	if !ok || t.kind != tokIdent {
		return stmt, p.reject("expected table name")
	}
	if !strings.EqualFold(t.text, TableName) {
		return stmt, p.reject("table %q is not writable", t.text)
	}
	if err := p.keyword("SET"); err != nil {
		return stmt, err
	}

	for {
		f, err := p.column()
		if err != nil {
			return stmt, err
		}
		if !f.Writable {
			return stmt, p.reject("column %q is derived", f.Name)
		}
		if err := p.symbol("="); err != nil {
			return stmt, err
		}
		v, err := p.literal()
		if err != nil {
			return stmt, err
		}
		stmt.Set = append(stmt.Set, Assignment{Column: f.Name, Value: v})

		t, ok := p.peek()
		if !ok || t.kind != tokSymbol || t.text != "," {
			break
		}
		p.pos++
	}

	if _, ok := p.peek(); !ok {
		return stmt, nil
	}
	if err := p.keyword("WHERE"); err != nil {
		return stmt, err
	}
	f, err := p.column()
	if err != nil {
		return stmt, err
	}
	stmt.Where.Column = f.Name

	t, ok = p.next()
	switch {
	case ok && t.kind == tokSymbol && t.text == "=":
		v, err := p.literal()
		if err != nil {
			return stmt, err
		}
		stmt.Where.Values = []string{v}
	case ok && t.kind == tokIdent && strings.EqualFold(t.text, "IN"):
		if err := p.symbol("("); err != nil {
			return stmt, err
		}
		for {
			v, err := p.literal()
			if err != nil {
				return stmt, err
			}
			stmt.Where.Values = append(stmt.Where.Values, v)
			t, ok := p.next()
			if ok && t.kind == tokSymbol && t.text == ")" {
				break
			}
			if !ok || t.kind != tokSymbol || t.text != "," {
				return stmt, p.reject("expected ',' or ')'")
			}
		}
	default:
		return stmt, p.reject("expected '=' or IN")
	}

	if _, ok := p.peek(); ok {
		return stmt, p.reject("unexpected trailing input")
	}
	return stmt, nil
}
