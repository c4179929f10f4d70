/*
Package region maps free-text union names to canonical region codes and
holds the per-region reference data for a competence month.

RESOLUTION ORDER (first match wins):
  1. Chapter code    "SINDPD SP - SIND.TRAB..."  contains "SINDPD SP"  -> SP
  2. Region name     "Sindicato de São Paulo"    contains "SAO PAULO"  -> SP
  3. Abbreviation    "SIND. EMPREGADOS RJ."      " RJ" at a boundary    -> RJ
  4. Nothing         "Local 99 Unknown"                                 -> Unresolved

Chapter codes run first because a code can contain an unrelated two-letter
abbreviation ("SINDPPD RS" contains "PP" and "RS").

All comparisons use normalize.Fold, so case, accents and spacing never
affect the outcome. Resolve is a pure function of its input.
*/
package region

import (
	"regexp"
	"strings"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/normalize"
)

// Definition describes one region.
type Definition struct {
	Code     generic.Region
	Name     string
	Chapters []string
}

type rule struct {
	code     generic.Region
	chapters []string
	name     string
	abbrev   *regexp.Regexp
}

// Resolver implements the four-step resolution. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	rules []rule
}

// NewResolver compiles definitions in the given order. Order breaks ties
// within a resolution step.
func NewResolver(defs []Definition) *Resolver {
	r := &Resolver{rules: make([]rule, 0, len(defs))}
	for _, d := range defs {
		ru := rule{code: d.Code, name: normalize.Fold(d.Name)}
		for _, c := range d.Chapters {
			if f := normalize.Fold(c); f != "" {
				ru.chapters = append(ru.chapters, f)
			}
		}
		if code := normalize.Fold(string(d.Code)); code != "" {
			ru.abbrev = regexp.MustCompile(`(?:^|\s)` + regexp.QuoteMeta(code) + `(?:\s|\.?$)`)
		}
		r.rules = append(r.rules, ru)
	}
	return r
}

// Resolve returns the region for a union name, or generic.Unresolved.
func (r *Resolver) Resolve(union string) generic.Region {
	s := normalize.Fold(union)
	if s == "" {
		return generic.Unresolved
	}

	for _, ru := range r.rules {
		for _, c := range ru.chapters {
			if strings.Contains(s, c) {
				return ru.code
			}
		}
	}
	for _, ru := range r.rules {
		if ru.name != "" && strings.Contains(s, ru.name) {
			return ru.code
		}
	}
	for _, ru := range r.rules {
		if ru.abbrev != nil && ru.abbrev.MatchString(s) {
			return ru.code
		}
	}
	return generic.Unresolved
}
