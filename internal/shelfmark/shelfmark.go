// Package shelfmark recognises the call-number dialects printed in the
// catalogue headings.
package shelfmark

import (
	"regexp"
	"sort"
)

// Dialect is one of the shelfmark forms used across the catalogue.
type Dialect int

const (
	// IGForm covers IA./IB./IC. shelfmarks and the bare G. form,
	// e.g. "IB. 55144a" or "G. 7726. (1. )".
	IGForm Dialect = iota
	// CForm covers C. shelfmarks, e.g. "C. 1. d. 2".
	CForm
)

func (d Dialect) String() string {
	switch d {
	case IGForm:
		return "IG_FORM"
	case CForm:
		return "C_FORM"
	default:
		return "UNKNOWN"
	}
}

// RE2 has no look-around, so the boundary before and after each shelfmark is
// matched as a non-capturing group and only the capture groups are returned.
var (
	// I-prefix: no letter, digit, underscore, quote, period or hyphen before.
	// G-prefix: start of text, "(" or whitespace before.
	igPattern = regexp.MustCompile(
		`(?:(?:^|[^\p{L}\p{N}_'".-])(I[ABC])|(?:^|[(\s])(G))` +
			`((?:[.,] ?[\p{L}\p{N}/-]+)+\**(?:\.? ?\([\d.,\- ]*\))?)` +
			`(?:[.,)\s]|$)`)

	cPattern = regexp.MustCompile(
		`(?:^|[(\s])` +
			`(C\. ?\d+(?:\. ?[A-Za-z]+(?:[.,] ?[\d*-]+)+)?(?: ?\[[\d.,\- ]*\])?)` +
			`(?:[.)\s]|$)`)
)

type dialectPattern struct {
	dialect Dialect
	rank    int
	re      *regexp.Regexp
}

// span returns the byte range of the shelfmark inside a submatch index.
func (p dialectPattern) span(loc []int) (int, int) {
	switch p.dialect {
	case IGForm:
		start := loc[2]
		if start < 0 {
			start = loc[4]
		}
		return start, loc[7]
	default:
		return loc[2], loc[3]
	}
}

// Matcher tries each dialect in rank order; the first match wins. It holds
// no mutable state and is safe for concurrent use.
type Matcher struct {
	patterns []dialectPattern
}

// New returns a matcher over the IG and C dialects.
func New() *Matcher {
	patterns := []dialectPattern{
		{dialect: CForm, rank: 1, re: cPattern},
		{dialect: IGForm, rank: 0, re: igPattern},
	}
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].rank < patterns[j].rank
	})
	return &Matcher{patterns: patterns}
}

// Match returns the first shelfmark found in text.
func (m *Matcher) Match(text string) (string, bool) {
	_, sm, ok := m.MatchDialect(text)
	return sm, ok
}

// MatchDialect is Match that also reports which dialect matched.
func (m *Matcher) MatchDialect(text string) (Dialect, string, bool) {
	for _, p := range m.patterns {
		if sm, ok := find(p, text); ok {
			return p.dialect, sm, true
		}
	}
	return 0, "", false
}

// MatchAs tries a single dialect.
func (m *Matcher) MatchAs(d Dialect, text string) (string, bool) {
	for _, p := range m.patterns {
		if p.dialect == d {
			return find(p, text)
		}
	}
	return "", false
}

// Contains reports whether text holds any shelfmark.
func (m *Matcher) Contains(text string) bool {
	_, ok := m.Match(text)
	return ok
}

// Dialects lists the dialects in the order they are tried.
func (m *Matcher) Dialects() []Dialect {
	out := make([]Dialect, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = p.dialect
	}
	return out
}

func find(p dialectPattern, text string) (string, bool) {
	loc := p.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", false
	}
	start, end := p.span(loc)
	return text[start:end], true
}
