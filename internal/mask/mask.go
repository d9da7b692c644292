// Package mask translates shell-style file masks into case-insensitive
// regular expressions.
//
// A mask string holds one or more globs separated by ';', for example
// "*.cpp;*.h". Each glob is translated independently and the resulting
// patterns keep the input order. A candidate matches a pattern only when the
// whole string matches, not a substring of it.
package mask

import (
	"fmt"
	"regexp"
	"strings"
)

// Separator splits individual globs in a mask string.
const Separator = ";"

// escapes are applied in this exact order so that backslashes introduced by
// later steps are never escaped twice.
var escapes = []struct {
	from string
	to   string
}{
	{`\`, `\\`},
	{`^`, `\^`},
	{`.`, `\.`},
	{`$`, `\$`},
	{`|`, `\|`},
	{`(`, `\(`},
	{`)`, `\)`},
	{`[`, `\[`},
	{`]`, `\]`},
	{`*`, `.*`},
	{`+`, `\+`},
	{`?`, `.`},
	{`/`, `\/`},
}

// Translate converts a mask string into regular expression sources, one per
// glob, preserving order. Empty globs (for example from a trailing ';') are
// dropped, so an empty mask string yields no patterns.
func Translate(masks string) []string {
	parts := strings.Split(masks, Separator)
	patterns := make([]string, 0, len(parts))
	for _, glob := range parts {
		if glob == "" {
			continue
		}
		patterns = append(patterns, translateGlob(glob))
	}
	return patterns
}

func translateGlob(glob string) string {
	out := glob
	for _, e := range escapes {
		out = strings.ReplaceAll(out, e.from, e.to)
	}
	return out
}

// List is an immutable, ordered set of compiled masks.
type List struct {
	patterns []string
	compiled []*regexp.Regexp
}

// Compile translates and compiles a mask string.
func Compile(masks string) (*List, error) {
	patterns := Translate(masks)
	list := &List{
		patterns: patterns,
		compiled: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("invalid mask %q: %w", p, err)
		}
		list.compiled = append(list.compiled, re)
	}
	return list, nil
}

// Match reports whether s matches any mask. Masks are tried in order and the
// first match wins. An empty list matches nothing.
func (l *List) Match(s string) bool {
	if l == nil {
		return false
	}
	for _, re := range l.compiled {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Len returns the number of masks.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.compiled)
}

// Patterns returns a copy of the translated pattern sources.
func (l *List) Patterns() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.patterns))
	copy(out, l.patterns)
	return out
}
