package expand

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/rubiojr/expand/directive"
)

// item is one normalized directive paired with the raw text of the logical
// line it came from. Synthesized directives (elif rewrites, include guards)
// have no raw text and are emitted in canonical form.
type item struct {
	dir directive.Directive
	raw string
}

// translator rewrites one file's directive stream into a normalized form
// containing no Elif and no top-level `#pragma once`:
//
//   - `#elif E` becomes `#else` + `#if E`, and the enclosing source block
//     then owes one extra `#endif` for the block the synthesized `#if`
//     opened.
//   - `#if defined(X)` / `#if !defined(X)` become `#ifdef X` / `#ifndef X`
//     so the expander can decide them from the macro context.
//   - the first top-level `#pragma once` becomes `#ifndef GUARD` +
//     `#define GUARD`, with the matching `#endif` appended once the whole
//     file has been consumed.
//
// It also validates conditional structure: `#elif`, `#else` and `#endif`
// with no open block are fatal.
type translator struct {
	// owed has one entry per open source-level conditional block: the
	// number of synthesized #ifs that must be closed alongside it.
	owed    []int
	guard   string
	guarded bool
}

func newTranslator() *translator {
	return &translator{}
}

// translate normalizes a single parsed directive. path is the resolved
// absolute path of the file being translated, used to derive the include
// guard name; raw is the original logical-line text.
func (t *translator) translate(d directive.Directive, path, raw string) ([]item, error) {
	switch d := d.(type) {
	case directive.If, directive.Ifdef, directive.Ifndef:
		t.owed = append(t.owed, 0)
		return []item{{dir: rewriteIfLike(d), raw: raw}}, nil

	case directive.Elif:
		if len(t.owed) == 0 {
			return nil, fmt.Errorf("#elif without matching #if")
		}
		t.owed[len(t.owed)-1]++
		return []item{
			{dir: directive.Else{}},
			{dir: rewriteIfLike(directive.If{Expr: d.Expr})},
		}, nil

	case directive.Else:
		if len(t.owed) == 0 {
			return nil, fmt.Errorf("#else without matching #if")
		}
		return []item{{dir: d, raw: raw}}, nil

	case directive.Endif:
		if len(t.owed) == 0 {
			return nil, fmt.Errorf("#endif without matching #if")
		}
		extra := t.owed[len(t.owed)-1]
		t.owed = t.owed[:len(t.owed)-1]
		items := make([]item, 0, extra+1)
		for i := 0; i < extra; i++ {
			items = append(items, item{dir: directive.Endif{}})
		}
		return append(items, item{dir: d, raw: raw}), nil

	case directive.Pragma:
		if strings.TrimSpace(d.Command) != "once" || len(t.owed) > 0 {
			// Other pragmas, and a `#pragma once` nested inside a
			// conditional, pass through untouched.
			return []item{{dir: d, raw: raw}}, nil
		}
		if t.guarded {
			// Guard already active: a repeated top-level once is a no-op.
			return nil, nil
		}
		t.guarded = true
		t.guard = guardName(path)
		return []item{
			{dir: directive.Ifndef{Name: t.guard}},
			{dir: directive.Define{Name: t.guard}},
		}, nil

	default:
		return []item{{dir: d, raw: raw}}, nil
	}
}

// finish emits the closing `#endif` of a synthesized include guard after
// the file's line stream is exhausted.
func (t *translator) finish() []item {
	if !t.guarded {
		return nil
	}
	return []item{{dir: directive.Endif{}}}
}

var definedRe = regexp.MustCompile(`^defined(?:\s*\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)|\s+([A-Za-z_][A-Za-z0-9_]*))$`)

// rewriteIfLike converts `#if defined(X)` and `#if !defined(X)` into
// `#ifdef X` / `#ifndef X`, tolerating redundant outer parentheses. Any
// other expression is left as an undecidable plain If.
func rewriteIfLike(d directive.Directive) directive.Directive {
	ifd, ok := d.(directive.If)
	if !ok {
		return d
	}
	expr := strings.TrimSpace(ifd.Expr)
	for strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") && balanced(expr[1:len(expr)-1]) {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	negated := false
	if strings.HasPrefix(expr, "!") {
		negated = true
		expr = strings.TrimSpace(expr[1:])
	}
	m := definedRe.FindStringSubmatch(expr)
	if m == nil {
		return d
	}
	name := m[1]
	if name == "" {
		name = m[2]
	}
	if negated {
		return directive.Ifndef{Name: name}
	}
	return directive.Ifdef{Name: name}
}

// balanced reports whether every ')' in s has a matching earlier '('.
func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// guardName derives a deterministic include-guard macro from a header's
// resolved absolute path. The prefix keeps it clear of user identifiers.
func guardName(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("EXPAND_%016X", h.Sum64())
}
