// Package directive defines the closed set of preprocessor directives the
// expander understands and classifies logical-line code text into them.
// Only inclusion and conditional-block reachability are modeled: macro
// bodies are carried as opaque text and never substituted.
package directive

import (
	"fmt"
	"strings"
)

// Directive is one recognized preprocessor control line. The set of
// implementations is closed; consumers dispatch with exhaustive type
// switches. String reconstructs canonical directive text.
type Directive interface {
	fmt.Stringer
	directive()
}

// Include represents `#include "target"` (Quoted) or `#include <target>`.
type Include struct {
	Target string
	Quoted bool
}

// Define represents `#define Name Body` or the function-like form
// `#define Name(Params) Body`. Params is nil for object-like macros and
// non-nil (possibly empty) for function-like ones. The body is kept only
// so the directive can be reconstructed; it is never expanded.
type Define struct {
	Name   string
	Params []string
	Body   string
}

// Undef represents `#undef Name`.
type Undef struct {
	Name string
}

// Pragma represents `#pragma Command`.
type Pragma struct {
	Command string
}

// If represents `#if Expr`.
type If struct {
	Expr string
}

// Ifdef represents `#ifdef Name`.
type Ifdef struct {
	Name string
}

// Ifndef represents `#ifndef Name`.
type Ifndef struct {
	Name string
}

// Elif represents `#elif Expr`.
type Elif struct {
	Expr string
}

// Else represents `#else`.
type Else struct{}

// Endif represents `#endif`.
type Endif struct{}

func (Include) directive() {}
func (Define) directive()  {}
func (Undef) directive()   {}
func (Pragma) directive()  {}
func (If) directive()      {}
func (Ifdef) directive()   {}
func (Ifndef) directive()  {}
func (Elif) directive()    {}
func (Else) directive()    {}
func (Endif) directive()   {}

func (d Include) String() string {
	if d.Quoted {
		return fmt.Sprintf("#include %q", d.Target)
	}
	return fmt.Sprintf("#include <%s>", d.Target)
}

func (d Define) String() string {
	var sb strings.Builder
	sb.WriteString("#define ")
	sb.WriteString(d.Name)
	if d.Params != nil {
		sb.WriteByte('(')
		sb.WriteString(strings.Join(d.Params, ", "))
		sb.WriteByte(')')
	}
	if d.Body != "" {
		sb.WriteByte(' ')
		sb.WriteString(d.Body)
	}
	return sb.String()
}

func (d Undef) String() string  { return "#undef " + d.Name }
func (d Pragma) String() string { return "#pragma " + d.Command }
func (d If) String() string     { return "#if " + d.Expr }
func (d Ifdef) String() string  { return "#ifdef " + d.Name }
func (d Ifndef) String() string { return "#ifndef " + d.Name }
func (d Elif) String() string   { return "#elif " + d.Expr }
func (Else) String() string     { return "#else" }
func (Endif) String() string    { return "#endif" }

// IsIfLike reports whether d opens a conditional block.
func IsIfLike(d Directive) bool {
	switch d.(type) {
	case If, Ifdef, Ifndef:
		return true
	}
	return false
}
