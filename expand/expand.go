// Package expand inlines local #includes recursively into one
// self-contained translation unit. Conditional-compilation directives are
// evaluated under partial knowledge: branches whose outcome the macro
// context already determines are elided or dropped, undecidable branches
// are preserved together with their guarding structure, and `#pragma once`
// is emulated with synthesized classic include guards.
package expand

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rubiojr/expand/directive"
	"github.com/rubiojr/expand/scanner"
)

// Options configures a single expansion.
type Options struct {
	// Out receives the expanded translation unit.
	Out io.Writer
	// Exclude, when non-nil, is matched against each include target
	// exactly as written; a match emits the directive verbatim instead of
	// expanding it.
	Exclude *regexp.Regexp
	// IncludeRoots overrides the CPLUS_INCLUDE_PATH roots when non-nil.
	IncludeRoots []string
}

// Expander walks a file's normalized directive stream, deciding per-line
// reachability and splicing included files in place. One Expander performs
// one top-level expansion; nothing is retained across invocations.
type Expander struct {
	out     *bufio.Writer
	exclude *regexp.Regexp
	roots   []string

	// ctx is the live macro context: the currently-active fork of every
	// open undetermined conditional block.
	ctx *Context
	// active holds the resolved paths currently open on the recursion
	// stack, for cyclic-include avoidance.
	active map[string]struct{}
}

// New creates an Expander. Include roots default to the entries of
// CPLUS_INCLUDE_PATH, resolved to absolute paths now.
func New(opts Options) *Expander {
	roots := opts.IncludeRoots
	if roots == nil {
		roots = rootsFromEnv()
	}
	return &Expander{
		out:     bufio.NewWriter(opts.Out),
		exclude: opts.Exclude,
		roots:   roots,
	}
}

// Expand performs the whole expansion of sourcePath, writing surviving
// lines to the output. It returns the first fatal parse or structural
// error encountered in any file.
func (e *Expander) Expand(sourcePath string) error {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return fmt.Errorf("resolving path %s: %w", sourcePath, err)
	}
	e.ctx = NewContext()
	e.active = make(map[string]struct{})
	if err := e.expandFile(abs); err != nil {
		return err
	}
	return e.out.Flush()
}

// frameKind distinguishes the three kinds of conditional-block stack
// frames.
type frameKind int

const (
	// frameSkip balances stack depth for blocks opened inside unreachable
	// code; it never changes reachability or context.
	frameSkip frameKind = iota
	// frameDetermined marks a block whose outcome was fixed at entry; its
	// own directive lines produce no output.
	frameDetermined
	// frameUndetermined marks a block whose outcome is unknown; both
	// branches are preserved and the context is forked.
	frameUndetermined
)

// frame is one open conditional block.
type frame struct {
	kind     frameKind
	open     directive.Directive
	tookElse bool
	outcome  bool // determined frames only
	// elseFork is the not-yet-active fork of an undetermined frame; the
	// active fork is always the expander's live context.
	elseFork *Context
	// bodyResult snapshots the body branch's final context once #else
	// switches away from it.
	bodyResult *Context
}

// fileState is the conditional-block state of one file. Block structure is
// local to each file; the macro context is not.
type fileState struct {
	stack       []frame
	unreachable bool
}

func (e *Expander) expandFile(path string) error {
	if _, open := e.active[path]; open {
		// Cyclic self-inclusion: skip this occurrence.
		return nil
	}
	e.active[path] = struct{}{}
	defer delete(e.active, path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	tr := newTranslator()
	st := &fileState{}
	lr := scanner.NewLineReader(f)
	for line, ok := lr.Next(); ok; line, ok = lr.Next() {
		d, err := directive.Parse(line.Code)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if d == nil {
			if !st.unreachable {
				e.emit(line.Raw)
			}
			continue
		}
		items, err := tr.translate(d, path, line.Raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, it := range items {
			if err := e.apply(st, it, path); err != nil {
				return err
			}
		}
	}
	if err := lr.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for _, it := range tr.finish() {
		if err := e.apply(st, it, path); err != nil {
			return err
		}
	}
	return nil
}

// apply processes one normalized directive against the block stack.
func (e *Expander) apply(st *fileState, it item, path string) error {
	switch d := it.dir.(type) {
	case directive.If, directive.Ifdef, directive.Ifndef:
		e.openBlock(st, it)
	case directive.Else:
		e.elseBlock(st, it)
	case directive.Endif:
		e.endBlock(st, it)
	case directive.Define:
		if !st.unreachable {
			e.ctx.Define(d.Name)
			e.emitItem(it)
		}
	case directive.Undef:
		if !st.unreachable {
			e.ctx.Undefine(d.Name)
			e.emitItem(it)
		}
	case directive.Include:
		if !st.unreachable {
			return e.include(d, it, path)
		}
	default:
		if !st.unreachable {
			e.emitItem(it)
		}
	}
	return nil
}

// openBlock pushes a frame for If/Ifdef/Ifndef.
func (e *Expander) openBlock(st *fileState, it item) {
	if st.unreachable {
		st.stack = append(st.stack, frame{kind: frameSkip})
		return
	}

	if outcome, known := e.decide(it.dir); known {
		st.stack = append(st.stack, frame{kind: frameDetermined, open: it.dir, outcome: outcome})
		st.unreachable = !outcome
		return
	}

	body := e.ctx.Clone()
	other := e.ctx.Clone()
	switch d := it.dir.(type) {
	case directive.Ifdef:
		body.Define(d.Name)
		other.Undefine(d.Name)
	case directive.Ifndef:
		body.Undefine(d.Name)
		other.Define(d.Name)
	}
	st.stack = append(st.stack, frame{kind: frameUndetermined, open: it.dir, elseFork: other})
	e.ctx = body
	e.emitItem(it)
}

// decide asks the macro context whether a conditional's outcome is already
// fixed. Arbitrary #if expressions are never decidable; only the presence
// tests Ifdef/Ifndef are, and only when the name's status is known.
func (e *Expander) decide(d directive.Directive) (outcome, known bool) {
	switch d := d.(type) {
	case directive.Ifdef:
		if s := e.ctx.Status(d.Name); s != StatusUnknown {
			return s == StatusDefined, true
		}
	case directive.Ifndef:
		if s := e.ctx.Status(d.Name); s != StatusUnknown {
			return s == StatusUndefined, true
		}
	}
	return false, false
}

func (e *Expander) elseBlock(st *fileState, it item) {
	top := &st.stack[len(st.stack)-1]
	top.tookElse = true
	switch top.kind {
	case frameSkip:
		// Still inside an unreachable ancestor.
	case frameDetermined:
		st.unreachable = !st.unreachable
	case frameUndetermined:
		top.bodyResult = e.ctx
		e.ctx = top.elseFork
		e.emitItem(it)
	}
}

func (e *Expander) endBlock(st *fileState, it item) {
	top := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]
	switch top.kind {
	case frameSkip:
		// The unreachable ancestor is still open.
	case frameDetermined:
		st.unreachable = false
	case frameUndetermined:
		var bodyRes, elseRes *Context
		if top.tookElse {
			bodyRes, elseRes = top.bodyResult, e.ctx
		} else {
			bodyRes, elseRes = e.ctx, top.elseFork
		}
		if nd, ok := top.open.(directive.Ifndef); ok && !top.tookElse && bodyRes.Status(nd.Name) == StatusDefined {
			// Classic include-guard idiom: `#ifndef G` whose body defined
			// G and that has no #else. Carry the body fork forward
			// verbatim; code relying on it is only valid when that branch
			// is actually taken, which is exactly the guard contract.
			e.ctx = bodyRes
		} else {
			e.ctx = Merge(bodyRes, elseRes)
		}
		e.emitItem(it)
	}
}

// include handles a reachable #include line: exclusion passthrough first,
// then resolution, then recursive splicing. Unresolvable targets are
// emitted verbatim and left for the external toolchain.
func (e *Expander) include(d directive.Include, it item, from string) error {
	if e.exclude != nil && e.exclude.MatchString(d.Target) {
		e.emitItem(it)
		return nil
	}
	resolved, ok := e.resolve(d.Target, d.Quoted, from)
	if !ok {
		e.emitItem(it)
		return nil
	}
	return e.expandFile(resolved)
}

// emitItem writes a directive line: the original raw text when the line
// came from a source file, canonical text for synthesized directives.
func (e *Expander) emitItem(it item) {
	if it.raw != "" {
		e.emit(it.raw)
		return
	}
	e.emit(it.dir.String())
}

func (e *Expander) emit(line string) {
	e.out.WriteString(line)
	e.out.WriteByte('\n')
}
