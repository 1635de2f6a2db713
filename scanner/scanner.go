// Package scanner converts a raw C/C++ source stream into logical lines.
// It encapsulates the tracking of string and character literal boundaries,
// line and block comments, and backslash line continuations, so that the
// directive layer only ever sees clean, joined code text.
package scanner

import (
	"bufio"
	"io"
	"strings"
)

// Line is one logical source line. Raw is the byte-for-byte original text
// (physical lines of a continued or comment-spanning line are joined with
// '\n', no trailing newline). Code is the comment-stripped,
// continuation-joined form used for directive classification.
type Line struct {
	Raw  string
	Code string
}

// scanState tracks what kind of construct the scanner is currently inside.
type scanState int

const (
	stateCode    scanState = iota
	stateString            // inside "..."
	stateChar              // inside '...'
	stateComment           // inside /* ... */
)

// maxPhysicalLine bounds a single physical source line. Generated
// competitive-programming headers can carry very long lines.
const maxPhysicalLine = 1 << 20

// LineReader produces logical lines from a physical line stream. Scanner
// state (open string, open block comment) persists across emitted lines,
// matching traditional preprocessor behavior on malformed input.
type LineReader struct {
	sc      *bufio.Scanner
	state   scanState
	escaped bool
	done    bool
}

// NewLineReader creates a LineReader over r. Line endings are normalized
// to '\n'.
func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxPhysicalLine)
	return &LineReader{sc: sc}
}

// Next returns the next logical line. The second result is false once the
// stream is exhausted.
func (lr *LineReader) Next() (Line, bool) {
	if lr.done {
		return Line{}, false
	}

	var raw, code strings.Builder
	started := false

	for lr.sc.Scan() {
		phys := strings.TrimSuffix(lr.sc.Text(), "\r")
		if started {
			raw.WriteByte('\n')
		}
		raw.WriteString(phys)
		started = true

		continued := lr.scanPhysical(phys, &code)
		if lr.state != stateComment && !continued {
			return Line{Raw: raw.String(), Code: code.String()}, true
		}
	}

	lr.done = true
	if started {
		// Trailing continuation or unterminated block comment at EOF.
		return Line{Raw: raw.String(), Code: code.String()}, true
	}
	return Line{}, false
}

// Err returns the error that terminated the physical line stream, if any.
// A nil result means the stream ended at clean EOF. Oversized physical
// lines surface here as bufio.ErrTooLong.
func (lr *LineReader) Err() error {
	return lr.sc.Err()
}

// scanPhysical consumes one physical line, appending surviving characters
// to code. It reports whether the line ends with a continuation backslash.
func (lr *LineReader) scanPhysical(phys string, code *strings.Builder) bool {
	for i := 0; i < len(phys); i++ {
		ch := phys[i]

		switch lr.state {
		case stateString, stateChar:
			code.WriteByte(ch)
			if lr.escaped {
				lr.escaped = false
				break
			}
			switch {
			case ch == '\\':
				lr.escaped = true
			case ch == '"' && lr.state == stateString:
				lr.state = stateCode
			case ch == '\'' && lr.state == stateChar:
				lr.state = stateCode
			}

		case stateComment:
			if ch == '*' && i+1 < len(phys) && phys[i+1] == '/' {
				i++
				lr.state = stateCode
			}

		default: // stateCode
			switch {
			case ch == '"':
				lr.state = stateString
				code.WriteByte(ch)
			case ch == '\'':
				lr.state = stateChar
				code.WriteByte(ch)
			case ch == '/' && i+1 < len(phys) && phys[i+1] == '*':
				i++
				lr.state = stateComment
			case ch == '/' && i+1 < len(phys) && phys[i+1] == '/':
				// Line comment: the rest of the physical line is dropped
				// from code but stays in raw.
				return false
			case ch == '\\' && strings.TrimSpace(phys[i+1:]) == "":
				// Continuation: backslash followed only by whitespace.
				return true
			default:
				code.WriteByte(ch)
			}
		}
	}

	// A backslash that ended a string-literal line escapes the (removed)
	// newline; it never survives into the next physical line.
	lr.escaped = false
	return false
}
