package scanner

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, src string) []Line {
	t.Helper()
	lr := NewLineReader(strings.NewReader(src))
	var lines []Line
	for l, ok := lr.Next(); ok; l, ok = lr.Next() {
		lines = append(lines, l)
	}
	return lines
}

func TestLineReader_PlainLines(t *testing.T) {
	lines := readAll(t, "int main() {\n  return 0;\n}\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "int main() {", lines[0].Raw)
	assert.Equal(t, "int main() {", lines[0].Code)
	assert.Equal(t, "}", lines[2].Raw)
}

func TestLineReader_NoTrailingNewline(t *testing.T) {
	lines := readAll(t, "int x;")
	require.Len(t, lines, 1)
	assert.Equal(t, "int x;", lines[0].Raw)
	assert.Equal(t, "int x;", lines[0].Code)
}

func TestLineReader_CRLFNormalized(t *testing.T) {
	lines := readAll(t, "int x;\r\nint y;\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "int x;", lines[0].Raw)
	assert.Equal(t, "int y;", lines[1].Raw)
}

func TestLineReader_LineComment(t *testing.T) {
	lines := readAll(t, "int x; // the answer\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "int x; // the answer", lines[0].Raw)
	assert.Equal(t, "int x; ", lines[0].Code)
}

func TestLineReader_BlockCommentSameLine(t *testing.T) {
	lines := readAll(t, "int /* unused */ x;\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "int /* unused */ x;", lines[0].Raw)
	assert.Equal(t, "int  x;", lines[0].Code)
}

func TestLineReader_BlockCommentSpansLines(t *testing.T) {
	// A block comment spanning physical lines keeps them in one logical line.
	lines := readAll(t, "int x; /* first\nsecond */ int y;\nint z;\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "int x; /* first\nsecond */ int y;", lines[0].Raw)
	assert.Equal(t, "int x;  int y;", lines[0].Code)
	assert.Equal(t, "int z;", lines[1].Code)
}

func TestLineReader_CommentDelimitersInsideString(t *testing.T) {
	lines := readAll(t, `const char *s = "// not a comment /*";`+"\n")
	require.Len(t, lines, 1)
	assert.Equal(t, `const char *s = "// not a comment /*";`, lines[0].Code)
}

func TestLineReader_EscapedQuoteInsideString(t *testing.T) {
	lines := readAll(t, `puts("she said \"hi\" // ok");`+"\n")
	require.Len(t, lines, 1)
	assert.Equal(t, `puts("she said \"hi\" // ok");`, lines[0].Code)
}

func TestLineReader_CharLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code string
	}{
		{"quote char", `if (c == '"') x++; // quote`, `if (c == '"') x++; `},
		{"slash chars", `if (c == '/' && d == '/') x++;`, `if (c == '/' && d == '/') x++;`},
		{"escaped quote char", `char q = '\''; // apostrophe`, `char q = '\''; `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := readAll(t, tt.in+"\n")
			require.Len(t, lines, 1)
			assert.Equal(t, tt.code, lines[0].Code)
		})
	}
}

func TestLineReader_Continuation(t *testing.T) {
	lines := readAll(t, "#define MAX(a, b) \\\n  ((a) > (b) ? (a) : (b))\nint x;\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#define MAX(a, b) \\\n  ((a) > (b) ? (a) : (b))", lines[0].Raw)
	assert.Equal(t, "#define MAX(a, b)   ((a) > (b) ? (a) : (b))", lines[0].Code)
	assert.Equal(t, "int x;", lines[1].Code)
}

func TestLineReader_ContinuationTrailingWhitespace(t *testing.T) {
	// Backslash followed only by whitespace still continues the line.
	lines := readAll(t, "#define A \\ \t\n1\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "#define A 1", lines[0].Code)
}

func TestLineReader_ContinuationAcrossBlockComment(t *testing.T) {
	// Joining works while a block comment is open across the splice.
	lines := readAll(t, "#define B /* a\nb */ \\\n2\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "#define B  2", lines[0].Code)
	assert.Equal(t, "#define B /* a\nb */ \\\n2", lines[0].Raw)
}

func TestLineReader_ContinuationAtEOF(t *testing.T) {
	lines := readAll(t, "int x; \\")
	require.Len(t, lines, 1)
	assert.Equal(t, "int x; ", lines[0].Code)
}

func TestLineReader_UnterminatedBlockCommentAtEOF(t *testing.T) {
	lines := readAll(t, "int x; /* never closed\nstill comment")
	require.Len(t, lines, 1)
	assert.Equal(t, "int x; ", lines[0].Code)
	assert.Equal(t, "int x; /* never closed\nstill comment", lines[0].Raw)
}

func TestLineReader_Empty(t *testing.T) {
	lines := readAll(t, "")
	assert.Nil(t, lines)
}

func TestLineReader_LongLineWithinBound(t *testing.T) {
	// Generated headers can carry single lines approaching the cap.
	long := "int x = " + strings.Repeat("1", maxPhysicalLine-10) + ";"
	lr := NewLineReader(strings.NewReader(long + "\n"))

	line, ok := lr.Next()
	require.True(t, ok)
	assert.Equal(t, long, line.Raw)
	assert.Equal(t, long, line.Code)

	_, ok = lr.Next()
	assert.False(t, ok)
	assert.NoError(t, lr.Err())
}

func TestLineReader_OversizedLineReportsError(t *testing.T) {
	long := strings.Repeat("x", maxPhysicalLine+1)
	lr := NewLineReader(strings.NewReader(long + "\n"))

	_, ok := lr.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, lr.Err(), bufio.ErrTooLong)
}
