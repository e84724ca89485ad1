package sourcemap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Line Index Tests
// ============================================================================

func TestLineIndexEmpty(t *testing.T) {
	idx := NewLineIndex("")
	assert.Equal(t, 1, idx.LineCount())
	assert.Equal(t, "", idx.Line(0))

	line, col := idx.ByteOffsetToLineColumnUTF16(0)
	assert.Equal(t, 0, line)
	assert.Equal(t, 0, col)
}

func TestLineIndexLines(t *testing.T) {
	tests := []struct {
		name   string
		source string
		lines  []string
	}{
		{"single", "const x = 1;", []string{"const x = 1;"}},
		{"lf", "a\nb\nc", []string{"a", "b", "c"}},
		{"crlf", "a\r\nb", []string{"a", "b"}},
		{"cr", "a\rb", []string{"a", "b"}},
		{"trailing_newline", "a\n", []string{"a", ""}},
		{"blank_lines", "\n\n", []string{"", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewLineIndex(tt.source)
			assert.Equal(t, len(tt.lines), idx.LineCount())
			for i, want := range tt.lines {
				assert.Equal(t, want, idx.Line(i), "line %d", i)
			}
			assert.Equal(t, "", idx.Line(-1))
			assert.Equal(t, "", idx.Line(len(tt.lines)))
		})
	}
}

func TestLineIndexByteOffsetToLineColumnUTF16(t *testing.T) {
	source := "const x = 1;\nlet 😀 = \"é\";\r\nz"
	idx := NewLineIndex(source)

	tests := []struct {
		offset int
		line   int
		col    int
	}{
		{0, 0, 0},
		{6, 0, 6},
		{12, 0, 12}, // the '\n' itself stays on line 0
		{13, 1, 0},
		{17, 1, 4},   // start of the emoji
		{21, 1, 6},   // after the emoji: 2 UTF-16 units
		{26, 1, 10},  // inside 'é': snaps to its start
		{27, 1, 11},  // after 'é': one unit for two bytes
		{31, 2, 0},   // 'z' after CRLF
		{100, 2, 1},  // clamped to the end
		{-5, 0, 0},   // clamped to the start
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset_%d", tt.offset), func(t *testing.T) {
			line, col := idx.ByteOffsetToLineColumnUTF16(tt.offset)
			assert.Equal(t, tt.line, line)
			assert.Equal(t, tt.col, col)
		})
	}
}

func TestLineIndexLineColumnUTF16ToByteOffset(t *testing.T) {
	source := "ab😀cd\nxyz"
	idx := NewLineIndex(source)

	tests := []struct {
		line   int
		col    int
		offset int
	}{
		{0, 0, 0},
		{0, 2, 2},  // start of the emoji
		{0, 3, 2},  // inside the surrogate pair
		{0, 4, 6},  // 'c'
		{0, 6, 8},  // end of line
		{0, 99, 8}, // clamped to the line end
		{1, 1, 10},
		{5, 0, len(source)},
		{-1, 3, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("line_%d_col_%d", tt.line, tt.col), func(t *testing.T) {
			assert.Equal(t, tt.offset, idx.LineColumnUTF16ToByteOffset(tt.line, tt.col))
		})
	}
}

func TestLineIndexRoundtrip(t *testing.T) {
	source := "héllo wörld\n😀 x\n"
	idx := NewLineIndex(source)

	for offset := 0; offset <= len(source); offset++ {
		line, col := idx.ByteOffsetToLineColumnUTF16(offset)
		back := idx.LineColumnUTF16ToByteOffset(line, col)
		// Offsets inside a multi-byte rune snap back to its start.
		assert.LessOrEqual(t, back, offset, "offset %d", offset)
	}
}
