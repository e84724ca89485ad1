package sourcemap

import (
	"sort"
	"unicode/utf8"
)

// LineIndex maps between byte offsets and (line, column) positions of a text.
// Columns are counted in UTF-16 code units, the unit source maps use.
type LineIndex struct {
	text       string
	lineStarts []int // byte offset of each line start
	lineEnds   []int // byte offset of each line end, terminator excluded
}

// NewLineIndex creates a LineIndex for the given text. LF, CRLF and lone CR
// all end a line.
func NewLineIndex(text string) *LineIndex {
	idx := &LineIndex{
		text:       text,
		lineStarts: []int{0},
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			idx.lineEnds = append(idx.lineEnds, i)
			idx.lineStarts = append(idx.lineStarts, i+1)
		case '\r':
			idx.lineEnds = append(idx.lineEnds, i)
			if i+1 < len(text) && text[i+1] == '\n' {
				i++ // Skip the LF
			}
			idx.lineStarts = append(idx.lineStarts, i+1)
		}
	}
	idx.lineEnds = append(idx.lineEnds, len(text))

	return idx
}

// LineCount returns the number of lines. A trailing terminator opens a final
// empty line, matching how generated line numbers are counted.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

// Line returns the text of a 0-based line without its terminator.
func (idx *LineIndex) Line(line int) string {
	if line < 0 || line >= len(idx.lineStarts) {
		return ""
	}
	return idx.text[idx.lineStarts[line]:idx.lineEnds[line]]
}

// LineLengthUTF16 returns the length of a line in UTF-16 code units.
func (idx *LineIndex) LineLengthUTF16(line int) int {
	return utf16Length(idx.Line(line))
}

// ByteOffsetToLineColumnUTF16 converts a byte offset to a 0-based line and
// UTF-16 column. Offsets are clamped to the text.
func (idx *LineIndex) ByteOffsetToLineColumnUTF16(offset int) (line, col int) {
	if offset < 0 {
		return 0, 0
	}
	if offset > len(idx.text) {
		offset = len(idx.text)
	}

	line = sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1

	if line < 0 {
		line = 0
	}

	start := idx.lineStarts[line]
	end := idx.lineEnds[line]
	if offset > end {
		offset = end
	}
	// Offsets inside a multi-byte rune resolve to the rune's start
	for offset > start && offset < end && !utf8.RuneStart(idx.text[offset]) {
		offset--
	}
	col = utf16Length(idx.text[start:offset])

	return line, col
}

// LineColumnUTF16ToByteOffset converts a 0-based line and UTF-16 column to a
// byte offset. Columns past the end of the line clamp to the line end; a
// column inside a surrogate pair resolves to the start of that rune.
func (idx *LineIndex) LineColumnUTF16ToByteOffset(line, col int) int {
	if line < 0 {
		return 0
	}
	if line >= len(idx.lineStarts) {
		return len(idx.text)
	}

	start := idx.lineStarts[line]
	end := idx.lineEnds[line]
	units := 0
	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(idx.text[i:end])
		w := 1
		if r >= 0x10000 {
			w = 2
		}
		if units+w > col {
			return i
		}
		units += w
		i += size
	}
	return end
}

// utf16Length counts the UTF-16 code units of s. Invalid UTF-8 bytes count
// as one unit each.
func utf16Length(s string) int {
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= 0x10000 {
			// Supplementary plane - needs surrogate pair
			n += 2
		} else {
			n++
		}
		i += size
	}
	return n
}
