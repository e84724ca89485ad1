package sourcemap

import (
	"sort"
	"strings"
)

// Segment is one position entry of a generated line. Column is the position
// in the line the table is indexed by; the Source* fields point at the other
// side of the mapping. A segment without HasSource is unmapped.
type Segment struct {
	Column       int
	Source       string
	SourceLine   int // 0-based
	SourceColumn int // 0-based, UTF-16 code units
	Name         string
	HasSource    bool
	HasName      bool
}

// Mapped reports whether the segment points at a source position.
func (s Segment) Mapped() bool {
	return s.HasSource
}

// Line holds the segments of one line in decode order.
type Line []Segment

// Table is a mapping table indexed by 0-based line number. Lines without
// segments are present and empty.
type Table []Line

// SegmentCount returns the total number of segments in the table.
func (t Table) SegmentCount() int {
	n := 0
	for _, line := range t {
		n += len(line)
	}
	return n
}

// Lookup returns the segment covering (line, column): the last segment of
// that line, in column order, whose Column is <= column.
func (t Table) Lookup(line, column int) (Segment, bool) {
	if line < 0 || line >= len(t) {
		return Segment{}, false
	}
	var found Segment
	ok := false
	for _, seg := range t[line] {
		if seg.Column <= column && (!ok || seg.Column >= found.Column) {
			found = seg
			ok = true
		}
	}
	return found, ok
}

// Sorted returns a copy of the line stably sorted by column.
func (l Line) Sorted() Line {
	if l == nil {
		return nil
	}
	sorted := make(Line, len(l))
	copy(sorted, l)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Column < sorted[b].Column
	})
	return sorted
}

// Sorted returns a copy of the table with each line stably sorted by column.
func (t Table) Sorted() Table {
	out := make(Table, len(t))
	for i, line := range t {
		out[i] = line.Sorted()
	}
	return out
}

// DecodeOptions controls how strictly a mappings string is checked.
type DecodeOptions struct {
	// Strict makes out-of-range source and name indexes a decode failure.
	// When false, a segment with a bad source index is kept unmapped and a
	// bad name index is dropped.
	Strict bool
}

// DefaultDecodeOptions returns the strict decoding options.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{Strict: true}
}

// decodeState holds the running counters of a mappings string. Only the
// generated column is reset at line boundaries.
type decodeState struct {
	genCol    int
	srcIndex  int
	srcLine   int
	srcCol    int
	nameIndex int
}

// DecodeMappings decodes a VLQ-encoded mappings string into a Table,
// resolving source and name indexes against sources and names.
func DecodeMappings(mappings string, sources, names []string, opts DecodeOptions) (Table, error) {
	if mappings == "" {
		return Table{}, nil
	}

	table := make(Table, 0, strings.Count(mappings, ";")+1)
	var st decodeState
	var fields [5]int

	lineStart := 0
	for lineIdx := 0; ; lineIdx++ {
		lineEnd := strings.IndexByte(mappings[lineStart:], ';')
		if lineEnd < 0 {
			lineEnd = len(mappings)
		} else {
			lineEnd += lineStart
		}

		st.genCol = 0 // Reset column for each line
		var line Line

		segStart := lineStart
		for segIdx := 0; segStart <= lineEnd; segIdx++ {
			segEnd := strings.IndexByte(mappings[segStart:lineEnd], ',')
			if segEnd < 0 {
				segEnd = lineEnd
			} else {
				segEnd += segStart
			}

			if segEnd > segStart {
				seg, err := st.decodeSegment(mappings[segStart:segEnd], &fields, sources, names, opts)
				if err != nil {
					return nil, &DecodeError{
						Line:    lineIdx,
						Segment: segIdx,
						Offset:  segStart,
						Err:     err,
					}
				}
				line = append(line, seg)
			}

			segStart = segEnd + 1
		}

		table = append(table, line)

		if lineEnd >= len(mappings) {
			break
		}
		lineStart = lineEnd + 1
	}

	return table, nil
}

// decodeSegment reads the VLQ fields of one segment, applies them to the
// running counters and returns the resulting segment.
func (st *decodeState) decodeSegment(raw string, fields *[5]int, sources, names []string, opts DecodeOptions) (Segment, error) {
	n := 0
	for pos := 0; pos < len(raw); {
		if n == len(fields) {
			return Segment{}, ErrInvalidSegmentLength
		}
		value, consumed, err := DecodeVLQ(raw[pos:])
		if err != nil {
			return Segment{}, err
		}
		fields[n] = value
		n++
		pos += consumed
	}

	switch n {
	case 1, 4, 5:
	default:
		return Segment{}, ErrInvalidSegmentLength
	}

	st.genCol += fields[0]
	seg := Segment{Column: st.genCol}
	if n == 1 {
		return seg, nil
	}

	st.srcIndex += fields[1]
	st.srcLine += fields[2]
	st.srcCol += fields[3]

	if st.srcIndex < 0 || st.srcIndex >= len(sources) {
		if opts.Strict {
			return Segment{}, ErrIndexOutOfRange
		}
	} else {
		seg.Source = sources[st.srcIndex]
		seg.SourceLine = st.srcLine
		seg.SourceColumn = st.srcCol
		seg.HasSource = true
	}

	if n == 5 {
		st.nameIndex += fields[4]
		if st.nameIndex < 0 || st.nameIndex >= len(names) {
			if opts.Strict {
				return Segment{}, ErrIndexOutOfRange
			}
		} else if seg.HasSource {
			seg.Name = names[st.nameIndex]
			seg.HasName = true
		}
	}

	return seg, nil
}
