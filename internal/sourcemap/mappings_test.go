package sourcemap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmapped(col int) Segment {
	return Segment{Column: col}
}

func mapped(col int, source string, line, srcCol int) Segment {
	return Segment{Column: col, Source: source, SourceLine: line, SourceColumn: srcCol, HasSource: true}
}

func named(col int, source string, line, srcCol int, name string) Segment {
	s := mapped(col, source, line, srcCol)
	s.Name = name
	s.HasName = true
	return s
}

// ============================================================================
// Mapping Decoder Tests
// ============================================================================

func TestDecodeMappingsSingleLine(t *testing.T) {
	// 'S' is 18: continuation clear, sign clear, value 9.
	table, err := DecodeMappings("AAAA,SAAA,SAAA", []string{"a.js"}, nil, DefaultDecodeOptions())
	require.NoError(t, err)

	require.Len(t, table, 1)
	assert.Equal(t, Line{
		mapped(0, "a.js", 0, 0),
		mapped(9, "a.js", 0, 0),
		mapped(18, "a.js", 0, 0),
	}, table[0])
}

func TestDecodeMappingsTable(t *testing.T) {
	sources := []string{"a.js", "b.js"}
	names := []string{"foo", "bar"}

	tests := []struct {
		name     string
		mappings string
		expected Table
	}{
		{
			name:     "empty",
			mappings: "",
			expected: Table{},
		},
		{
			name:     "unmapped_only",
			mappings: "A,E,C",
			expected: Table{{unmapped(0), unmapped(2), unmapped(3)}},
		},
		{
			name:     "leading_semicolon",
			mappings: ";AAAA",
			expected: Table{nil, {mapped(0, "a.js", 0, 0)}},
		},
		{
			name:     "only_semicolons",
			mappings: ";;",
			expected: Table{nil, nil, nil},
		},
		{
			name:     "trailing_semicolon",
			mappings: "AAAA;",
			expected: Table{{mapped(0, "a.js", 0, 0)}, nil},
		},
		{
			name:     "empty_segments_skipped",
			mappings: ",AAAA,,CAAC,",
			expected: Table{{mapped(0, "a.js", 0, 0), mapped(1, "a.js", 0, 1)}},
		},
		{
			name:     "column_resets_per_line",
			mappings: "KAAA;KAAA",
			expected: Table{{mapped(5, "a.js", 0, 0)}, {mapped(5, "a.js", 0, 0)}},
		},
		{
			name: "source_counters_persist_across_lines",
			// line 0: col 0 -> a.js 0:4; line 1: col 2 -> b.js 1:4 (deltas +1, +1, 0)
			mappings: "AAAI;ECCA",
			expected: Table{
				{mapped(0, "a.js", 0, 4)},
				{mapped(2, "b.js", 1, 4)},
			},
		},
		{
			name:     "names",
			mappings: "AAAAA,CAAAC,CAAAD",
			expected: Table{{
				named(0, "a.js", 0, 0, "foo"),
				named(1, "a.js", 0, 0, "bar"),
				named(2, "a.js", 0, 0, "foo"),
			}},
		},
		{
			name:     "mixed_mapped_and_unmapped",
			mappings: "AAAA,E,CAAC",
			expected: Table{{
				mapped(0, "a.js", 0, 0),
				unmapped(2),
				mapped(3, "a.js", 0, 1),
			}},
		},
		{
			name: "out_of_order_columns_kept",
			// col 4, then delta -2 -> col 2
			mappings: "IAAA,FAAC",
			expected: Table{{
				mapped(4, "a.js", 0, 0),
				mapped(2, "a.js", 0, 1),
			}},
		},
		{
			name:     "duplicate_columns_keep_encounter_order",
			mappings: "AAAA,AAAC",
			expected: Table{{
				mapped(0, "a.js", 0, 0),
				mapped(0, "a.js", 0, 1),
			}},
		},
		{
			name:     "multi_digit_values",
			mappings: "gBAAgB",
			expected: Table{{mapped(16, "a.js", 0, 16)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := DecodeMappings(tt.mappings, sources, names, DefaultDecodeOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, table)
		})
	}
}

func TestDecodeMappingsErrors(t *testing.T) {
	sources := []string{"a.js"}
	names := []string{"foo"}

	tests := []struct {
		name     string
		mappings string
		want     error
		line     int
		segment  int
	}{
		{"two_fields", "AA", ErrInvalidSegmentLength, 0, 0},
		{"three_fields", "AAA", ErrInvalidSegmentLength, 0, 0},
		{"six_fields", "AAAAAA", ErrInvalidSegmentLength, 0, 0},
		{"invalid_char", "AAAA;A!AA", ErrInvalidCharacter, 1, 0},
		{"unterminated", "AAAA,g", ErrUnterminatedVLQ, 0, 1},
		{"overflow", "gggggggB", ErrVLQOverflow, 0, 0},
		{"source_out_of_range", "ACAA", ErrIndexOutOfRange, 0, 0},
		{"negative_source", "ADAA", ErrIndexOutOfRange, 0, 0},
		{"name_out_of_range", "AAAAA,CAAAC", ErrIndexOutOfRange, 0, 1},
		{"later_line_out_of_range", "AAAA;;AEAA", ErrIndexOutOfRange, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := DecodeMappings(tt.mappings, sources, names, DefaultDecodeOptions())
			require.Error(t, err)
			assert.Nil(t, table)
			assert.ErrorIs(t, err, tt.want)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.line, decodeErr.Line)
			assert.Equal(t, tt.segment, decodeErr.Segment)
		})
	}
}

func TestDecodeMappingsErrorOffset(t *testing.T) {
	_, err := DecodeMappings("AAAA;AAAA,A!", []string{"a.js"}, nil, DefaultDecodeOptions())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 10, decodeErr.Offset)
	assert.Contains(t, decodeErr.Error(), "line 1, segment 1")
}

func TestDecodeMappingsLenient(t *testing.T) {
	opts := DecodeOptions{Strict: false}

	table, err := DecodeMappings("ACAA,CDAA,CAAAC", []string{"a.js"}, []string{"foo"}, opts)
	require.NoError(t, err)

	// Segment 0 points at source 1 (missing) and becomes unmapped; the
	// counter still moves, so segment 1 is back on source 0.
	assert.Equal(t, Table{{
		unmapped(0),
		mapped(1, "a.js", 0, 0),
		mapped(2, "a.js", 0, 0), // name index 1 is out of range and dropped
	}}, table)
}

func TestDecodeMappingsDeterministic(t *testing.T) {
	const mappings = "AAAA,SAAS,CAAC;ACAE,GAAG;;EAAE,CAAC"
	sources := []string{"a.js", "b.js"}

	first, err := DecodeMappings(mappings, sources, nil, DefaultDecodeOptions())
	require.NoError(t, err)
	second, err := DecodeMappings(mappings, sources, nil, DefaultDecodeOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
	assert.Equal(t, 7, first.SegmentCount())
}

// ============================================================================
// Table Helper Tests
// ============================================================================

func TestTableLookup(t *testing.T) {
	table := Table{
		{mapped(0, "a.js", 0, 0), unmapped(4), mapped(8, "a.js", 0, 8)},
		nil,
		{mapped(10, "a.js", 1, 0), mapped(3, "a.js", 2, 0)},
	}

	tests := []struct {
		name   string
		line   int
		column int
		want   Segment
		ok     bool
	}{
		{"exact", 0, 4, unmapped(4), true},
		{"between", 0, 6, unmapped(4), true},
		{"past_end", 0, 100, mapped(8, "a.js", 0, 8), true},
		{"empty_line", 1, 0, Segment{}, false},
		{"before_first", 2, 1, Segment{}, false},
		{"unsorted_line", 2, 5, mapped(3, "a.js", 2, 0), true},
		{"line_out_of_range", 3, 0, Segment{}, false},
		{"negative_line", -1, 0, Segment{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Lookup(tt.line, tt.column)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableSorted(t *testing.T) {
	table := Table{
		{mapped(4, "a.js", 0, 0), mapped(2, "a.js", 0, 1), mapped(2, "a.js", 0, 2)},
	}

	sorted := table.Sorted()

	assert.Equal(t, Line{
		mapped(2, "a.js", 0, 1),
		mapped(2, "a.js", 0, 2),
		mapped(4, "a.js", 0, 0),
	}, sorted[0])
	// The input is left untouched.
	assert.Equal(t, 4, table[0][0].Column)
}
