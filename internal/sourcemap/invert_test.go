package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Inverter Tests
// ============================================================================

func TestInvertPointsBack(t *testing.T) {
	table := Table{
		nil,
		nil,
		{unmapped(0), mapped(5, "a.js", 1, 3)},
	}

	inverse := Invert("bundle.js", "a.js", table)

	require.Len(t, inverse, 2)
	assert.Empty(t, inverse[0])
	assert.Equal(t, Line{mapped(3, "bundle.js", 2, 5)}, inverse[1])
}

func TestInvertFiltersAndSorts(t *testing.T) {
	table := Table{
		{
			mapped(0, "a.js", 0, 10),
			mapped(4, "b.js", 0, 0),
			unmapped(6),
			named(8, "a.js", 0, 2, "x"),
		},
		{
			mapped(0, "a.js", 0, 2),
			mapped(3, "a.js", 3, 0),
		},
	}

	inverse := Invert("out.js", "a.js", table)

	require.Len(t, inverse, 4)
	assert.Equal(t, Line{
		{Column: 2, Source: "out.js", SourceLine: 0, SourceColumn: 8, Name: "x", HasSource: true, HasName: true},
		mapped(2, "out.js", 1, 0), // same column, later generated line
		mapped(10, "out.js", 0, 0),
	}, inverse[0])
	assert.Nil(t, inverse[1])
	assert.Nil(t, inverse[2])
	assert.Equal(t, Line{mapped(0, "out.js", 1, 3)}, inverse[3])
}

func TestInvertTieBreakByGeneratedLine(t *testing.T) {
	// Generated lines arrive in descending order of interest; the sort has to
	// put line 0 first whatever the input order inside the source line.
	table := Table{
		{mapped(7, "a.js", 0, 4)},
		{mapped(1, "a.js", 0, 4)},
		{mapped(9, "a.js", 0, 4)},
	}

	inverse := Invert("gen.js", "a.js", table)
	require.Len(t, inverse, 1)

	lines := make([]int, len(inverse[0]))
	for i, seg := range inverse[0] {
		assert.Equal(t, 4, seg.Column)
		lines[i] = seg.SourceLine
	}
	assert.Equal(t, []int{0, 1, 2}, lines)
}

func TestInvertUnknownSource(t *testing.T) {
	table := Table{{mapped(0, "a.js", 0, 0)}}
	assert.Empty(t, Invert("gen.js", "missing.js", table))
	assert.Empty(t, Invert("gen.js", "a.js", nil))
}

func TestInvertSkipsNegativeSourceLines(t *testing.T) {
	// "AADA" moves the source line to -1.
	table, err := DecodeMappings("AADA,CACA", []string{"a.js"}, nil, DefaultDecodeOptions())
	require.NoError(t, err)

	inverse := Invert("gen.js", "a.js", table)
	require.Len(t, inverse, 1)
	assert.Equal(t, Line{mapped(1, "gen.js", 0, 1)}, inverse[0])
}

func TestInvertDoesNotMutateInput(t *testing.T) {
	table := Table{{mapped(4, "a.js", 0, 9), mapped(2, "a.js", 0, 1)}}
	_ = Invert("gen.js", "a.js", table)
	assert.Equal(t, Table{{mapped(4, "a.js", 0, 9), mapped(2, "a.js", 0, 1)}}, table)
}
