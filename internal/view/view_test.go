package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/smexplorer/internal/diagnostic"
	"github.com/HugoDaniel/smexplorer/internal/registry"
	"github.com/HugoDaniel/smexplorer/internal/sourcemap"
)

const program = "let answer = 42;\nconsole.log(answer);"

var programTable = sourcemap.Table{
	{
		{Column: 0, Source: "a.ts", HasSource: true},
		{Column: 10},
		{Column: 4, Source: "a.ts", SourceColumn: 4, Name: "answer", HasSource: true, HasName: true},
	},
	{
		{Column: 8, Source: "a.ts", SourceLine: 1, HasSource: true},
	},
}

func spanTexts(spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

func TestSpans(t *testing.T) {
	idx := sourcemap.NewLineIndex(program)

	spans := Spans(idx, 0, programTable[0])
	require.Len(t, spans, 3)
	assert.Equal(t, []string{"let ", "answer", " = 42;"}, spanTexts(spans))
	assert.True(t, spans[0].Mapped())
	assert.Equal(t, "answer", spans[1].Segment.Name)
	assert.Equal(t, 4, spans[1].Start)
	assert.Equal(t, 10, spans[1].End)
	assert.True(t, spans[2].Covered)
	assert.False(t, spans[2].Mapped())

	spans = Spans(idx, 1, programTable[1])
	assert.Equal(t, []string{"console.", "log(answer);"}, spanTexts(spans))
	assert.False(t, spans[0].Covered)
	assert.True(t, spans[1].Mapped())
}

func TestSpansEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		segs sourcemap.Line
		want []string
	}{
		{"no_segments", "abc", nil, []string{"abc"}},
		{"empty_line", "", sourcemap.Line{{Column: 0}}, nil},
		{"past_end", "abcde", sourcemap.Line{{Column: 50}}, []string{"abcde"}},
		{"utf16_columns", "é😀x", sourcemap.Line{{Column: 1}, {Column: 3}}, []string{"é", "😀", "x"}},
		{"duplicate_columns", "ab", sourcemap.Line{{Column: 1}, {Column: 1}}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := sourcemap.NewLineIndex(tt.text)
			got := Spans(idx, 0, tt.segs)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, spanTexts(got))
		})
	}
}

func TestRenderFilePlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)
	require.NoError(t, r.File(program, programTable))

	assert.Equal(t,
		"0 | [let ][answer] = 42;\n"+
			"1 | console.[log(answer);]\n",
		buf.String())
}

func TestRenderFileColored(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true)
	require.NoError(t, r.File(program, programTable))

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.NotContains(t, out, "[let ]")
}

func TestRenderFileWithShortTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)
	require.NoError(t, r.File("a\nb\nc", sourcemap.Table{{{Column: 0, Source: "x", HasSource: true}}}))
	assert.Equal(t, "0 | [a]\n1 | b\n2 | c\n", buf.String())
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)
	require.NoError(t, r.Table(programTable))

	assert.Equal(t,
		"0:0 -> a.ts:0:0\n"+
			"0:10 unmapped\n"+
			"0:4 -> a.ts:0:4 answer\n"+
			"1:8 -> a.ts:1:0\n",
		buf.String())
}

func TestRenderSegment(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)
	require.NoError(t, r.Segment(0, programTable[0][2]))
	require.NoError(t, r.Segment(3, sourcemap.Segment{Column: 7}))
	assert.Equal(t, "0:4 -> a.ts:0:4 answer\n3:7 unmapped\n", buf.String())
}

func TestRenderSources(t *testing.T) {
	rec, err := registry.New(registry.DefaultOptions(), nil)
	require.NoError(t, err)
	res := rec.Reconcile(registry.Uploads{
		"app.js.map": registry.NewContent([]byte(
			`{"version":3,"sources":["a.ts","b.ts","c.ts"],"sourcesContent":["abc",null,null],"names":[],"mappings":"AAAA"}`)),
		"c.ts": registry.NewContent([]byte("uploaded")),
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, false).Sources(res))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"bundled", "3", "a.ts"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"missing", "0", "b.ts"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"uploaded", "8", "c.ts"}, strings.Fields(lines[2]))
}

func TestRenderDiagnostics(t *testing.T) {
	dl := diagnostic.NewDiagnosticList()
	dl.AddError("bad.map", sourcemap.ErrMalformedJSON)
	dl.Add(diagnostic.Diagnostic{
		Severity: diagnostic.Error,
		Code:     diagnostic.CodeVLQOverflow,
		File:     "big.map",
		Message:  "VLQ value overflows 32 bits",
		Line:     3,
		Segment:  1,
	})
	dl.AddWarning("app.js", diagnostic.CodeMissingSourceMap, "not uploaded")

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, false).Diagnostics(dl))
	assert.Equal(t,
		"bad.map: error: malformed JSON [SM0001]\n"+
			"big.map:3:1: error: VLQ value overflows 32 bits [SM0101]\n"+
			"app.js: warning: not uploaded [SM0200]\n",
		buf.String())
}
