// Package view renders files, mapping tables and diagnostics for the
// terminal.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/HugoDaniel/smexplorer/internal/diagnostic"
	"github.com/HugoDaniel/smexplorer/internal/registry"
	"github.com/HugoDaniel/smexplorer/internal/sourcemap"
)

// Span is a run of text on one line covered by a single segment. Start and
// End are UTF-16 columns.
type Span struct {
	Text    string
	Start   int
	End     int
	Segment sourcemap.Segment
	// Covered is false for text before the first segment of the line.
	Covered bool
}

// Mapped reports whether the span traces back to a source position.
func (s Span) Mapped() bool {
	return s.Covered && s.Segment.Mapped()
}

// Spans splits line of idx at the columns of segs. Each segment covers the
// text up to the next segment or the end of the line. Segments are taken in
// column order; empty spans are dropped.
func Spans(idx *sourcemap.LineIndex, line int, segs sourcemap.Line) []Span {
	text := idx.Line(line)
	lineLen := idx.LineLengthUTF16(line)

	sorted := segs.Sorted()

	var spans []Span
	add := func(start, end int, seg sourcemap.Segment, covered bool) {
		if start > lineLen {
			start = lineLen
		}
		if end > lineLen {
			end = lineLen
		}
		if end <= start {
			return
		}
		from := idx.LineColumnUTF16ToByteOffset(line, start) - idx.LineColumnUTF16ToByteOffset(line, 0)
		to := idx.LineColumnUTF16ToByteOffset(line, end) - idx.LineColumnUTF16ToByteOffset(line, 0)
		spans = append(spans, Span{
			Text:    text[from:to],
			Start:   start,
			End:     end,
			Segment: seg,
			Covered: covered,
		})
	}

	if len(sorted) == 0 {
		add(0, lineLen, sourcemap.Segment{}, false)
		return spans
	}

	add(0, sorted[0].Column, sourcemap.Segment{}, false)
	for i, seg := range sorted {
		end := lineLen
		if i+1 < len(sorted) {
			end = sorted[i+1].Column
		}
		add(seg.Column, end, seg, true)
	}
	return spans
}

var palette = []color.Attribute{
	color.FgCyan,
	color.FgGreen,
	color.FgYellow,
	color.FgMagenta,
	color.FgBlue,
	color.FgRed,
}

// Renderer writes styled output. Without color, mapped spans are wrapped in
// brackets instead.
type Renderer struct {
	w        io.Writer
	colorize bool

	gutter   *color.Color
	unmapped *color.Color
	errorC   *color.Color
	warnC    *color.Color
	infoC    *color.Color
	sources  map[string]*color.Color
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, colorize bool) *Renderer {
	r := &Renderer{
		w:        w,
		colorize: colorize,
		sources:  make(map[string]*color.Color),
	}
	r.gutter = r.newColor(color.Faint)
	r.unmapped = r.newColor(color.Faint, color.CrossedOut)
	r.errorC = r.newColor(color.FgRed, color.Bold)
	r.warnC = r.newColor(color.FgYellow, color.Bold)
	r.infoC = r.newColor(color.FgCyan)
	return r
}

func (r *Renderer) newColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (r *Renderer) sourceColor(source string) *color.Color {
	c, ok := r.sources[source]
	if !ok {
		c = r.newColor(palette[len(r.sources)%len(palette)], color.Underline)
		r.sources[source] = c
	}
	return c
}

// File renders text line by line, split at the segments of table. Lines
// beyond the table are rendered as uncovered.
func (r *Renderer) File(text string, table sourcemap.Table) error {
	idx := sourcemap.NewLineIndex(text)
	width := len(fmt.Sprint(idx.LineCount()))

	var sb strings.Builder
	for line := 0; line < idx.LineCount(); line++ {
		var segs sourcemap.Line
		if line < len(table) {
			segs = table[line]
		}

		sb.WriteString(r.gutter.Sprintf("%*d | ", width, line))
		for _, span := range Spans(idx, line, segs) {
			sb.WriteString(r.span(span))
		}
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(r.w, sb.String())
	return err
}

func (r *Renderer) span(s Span) string {
	switch {
	case s.Mapped():
		if r.colorize {
			return r.sourceColor(s.Segment.Source).Sprint(s.Text)
		}
		return "[" + s.Text + "]"
	case s.Covered:
		return r.unmapped.Sprint(s.Text)
	default:
		return s.Text
	}
}

// Table writes one row per segment: generated line and column, then the
// source position and name for mapped segments. Positions are 0-based.
func (r *Renderer) Table(table sourcemap.Table) error {
	var sb strings.Builder
	for line, segs := range table {
		for _, seg := range segs {
			r.row(&sb, line, seg)
		}
	}
	_, err := io.WriteString(r.w, sb.String())
	return err
}

// Segment prints a single row in the format of Table.
func (r *Renderer) Segment(line int, seg sourcemap.Segment) error {
	var sb strings.Builder
	r.row(&sb, line, seg)
	_, err := io.WriteString(r.w, sb.String())
	return err
}

func (r *Renderer) row(sb *strings.Builder, line int, seg sourcemap.Segment) {
	fmt.Fprintf(sb, "%d:%d", line, seg.Column)
	if !seg.Mapped() {
		sb.WriteString(" ")
		sb.WriteString(r.unmapped.Sprint("unmapped"))
		sb.WriteByte('\n')
		return
	}
	sb.WriteString(" -> ")
	sb.WriteString(r.sourceColor(seg.Source).Sprintf("%s:%d:%d", seg.Source, seg.SourceLine, seg.SourceColumn))
	if seg.HasName {
		sb.WriteString(" ")
		sb.WriteString(seg.Name)
	}
	sb.WriteByte('\n')
}

// Sources lists the sources of a result with their state.
func (r *Renderer) Sources(res *registry.Result) error {
	var sb strings.Builder
	for _, name := range res.SourceNames() {
		src := res.Sources[name]
		state := src.State.String()
		switch src.State {
		case registry.SourceMissing:
			state = r.warnC.Sprint(state)
		case registry.SourceUploaded:
			state = r.infoC.Sprint(state)
		}
		size := 0
		if src.Content != nil {
			size = src.Content.Len()
		}
		fmt.Fprintf(&sb, "%-8s %6d  %s\n", state, size, name)
	}
	_, err := io.WriteString(r.w, sb.String())
	return err
}

// Diagnostics writes each diagnostic on its own line, with the severity
// colored.
func (r *Renderer) Diagnostics(dl *diagnostic.DiagnosticList) error {
	var sb strings.Builder
	for _, d := range dl.Diagnostics() {
		sev := d.Severity.String()
		switch d.Severity {
		case diagnostic.Error:
			sev = r.errorC.Sprint(sev)
		case diagnostic.Warning:
			sev = r.warnC.Sprint(sev)
		case diagnostic.Info:
			sev = r.infoC.Sprint(sev)
		}
		sb.WriteString(d.File)
		if d.Line >= 0 {
			fmt.Fprintf(&sb, ":%d:%d", d.Line, d.Segment)
		}
		fmt.Fprintf(&sb, ": %s: %s [%s]\n", sev, d.Message, d.Code)
	}
	_, err := io.WriteString(r.w, sb.String())
	return err
}
