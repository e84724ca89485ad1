package sourcemap

import "sort"

// Invert builds the reverse table of a generated file for one of its
// sources. The result is indexed by source line; each segment's Column is
// the source column and its Source* fields point back at generatedName.
//
// Segments that are unmapped, belong to another source or carry a negative
// source line are dropped. Lines
// of the result are sorted by column, ties broken by generated line. Exact
// duplicates keep no particular order.
func Invert(generatedName, source string, table Table) Table {
	var out Table

	for genLine, line := range table {
		for _, seg := range line {
			if !seg.HasSource || seg.Source != source || seg.SourceLine < 0 {
				continue
			}
			for len(out) <= seg.SourceLine {
				out = append(out, nil)
			}
			out[seg.SourceLine] = append(out[seg.SourceLine], Segment{
				Column:       seg.SourceColumn,
				Source:       generatedName,
				SourceLine:   genLine,
				SourceColumn: seg.Column,
				Name:         seg.Name,
				HasSource:    true,
				HasName:      seg.HasName,
			})
		}
	}

	for _, line := range out {
		sort.Slice(line, func(i, j int) bool {
			if line[i].Column != line[j].Column {
				return line[i].Column < line[j].Column
			}
			return line[i].SourceLine < line[j].SourceLine
		})
	}

	return out
}
