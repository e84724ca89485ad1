package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/HugoDaniel/smexplorer/internal/diagnostic"
	"github.com/HugoDaniel/smexplorer/internal/registry"
)

func getCmdMappings(gs *globalState, st *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings <file>",
		Short: "Print the decoded mapping table of a source map",
		Long: `Print one row per segment of a source map: the generated position, then
the source position and name. The file may also be a generated file that
embeds its map as a data URI.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			data, err := afero.ReadFile(gs.fs, path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			rec, err := registry.New(st.opts, st.logger)
			if err != nil {
				return err
			}
			pf := rec.ParseFile(filepath.Base(path), registry.NewContent(data))
			if pf.Err != nil {
				dl := diagnostic.NewDiagnosticList()
				dl.AddError(pf.Name, pf.Err)
				if err := st.renderer(gs.stderr).Diagnostics(dl); err != nil {
					return err
				}
				return errors.New("decoding failed")
			}
			if pf.SourceMap == nil {
				return fmt.Errorf("%s is not a source map and embeds none", path)
			}

			return st.renderer(gs.stdout).Table(pf.SourceMap.Table)
		},
	}
}

func getCmdSources(gs *globalState, st *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "sources <paths...>",
		Short: "List the sources referenced by the loaded maps",
		Long: `List every source named by a loaded map with its state: missing, bundled
in the map, or uploaded as a file of the same name. Diagnostics are written
to stderr.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd.Context(), gs, st, args)
			if err != nil {
				return err
			}
			if err := st.renderer(gs.stdout).Sources(ws.result); err != nil {
				return err
			}
			return st.renderer(gs.stderr).Diagnostics(ws.diagnostics)
		},
	}
}

func getCmdCheck(gs *globalState, st *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "check <paths...>",
		Short: "Report problems with the loaded files",
		Long: `Report decoding failures, unresolved source map references and missing
sources. Exits with an error when any error-level diagnostic remains after
filtering.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd.Context(), gs, st, args)
			if err != nil {
				return err
			}
			if err := st.renderer(gs.stdout).Diagnostics(ws.diagnostics); err != nil {
				return err
			}
			if ws.diagnostics.HasErrors() {
				return fmt.Errorf("%d error(s)", ws.diagnostics.ErrorCount())
			}
			return nil
		},
	}
}

type showCmd struct {
	gs     *globalState
	st     *settings
	file   string
	source string
}

func (c *showCmd) run(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cmd.Context(), c.gs, c.st, args)
	if err != nil {
		return err
	}
	res := ws.result

	f, ok := res.Files[c.file]
	if !ok {
		return fmt.Errorf("file %s is not loaded", c.file)
	}

	if c.source == "" {
		table, ok := res.Table(c.file)
		if !ok {
			return fmt.Errorf("no source map found for %s", c.file)
		}
		return c.st.renderer(c.gs.stdout).File(f.Content.String(), table)
	}

	src, ok := res.Sources[c.source]
	if !ok {
		return fmt.Errorf("source %s is not referenced by any loaded map", c.source)
	}
	m, ok := res.MapFor(c.file)
	if !ok || m.SourceMap == nil {
		return fmt.Errorf("no source map found for %s", c.file)
	}
	if m.SourceMap.SourceIndex(c.source) < 0 {
		return fmt.Errorf("source %s is not listed in the map of %s", c.source, c.file)
	}
	if src.Content == nil {
		return fmt.Errorf("source %s is missing", c.source)
	}
	inverse, _ := res.Inverse(c.file, c.source)
	return c.st.renderer(c.gs.stdout).File(src.Content.String(), inverse)
}

func getCmdShow(gs *globalState, st *settings) *cobra.Command {
	c := &showCmd{gs: gs, st: st}

	cmd := &cobra.Command{
		Use:   "show <paths...>",
		Short: "Print a file with its mapped spans highlighted",
		Long: `Print a generated file line by line, highlighting each span that maps back
to a source. With --source, print that source instead, highlighting the spans
that the generated file maps onto.`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run,
	}

	cmd.Flags().StringVar(&c.file, "file", "", "generated `file` to show")
	cmd.Flags().StringVar(&c.source, "source", "", "show this `source` of the generated file instead")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

type lookupCmd struct {
	gs     *globalState
	st     *settings
	file   string
	line   int
	column int
}

func (c *lookupCmd) run(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cmd.Context(), c.gs, c.st, args)
	if err != nil {
		return err
	}
	table, ok := ws.result.Table(c.file)
	if !ok {
		return fmt.Errorf("no source map found for %s", c.file)
	}
	c.st.logger.WithFields(logrus.Fields{
		"file":     c.file,
		"lines":    len(table),
		"segments": table.SegmentCount(),
	}).Debug("Looking up position")

	seg, ok := table.Lookup(c.line, c.column)
	if !ok {
		return fmt.Errorf("no mapping at %s:%d:%d", c.file, c.line, c.column)
	}
	return c.st.renderer(c.gs.stdout).Segment(c.line, seg)
}

func getCmdLookup(gs *globalState, st *settings) *cobra.Command {
	c := &lookupCmd{gs: gs, st: st}

	cmd := &cobra.Command{
		Use:   "lookup <paths...>",
		Short: "Find the source position of a generated position",
		Long: `Print the segment covering a position of a generated file: the last segment
of the line whose column is not past the given column. Positions are 0-based.`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run,
	}

	cmd.Flags().StringVar(&c.file, "file", "", "generated `file` to query")
	cmd.Flags().IntVar(&c.line, "line", 0, "0-based generated `line`")
	cmd.Flags().IntVar(&c.column, "column", 0, "0-based generated `column`")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}

type invertCmd struct {
	gs        *globalState
	st        *settings
	generated string
	source    string
}

func (c *invertCmd) run(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cmd.Context(), c.gs, c.st, args)
	if err != nil {
		return err
	}
	inverse, ok := ws.result.Inverse(c.generated, c.source)
	if !ok {
		return fmt.Errorf("no source map found for %s", c.generated)
	}
	return c.st.renderer(c.gs.stdout).Table(inverse)
}

func getCmdInvert(gs *globalState, st *settings) *cobra.Command {
	c := &invertCmd{gs: gs, st: st}

	cmd := &cobra.Command{
		Use:   "invert <paths...>",
		Short: "Print the source-to-generated table of one source",
		Long: `Print one row per mapped position of a source, pointing back at the
generated file. Rows are ordered by source line, then column.`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run,
	}

	cmd.Flags().StringVar(&c.generated, "generated", "", "generated `file` whose map is inverted")
	cmd.Flags().StringVar(&c.source, "source", "", "`source` to invert")
	_ = cmd.MarkFlagRequired("generated")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func getCmdVersion(gs *globalState) *cobra.Command {
	var isJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show application version",
		Args:  cobra.NoArgs,
		// Printing the version needs no configuration.
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(_ *cobra.Command, _ []string) error {
			if !isJSON {
				_, err := fmt.Fprintf(gs.stdout, "smexplorer v%s (%s)\n", version, commit)
				return err
			}
			details, err := json.Marshal(map[string]string{"version": version, "commit": commit})
			if err != nil {
				return fmt.Errorf("failed to produce JSON version details: %w", err)
			}
			_, err = fmt.Fprintln(gs.stdout, string(details))
			return err
		},
	}

	cmd.Flags().BoolVar(&isJSON, "json", false, "output version information in JSON format")

	return cmd
}
