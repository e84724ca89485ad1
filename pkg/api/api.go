// Package api provides the public API for the source map explorer.
//
// This package is intended for programmatic use of the decoder and the file
// session. For CLI usage, see cmd/smexplorer.
package api

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/HugoDaniel/smexplorer/internal/registry"
	"github.com/HugoDaniel/smexplorer/internal/sourcemap"
	"github.com/HugoDaniel/smexplorer/internal/upload"
)

// Version is the release version shared by the CLI, the WebAssembly build
// and the C library.
const Version = "0.1.0"

// DecodeOptions controls decoding behavior.
type DecodeOptions struct {
	// Lenient keeps segments with out-of-range source or name indexes
	// instead of failing. The segment loses its source or name.
	Lenient bool
}

func (o DecodeOptions) internal() sourcemap.DecodeOptions {
	return sourcemap.DecodeOptions{Strict: !o.Lenient}
}

// Segment is one mapping, addressed by its generated position. Lines and
// columns are 0-based; columns count UTF-16 code units.
type Segment struct {
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	Mapped       bool   `json:"mapped"`
	Source       string `json:"source,omitempty"`
	SourceLine   int    `json:"sourceLine"`
	SourceColumn int    `json:"sourceColumn"`
	Name         string `json:"name,omitempty"`
}

// DecodeResult contains a decoded source map.
type DecodeResult struct {
	File       string   `json:"file,omitempty"`
	SourceRoot string   `json:"sourceRoot,omitempty"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`

	// Lines holds the segments of each generated line in decode order.
	Lines [][]Segment `json:"lines"`

	// Errors contains any errors encountered during decoding.
	// If non-empty, the other fields are empty.
	Errors []string `json:"errors,omitempty"`
}

// DecodeSourceMap decodes a source map v3 document.
func DecodeSourceMap(data []byte, opts DecodeOptions) DecodeResult {
	doc, err := sourcemap.Parse(data, opts.internal())
	if err != nil {
		return DecodeResult{Errors: []string{err.Error()}}
	}

	return DecodeResult{
		File:       doc.File,
		SourceRoot: doc.SourceRoot,
		Sources:    doc.Sources,
		Names:      doc.Names,
		Lines:      convertTable(doc.Table),
	}
}

// InvertResult contains the reverse mapping of one source. Each entry of
// Lines is a source line; its segments point back to generated positions:
// Column is the source column and SourceLine/SourceColumn are the generated
// line and column.
type InvertResult struct {
	Lines  [][]Segment `json:"lines"`
	Errors []string    `json:"errors,omitempty"`
}

// Invert decodes a source map and builds the reverse table of source
// against the generated file named generated.
func Invert(data []byte, generated, source string, opts DecodeOptions) InvertResult {
	doc, err := sourcemap.Parse(data, opts.internal())
	if err != nil {
		return InvertResult{Errors: []string{err.Error()}}
	}
	return InvertResult{Lines: convertTable(sourcemap.Invert(generated, source, doc.Table))}
}

// convertTable converts a mapping table to API types.
func convertTable(table sourcemap.Table) [][]Segment {
	result := make([][]Segment, len(table))
	for line, segs := range table {
		result[line] = make([]Segment, len(segs))
		for i, seg := range segs {
			result[line][i] = Segment{
				Line:         line,
				Column:       seg.Column,
				Mapped:       seg.Mapped(),
				Source:       seg.Source,
				SourceLine:   seg.SourceLine,
				SourceColumn: seg.SourceColumn,
				Name:         seg.Name,
			}
		}
	}
	return result
}

// ----------------------------------------------------------------------------
// Session API
// ----------------------------------------------------------------------------

// SessionOptions configures a Session.
type SessionOptions struct {
	// Fs is the filesystem files are dropped from. Defaults to the OS.
	Fs afero.Fs

	// Logger receives debug and warning messages. Defaults to none.
	Logger logrus.FieldLogger

	Decode DecodeOptions

	// DisableSniffing only recognizes source maps by their name.
	DisableSniffing bool
}

// FileInfo describes an uploaded file.
type FileInfo struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	SourceMap bool   `json:"sourceMap"`
	// Map is the name of the file holding this file's source map.
	Map   string `json:"map,omitempty"`
	Error string `json:"error,omitempty"`
}

// SourceInfo describes a source referenced by a map.
type SourceInfo struct {
	Name string `json:"name"`
	// State is "missing", "bundled" or "uploaded".
	State string `json:"state"`
	Size  int    `json:"size"`
}

// Snapshot is the state of a session after a Sync.
type Snapshot struct {
	Files       []FileInfo   `json:"files"`
	Sources     []SourceInfo `json:"sources"`
	Diagnostics []string     `json:"diagnostics,omitempty"`

	result *registry.Result
	failed []readFailure
}

// Mappings returns the mapping table of a generated file.
func (s *Snapshot) Mappings(generated string) ([][]Segment, bool) {
	table, ok := s.result.Table(generated)
	if !ok {
		return nil, false
	}
	return convertTable(table), true
}

// Inverse returns the reverse table of source against generated.
func (s *Snapshot) Inverse(generated, source string) ([][]Segment, bool) {
	table, ok := s.result.Inverse(generated, source)
	if !ok {
		return nil, false
	}
	return convertTable(table), true
}

// SourceContent returns the content of a bundled or uploaded source.
func (s *Snapshot) SourceContent(name string) ([]byte, bool) {
	src, ok := s.result.Sources[name]
	if !ok || src.Content == nil {
		return nil, false
	}
	return src.Content.Bytes(), true
}

// Session holds a set of files and keeps their parsed state up to date.
type Session struct {
	uploader *upload.Uploader
	session  *registry.Session
	snapshot *Snapshot
}

// NewSession creates an empty session.
func NewSession(opts SessionOptions) (*Session, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	regOpts := registry.DefaultOptions()
	regOpts.Decode = opts.Decode.internal()
	regOpts.SniffContent = !opts.DisableSniffing

	rec, err := registry.New(regOpts, opts.Logger)
	if err != nil {
		return nil, err
	}

	return &Session{
		uploader: upload.New(fs, opts.Logger),
		session:  registry.NewSession(rec),
	}, nil
}

// Drop starts reading files from the session's filesystem. Each file is
// named by its base name.
func (s *Session) Drop(paths ...string) error {
	return s.uploader.Drop(paths...)
}

// Add starts reading r as the file name.
func (s *Session) Add(name string, r io.Reader) error {
	return s.uploader.Add(filepath.ToSlash(name), r)
}

// Remove removes a file.
func (s *Session) Remove(name string) {
	s.uploader.Remove(name)
}

// Rename renames a file.
func (s *Session) Rename(name, newName string) {
	s.uploader.Rename(name, newName)
}

// Changed is signalled whenever a file is added, read, removed or renamed,
// so a caller can Sync again. Signals are coalesced.
func (s *Session) Changed() <-chan struct{} {
	return s.uploader.Changed()
}

// Sync waits for pending reads and returns the resulting snapshot. When
// nothing changed since the last Sync, the same *Snapshot is returned.
func (s *Session) Sync(ctx context.Context) (*Snapshot, error) {
	if err := s.uploader.Wait(ctx); err != nil {
		return nil, err
	}

	res := s.session.Update(s.uploader.Uploads())
	failed := failedReads(s.uploader.Files())
	if s.snapshot != nil && s.snapshot.result == res && sameFailures(s.snapshot.failed, failed) {
		return s.snapshot, nil
	}
	s.snapshot = newSnapshot(res, failed)
	return s.snapshot, nil
}

// Close stops the session.
func (s *Session) Close() error {
	return s.uploader.Close()
}

// readFailure is a file whose last read failed. It may still carry the
// content of an earlier read.
type readFailure struct {
	name string
	err  error
}

func failedReads(states map[string]upload.FileState) []readFailure {
	var failed []readFailure
	for name, st := range states {
		if st.State == upload.Failed {
			failed = append(failed, readFailure{name: name, err: st.Err})
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].name < failed[j].name })
	return failed
}

func sameFailures(a, b []readFailure) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].name != b[i].name || a[i].err.Error() != b[i].err.Error() {
			return false
		}
	}
	return true
}

func newSnapshot(res *registry.Result, failed []readFailure) *Snapshot {
	snap := &Snapshot{result: res, failed: failed}

	readErrs := make(map[string]error, len(failed))
	for _, f := range failed {
		readErrs[f.name] = f.err
	}

	for _, name := range res.FileNames() {
		f := res.Files[name]
		info := FileInfo{
			Name:      name,
			Size:      f.Content.Len(),
			SourceMap: f.IsSourceMap || f.Inline,
		}
		if m, ok := res.MapFor(name); ok {
			info.Map = m.Name
		}
		var errs []string
		if err, ok := readErrs[name]; ok {
			errs = append(errs, err.Error())
		}
		if f.Err != nil {
			errs = append(errs, f.Err.Error())
		}
		info.Error = strings.Join(errs, "; ")
		snap.Files = append(snap.Files, info)
	}

	// Failed first reads have no content and no parsed entry.
	for _, f := range failed {
		if _, ok := res.Files[f.name]; !ok {
			snap.Files = append(snap.Files, FileInfo{Name: f.name, Error: f.err.Error()})
		}
	}
	sort.Slice(snap.Files, func(i, j int) bool { return snap.Files[i].Name < snap.Files[j].Name })

	for _, name := range res.SourceNames() {
		src := res.Sources[name]
		info := SourceInfo{Name: name, State: src.State.String()}
		if src.Content != nil {
			info.Size = src.Content.Len()
		}
		snap.Sources = append(snap.Sources, info)
	}

	dl := res.Diagnostics()
	for _, f := range failed {
		dl.AddError(f.name, f.err)
	}
	dl.Sort()
	for _, d := range dl.Diagnostics() {
		snap.Diagnostics = append(snap.Diagnostics, d.Error())
	}

	return snap
}
