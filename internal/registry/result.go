package registry

import (
	"fmt"
	"path"
	"sort"

	"github.com/HugoDaniel/smexplorer/internal/diagnostic"
	"github.com/HugoDaniel/smexplorer/internal/sourcemap"
)

// SourceState tells where a source's content comes from.
type SourceState uint8

const (
	// SourceMissing means a map references the source but no content is known.
	SourceMissing SourceState = iota
	// SourceBundled means the content comes from a map's sourcesContent.
	SourceBundled
	// SourceUploaded means a file of that exact name was uploaded.
	SourceUploaded
)

func (s SourceState) String() string {
	switch s {
	case SourceMissing:
		return "missing"
	case SourceBundled:
		return "bundled"
	case SourceUploaded:
		return "uploaded"
	default:
		return "unknown"
	}
}

// SourceFile is one original source referenced by a map. Content is nil for
// missing sources.
type SourceFile struct {
	State   SourceState
	Content *Content
}

// Result is the outcome of one reconciliation. It is shared between
// reconciliations and must not be modified.
type Result struct {
	Files   map[string]*ParsedFile
	Sources map[string]SourceFile

	mapSuffix string
}

// FileNames returns the uploaded file names in order.
func (r *Result) FileNames() []string {
	names := make([]string, 0, len(r.Files))
	for name := range r.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourceNames returns the referenced source names in order.
func (r *Result) SourceNames() []string {
	names := make([]string, 0, len(r.Sources))
	for name := range r.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MapFor returns the file holding the source map of the named file.
//
// A map file, or a file with an inline map, is its own map. Otherwise the
// file named by the directive is tried (as written, then by base name),
// followed by the name with the map suffix appended, and finally a map whose
// "file" field names this file.
func (r *Result) MapFor(name string) (*ParsedFile, bool) {
	f, ok := r.Files[name]
	if !ok {
		return nil, false
	}
	if f.IsSourceMap || f.Inline {
		return f, true
	}

	if ref := f.SourceMapRef; ref != "" {
		if m, ok := r.Files[ref]; ok {
			return m, true
		}
		if m, ok := r.Files[path.Base(ref)]; ok {
			return m, true
		}
	}

	suffix := r.mapSuffix
	if suffix == "" {
		suffix = ".map"
	}
	if m, ok := r.Files[name+suffix]; ok {
		return m, true
	}

	for _, candidate := range r.FileNames() {
		m := r.Files[candidate]
		if m.SourceMap == nil || m.SourceMap.File == "" {
			continue
		}
		if m.SourceMap.File == name || path.Base(m.SourceMap.File) == name {
			return m, true
		}
	}
	return nil, false
}

// Table returns the decoded mapping table of a generated file.
func (r *Result) Table(generated string) (sourcemap.Table, bool) {
	m, ok := r.MapFor(generated)
	if !ok || m.SourceMap == nil {
		return nil, false
	}
	return m.SourceMap.Table, true
}

// Inverse builds the reverse table of generated against source. It is
// computed on every call.
func (r *Result) Inverse(generated, source string) (sourcemap.Table, bool) {
	table, ok := r.Table(generated)
	if !ok {
		return nil, false
	}
	return sourcemap.Invert(generated, source, table), true
}

// Diagnostics reports decoding failures, unresolved map references and
// missing sources.
func (r *Result) Diagnostics() *diagnostic.DiagnosticList {
	dl := diagnostic.NewDiagnosticList()

	for _, name := range r.FileNames() {
		f := r.Files[name]
		if f.Err != nil {
			dl.AddError(name, f.Err)
		}
		if f.SourceMapRef != "" {
			if _, ok := r.MapFor(name); !ok {
				dl.AddWarning(name, diagnostic.CodeMissingSourceMap,
					fmt.Sprintf("source map %q is referenced but not uploaded", f.SourceMapRef))
			}
		}
	}

	for _, source := range r.SourceNames() {
		if r.Sources[source].State == SourceMissing {
			dl.AddInfo(source, diagnostic.CodeMissingSource, "source is referenced by a map but not available")
		}
	}

	dl.Sort()
	return dl
}
