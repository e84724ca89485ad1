// Package registry turns a set of uploaded files into parsed files, the
// linkage between generated files and their source maps, and the set of
// original sources those maps reference.
//
// Reconciliation is incremental: a file whose *Content did not change keeps
// its previous *ParsedFile, and an unchanged upload set returns the previous
// *Result itself so callers can compare results by pointer.
package registry

import (
	"bytes"
	"io"
	"path"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/HugoDaniel/smexplorer/internal/sourcemap"
)

// Options controls how files are recognized and decoded.
type Options struct {
	// MapSuffix marks a file name as a source map.
	MapSuffix string

	// StylesheetExtensions select the `/*# ... */` directive form.
	StylesheetExtensions []string

	// SniffContent also treats JSON objects with "version" and "mappings"
	// keys as source maps, whatever their name.
	SniffContent bool

	// CacheSize is the number of decoded documents kept by content digest.
	// Zero disables the cache.
	CacheSize int

	Decode sourcemap.DecodeOptions
}

// DefaultOptions returns the default reconciler options.
func DefaultOptions() Options {
	return Options{
		MapSuffix:            ".map",
		StylesheetExtensions: []string{".css"},
		SniffContent:         true,
		CacheSize:            128,
		Decode:               sourcemap.DefaultDecodeOptions(),
	}
}

// ParsedFile is one uploaded file after parsing. It is never modified once
// returned.
type ParsedFile struct {
	Name    string
	Content *Content

	// SourceMap is the decoded document, for map files and files with an
	// inline map. It is nil when decoding failed.
	SourceMap *sourcemap.Document

	// SourceMapRef is the companion map named by the file's directive.
	SourceMapRef string

	// IsSourceMap is set for files recognized as maps by name or content.
	IsSourceMap bool

	// Inline is set when the directive embeds the map as a data URI.
	Inline bool

	// Err is the decoding failure, if any.
	Err error
}

type cacheEntry struct {
	content *Content
	doc     *sourcemap.Document
	err     error
}

// Reconciler parses uploads and derives source records.
type Reconciler struct {
	opts   Options
	logger logrus.FieldLogger
	cache  *lru.Cache[uint64, *cacheEntry]
}

// New creates a Reconciler. A nil logger discards all output.
func New(opts Options, logger logrus.FieldLogger) (*Reconciler, error) {
	if opts.MapSuffix == "" {
		opts.MapSuffix = ".map"
	}
	if opts.StylesheetExtensions == nil {
		opts.StylesheetExtensions = []string{".css"}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	r := &Reconciler{
		opts:   opts,
		logger: logger,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[uint64, *cacheEntry](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}
	return r, nil
}

// Reconcile builds the result for uploads, reusing whatever it can from
// prev. A nil prev is treated as an empty result. When no file changed, prev
// itself is returned.
func (r *Reconciler) Reconcile(uploads Uploads, prev *Result) *Result {
	if prev == nil {
		prev = r.emptyResult()
	}

	files := make(map[string]*ParsedFile, len(uploads))
	for name, content := range uploads {
		if content == nil {
			continue
		}
		if old, ok := prev.Files[name]; ok && old.Content == content {
			files[name] = old
			continue
		}
		files[name] = r.ParseFile(name, content)
	}

	if sameFiles(prev.Files, files) {
		r.logger.Debug("upload set unchanged, reusing previous result")
		return prev
	}

	result := &Result{
		Files:     files,
		Sources:   deriveSources(files, uploads),
		mapSuffix: r.opts.MapSuffix,
	}
	r.logger.WithFields(logrus.Fields{
		"files":   len(result.Files),
		"sources": len(result.Sources),
	}).Debug("reconciled uploads")
	return result
}

func (r *Reconciler) emptyResult() *Result {
	return &Result{
		Files:     map[string]*ParsedFile{},
		Sources:   map[string]SourceFile{},
		mapSuffix: r.opts.MapSuffix,
	}
}

// ParseFile parses a single file. Map files are decoded; any other file is
// scanned for its sourceMappingURL directive, and an inline data URI map is
// decoded in place.
func (r *Reconciler) ParseFile(name string, content *Content) *ParsedFile {
	pf := &ParsedFile{Name: name, Content: content}

	if strings.HasSuffix(name, r.opts.MapSuffix) || (r.opts.SniffContent && looksLikeSourceMap(content.Bytes())) {
		pf.IsSourceMap = true
		pf.SourceMap, pf.Err = r.decode(content)
	} else {
		ref := FindSourceMapRef(content.String(), r.isStylesheet(name))
		if IsDataURI(ref) {
			pf.Inline = true
			data, err := decodeDataURI(ref)
			if err != nil {
				pf.Err = err
			} else {
				pf.SourceMap, pf.Err = r.decode(NewContent(data))
			}
		} else {
			pf.SourceMapRef = ref
		}
	}

	if pf.Err != nil {
		r.logger.WithField("file", name).WithError(pf.Err).Warn("failed to decode source map")
	}
	return pf
}

// decode parses content, sharing the document with any earlier content of
// the same bytes still in the cache.
func (r *Reconciler) decode(content *Content) (*sourcemap.Document, error) {
	if r.cache != nil {
		if e, ok := r.cache.Get(content.Digest()); ok && e.content.SameBytes(content) {
			return e.doc, e.err
		}
	}

	doc, err := sourcemap.Parse(content.Bytes(), r.opts.Decode)
	if r.cache != nil {
		r.cache.Add(content.Digest(), &cacheEntry{content: content, doc: doc, err: err})
	}
	return doc, err
}

func (r *Reconciler) isStylesheet(name string) bool {
	ext := path.Ext(name)
	for _, e := range r.opts.StylesheetExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// looksLikeSourceMap reports whether data is a JSON object carrying both a
// version and a mappings key.
func looksLikeSourceMap(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' || !gjson.ValidBytes(trimmed) {
		return false
	}
	res := gjson.GetManyBytes(trimmed, "version", "mappings")
	return res[0].Exists() && res[1].Exists()
}

func sameFiles(a, b map[string]*ParsedFile) bool {
	if len(a) != len(b) {
		return false
	}
	for name, f := range a {
		if b[name] != f {
			return false
		}
	}
	return true
}

// deriveSources runs the three source passes over files in name order:
// every referenced source starts missing, inline content upgrades it to
// bundled, and an upload of the same name overrides both.
func deriveSources(files map[string]*ParsedFile, uploads Uploads) map[string]SourceFile {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make(map[string]SourceFile)
	for _, name := range names {
		doc := files[name].SourceMap
		if doc == nil {
			continue
		}
		for _, source := range doc.Sources {
			sources[source] = SourceFile{State: SourceMissing}
		}
	}

	for _, name := range names {
		doc := files[name].SourceMap
		if doc == nil || doc.SourcesContent == nil {
			continue
		}
		for i, source := range doc.Sources {
			if text, ok := doc.SourceContent(i); ok {
				sources[source] = SourceFile{State: SourceBundled, Content: NewContent([]byte(text))}
			}
		}
	}

	for source := range sources {
		if content := uploads[source]; content != nil {
			sources[source] = SourceFile{State: SourceUploaded, Content: content}
		}
	}

	return sources
}
