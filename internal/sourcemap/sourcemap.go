// Package sourcemap decodes Source Map v3 documents into per-line mapping
// tables and inverts them for source-to-generated lookups.
//
// It implements the consuming side of the format specified at:
// https://sourcemaps.info/spec.html
package sourcemap

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Document is a decoded Source Map v3.
// See https://sourcemaps.info/spec.html
type Document struct {
	Version    int
	File       string
	SourceRoot string
	Sources    []string
	// SourcesContent shares the index space of Sources. A nil entry means the
	// map carries no inline content for that source. It may be shorter than
	// Sources or absent altogether.
	SourcesContent []*string
	Names          []string
	Mappings       string

	// Table is the decoded Mappings string.
	Table Table
}

// SourceContent returns the inline content of source i, if the map has one.
func (d *Document) SourceContent(i int) (string, bool) {
	if i < 0 || i >= len(d.SourcesContent) || d.SourcesContent[i] == nil {
		return "", false
	}
	return *d.SourcesContent[i], true
}

// SourceIndex returns the index of name in Sources, or -1.
func (d *Document) SourceIndex(name string) int {
	for i, s := range d.Sources {
		if s == name {
			return i
		}
	}
	return -1
}

// Parse validates a raw source map payload and decodes its mappings.
//
// Checks run in a fixed order and stop at the first failure: JSON syntax,
// top-level object, version, file, sourceRoot, sources, sourcesContent,
// names, mappings and finally the mappings string itself.
func Parse(data []byte, opts DecodeOptions) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformedJSON
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &SchemaError{Reason: ReasonNotObject, Index: -1}
	}

	fields := root.Map()

	version := fields["version"]
	if version.Type != gjson.Number || version.Num != 3 {
		return nil, &SchemaError{Reason: ReasonVersion, Field: "version", Index: -1, Want: "3"}
	}

	doc := &Document{Version: 3}

	var err error
	if doc.File, err = optionalString(fields, "file"); err != nil {
		return nil, err
	}
	if doc.SourceRoot, err = optionalString(fields, "sourceRoot"); err != nil {
		return nil, err
	}
	if doc.Sources, err = stringArray(fields, "sources"); err != nil {
		return nil, err
	}
	if content, ok := fields["sourcesContent"]; ok {
		if doc.SourcesContent, err = nullableStringArray(content, "sourcesContent"); err != nil {
			return nil, err
		}
	}
	if doc.Names, err = stringArray(fields, "names"); err != nil {
		return nil, err
	}

	mappings, ok := fields["mappings"]
	if !ok || mappings.Type != gjson.String {
		return nil, &SchemaError{Reason: ReasonFieldType, Field: "mappings", Index: -1, Want: "a string"}
	}
	doc.Mappings = mappings.Str

	doc.Table, err = DecodeMappings(doc.Mappings, doc.Sources, doc.Names, opts)
	if err != nil {
		return nil, fmt.Errorf("decoding mappings: %w", err)
	}

	return doc, nil
}

func optionalString(fields map[string]gjson.Result, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", nil
	}
	if v.Type != gjson.String {
		return "", &SchemaError{Reason: ReasonFieldType, Field: key, Index: -1, Want: "a string"}
	}
	return v.Str, nil
}

func stringArray(fields map[string]gjson.Result, key string) ([]string, error) {
	v, ok := fields[key]
	if !ok || !v.IsArray() {
		return nil, &SchemaError{Reason: ReasonFieldType, Field: key, Index: -1, Want: "an array of strings"}
	}
	elems := v.Array()
	out := make([]string, len(elems))
	for i, e := range elems {
		if e.Type != gjson.String {
			return nil, &SchemaError{Reason: ReasonElementType, Field: key, Index: i, Want: "a string"}
		}
		out[i] = e.Str
	}
	return out, nil
}

func nullableStringArray(v gjson.Result, key string) ([]*string, error) {
	if !v.IsArray() {
		return nil, &SchemaError{Reason: ReasonFieldType, Field: key, Index: -1, Want: "an array of strings or nulls"}
	}
	elems := v.Array()
	out := make([]*string, len(elems))
	for i, e := range elems {
		switch e.Type {
		case gjson.Null:
		case gjson.String:
			s := e.Str
			out[i] = &s
		default:
			return nil, &SchemaError{Reason: ReasonElementType, Field: key, Index: i, Want: "a string or null"}
		}
	}
	return out, nil
}
