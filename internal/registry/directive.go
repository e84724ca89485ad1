package registry

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	scriptDirective     = "//# sourceMappingURL="
	stylesheetDirective = "/*# sourceMappingURL="
	dataURIPrefix       = "data:"
)

// FindSourceMapRef returns the value of the last sourceMappingURL directive
// in text, or "" if there is none. Scripts use the `//#` form; stylesheets
// use `/*# ... */`, which must be closed on the same line. Matching is
// case-sensitive.
func FindSourceMapRef(text string, stylesheet bool) string {
	directive := scriptDirective
	if stylesheet {
		directive = stylesheetDirective
	}

	index := strings.LastIndex(text, directive)
	if index == -1 {
		return ""
	}
	rest := text[index+len(directive):]
	if eol := strings.IndexAny(rest, "\r\n"); eol != -1 {
		rest = rest[:eol]
	}
	if stylesheet {
		end := strings.Index(rest, "*/")
		if end == -1 {
			return ""
		}
		rest = rest[:end]
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// IsDataURI reports whether a directive value embeds the map itself.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, dataURIPrefix)
}

var errBadDataURI = errors.New("data URI has no payload")

// decodeDataURI extracts the payload of a data URI such as
// `data:application/json;charset=utf-8;base64,eyJ2...`.
func decodeDataURI(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if !IsDataURI(ref) || comma == -1 {
		return nil, errBadDataURI
	}
	meta, payload := ref[len(dataURIPrefix):comma], ref[comma+1:]

	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some bundlers drop the padding.
			b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("decoding inline source map: %w", err)
		}
		return b, nil
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding inline source map: %w", err)
	}
	return []byte(s), nil
}
