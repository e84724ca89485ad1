// Package main provides a C-callable static library for source map decoding
// and inversion.
//
// This is built with -buildmode=c-archive to produce libsmexplorer.a
// that can be linked into Zig/C/Rust programs.
//
// Build:
//
//	CGO_ENABLED=1 go build -buildmode=c-archive -o build/libsmexplorer.a ./cmd/smexplorer-lib
//
// Exported functions:
//
//	smexplorer_decode(map_json, map_len, options_json, options_len, out_json, out_len) -> error_code
//	smexplorer_invert(map_json, map_len, generated, source, options_json, options_len, out_json, out_len) -> error_code
//	smexplorer_free(ptr) -> void
//	smexplorer_version() -> *char
package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"encoding/json"
	"unsafe"

	"github.com/HugoDaniel/smexplorer/pkg/api"
)

var cVersion = C.CString(api.Version)

// Error codes
const (
	SMEXPLORER_OK              = 0
	SMEXPLORER_ERR_JSON_ENCODE = 1
	SMEXPLORER_ERR_NULL_INPUT  = 2
	SMEXPLORER_ERR_JSON_DECODE = 3
)

// Options mirrors api.DecodeOptions for JSON parsing
type Options struct {
	Lenient bool `json:"lenient"`
}

func parseOptions(options_json *C.char, options_len C.int) (api.DecodeOptions, bool) {
	var opts api.DecodeOptions
	if options_json == nil || options_len <= 0 {
		return opts, true
	}
	var jsonOpts Options
	if err := json.Unmarshal(C.GoBytes(unsafe.Pointer(options_json), options_len), &jsonOpts); err != nil {
		return opts, false
	}
	opts.Lenient = jsonOpts.Lenient
	return opts, true
}

func writeJSON(v interface{}, out_json **C.char, out_len *C.int) C.int {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return SMEXPLORER_ERR_JSON_ENCODE
	}
	*out_json = C.CString(string(jsonBytes))
	*out_len = C.int(len(jsonBytes))
	return SMEXPLORER_OK
}

// smexplorer_decode decodes a source map and returns its mapping table as JSON.
//
// Decoding failures are reported in the "errors" field of the result, not
// through the return code.
//
// Parameters:
//   - map_json: pointer to the source map (UTF-8 JSON)
//   - map_len: length of the source map in bytes
//   - options_json: pointer to JSON options (can be NULL for defaults)
//   - options_len: length of options JSON
//   - out_json: pointer to receive JSON result (caller must free with smexplorer_free)
//   - out_len: pointer to receive JSON length
//
//export smexplorer_decode
func smexplorer_decode(
	map_json *C.char, map_len C.int,
	options_json *C.char, options_len C.int,
	out_json **C.char, out_len *C.int,
) C.int {
	if map_json == nil || out_json == nil || out_len == nil {
		return SMEXPLORER_ERR_NULL_INPUT
	}

	opts, ok := parseOptions(options_json, options_len)
	if !ok {
		return SMEXPLORER_ERR_JSON_DECODE
	}

	result := api.DecodeSourceMap(C.GoBytes(unsafe.Pointer(map_json), map_len), opts)
	return writeJSON(result, out_json, out_len)
}

// smexplorer_invert decodes a source map and returns the reverse table of
// one source as JSON.
//
// Parameters:
//   - map_json: pointer to the source map (UTF-8 JSON)
//   - map_len: length of the source map in bytes
//   - generated: NUL-terminated name of the generated file
//   - source: NUL-terminated name of the source to invert
//   - options_json: pointer to JSON options (can be NULL for defaults)
//   - options_len: length of options JSON
//   - out_json: pointer to receive JSON result (caller must free with smexplorer_free)
//   - out_len: pointer to receive JSON length
//
//export smexplorer_invert
func smexplorer_invert(
	map_json *C.char, map_len C.int,
	generated *C.char, source *C.char,
	options_json *C.char, options_len C.int,
	out_json **C.char, out_len *C.int,
) C.int {
	if map_json == nil || generated == nil || source == nil || out_json == nil || out_len == nil {
		return SMEXPLORER_ERR_NULL_INPUT
	}

	opts, ok := parseOptions(options_json, options_len)
	if !ok {
		return SMEXPLORER_ERR_JSON_DECODE
	}

	result := api.Invert(
		C.GoBytes(unsafe.Pointer(map_json), map_len),
		C.GoString(generated),
		C.GoString(source),
		opts,
	)
	return writeJSON(result, out_json, out_len)
}

// smexplorer_free frees memory allocated by smexplorer functions.
//
//export smexplorer_free
func smexplorer_free(ptr *C.char) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

// smexplorer_version returns the library version string.
// The returned pointer is static and must NOT be freed.
//
//export smexplorer_version
func smexplorer_version() *C.char {
	return cVersion
}

// Required for c-archive build mode
func main() {}
