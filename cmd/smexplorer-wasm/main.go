//go:build js && wasm

// Command smexplorer-wasm is the WebAssembly build of the source map explorer.
// It exposes decoding and inversion to JavaScript via syscall/js.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/HugoDaniel/smexplorer/pkg/api"
)

// jsOptions mirrors the JavaScript options object.
type jsOptions struct {
	Lenient *bool `json:"lenient"`
}

func main() {
	// Export functions to JavaScript
	js.Global().Set("__smexplorer", js.ValueOf(map[string]interface{}{
		"decode":  js.FuncOf(decodeJS),
		"invert":  js.FuncOf(invertJS),
		"version": api.Version,
	}))

	// Keep the Go runtime alive
	select {}
}

// decodeJS is the JavaScript-callable decode function.
// Signature: __smexplorer.decode(sourceMap: string, options?: object) => object
func decodeJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("decode requires at least 1 argument (sourceMap)")
	}

	result := api.DecodeSourceMap([]byte(args[0].String()), optionsArg(args, 1))
	return toJS(result)
}

// invertJS is the JavaScript-callable invert function.
// Signature: __smexplorer.invert(sourceMap: string, generated: string, source: string, options?: object) => object
func invertJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeError("invert requires at least 3 arguments (sourceMap, generated, source)")
	}

	result := api.Invert([]byte(args[0].String()), args[1].String(), args[2].String(), optionsArg(args, 3))
	return toJS(result)
}

func optionsArg(args []js.Value, i int) api.DecodeOptions {
	var opts api.DecodeOptions
	if len(args) <= i || args[i].IsUndefined() || args[i].IsNull() {
		return opts
	}
	jsOpts := parseOptions(args[i])
	if jsOpts.Lenient != nil {
		opts.Lenient = *jsOpts.Lenient
	}
	return opts
}

// parseOptions extracts options from a JS object.
func parseOptions(jsVal js.Value) jsOptions {
	var opts jsOptions

	// Try JSON serialization first (handles complex objects better)
	jsonStr := js.Global().Get("JSON").Call("stringify", jsVal).String()
	if err := json.Unmarshal([]byte(jsonStr), &opts); err == nil {
		return opts
	}

	// Fallback to direct property access
	if v := jsVal.Get("lenient"); !v.IsUndefined() {
		b := v.Bool()
		opts.Lenient = &b
	}

	return opts
}

// toJS converts a result struct to a plain JS object through its JSON form.
func toJS(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return makeError(err.Error())
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

// makeError creates a result object with an error.
func makeError(msg string) interface{} {
	return map[string]interface{}{
		"lines":  []interface{}{},
		"errors": []interface{}{msg},
	}
}
