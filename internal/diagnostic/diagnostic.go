// Package diagnostic provides per-file diagnostics for source map decoding
// and file reconciliation.
//
// A failure in one file never stops the others from being processed; it is
// collected here instead, with a stable code and, for mapping errors, the
// generated line and segment it was found at.
package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/HugoDaniel/smexplorer/internal/sourcemap"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error means the file could not be decoded.
	Error Severity = iota
	// Warning is a non-blocking issue.
	Warning
	// Info is an informational message.
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Code identifies a class of diagnostic.
type Code string

const (
	// Document errors (SM00xx)
	CodeMalformedJSON   Code = "SM0001"
	CodeSchemaViolation Code = "SM0002"

	// Mapping errors (SM01xx)
	CodeInvalidCharacter     Code = "SM0100"
	CodeVLQOverflow          Code = "SM0101"
	CodeUnterminatedVLQ      Code = "SM0102"
	CodeInvalidSegmentLength Code = "SM0103"
	CodeIndexOutOfRange      Code = "SM0104"

	// Linkage (SM02xx)
	CodeMissingSourceMap Code = "SM0200"
	CodeMissingSource    Code = "SM0201"

	// Input (SM09xx)
	CodeRead    Code = "SM0900"
	CodeUnknown Code = "SM0999"
)

// Classify maps an error onto its diagnostic code. Only sentinel errors and
// standard library error types are inspected, never message text.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, sourcemap.ErrMalformedJSON):
		return CodeMalformedJSON
	case errors.Is(err, sourcemap.ErrSchemaViolation):
		return CodeSchemaViolation
	case errors.Is(err, sourcemap.ErrInvalidCharacter):
		return CodeInvalidCharacter
	case errors.Is(err, sourcemap.ErrVLQOverflow):
		return CodeVLQOverflow
	case errors.Is(err, sourcemap.ErrUnterminatedVLQ):
		return CodeUnterminatedVLQ
	case errors.Is(err, sourcemap.ErrInvalidSegmentLength):
		return CodeInvalidSegmentLength
	case errors.Is(err, sourcemap.ErrIndexOutOfRange):
		return CodeIndexOutOfRange
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeRead
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeRead
	}
	return CodeUnknown
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	File     string // File the diagnostic belongs to
	Message  string
	Line     int // Generated line (0-based), -1 when not applicable
	Segment  int // Segment within Line, -1 when not applicable
}

// Error returns a formatted error string.
func (d *Diagnostic) Error() string {
	if d.Line >= 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Segment, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.File, d.Severity, d.Message)
}

// FromError builds an error diagnostic for a file that failed to decode.
func FromError(file string, err error) Diagnostic {
	d := Diagnostic{
		Severity: Error,
		Code:     Classify(err),
		File:     file,
		Message:  err.Error(),
		Line:     -1,
		Segment:  -1,
	}
	var decodeErr *sourcemap.DecodeError
	if errors.As(err, &decodeErr) {
		d.Line = decodeErr.Line
		d.Segment = decodeErr.Segment
		d.Message = decodeErr.Err.Error()
	}
	return d
}

// DiagnosticList collects diagnostics.
type DiagnosticList struct {
	diagnostics []Diagnostic
	hasErrors   bool
}

// NewDiagnosticList creates an empty diagnostic list.
func NewDiagnosticList() *DiagnosticList {
	return &DiagnosticList{
		diagnostics: make([]Diagnostic, 0),
	}
}

// Add adds a diagnostic to the list.
func (dl *DiagnosticList) Add(d Diagnostic) {
	dl.diagnostics = append(dl.diagnostics, d)
	if d.Severity == Error {
		dl.hasErrors = true
	}
}

// AddError adds an error diagnostic derived from err.
func (dl *DiagnosticList) AddError(file string, err error) {
	dl.Add(FromError(file, err))
}

// AddWarning adds a file-level warning.
func (dl *DiagnosticList) AddWarning(file string, code Code, message string) {
	dl.Add(Diagnostic{
		Severity: Warning,
		Code:     code,
		File:     file,
		Message:  message,
		Line:     -1,
		Segment:  -1,
	})
}

// AddInfo adds a file-level informational message.
func (dl *DiagnosticList) AddInfo(file string, code Code, message string) {
	dl.Add(Diagnostic{
		Severity: Info,
		Code:     code,
		File:     file,
		Message:  message,
		Line:     -1,
		Segment:  -1,
	})
}

// HasErrors returns true if there are any error-level diagnostics.
func (dl *DiagnosticList) HasErrors() bool {
	return dl.hasErrors
}

// Diagnostics returns all collected diagnostics.
func (dl *DiagnosticList) Diagnostics() []Diagnostic {
	return dl.diagnostics
}

// Errors returns only error-level diagnostics.
func (dl *DiagnosticList) Errors() []Diagnostic {
	return dl.bySeverity(Error)
}

// Warnings returns only warning-level diagnostics.
func (dl *DiagnosticList) Warnings() []Diagnostic {
	return dl.bySeverity(Warning)
}

func (dl *DiagnosticList) bySeverity(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range dl.diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the total number of diagnostics.
func (dl *DiagnosticList) Count() int {
	return len(dl.diagnostics)
}

// ErrorCount returns the number of error-level diagnostics.
func (dl *DiagnosticList) ErrorCount() int {
	return len(dl.Errors())
}

// Sort orders diagnostics by file, then severity, then position.
func (dl *DiagnosticList) Sort() {
	sort.SliceStable(dl.diagnostics, func(i, j int) bool {
		a, b := dl.diagnostics[i], dl.diagnostics[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Segment < b.Segment
	})
}

// Filter drops diagnostics whose code is disabled in f.
func (dl *DiagnosticList) Filter(f *Filter) *DiagnosticList {
	out := NewDiagnosticList()
	for _, d := range dl.diagnostics {
		if f != nil && f.IsDisabled(d.Code) {
			continue
		}
		out.Add(d)
	}
	return out
}

// Filter controls which diagnostics are reported.
type Filter struct {
	disabled map[Code]struct{}
}

// NewFilter creates a filter that reports everything.
func NewFilter(disabled ...Code) *Filter {
	f := &Filter{disabled: make(map[Code]struct{})}
	for _, c := range disabled {
		f.Disable(c)
	}
	return f
}

// Disable stops diagnostics with the given code from being reported.
func (f *Filter) Disable(code Code) {
	f.disabled[code] = struct{}{}
}

// IsDisabled returns true if the code is disabled.
func (f *Filter) IsDisabled(code Code) bool {
	_, ok := f.disabled[code]
	return ok
}
