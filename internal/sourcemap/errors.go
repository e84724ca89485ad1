package sourcemap

import (
	"errors"
	"fmt"
)

// Decoder and parser failure kinds. Every error returned by this package
// matches exactly one of them with errors.Is.
var (
	ErrMalformedJSON        = errors.New("malformed JSON")
	ErrSchemaViolation      = errors.New("schema violation")
	ErrInvalidCharacter     = errors.New("invalid base64 character")
	ErrVLQOverflow          = errors.New("VLQ value overflows 32 bits")
	ErrUnterminatedVLQ      = errors.New("unterminated VLQ value")
	ErrInvalidSegmentLength = errors.New("invalid segment length")
	ErrIndexOutOfRange      = errors.New("index out of range")
)

// SchemaReason tells which schema rule a document broke.
type SchemaReason uint8

const (
	// ReasonNotObject means the payload is valid JSON but not an object.
	ReasonNotObject SchemaReason = iota
	// ReasonVersion means "version" is missing or not the integer 3.
	ReasonVersion
	// ReasonFieldType means a field has the wrong JSON type.
	ReasonFieldType
	// ReasonElementType means an array field holds an element of the wrong type.
	ReasonElementType
)

func (r SchemaReason) String() string {
	switch r {
	case ReasonNotObject:
		return "not an object"
	case ReasonVersion:
		return "unsupported version"
	case ReasonFieldType:
		return "wrong field type"
	case ReasonElementType:
		return "wrong array element type"
	default:
		return "unknown"
	}
}

// SchemaError describes a structural problem with a source map document.
type SchemaError struct {
	Reason SchemaReason
	Field  string // JSON key, empty for ReasonNotObject
	Index  int    // element index for ReasonElementType, -1 otherwise
	Want   string
}

func (e *SchemaError) Error() string {
	switch e.Reason {
	case ReasonNotObject:
		return "schema violation: source map must be a JSON object"
	case ReasonVersion:
		return "schema violation: version must be 3"
	case ReasonElementType:
		return fmt.Sprintf("schema violation: %s[%d] must be %s", e.Field, e.Index, e.Want)
	default:
		return fmt.Sprintf("schema violation: %s must be %s", e.Field, e.Want)
	}
}

// Is reports ErrSchemaViolation as the kind of every SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaViolation
}

// DecodeError locates a failure inside a mappings string.
type DecodeError struct {
	Line    int // generated line (0-based)
	Segment int // segment index within the line (0-based)
	Offset  int // byte offset into the mappings string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mappings: line %d, segment %d (offset %d): %v", e.Line, e.Segment, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
