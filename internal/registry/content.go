package registry

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// Content is an immutable file buffer. Its pointer is its identity: the
// reconciler reuses a previous parse only when it is handed the very same
// *Content again.
type Content struct {
	data   []byte
	digest uint64
}

// NewContent wraps data. The caller hands over ownership and must not modify
// data afterwards.
func NewContent(data []byte) *Content {
	return &Content{
		data:   data,
		digest: xxhash.Sum64(data),
	}
}

// Bytes returns the underlying buffer. It must not be modified.
func (c *Content) Bytes() []byte {
	return c.data
}

func (c *Content) String() string {
	return string(c.data)
}

// Len returns the size in bytes.
func (c *Content) Len() int {
	return len(c.data)
}

// Digest returns the xxhash of the content.
func (c *Content) Digest() uint64 {
	return c.digest
}

// SameBytes reports whether two contents hold byte-identical data.
func (c *Content) SameBytes(other *Content) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.digest == other.digest && bytes.Equal(c.data, other.data)
}

// Uploads maps a file name to its completed content. Names whose read is
// still in flight are not part of it.
type Uploads map[string]*Content

// Same reports whether both sets hold the same names bound to identical
// *Content pointers.
func (u Uploads) Same(other Uploads) bool {
	if len(u) != len(other) {
		return false
	}
	for name, c := range u {
		oc, ok := other[name]
		if !ok || oc != c {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy.
func (u Uploads) Clone() Uploads {
	out := make(Uploads, len(u))
	for name, c := range u {
		out[name] = c
	}
	return out
}
