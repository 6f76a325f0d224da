package bcs

import (
	"bytes"

	"github.com/Iamfittz/aptos-core/move"
)

// LayoutResolver supplies the declared field order and field types of
// a concrete struct identity.
type LayoutResolver interface {
	ResolveLayout(st *move.StructTag) (*move.StructLayout, error)
}

// Codec is a bidirectional converter between canonical bytes and JSON.
// Stateless apart from the injected layout resolver; safe for
// concurrent use.
type Codec struct {
	Layouts  LayoutResolver
	MaxDepth int
}

// NewCodec create a codec with the default recursion depth limit
func NewCodec(layouts LayoutResolver) *Codec {
	return &Codec{Layouts: layouts, MaxDepth: move.DefaultMaxTypeDepth}
}

func (c *Codec) maxDepth() int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	return move.DefaultMaxTypeDepth
}

func (c *Codec) resolveLayout(st *move.StructTag) (*move.StructLayout, error) {
	if c.Layouts == nil {
		return nil, newError(UnexpectedShape, st, "no layout resolver")
	}
	return c.Layouts.ResolveLayout(st)
}

// writeUleb128 append the ULEB128 form of n
func writeUleb128(buf *bytes.Buffer, n uint64) {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}
