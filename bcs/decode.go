package bcs

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/move"
)

// Decode convert canonical bytes into their JSON projection, failing
// on truncated input and on trailing bytes after the top-level value.
func (c *Codec) Decode(tag move.TypeTag, data []byte) (json.RawMessage, error) {
	r := &reader{data: data}
	var buf bytes.Buffer
	if err := c.decodeValue(&buf, r, tag, 1); err != nil {
		return nil, err
	}
	if r.pos != len(r.data) {
		return nil, newError(TrailingBytes, tag, "%v bytes left after value", len(r.data)-r.pos)
	}
	return json.RawMessage(buf.Bytes()), nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) readByte(tag move.TypeTag) (byte, error) {
	if r.remaining() < 1 {
		return 0, newError(Truncated, tag, "input exhausted")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) read(n int, tag move.TypeTag) ([]byte, error) {
	if r.remaining() < n {
		return nil, newError(Truncated, tag, "want %v bytes, have %v", n, r.remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readUleb128 reads a ULEB128 length prefix, capped at u32 per the
// canonical encoding rules.
func (r *reader) readUleb128(tag move.TypeTag) (uint64, error) {
	var n uint64
	var shift uint
	for {
		b, err := r.readByte(tag)
		if err != nil {
			return 0, err
		}
		n |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 35 {
			return 0, newError(UnexpectedShape, tag, "uleb128 length prefix too long")
		}
	}
	if n > math.MaxUint32 {
		return 0, newError(UnexpectedShape, tag, "length %v exceeds u32", n)
	}
	return n, nil
}

func (c *Codec) decodeValue(buf *bytes.Buffer, r *reader, tag move.TypeTag, depth int) error {
	if depth > c.maxDepth() {
		return newError(UnexpectedShape, tag, "value nesting deeper than %v", c.maxDepth())
	}
	switch t := tag.(type) {
	case move.BoolTag:
		b, err := r.readByte(tag)
		if err != nil {
			return err
		}
		switch b {
		case 0:
			buf.WriteString("false")
		case 1:
			buf.WriteString("true")
		default:
			return newError(UnexpectedShape, tag, "invalid bool byte %#x", b)
		}
		return nil
	case move.U8Tag:
		b, err := r.readByte(tag)
		if err != nil {
			return err
		}
		buf.WriteString(strconv.Itoa(int(b)))
		return nil
	case move.U64Tag:
		b, err := r.read(8, tag)
		if err != nil {
			return err
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.FormatUint(binary.LittleEndian.Uint64(b), 10))
		buf.WriteByte('"')
		return nil
	case move.U128Tag:
		b, err := r.read(16, tag)
		if err != nil {
			return err
		}
		be := make([]byte, 16)
		for i, v := range b {
			be[len(b)-1-i] = v
		}
		buf.WriteByte('"')
		buf.WriteString(new(big.Int).SetBytes(be).String())
		buf.WriteByte('"')
		return nil
	case move.AddressTag:
		b, err := r.read(common.AddressWidth(), tag)
		if err != nil {
			return err
		}
		buf.WriteByte('"')
		buf.WriteString(common.Address(b).String())
		buf.WriteByte('"')
		return nil
	case *move.VectorTag:
		n, err := r.readUleb128(tag)
		if err != nil {
			return err
		}
		if _, isU8 := t.Elem.(move.U8Tag); isU8 {
			b, err := r.read(int(n), tag)
			if err != nil {
				return err
			}
			buf.WriteByte('"')
			buf.WriteString(hex.EncodeToString(b))
			buf.WriteByte('"')
			return nil
		}
		// every element consumes at least one byte
		if n > uint64(r.remaining()) {
			return newError(Truncated, tag, "vector of %v elements exceeds input", n)
		}
		buf.WriteByte('[')
		for i := uint64(0); i < n; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := c.decodeValue(buf, r, t.Elem, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case *move.StructTag:
		if move.IsStringTag(t) {
			n, err := r.readUleb128(tag)
			if err != nil {
				return err
			}
			b, err := r.read(int(n), tag)
			if err != nil {
				return err
			}
			if !utf8.Valid(b) {
				return newError(UnexpectedShape, tag, "string payload is not valid utf-8")
			}
			quoted, _ := json.Marshal(string(b))
			buf.Write(quoted)
			return nil
		}
		return c.decodeStruct(buf, r, t, depth)
	}
	return newError(UnexpectedShape, tag, "unhandled type tag")
}

// decodeStruct emits fields in declared layout order, which is the
// canonical JSON field order.
func (c *Codec) decodeStruct(buf *bytes.Buffer, r *reader, st *move.StructTag, depth int) error {
	layout, err := c.resolveLayout(st)
	if err != nil {
		return err
	}
	buf.WriteByte('{')
	for i, field := range layout.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(field.Name)
		buf.WriteString(`":`)
		if err := c.decodeValue(buf, r, field.Type, depth+1); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
