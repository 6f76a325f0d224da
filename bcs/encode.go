package bcs

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/move"
)

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Encode convert a JSON value into its canonical binary encoding
func (c *Codec) Encode(tag move.TypeTag, value json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encodeValue(&buf, tag, value, 1); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) encodeValue(buf *bytes.Buffer, tag move.TypeTag, value json.RawMessage, depth int) error {
	if depth > c.maxDepth() {
		return newError(UnexpectedShape, tag, "value nesting deeper than %v", c.maxDepth())
	}
	switch t := tag.(type) {
	case move.BoolTag:
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return newError(UnexpectedShape, tag, "want JSON boolean")
		}
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return nil
	case move.U8Tag:
		var num json.Number
		if err := json.Unmarshal(value, &num); err != nil {
			return newError(UnexpectedShape, tag, "want JSON number")
		}
		n, err := strconv.ParseUint(num.String(), 10, 8)
		if err != nil {
			if strings.HasPrefix(num.String(), "-") || numErrIsRange(err) {
				return newError(RangeOverflow, tag, "%v out of range [0,255]", num)
			}
			return newError(UnexpectedShape, tag, "%v is not an unsigned integer", num)
		}
		buf.WriteByte(byte(n))
		return nil
	case move.U64Tag:
		n, err := decimalStringUint(tag, value, 64)
		if err != nil {
			return err
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], n)
		buf.Write(b[:])
		return nil
	case move.U128Tag:
		s, err := decimalString(tag, value)
		if err != nil {
			return err
		}
		bi, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return newError(UnexpectedShape, tag, "%q is not a decimal string", s)
		}
		if bi.Cmp(maxU128) > 0 {
			return newError(RangeOverflow, tag, "%v out of u128 range", s)
		}
		var b [16]byte
		be := bi.Bytes()
		for i, v := range be { // big-endian big.Int bytes to little-endian
			b[len(be)-1-i] = v
		}
		buf.Write(b[:])
		return nil
	case move.AddressTag:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return newError(UnexpectedShape, tag, "want JSON string")
		}
		addr, err := common.ParseAddress(s)
		if err != nil {
			return newError(UnexpectedShape, tag, "%v", err)
		}
		buf.Write(addr.Bytes())
		return nil
	case *move.VectorTag:
		if _, isU8 := t.Elem.(move.U8Tag); isU8 {
			return c.encodeByteVector(buf, tag, value)
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(value, &elems); err != nil {
			return newError(UnexpectedShape, tag, "want JSON array")
		}
		writeUleb128(buf, uint64(len(elems)))
		for _, elem := range elems {
			if err := c.encodeValue(buf, t.Elem, elem, depth+1); err != nil {
				return err
			}
		}
		return nil
	case *move.StructTag:
		if move.IsStringTag(t) {
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return newError(UnexpectedShape, tag, "want JSON string")
			}
			writeUleb128(buf, uint64(len(s)))
			buf.WriteString(s)
			return nil
		}
		return c.encodeStruct(buf, t, value, depth)
	}
	return newError(UnexpectedShape, tag, "unhandled type tag")
}

// encodeByteVector encodes the vector<u8> carve-out: the JSON form is
// a hex string, not a numeric array.
func (c *Codec) encodeByteVector(buf *bytes.Buffer, tag move.TypeTag, value json.RawMessage) error {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return newError(UnexpectedShape, tag, "want JSON hex string")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return newError(UnexpectedShape, tag, "odd-length hex string")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return newError(UnexpectedShape, tag, "%q is not a hex string", s)
	}
	writeUleb128(buf, uint64(len(b)))
	buf.Write(b)
	return nil
}

func (c *Codec) encodeStruct(buf *bytes.Buffer, st *move.StructTag, value json.RawMessage, depth int) error {
	layout, err := c.resolveLayout(st)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(value, &fields); err != nil {
		return newError(UnexpectedShape, st, "want JSON object")
	}
	// fields are written in declared layout order, never JSON key order
	for _, field := range layout.Fields {
		raw, ok := fields[field.Name]
		if !ok {
			return newError(MissingField, st, "field %q", field.Name)
		}
		if err := c.encodeValue(buf, field.Type, raw, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func decimalString(tag move.TypeTag, value json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", newError(UnexpectedShape, tag, "want decimal string")
	}
	if s == "" {
		return "", newError(UnexpectedShape, tag, "empty decimal string")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", newError(UnexpectedShape, tag, "%q is not a decimal string", s)
		}
	}
	return s, nil
}

func decimalStringUint(tag move.TypeTag, value json.RawMessage, bits int) (uint64, error) {
	s, err := decimalString(tag, value)
	if err != nil {
		return 0, err
	}
	n, perr := strconv.ParseUint(s, 10, bits)
	if perr != nil {
		return 0, newError(RangeOverflow, tag, "%v out of u%v range", s, bits)
	}
	return n, nil
}

func numErrIsRange(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}
