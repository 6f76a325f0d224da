// Package move models Move type descriptors and struct layouts.
package move

import (
	"strings"

	"github.com/Iamfittz/aptos-core/common"
)

// TypeTag is the closed set of runtime type descriptors.
// Codec dispatch switches over these variants exhaustively, so adding
// a primitive means touching every switch.
type TypeTag interface {
	String() string
	isTypeTag()
}

// BoolTag is the bool primitive
type BoolTag struct{}

// U8Tag is the u8 primitive
type U8Tag struct{}

// U64Tag is the u64 primitive
type U64Tag struct{}

// U128Tag is the u128 primitive
type U128Tag struct{}

// AddressTag is the account address primitive
type AddressTag struct{}

// VectorTag is a homogeneous variable-length sequence
type VectorTag struct {
	Elem TypeTag
}

// StructTag names one concrete struct identity
type StructTag struct {
	Address  common.Address
	Module   string
	Name     string
	Generics []TypeTag
}

func (BoolTag) isTypeTag()    {}
func (U8Tag) isTypeTag()      {}
func (U64Tag) isTypeTag()     {}
func (U128Tag) isTypeTag()    {}
func (AddressTag) isTypeTag() {}
func (*VectorTag) isTypeTag() {}
func (*StructTag) isTypeTag() {}

func (BoolTag) String() string    { return "bool" }
func (U8Tag) String() string      { return "u8" }
func (U64Tag) String() string     { return "u64" }
func (U128Tag) String() string    { return "u128" }
func (AddressTag) String() string { return "address" }

func (t *VectorTag) String() string {
	return "vector<" + t.Elem.String() + ">"
}

func (t *StructTag) String() string {
	var b strings.Builder
	b.WriteString(t.Address.String())
	b.WriteString("::")
	b.WriteString(t.Module)
	b.WriteString("::")
	b.WriteString(t.Name)
	if len(t.Generics) > 0 {
		b.WriteString("<")
		for i, g := range t.Generics {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(g.String())
		}
		b.WriteString(">")
	}
	return b.String()
}

// Key is the layout cache key: identity without generics
func (t *StructTag) Key() string {
	return t.Address.String() + "::" + t.Module + "::" + t.Name
}

// IsStringTag reports whether st is the special ASCII string type
// 0x1::ASCII::String, whose on-wire form is a byte vector but whose
// JSON form is a plain string.
func IsStringTag(st *StructTag) bool {
	return isCoreAddress(st.Address) && st.Module == "ASCII" && st.Name == "String"
}

// isCoreAddress reports whether a is 0x1 in the configured width
func isCoreAddress(a common.Address) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != 0 {
			return false
		}
	}
	return len(a) > 0 && a[len(a)-1] == 1
}
