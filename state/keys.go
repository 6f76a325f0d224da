package state

import (
	"golang.org/x/crypto/sha3"

	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/move"
)

// key family prefixes of the versioned key space
const (
	prefixResource = 'r'
	prefixModule   = 'm'
	prefixTable    = 't'
	prefixLayout   = 'l'
)

// ResourceKey state key of a resource: the struct tag is digested so
// arbitrarily deep generic instantiations keep keys fixed-width.
func ResourceKey(addr common.Address, tag *move.StructTag) []byte {
	digest := sha3.Sum256([]byte(tag.String()))
	key := make([]byte, 0, 1+len(addr)+len(digest))
	key = append(key, prefixResource)
	key = append(key, addr.Bytes()...)
	key = append(key, digest[:]...)
	return key
}

// ModuleKey state key of a published module
func ModuleKey(addr common.Address, name string) []byte {
	key := make([]byte, 0, 1+len(addr)+len(name))
	key = append(key, prefixModule)
	key = append(key, addr.Bytes()...)
	key = append(key, name...)
	return key
}

// TableItemKey state key of one table entry
func TableItemKey(handle TableHandle, keyBytes []byte) []byte {
	key := make([]byte, 0, 1+16+len(keyBytes))
	key = append(key, prefixTable)
	key = append(key, handle.Bytes()...)
	key = append(key, keyBytes...)
	return key
}

// LayoutKey state key of a struct layout record. Module and name are
// separated by "::" which cannot occur inside an identifier.
func LayoutKey(addr common.Address, module, name string) []byte {
	key := make([]byte, 0, 1+len(addr)+len(module)+2+len(name))
	key = append(key, prefixLayout)
	key = append(key, addr.Bytes()...)
	key = append(key, module...)
	key = append(key, "::"...)
	key = append(key, name...)
	return key
}
