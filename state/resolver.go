package state

import (
	"encoding/json"
	"errors"

	"github.com/Iamfittz/aptos-core/bcs"
	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/move"
)

// Resolver is the read-only query engine over a versioned store.
// Stateless across requests; the layout cache is the only shared
// mutable state.
type Resolver struct {
	store    VersionedStore
	layouts  *CachedLayoutResolver
	maxDepth int
}

// NewResolver build a resolver over store with the given layout cache
func NewResolver(store VersionedStore, layouts *CachedLayoutResolver, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = move.DefaultMaxTypeDepth
	}
	return &Resolver{store: store, layouts: layouts, maxDepth: maxDepth}
}

// Store the underlying versioned store
func (r *Resolver) Store() VersionedStore {
	return r.store
}

// CodecAt get a value codec whose layout lookups are pinned to one
// ledger version
func (r *Resolver) CodecAt(version Version) *bcs.Codec {
	return &bcs.Codec{Layouts: r.layouts.At(version), MaxDepth: r.maxDepth}
}

// GetResource fetch and decode the resource stored under
// (addr, struct tag)
func (r *Resolver) GetResource(addr common.Address, tag *move.StructTag, version Version) (json.RawMessage, error) {
	raw, err := r.store.Get(ResourceKey(addr, tag), version)
	if errors.Is(err, ErrAbsent) {
		return nil, notFound(KindResource, addr.String()+"/"+tag.String(), version)
	}
	if err != nil {
		return nil, err
	}
	return r.CodecAt(version).Decode(tag, raw)
}

// GetModule fetch the opaque bytecode of the module stored under
// (addr, name)
func (r *Resolver) GetModule(addr common.Address, name string, version Version) ([]byte, error) {
	raw, err := r.store.Get(ModuleKey(addr, name), version)
	if errors.Is(err, ErrAbsent) {
		return nil, notFound(KindModule, addr.String()+"/"+name, version)
	}
	return raw, err
}

// GetTableItem encode the JSON key with keyType, look the entry up by
// (handle, key bytes) and decode the stored value with valueType.
//
// A table carries no type information of its own. When valueType is
// itself a table identity the decoded value is a JSON object carrying
// the nested handle; descending further is the caller's second call.
func (r *Resolver) GetTableItem(handle TableHandle, keyType, valueType move.TypeTag, jsonKey json.RawMessage, version Version) (json.RawMessage, error) {
	codec := r.CodecAt(version)
	keyBytes, err := codec.Encode(keyType, jsonKey)
	if err != nil {
		return nil, err
	}
	raw, err := r.store.Get(TableItemKey(handle, keyBytes), version)
	if errors.Is(err, ErrAbsent) {
		return nil, notFound(KindTableEntry, handle.String(), version)
	}
	if err != nil {
		return nil, err
	}
	return codec.Decode(valueType, raw)
}

// GetStructLayout resolve the declared layout of a struct identity
func (r *Resolver) GetStructLayout(st *move.StructTag, version Version) (*move.StructLayout, error) {
	return r.layouts.At(version).ResolveLayout(st)
}
