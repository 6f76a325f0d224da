// Package stateapi implements the logical query operations exposed by
// the rest and rpc surfaces.
package stateapi

import (
	"encoding/json"
	"errors"

	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/log"
	"github.com/Iamfittz/aptos-core/move"
	"github.com/Iamfittz/aptos-core/params"
	"github.com/Iamfittz/aptos-core/state"
)

var (
	resolver *state.Resolver

	errNotInitialized = errors.New("api not initialized")
)

// Init set the resolver the api operations run against
func Init(r *state.Resolver) {
	resolver = r
}

func atVersion(version *uint64) state.Version {
	if version == nil {
		return state.LatestVersion
	}
	return *version
}

// GetServerInfo api
func GetServerInfo() (*ServerInfo, error) {
	log.Debug("[api] receive GetServerInfo")
	if resolver == nil {
		return nil, errNotInitialized
	}
	return &ServerInfo{
		Identifier:    params.GetIdentifier(),
		Version:       params.VersionWithMeta,
		LatestVersion: resolver.Store().LatestVersion(),
		AddressWidth:  common.AddressWidth(),
	}, nil
}

// GetVersionInfo api
func GetVersionInfo() (*VersionInfo, error) {
	return &VersionInfo{Version: params.VersionWithMeta}, nil
}

// GetAccountResource api
func GetAccountResource(address, structTag string, version *uint64) (*ResourceResponse, error) {
	log.Debug("[api] receive GetAccountResource", "address", address, "structTag", structTag)
	if resolver == nil {
		return nil, errNotInitialized
	}
	addr, err := common.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	st, err := parseStructTag(structTag)
	if err != nil {
		return nil, err
	}
	data, err := resolver.GetResource(addr, st, atVersion(version))
	if err != nil {
		return nil, err
	}
	return &ResourceResponse{Type: st.String(), Data: data}, nil
}

// GetAccountModule api
func GetAccountModule(address, name string, version *uint64) (*ModuleResponse, error) {
	log.Debug("[api] receive GetAccountModule", "address", address, "name", name)
	if resolver == nil {
		return nil, errNotInitialized
	}
	addr, err := common.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	if !move.IsIdentifier(name) {
		return nil, &move.ParseError{Input: name, Reason: "bad module identifier"}
	}
	bytecode, err := resolver.GetModule(addr, name, atVersion(version))
	if err != nil {
		return nil, err
	}
	return &ModuleResponse{
		Address:  addr.String(),
		Name:     name,
		Bytecode: common.ToHex(bytecode),
	}, nil
}

// GetTableItem api
func GetTableItem(handle string, req *TableItemRequest, version *uint64) (json.RawMessage, error) {
	log.Debug("[api] receive GetTableItem", "handle", handle,
		"keyType", req.KeyType, "valueType", req.ValueType)
	if resolver == nil {
		return nil, errNotInitialized
	}
	tableHandle, err := state.ParseTableHandle(handle)
	if err != nil {
		return nil, err
	}
	keyType, err := move.ParseTypeTag(req.KeyType)
	if err != nil {
		return nil, err
	}
	valueType, err := move.ParseTypeTag(req.ValueType)
	if err != nil {
		return nil, err
	}
	if len(req.Key) == 0 {
		return nil, &move.ParseError{Input: "", Reason: "missing table item key"}
	}
	return resolver.GetTableItem(tableHandle, keyType, valueType, req.Key, atVersion(version))
}

// GetStructLayout api
func GetStructLayout(structTag string, version *uint64) (*state.LayoutRecord, error) {
	log.Debug("[api] receive GetStructLayout", "structTag", structTag)
	if resolver == nil {
		return nil, errNotInitialized
	}
	st, err := parseStructTag(structTag)
	if err != nil {
		return nil, err
	}
	layout, err := resolver.GetStructLayout(st, atVersion(version))
	if err != nil {
		return nil, err
	}
	return state.LayoutRecordOf(st.Key(), layout), nil
}

func parseStructTag(structTag string) (*move.StructTag, error) {
	tag, err := move.ParseTypeTag(structTag)
	if err != nil {
		return nil, err
	}
	st, ok := tag.(*move.StructTag)
	if !ok {
		return nil, &move.ParseError{Input: structTag, Reason: "not a struct tag"}
	}
	return st, nil
}
