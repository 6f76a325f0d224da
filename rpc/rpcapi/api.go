// Package rpcapi is the json-rpc mirror of the rest surface.
package rpcapi

import (
	"encoding/json"
	"errors"
	"net/http"

	rpcjson "github.com/gorilla/rpc/v2/json2"

	"github.com/Iamfittz/aptos-core/bcs"
	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/internal/stateapi"
	"github.com/Iamfittz/aptos-core/move"
	"github.com/Iamfittz/aptos-core/state"
)

// RPCAPI rpc api handler
type RPCAPI struct{}

// RPCNullArgs null args
type RPCNullArgs struct{}

func newRPCError(ec rpcjson.ErrorCode, message string) error {
	return &rpcjson.Error{
		Code:    ec,
		Message: message,
	}
}

// rpcError map the engine error classes onto distinguishable codes
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	var addrErr *common.AddressError
	var parseErr *move.ParseError
	var handleErr *state.HandleError
	if errors.As(err, &addrErr) || errors.As(err, &parseErr) || errors.As(err, &handleErr) {
		return newRPCError(-32099, err.Error())
	}
	var nf *state.NotFoundError
	if errors.As(err, &nf) {
		return newRPCError(-32098, err.Error())
	}
	var codecErr *bcs.Error
	if errors.As(err, &codecErr) {
		return newRPCError(-32097, err.Error())
	}
	return newRPCError(-32000, "rpcError: "+err.Error())
}

// GetServerInfo api
func (s *RPCAPI) GetServerInfo(r *http.Request, args *RPCNullArgs, result *stateapi.ServerInfo) error {
	res, err := stateapi.GetServerInfo()
	if err != nil {
		return rpcError(err)
	}
	*result = *res
	return nil
}

// GetVersionInfo api
func (s *RPCAPI) GetVersionInfo(r *http.Request, args *RPCNullArgs, result *stateapi.VersionInfo) error {
	res, err := stateapi.GetVersionInfo()
	if err != nil {
		return rpcError(err)
	}
	*result = *res
	return nil
}

// RPCResourceArgs resource lookup args
type RPCResourceArgs struct {
	Address   string  `json:"address"`
	StructTag string  `json:"struct_tag"`
	Version   *uint64 `json:"version,omitempty"`
}

// GetAccountResource api
func (s *RPCAPI) GetAccountResource(r *http.Request, args *RPCResourceArgs, result *stateapi.ResourceResponse) error {
	res, err := stateapi.GetAccountResource(args.Address, args.StructTag, args.Version)
	if err != nil {
		return rpcError(err)
	}
	*result = *res
	return nil
}

// RPCModuleArgs module lookup args
type RPCModuleArgs struct {
	Address string  `json:"address"`
	Name    string  `json:"name"`
	Version *uint64 `json:"version,omitempty"`
}

// GetAccountModule api
func (s *RPCAPI) GetAccountModule(r *http.Request, args *RPCModuleArgs, result *stateapi.ModuleResponse) error {
	res, err := stateapi.GetAccountModule(args.Address, args.Name, args.Version)
	if err != nil {
		return rpcError(err)
	}
	*result = *res
	return nil
}

// RPCTableItemArgs table item lookup args
type RPCTableItemArgs struct {
	Handle    string          `json:"handle"`
	KeyType   string          `json:"key_type"`
	ValueType string          `json:"value_type"`
	Key       json.RawMessage `json:"key"`
	Version   *uint64         `json:"version,omitempty"`
}

// GetTableItem api
func (s *RPCAPI) GetTableItem(r *http.Request, args *RPCTableItemArgs, result *json.RawMessage) error {
	req := &stateapi.TableItemRequest{
		KeyType:   args.KeyType,
		ValueType: args.ValueType,
		Key:       args.Key,
	}
	res, err := stateapi.GetTableItem(args.Handle, req, args.Version)
	if err != nil {
		return rpcError(err)
	}
	*result = res
	return nil
}

// RPCStructLayoutArgs struct layout lookup args
type RPCStructLayoutArgs struct {
	StructTag string  `json:"struct_tag"`
	Version   *uint64 `json:"version,omitempty"`
}

// GetStructLayout api
func (s *RPCAPI) GetStructLayout(r *http.Request, args *RPCStructLayoutArgs, result *state.LayoutRecord) error {
	res, err := stateapi.GetStructLayout(args.StructTag, args.Version)
	if err != nil {
		return rpcError(err)
	}
	*result = *res
	return nil
}
