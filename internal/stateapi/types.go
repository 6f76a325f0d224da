package stateapi

import "encoding/json"

// ServerInfo api response
type ServerInfo struct {
	Identifier    string `json:"identifier"`
	Version       string `json:"version"`
	LatestVersion uint64 `json:"latest_version"`
	AddressWidth  int    `json:"address_width"`
}

// VersionInfo api response
type VersionInfo struct {
	Version string `json:"version"`
}

// ResourceResponse is a decoded account resource
type ResourceResponse struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ModuleResponse is the opaque bytecode of a published module
type ModuleResponse struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Bytecode string `json:"bytecode"`
}

// TableItemRequest is the body of a table item lookup
type TableItemRequest struct {
	KeyType   string          `json:"key_type"`
	ValueType string          `json:"value_type"`
	Key       json.RawMessage `json:"key"`
}
