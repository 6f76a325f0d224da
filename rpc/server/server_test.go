package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/internal/stateapi"
	"github.com/Iamfittz/aptos-core/leveldb"
	"github.com/Iamfittz/aptos-core/move"
	"github.com/Iamfittz/aptos-core/params"
	"github.com/Iamfittz/aptos-core/state"
)

const testAccount = "0xA550C18"

func layoutValue(t *testing.T, fields ...state.LayoutField) []byte {
	t.Helper()
	raw, err := json.Marshal(&state.LayoutRecord{Fields: fields})
	require.NoError(t, err)
	return raw
}

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	require.NoError(t, common.SetAddressWidth(common.AddressWidth16))
	params.SetConfig(&params.NodeConfig{
		Identifier: "statequery-test",
		APIServer:  &params.APIServerConfig{},
		StateDB:    &params.StateDBConfig{Path: t.TempDir()},
	})

	db, err := leveldb.New(t.TempDir(), 16, 16, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sdb, err := state.NewStateDB(db)
	require.NoError(t, err)

	core := common.MustParseAddress("0x1")
	account := common.MustParseAddress(testAccount)
	require.NoError(t, sdb.Commit(1, []state.KeyValue{
		{Key: state.LayoutKey(core, "GUID", "Generator"), Value: layoutValue(t,
			state.LayoutField{Name: "counter", Type: "u64"},
		)},
		{Key: state.LayoutKey(core, "Table", "Table"), Value: layoutValue(t,
			state.LayoutField{Name: "handle", Type: "u128"},
		)},
	}))

	resolver := state.NewResolver(sdb, state.NewCachedLayoutResolver(state.NewStoreLayoutSource(sdb)), 0)
	codec := resolver.CodecAt(1)
	encode := func(typeStr, jsonIn string) []byte {
		tag, err := move.ParseTypeTag(typeStr)
		require.NoError(t, err)
		b, err := codec.Encode(tag, json.RawMessage(jsonIn))
		require.NoError(t, err)
		return b
	}

	generatorTag, err := move.ParseTypeTag("0x1::GUID::Generator")
	require.NoError(t, err)
	outerHandle, err := state.ParseTableHandle("1")
	require.NoError(t, err)
	innerHandle, err := state.ParseTableHandle("2")
	require.NoError(t, err)

	require.NoError(t, sdb.Commit(2, []state.KeyValue{
		{
			Key:   state.ResourceKey(account, generatorTag.(*move.StructTag)),
			Value: encode("0x1::GUID::Generator", `{"counter":"4"}`),
		},
		{Key: state.ModuleKey(core, "GUID"), Value: []byte{0xa1, 0x1c, 0xeb, 0x0b}},
		{
			Key:   state.TableItemKey(outerHandle, encode("u8", `1`)),
			Value: encode("0x1::Table::Table<u8, u8>", `{"handle":"2"}`),
		},
		{Key: state.TableItemKey(innerHandle, encode("u8", `2`)), Value: encode("u8", `3`)},
	}))

	stateapi.Init(resolver)
	return initRouter()
}

func doGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func doPost(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func resourcePath(address, structTag string) string {
	return "/accounts/" + address + "/resource/" + url.PathEscape(structTag)
}

func TestGetAccountResource(t *testing.T) {
	router := setupTestServer(t)

	w := doGet(t, router, resourcePath(testAccount, "0x1::GUID::Generator"))
	require.Equal(t, http.StatusOK, w.Code)
	var resp stateapi.ResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.JSONEq(t, `{"counter":"4"}`, string(resp.Data))
	assert.Contains(t, resp.Type, "::GUID::Generator")
}

func TestGetAccountResourceByInvalidAddress(t *testing.T) {
	router := setupTestServer(t)
	for _, invalid := range []string{"1", "0xzz", "01"} {
		w := doGet(t, router, resourcePath(invalid, "0x1::GUID::Generator"))
		assert.Equalf(t, http.StatusBadRequest, w.Code, "address %q", invalid)
	}
}

func TestGetAccountResourceByInvalidStructTag(t *testing.T) {
	router := setupTestServer(t)
	w := doGet(t, router, resourcePath(testAccount, "0x1::GUID_Generator"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAccountResourceNotFound(t *testing.T) {
	router := setupTestServer(t)

	w := doGet(t, router, resourcePath("0xA550C19", "0x1::GUID::Generator"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doGet(t, router, resourcePath(testAccount, "0x1::GUID::GeneratorX"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAccountModule(t *testing.T) {
	router := setupTestServer(t)

	w := doGet(t, router, "/accounts/0x1/module/GUID")
	require.Equal(t, http.StatusOK, w.Code)
	var resp stateapi.ModuleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "GUID", resp.Name)
	assert.Equal(t, "0xa11ceb0b", resp.Bytecode)

	w = doGet(t, router, "/accounts/1/module/GUID")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doGet(t, router, "/accounts/0x1/module/NoNoNo")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTableItemNestedTables(t *testing.T) {
	router := setupTestServer(t)

	// the first call does not need to know the nested table's types
	w := doPost(t, router, "/tables/1/item",
		`{"key_type":"u8","value_type":"0x1::Table::Table<u8, u8>","key":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	var nested struct {
		Handle string `json:"handle"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nested))
	require.Equal(t, "2", nested.Handle)

	w = doPost(t, router, "/tables/"+nested.Handle+"/item",
		`{"key_type":"u8","value_type":"u8","key":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `3`, w.Body.String())
}

func TestGetTableItemErrors(t *testing.T) {
	router := setupTestServer(t)

	// absent entry
	w := doPost(t, router, "/tables/1/item",
		`{"key_type":"u8","value_type":"u8","key":200}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// stored value does not match the declared value type
	w = doPost(t, router, "/tables/2/item",
		`{"key_type":"u8","value_type":"u64","key":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// malformed handle and type descriptors
	w = doPost(t, router, "/tables/0x1/item",
		`{"key_type":"u8","value_type":"u8","key":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doPost(t, router, "/tables/1/item",
		`{"key_type":"u9","value_type":"u8","key":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStructLayout(t *testing.T) {
	router := setupTestServer(t)

	w := doGet(t, router, "/layouts/"+url.PathEscape("0x1::GUID::Generator"))
	require.Equal(t, http.StatusOK, w.Code)
	var record state.LayoutRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	require.Len(t, record.Fields, 1)
	assert.Equal(t, "counter", record.Fields[0].Name)
	assert.Equal(t, "u64", record.Fields[0].Type)

	w = doGet(t, router, "/layouts/"+url.PathEscape("0x1::GUID::Nope"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVersionQueryParam(t *testing.T) {
	router := setupTestServer(t)

	// resource is committed at version 2, so version 1 has none
	w := doGet(t, router, resourcePath(testAccount, "0x1::GUID::Generator")+"?version=1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doGet(t, router, resourcePath(testAccount, "0x1::GUID::Generator")+"?version=2")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGet(t, router, resourcePath(testAccount, "0x1::GUID::Generator")+"?version=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcErrorBody   `json:"error"`
}

func doRPC(t *testing.T, router http.Handler, method, params string) rpcResponse {
	t.Helper()
	body := `{"jsonrpc":"2.0","method":"` + method + `","params":` + params + `,"id":1}`
	w := doPost(t, router, "/rpc", body)
	require.Equal(t, http.StatusOK, w.Code)
	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestJSONRPCMirror(t *testing.T) {
	router := setupTestServer(t)

	resp := doRPC(t, router, "state.GetAccountResource",
		`{"address":"`+testAccount+`","struct_tag":"0x1::GUID::Generator"}`)
	require.Nil(t, resp.Error)
	var res stateapi.ResourceResponse
	require.NoError(t, json.Unmarshal(resp.Result, &res))
	assert.JSONEq(t, `{"counter":"4"}`, string(res.Data))

	resp = doRPC(t, router, "state.GetTableItem",
		`{"handle":"2","key_type":"u8","value_type":"u8","key":2}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `3`, string(resp.Result))
}

func TestJSONRPCErrorCodes(t *testing.T) {
	router := setupTestServer(t)

	// bad request class
	resp := doRPC(t, router, "state.GetAccountResource",
		`{"address":"0xzz","struct_tag":"0x1::GUID::Generator"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32099, resp.Error.Code)

	// not found class
	resp = doRPC(t, router, "state.GetAccountModule",
		`{"address":"0x1","name":"NoNoNo"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32098, resp.Error.Code)

	// codec class
	resp = doRPC(t, router, "state.GetTableItem",
		`{"handle":"2","key_type":"u8","value_type":"u64","key":2}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32097, resp.Error.Code)
}

func TestServerInfo(t *testing.T) {
	router := setupTestServer(t)

	w := doGet(t, router, "/serverinfo")
	require.Equal(t, http.StatusOK, w.Code)
	var info stateapi.ServerInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "statequery-test", info.Identifier)
	assert.Equal(t, uint64(2), info.LatestVersion)
	assert.Equal(t, common.AddressWidth16, info.AddressWidth)
}
