package bcs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/move"
)

// layoutMap is a stub layout resolver for codec tests
type layoutMap map[string]*move.StructLayout

func (m layoutMap) ResolveLayout(st *move.StructTag) (*move.StructLayout, error) {
	layout, ok := m[st.Key()]
	if !ok {
		return nil, &Error{Kind: UnexpectedShape, Type: st.String(), Detail: "unknown layout"}
	}
	return layout, nil
}

func testCodec(t *testing.T) *Codec {
	t.Helper()
	require.NoError(t, common.SetAddressWidth(common.AddressWidth16))
	coreAddr := common.MustParseAddress("0x1").String()
	return NewCodec(layoutMap{
		coreAddr + "::GUID::ID": {Fields: []move.StructField{
			{Name: "creation_num", Type: move.U64Tag{}},
			{Name: "addr", Type: move.AddressTag{}},
		}},
		coreAddr + "::Table::Table": {Fields: []move.StructField{
			{Name: "handle", Type: move.U128Tag{}},
		}},
	})
}

func mustTag(t *testing.T, s string) move.TypeTag {
	t.Helper()
	tag, err := move.ParseTypeTag(s)
	require.NoError(t, err)
	return tag
}

func roundTrip(t *testing.T, c *Codec, typeStr, jsonIn, jsonOut string) []byte {
	t.Helper()
	tag := mustTag(t, typeStr)
	b, err := c.Encode(tag, json.RawMessage(jsonIn))
	require.NoErrorf(t, err, "encode %v %v", typeStr, jsonIn)
	out, err := c.Decode(tag, b)
	require.NoErrorf(t, err, "decode %v", typeStr)
	assert.JSONEq(t, jsonOut, string(out))
	return b
}

func TestRoundTripPrimitives(t *testing.T) {
	c := testCodec(t)

	assert.Equal(t, []byte{1}, roundTrip(t, c, "bool", `true`, `true`))
	assert.Equal(t, []byte{0}, roundTrip(t, c, "bool", `false`, `false`))
	assert.Equal(t, []byte{255}, roundTrip(t, c, "u8", `255`, `255`))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, roundTrip(t, c, "u64", `"1"`, `"1"`))
	roundTrip(t, c, "u64", `"18446744073709551615"`, `"18446744073709551615"`)
	roundTrip(t, c, "u128", `"1"`, `"1"`)
	roundTrip(t, c, "u128", `"340282366920938463463374607431768211455"`, `"340282366920938463463374607431768211455"`)
	roundTrip(t, c, "address", `"0x1"`, `"0x00000000000000000000000000000001"`)
}

func TestRoundTripVectors(t *testing.T) {
	c := testCodec(t)

	// vector<u8> projects as a hex string, emitted without 0x prefix
	b := roundTrip(t, c, "vector<u8>", `"0102"`, `"0102"`)
	assert.Equal(t, []byte{2, 0x01, 0x02}, b)

	// 0x prefix accepted on input
	b2, err := c.Encode(mustTag(t, "vector<u8>"), json.RawMessage(`"0x0102"`))
	require.NoError(t, err)
	assert.Equal(t, b, b2)

	roundTrip(t, c, "vector<u64>", `["1","2"]`, `["1","2"]`)
	roundTrip(t, c, "vector<bool>", `[true,false]`, `[true,false]`)
	roundTrip(t, c, "vector<vector<u8>>", `["01","0203"]`, `["01","0203"]`)
	roundTrip(t, c, "vector<u8>", `""`, `""`)
	roundTrip(t, c, "vector<u64>", `[]`, `[]`)
}

func TestRoundTripString(t *testing.T) {
	c := testCodec(t)

	strBytes := roundTrip(t, c, "0x1::ASCII::String", `"abc"`, `"abc"`)

	// on the wire a string is indistinguishable from a byte vector
	vecBytes, err := c.Encode(mustTag(t, "vector<u8>"), json.RawMessage(`"616263"`))
	require.NoError(t, err)
	assert.Equal(t, vecBytes, strBytes)

	roundTrip(t, c, "vector<0x1::ASCII::String>", `["abc","abc"]`, `["abc","abc"]`)
}

func TestRoundTripStruct(t *testing.T) {
	c := testCodec(t)

	roundTrip(t, c, "0x1::GUID::ID",
		`{"creation_num":"7","addr":"0x1"}`,
		`{"creation_num":"7","addr":"0x00000000000000000000000000000001"}`)
	roundTrip(t, c, "0x1::Table::Table<u8, u8>", `{"handle":"42"}`, `{"handle":"42"}`)
}

func TestEncodeStructIgnoresKeyOrder(t *testing.T) {
	c := testCodec(t)
	tag := mustTag(t, "0x1::GUID::ID")

	b1, err := c.Encode(tag, json.RawMessage(`{"creation_num":"7","addr":"0x1"}`))
	require.NoError(t, err)
	b2, err := c.Encode(tag, json.RawMessage(`{"addr":"0x1","creation_num":"7"}`))
	require.NoError(t, err)
	assert.Equal(t, b1, b2)

	// decode emits the declared layout order
	out, err := c.Decode(tag, b1)
	require.NoError(t, err)
	assert.Equal(t,
		`{"creation_num":"7","addr":"0x00000000000000000000000000000001"}`,
		string(out))
}

func TestEncodeErrors(t *testing.T) {
	c := testCodec(t)

	cases := []struct {
		typeStr string
		jsonIn  string
		kind    ErrorKind
	}{
		{"bool", `1`, UnexpectedShape},
		{"u8", `"1"`, UnexpectedShape},
		{"u8", `256`, RangeOverflow},
		{"u8", `-1`, RangeOverflow},
		{"u8", `1.5`, UnexpectedShape},
		{"u64", `1`, UnexpectedShape},
		{"u64", `"abc"`, UnexpectedShape},
		{"u64", `"18446744073709551616"`, RangeOverflow},
		{"u128", `"340282366920938463463374607431768211456"`, RangeOverflow},
		{"address", `"0xzz"`, UnexpectedShape},
		{"vector<u8>", `"0x010"`, UnexpectedShape},
		{"vector<u8>", `"xy"`, UnexpectedShape},
		{"vector<u8>", `[1,2]`, UnexpectedShape},
		{"vector<u64>", `"1"`, UnexpectedShape},
		{"0x1::ASCII::String", `1`, UnexpectedShape},
		{"0x1::GUID::ID", `{"creation_num":"7"}`, MissingField},
		{"0x1::GUID::ID", `["7"]`, UnexpectedShape},
	}
	for _, tc := range cases {
		_, err := c.Encode(mustTag(t, tc.typeStr), json.RawMessage(tc.jsonIn))
		require.Errorf(t, err, "%v %v", tc.typeStr, tc.jsonIn)
		var codecErr *Error
		require.ErrorAsf(t, err, &codecErr, "%v %v", tc.typeStr, tc.jsonIn)
		assert.Equalf(t, tc.kind, codecErr.Kind, "%v %v got %v", tc.typeStr, tc.jsonIn, codecErr.Kind)
	}
}

func TestDecodeErrors(t *testing.T) {
	c := testCodec(t)

	cases := []struct {
		typeStr string
		data    []byte
		kind    ErrorKind
	}{
		{"bool", []byte{}, Truncated},
		{"bool", []byte{2}, UnexpectedShape},
		{"bool", []byte{1, 0}, TrailingBytes},
		{"u64", []byte{1, 0, 0}, Truncated},
		{"u128", []byte{1}, Truncated},
		{"address", []byte{1, 2, 3}, Truncated},
		{"vector<u8>", []byte{5, 1, 2}, Truncated},
		{"vector<u64>", []byte{200}, Truncated},
		{"0x1::ASCII::String", []byte{3, 'a'}, Truncated},
		{"0x1::ASCII::String", []byte{2, 0xff, 0xfe}, UnexpectedShape},
		{"0x1::GUID::ID", []byte{7, 0, 0, 0, 0, 0, 0, 0}, Truncated},
	}
	for _, tc := range cases {
		_, err := c.Decode(mustTag(t, tc.typeStr), tc.data)
		require.Errorf(t, err, "%v %v", tc.typeStr, tc.data)
		var codecErr *Error
		require.ErrorAsf(t, err, &codecErr, "%v %v", tc.typeStr, tc.data)
		assert.Equalf(t, tc.kind, codecErr.Kind, "%v %v got %v", tc.typeStr, tc.data, codecErr.Kind)
	}
}

func TestDecodeUlebLengthGuards(t *testing.T) {
	c := testCodec(t)

	// length prefix longer than 5 bytes
	_, err := c.Decode(mustTag(t, "vector<u8>"), []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	var codecErr *Error
	require.ErrorAs(t, err, &codecErr)
	assert.Equal(t, UnexpectedShape, codecErr.Kind)
}
