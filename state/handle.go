package state

import (
	"math/big"
)

// TableHandle is a 128-bit opaque identifier naming one table
// instance in ledger state. Textual form is decimal.
type TableHandle [16]byte

// ParseTableHandle parse the decimal textual form of a table handle
func ParseTableHandle(text string) (TableHandle, error) {
	var handle TableHandle
	if text == "" {
		return handle, &HandleError{Input: text, Reason: "empty handle"}
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return handle, &HandleError{Input: text, Reason: "non-decimal character"}
		}
	}
	bi, ok := new(big.Int).SetString(text, 10)
	if !ok || bi.BitLen() > 128 {
		return handle, &HandleError{Input: text, Reason: "out of 128 bit range"}
	}
	bi.FillBytes(handle[:])
	return handle, nil
}

// Bytes big-endian fixed-width form, used in table item state keys
func (h TableHandle) Bytes() []byte {
	return h[:]
}

// String decimal textual form
func (h TableHandle) String() string {
	return new(big.Int).SetBytes(h[:]).String()
}
