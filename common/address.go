package common

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
)

// Address widths of the supported deployment profiles.
const (
	AddressWidth16 = 16
	AddressWidth32 = 32
)

var addressWidth int32 = AddressWidth16

// SetAddressWidth set the account address byte width (16 or 32).
// Must be called once at startup before any address is parsed.
func SetAddressWidth(width int) error {
	if width != AddressWidth16 && width != AddressWidth32 {
		return fmt.Errorf("unsupported address width %v", width)
	}
	atomic.StoreInt32(&addressWidth, int32(width))
	return nil
}

// AddressWidth get the configured account address byte width
func AddressWidth() int {
	return int(atomic.LoadInt32(&addressWidth))
}

// Address is a fixed-width account address
type Address []byte

// AddressError describes a malformed address literal
type AddressError struct {
	Input  string
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Input, e.Reason)
}

// ParseAddress parse an account address literal.
//
// A leading "0x" admits short forms, which are zero extended on the
// left, odd hex digit counts included. Without the prefix only
// exactly full-width hex is accepted, so "0x1" is valid while "1"
// and "01" are not.
func ParseAddress(text string) (Address, error) {
	if text == "" {
		return nil, &AddressError{Input: text, Reason: "empty address"}
	}
	hexStr := text
	hasPrefix := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
	if hasPrefix {
		hexStr = text[2:]
	}
	if hexStr == "" {
		return nil, &AddressError{Input: text, Reason: "no hex digits"}
	}
	maxDigits := AddressWidth() * 2
	if len(hexStr) > maxDigits {
		return nil, &AddressError{Input: text, Reason: fmt.Sprintf("longer than %v hex digits", maxDigits)}
	}
	for i := 0; i < len(hexStr); i++ {
		if !isHexChar(hexStr[i]) {
			return nil, &AddressError{Input: text, Reason: "non-hex character"}
		}
	}
	if !hasPrefix && len(hexStr) != maxDigits {
		return nil, &AddressError{Input: text, Reason: "short form requires 0x prefix"}
	}
	if len(hexStr)%2 == 1 {
		hexStr = "0" + hexStr
	}
	b, err := hex.DecodeString(strings.ToLower(hexStr))
	if err != nil {
		return nil, &AddressError{Input: text, Reason: "non-hex character"}
	}
	addr := make(Address, AddressWidth())
	copy(addr[len(addr)-len(b):], b)
	return addr, nil
}

// MustParseAddress parse an address literal or panic
func MustParseAddress(text string) Address {
	addr, err := ParseAddress(text)
	if err != nil {
		panic(err)
	}
	return addr
}

// Bytes get the underlying bytes
func (a Address) Bytes() []byte {
	return a
}

// String canonical textual form: "0x" + full-width lowercase hex
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a)
}

// MarshalText implement encoding.TextMarshaler
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func isHexChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f':
		return true
	case c >= 'A' && c <= 'F':
		return true
	}
	return false
}
