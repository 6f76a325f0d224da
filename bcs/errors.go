// Package bcs converts between the canonical binary encoding of typed
// ledger values and their JSON projection, driven by runtime type tags.
package bcs

import (
	"fmt"

	"github.com/Iamfittz/aptos-core/move"
)

// ErrorKind classifies codec failures
type ErrorKind int

const (
	// RangeOverflow the value does not fit the declared integer width
	RangeOverflow ErrorKind = iota + 1
	// MissingField a struct field required by the layout is absent
	MissingField
	// UnexpectedShape the JSON or binary value does not match the declared type
	UnexpectedShape
	// Truncated the binary input ended mid-value
	Truncated
	// TrailingBytes the binary input has bytes left after the top-level value
	TrailingBytes
)

func (k ErrorKind) String() string {
	switch k {
	case RangeOverflow:
		return "range overflow"
	case MissingField:
		return "missing field"
	case UnexpectedShape:
		return "unexpected shape"
	case Truncated:
		return "truncated"
	case TrailingBytes:
		return "trailing bytes"
	}
	return "unknown"
}

// Error is a typed codec failure (unprocessable class, distinct from
// not-found)
type Error struct {
	Kind   ErrorKind
	Type   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("codec error (%v) for type %v", e.Kind, e.Type)
	}
	return fmt.Sprintf("codec error (%v) for type %v: %v", e.Kind, e.Type, e.Detail)
}

func newError(kind ErrorKind, tag move.TypeTag, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Type: tag.String(), Detail: fmt.Sprintf(format, args...)}
}
