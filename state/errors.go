package state

import (
	"errors"
	"fmt"
)

// ErrAbsent is returned by a versioned store when the key has no
// value at the queried version.
var ErrAbsent = errors.New("state: absent")

// not-found kinds
const (
	KindResource     = "resource"
	KindModule       = "module"
	KindTableEntry   = "table-entry"
	KindStructLayout = "struct-layout"
)

// NotFoundError is a valid identity that is absent at the queried
// version (not-found class, distinct from parse and codec failures)
type NotFoundError struct {
	Kind    string
	What    string
	Version Version
}

func (e *NotFoundError) Error() string {
	if e.Version == LatestVersion {
		return fmt.Sprintf("%v not found: %v", e.Kind, e.What)
	}
	return fmt.Sprintf("%v not found: %v at version %v", e.Kind, e.What, e.Version)
}

func notFound(kind, what string, version Version) *NotFoundError {
	return &NotFoundError{Kind: kind, What: what, Version: version}
}

// HandleError is a malformed table handle literal (bad-request class)
type HandleError struct {
	Input  string
	Reason string
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("invalid table handle %q: %v", e.Input, e.Reason)
}
