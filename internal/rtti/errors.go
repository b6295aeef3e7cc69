package rtti

import (
	"errors"
	"fmt"
)

// ErrNoSideTable is reported when a reference or container record has no
// shared info block and therefore no name.
var ErrNoSideTable = errors.New("record has no side-table")

// ContractError describes a record that violates the type system's
// invariants, such as a kind tag outside the supported enumeration. It is
// raised with panic, never returned: there is no meaningful recovery from a
// corrupt type graph.
type ContractError struct {
	Op      string
	Addr    uint64
	RawKind uint8
	Err     error
}

func (e *ContractError) Error() string {
	msg := fmt.Sprintf("rtti: %s: record at 0x%x has kind %d", e.Op, e.Addr, e.RawKind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

func violation(op string, t *Type, err error) *ContractError {
	return &ContractError{Op: op, Addr: t.Addr(), RawKind: uint8(t.Kind()), Err: err}
}

// DecodeError reports a record that could not be read from the address
// space. Unlike a ContractError it reflects the environment (an unmapped
// page, a truncated image) and is returned to the caller.
type DecodeError struct {
	Addr  uint64
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("rtti: decode record at 0x%x: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("rtti: decode record at 0x%x: %s: %v", e.Addr, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
