package codec

import (
	"errors"
	"fmt"
)

// Role says whether a codec error concerns a key or a value.
type Role string

const (
	RoleKey   Role = "key"
	RoleValue Role = "value"
)

var (
	// ErrNil is wrapped by EncodeError when a nil key or value is given.
	ErrNil = errors.New("nil is not storable")
	// ErrUnregisteredKey is wrapped by EncodeError for gob-mode keys whose
	// type was never passed to Register.
	ErrUnregisteredKey = errors.New("key type is not registered")
)

// EncodeError reports a key or value the codec cannot serialize.
type EncodeError struct {
	Role  Role
	Value any
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s of type %T: %v", e.Role, e.Value, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports stored bytes that cannot be turned back into a value.
type DecodeError struct {
	Role Role
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Role, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
