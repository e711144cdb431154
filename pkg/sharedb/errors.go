package sharedb

import (
	"errors"
	"fmt"

	"sharedb/internal/codec"
	"sharedb/internal/config"
)

var (
	ErrKeyNotFound    = errors.New("sharedb: key not found")
	ErrClosed         = errors.New("sharedb: store is closed")
	ErrConfigMismatch = errors.New("sharedb: configuration mismatch")
)

type (
	// EncodeError reports a key or value the store's codec cannot serialize.
	EncodeError = codec.EncodeError
	// DecodeError reports stored bytes that do not decode under the store's
	// codec, which means corruption or a foreign writer.
	DecodeError = codec.DecodeError
	// ConfigError reports an invalid option value.
	ConfigError = config.ValidationError
)

// KeyNotFoundError is returned by operations that require a key to exist.
type KeyNotFoundError struct {
	Op  string
	Key any
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("sharedb: %s: key %v of type %T is absent", e.Op, e.Key, e.Key)
}

func (e *KeyNotFoundError) Unwrap() error { return ErrKeyNotFound }

// ClosedStoreError is returned by every operation on a closed or dropped store.
type ClosedStoreError struct {
	Path  string
	State State
	Op    string
}

func (e *ClosedStoreError) Error() string {
	return fmt.Sprintf("sharedb: %s on %s store %s", e.Op, e.State, e.Path)
}

func (e *ClosedStoreError) Unwrap() error { return ErrClosed }

// BatchAbortedError reports the element that made a batch roll back.
// Index is the element's position in the input sequence.
type BatchAbortedError struct {
	Op    string
	Index int
	Key   any
	Err   error
}

func (e *BatchAbortedError) Error() string {
	return fmt.Sprintf("sharedb: %s aborted at element %d (key %v of type %T): %v",
		e.Op, e.Index, e.Key, e.Key, e.Err)
}

func (e *BatchAbortedError) Unwrap() error { return e.Err }

// ConfigMismatchError is returned when a store is reopened with a setting
// that contradicts its persisted record.
type ConfigMismatchError struct {
	Path      string
	Field     string
	Stored    any
	Requested any
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("sharedb: %s was created with %s=%v, requested %v",
		e.Path, e.Field, e.Stored, e.Requested)
}

func (e *ConfigMismatchError) Unwrap() error { return ErrConfigMismatch }

// opErr prefixes a codec or engine error with the operation it broke.
type opErr struct {
	op  string
	err error
}

func (e *opErr) Error() string { return "sharedb: " + e.op + ": " + e.err.Error() }

func (e *opErr) Unwrap() error { return e.err }

func opError(op string, err error) error {
	return &opErr{op: op, err: err}
}

// wrapOnce is opError for errors that may already name their operation.
func wrapOnce(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		named    *opErr
		notFound *KeyNotFoundError
		aborted  *BatchAbortedError
	)
	if errors.As(err, &named) || errors.As(err, &notFound) || errors.As(err, &aborted) {
		return err
	}
	return opError(op, err)
}
