// Package codec turns keys and values into the byte strings stored by an
// engine and back. The serialization mode is fixed when a store is created;
// compression, when enabled, applies to values only.
package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Serial names a serialization mode.
type Serial string

const (
	// SerialCBOR is the structured mode: canonical CBOR, readable from any
	// language with a CBOR library.
	SerialCBOR Serial = "cbor"
	// SerialGob is the generic mode: gob-encoded Go values. Keys are
	// canonical CBOR tagged with their type name. Concrete types carried
	// inside interfaces, and every composite key type, must be registered
	// with Register.
	SerialGob Serial = "gob"
)

// ParseSerial validates a mode name.
func ParseSerial(s string) (Serial, error) {
	switch Serial(s) {
	case SerialCBOR, SerialGob:
		return Serial(s), nil
	}
	return "", fmt.Errorf("unknown serial mode %q (want %q or %q)", s, SerialCBOR, SerialGob)
}

func init() {
	Register([]any(nil))
	Register(map[string]any(nil))
	Register(map[any]any(nil))

	// gob knows these already; they only need a name as keys.
	for _, v := range []any{
		false, "", []byte(nil),
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
		[]string(nil), []int(nil), []int64(nil), []uint64(nil), []float64(nil), []bool(nil),
	} {
		registerKey(reflect.TypeOf(v))
	}
}

// Register records a concrete type for gob-mode stores, so that it can be
// stored inside interface values and used as a key. It has no effect on
// cbor-mode stores. The registry is process-wide, like gob's.
func Register(v any) {
	gob.Register(v)
	registerKey(reflect.TypeOf(v))
}

var (
	keyTypesMu sync.RWMutex
	keyTypes   = map[string]reflect.Type{}
)

func registerKey(rt reflect.Type) {
	keyTypesMu.Lock()
	keyTypes[typeName(rt)] = rt
	keyTypesMu.Unlock()
}

func lookupKey(name string) (reflect.Type, bool) {
	keyTypesMu.RLock()
	defer keyTypesMu.RUnlock()
	rt, ok := keyTypes[name]
	return rt, ok
}

// typeName names rt by its package path and name, so the name of a type
// does not depend on the process that computes it.
func typeName(rt reflect.Type) string {
	if rt.Kind() == reflect.Pointer {
		return "*" + typeName(rt.Elem())
	}
	if rt.Name() != "" && rt.PkgPath() != "" {
		return rt.PkgPath() + "." + rt.Name()
	}
	return rt.String()
}

// gobKey is the stored form of a gob-mode key: the registered type name and
// the key itself in canonical CBOR. Gob assigns wire type ids per process in
// first-use order, so gob bytes cannot address a key across processes.
type gobKey struct {
	_    struct{} `cbor:",toarray"`
	Type string
	Key  any
}

type storedGobKey struct {
	_    struct{} `cbor:",toarray"`
	Type string
	Key  cbor.RawMessage
}

// Codec encodes keys and values for one store.
type Codec struct {
	serial Serial
	enc    cbor.EncMode
	dec    cbor.DecMode
	zstd   *compressor // nil when compression is off
}

// New builds a Codec for the given mode.
func New(serial Serial, compress bool) (*Codec, error) {
	if _, err := ParseSerial(string(serial)); err != nil {
		return nil, err
	}
	c := &Codec{serial: serial}

	// CBOR also carries gob-mode keys.
	encOptions := cbor.EncOptions{Sort: cbor.SortCanonical}
	enc, err := encOptions.EncMode()
	if err != nil {
		return nil, fmt.Errorf("creating CBOR encoder: %w", err)
	}
	decOptions := cbor.DecOptions{}
	dec, err := decOptions.DecMode()
	if err != nil {
		return nil, fmt.Errorf("creating CBOR decoder: %w", err)
	}
	c.enc, c.dec = enc, dec

	if compress {
		z, err := newCompressor()
		if err != nil {
			return nil, err
		}
		c.zstd = z
	}
	return c, nil
}

// Serial reports the codec's mode.
func (c *Codec) Serial() Serial { return c.serial }

// Compressed reports whether values are compressed.
func (c *Codec) Compressed() bool { return c.zstd != nil }

// EncodeKey serializes a key. Keys are never compressed, and equal keys
// always produce equal bytes, in any process.
func (c *Codec) EncodeKey(k any) ([]byte, error) {
	if k == nil {
		return nil, &EncodeError{Role: RoleKey, Value: k, Err: ErrNil}
	}
	var (
		b   []byte
		err error
	)
	if c.serial == SerialGob {
		b, err = c.marshalGobKey(k)
	} else {
		b, err = c.enc.Marshal(k)
	}
	if err != nil {
		return nil, &EncodeError{Role: RoleKey, Value: k, Err: err}
	}
	return b, nil
}

// DecodeKey reverses EncodeKey.
func (c *Codec) DecodeKey(b []byte) (any, error) {
	var k any
	if err := c.DecodeKeyInto(b, &k); err != nil {
		return nil, err
	}
	return k, nil
}

// DecodeKeyInto decodes a key into the value pointed to by ptr.
func (c *Codec) DecodeKeyInto(b []byte, ptr any) error {
	var err error
	if c.serial == SerialGob {
		err = c.unmarshalGobKey(b, ptr)
	} else {
		err = c.dec.Unmarshal(b, ptr)
	}
	if err != nil {
		return &DecodeError{Role: RoleKey, Err: err}
	}
	return nil
}

func (c *Codec) marshalGobKey(k any) ([]byte, error) {
	name := typeName(reflect.TypeOf(k))
	if _, ok := lookupKey(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredKey, name)
	}
	return c.enc.Marshal(gobKey{Type: name, Key: k})
}

func (c *Codec) unmarshalGobKey(b []byte, ptr any) error {
	var stored storedGobKey
	if err := c.dec.Unmarshal(b, &stored); err != nil {
		return err
	}
	p, ok := ptr.(*any)
	if !ok {
		return c.dec.Unmarshal(stored.Key, ptr)
	}
	rt, ok := lookupKey(stored.Type)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredKey, stored.Type)
	}
	v := reflect.New(rt)
	if err := c.dec.Unmarshal(stored.Key, v.Interface()); err != nil {
		return err
	}
	*p = v.Elem().Interface()
	return nil
}

// EncodeValue serializes and, if enabled, compresses a value.
func (c *Codec) EncodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, &EncodeError{Role: RoleValue, Value: v, Err: ErrNil}
	}
	b, err := c.marshal(v)
	if err != nil {
		return nil, &EncodeError{Role: RoleValue, Value: v, Err: err}
	}
	if c.zstd != nil {
		b = c.zstd.compress(b)
	}
	return b, nil
}

// DecodeValue reverses EncodeValue.
func (c *Codec) DecodeValue(b []byte) (any, error) {
	var v any
	if err := c.DecodeValueInto(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeValueInto decompresses if needed and decodes into ptr.
func (c *Codec) DecodeValueInto(b []byte, ptr any) error {
	if c.zstd != nil {
		raw, err := c.zstd.decompress(b)
		if err != nil {
			return &DecodeError{Role: RoleValue, Err: err}
		}
		b = raw
	}
	if err := c.unmarshal(b, ptr); err != nil {
		return &DecodeError{Role: RoleValue, Err: err}
	}
	return nil
}

func (c *Codec) marshal(v any) ([]byte, error) {
	if c.serial == SerialCBOR {
		return c.enc.Marshal(v)
	}
	var buf bytes.Buffer
	// Encoding through a pointer to the interface keeps the dynamic type,
	// so DecodeValue can rebuild it without a target type.
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) unmarshal(b []byte, ptr any) error {
	if c.serial == SerialCBOR {
		return c.dec.Unmarshal(b, ptr)
	}
	dec := gob.NewDecoder(bytes.NewReader(b))
	if p, ok := ptr.(*any); ok {
		return dec.Decode(p)
	}
	// Typed targets: decode the interface envelope, then assign.
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return assign(v, ptr)
}

func assign(v, ptr any) error {
	dst := reflect.ValueOf(ptr)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return fmt.Errorf("decode target %T is not a non-nil pointer", ptr)
	}
	src := reflect.ValueOf(v)
	if !src.IsValid() {
		return fmt.Errorf("stored value is empty")
	}
	elem := dst.Elem()
	switch {
	case src.Type().AssignableTo(elem.Type()):
		elem.Set(src)
	case src.Type().ConvertibleTo(elem.Type()) && src.Kind() == elem.Kind():
		elem.Set(src.Convert(elem.Type()))
	default:
		return fmt.Errorf("stored %s does not fit %s", src.Type(), elem.Type())
	}
	return nil
}
