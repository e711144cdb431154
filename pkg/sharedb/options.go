package sharedb

import (
	"sharedb/internal/codec"
	"sharedb/internal/config"
	"sharedb/internal/engine"
)

// Serial selects how keys and values are encoded.
type Serial = codec.Serial

const (
	SerialCBOR = codec.SerialCBOR
	SerialGob  = codec.SerialGob
)

// EngineKind selects the storage engine.
type EngineKind = engine.Kind

const (
	EngineBolt   = engine.KindBolt
	EngineMDBX   = engine.KindMDBX
	EnginePebble = engine.KindPebble
)

// Register makes a concrete type known to gob-mode stores, so it can be
// stored inside interface values and used as a key. Call it from init for
// every struct or composite key type stored in a gob store.
func Register(v any) {
	codec.Register(v)
}

// Option configures Open. Options left unset inherit the values recorded
// when the store was created, or the defaults for a new store.
type Option func(*settings)

type settings struct {
	reset      bool
	serial     *codec.Serial
	compress   *bool
	readers    *int
	bufferSize *int
	mapSize    *int64
	engine     *engine.Kind
}

// WithReset deletes any existing store at the path before opening.
func WithReset(reset bool) Option {
	return func(s *settings) { s.reset = reset }
}

// WithSerial picks the serialization mode of a new store. A reopened store
// must be given the mode it was created with, or none.
func WithSerial(serial Serial) Option {
	return func(s *settings) { s.serial = &serial }
}

// WithCompression turns zstd compression of values on or off.
func WithCompression(on bool) Option {
	return func(s *settings) { s.compress = &on }
}

// WithReaders bounds concurrent read transactions across processes.
func WithReaders(n int) Option {
	return func(s *settings) { s.readers = &n }
}

// WithBufferSize sets how many committed mutations trigger an automatic Sync.
func WithBufferSize(n int) Option {
	return func(s *settings) { s.bufferSize = &n }
}

// WithMapSize sets the storage ceiling in bytes. A reopened store accepts a
// larger ceiling than it was created with, never a smaller one.
func WithMapSize(bytes int64) Option {
	return func(s *settings) { s.mapSize = &bytes }
}

// WithEngine picks the storage engine of a new store. Like the
// serialization mode, it cannot change once the store exists.
func WithEngine(kind EngineKind) Option {
	return func(s *settings) { s.engine = &kind }
}

// apply copies every explicitly set option into st.
func (s *settings) apply(st *config.StoreConfig) {
	if s.serial != nil {
		st.Serial = string(*s.serial)
	}
	if s.compress != nil {
		st.Compress = *s.compress
	}
	if s.readers != nil {
		st.Readers = *s.readers
	}
	if s.bufferSize != nil {
		st.BufferSize = *s.bufferSize
	}
	if s.mapSize != nil {
		st.MapSize = *s.mapSize
	}
	if s.engine != nil {
		st.Engine = string(*s.engine)
	}
}
