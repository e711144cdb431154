package sharedb

import (
	"errors"
	"fmt"
	"os"

	"sharedb/internal/codec"
	"sharedb/internal/config"
	"sharedb/internal/engine"
	"sharedb/internal/logging"
)

var logger = logging.For("sharedb")

// State is the lifecycle state of a Store.
type State int

const (
	StateOpen State = iota
	StateClosed
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateDropped:
		return "dropped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store is an open handle on a store directory.
type Store struct {
	path    string
	cfg     config.StoreConfig
	codec   *codec.Codec
	eng     engine.Engine
	state   State
	buf     writeBuffer
	metrics *storeMetrics
}

// Open opens the store at path, creating it if needed. The directory used is
// path with a ".sharedb" suffix, added unless already present.
//
// A new store records its serialization, compression, engine, map size,
// readers and buffer size. Reopening it with a different serialization,
// compression or engine, or a smaller map size, fails with a
// ConfigMismatchError.
func Open(path string, opts ...Option) (*Store, error) {
	var o settings
	for _, opt := range opts {
		opt(&o)
	}

	// Reject bad option values before touching the disk.
	requested := config.Defaults()
	o.apply(&requested.Store)
	if err := requested.Validate(); err != nil {
		return nil, fmt.Errorf("sharedb: open %s: %w", path, err)
	}

	dir := config.NormalizePath(path)
	if err := config.Prepare(dir, o.reset); err != nil {
		return nil, fmt.Errorf("sharedb: open: %w", err)
	}
	record, cfg, dirty, err := resolve(dir, &o)
	if err != nil {
		return nil, err
	}

	c, err := codec.New(codec.Serial(cfg.Serial), cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("sharedb: open %s: %w", dir, err)
	}
	eng, err := openEngine(engine.Kind(cfg.Engine), engine.Options{
		Dir:        dir,
		MaxReaders: cfg.Readers,
		MapSize:    cfg.MapSize,
	})
	if err != nil {
		return nil, fmt.Errorf("sharedb: open %s: %w", dir, err)
	}

	// Save only once the engine is up: a failed open must leave no record.
	if dirty {
		if err := config.Save(dir, record); err != nil {
			eng.Close() //nolint:errcheck
			return nil, fmt.Errorf("sharedb: open %s: %w", dir, err)
		}
		cfg.ID, cfg.Created = record.Store.ID, record.Store.Created
	}

	s := &Store{
		path:  dir,
		cfg:   cfg,
		codec: c,
		eng:   eng,
		state: StateOpen,
		buf:   writeBuffer{size: cfg.BufferSize},
	}
	s.metrics = newStoreMetrics(cfg.ID, &s.buf)

	logger.Info("opened", "path", dir, "engine", cfg.Engine, "serial", cfg.Serial,
		"compress", cfg.Compress, "buffer_size", cfg.BufferSize)
	return s, nil
}

// resolve reconciles the requested options with the record in dir. It
// returns the record, the settings for this session and whether the record
// must be saved: it is new, or its map size was raised.
func resolve(dir string, o *settings) (*config.Config, config.StoreConfig, bool, error) {
	stored, found, err := config.Load(dir)
	if err != nil {
		return nil, config.StoreConfig{}, false, fmt.Errorf("sharedb: open %s: %w", dir, err)
	}
	if !found {
		cfg := config.Defaults()
		o.apply(&cfg.Store)
		return cfg, cfg.Store, true, nil
	}

	st := &stored.Store
	mismatch := func(field string, have, want any) error {
		return &ConfigMismatchError{Path: dir, Field: field, Stored: have, Requested: want}
	}
	if o.serial != nil && string(*o.serial) != st.Serial {
		return nil, config.StoreConfig{}, false, mismatch("serial", st.Serial, *o.serial)
	}
	if o.compress != nil && *o.compress != st.Compress {
		return nil, config.StoreConfig{}, false, mismatch("compress", st.Compress, *o.compress)
	}
	if o.engine != nil && string(*o.engine) != st.Engine {
		return nil, config.StoreConfig{}, false, mismatch("engine", st.Engine, *o.engine)
	}
	dirty := false
	if o.mapSize != nil && *o.mapSize != st.MapSize {
		if *o.mapSize < st.MapSize {
			return nil, config.StoreConfig{}, false, mismatch("map_size", st.MapSize, *o.mapSize)
		}
		logger.Info("raising map size", "path", dir, "from", st.MapSize, "to", *o.mapSize)
		st.MapSize = *o.mapSize
		dirty = true
	}

	// Readers and buffer size only tune this session.
	cfg := *st
	if o.readers != nil {
		cfg.Readers = *o.readers
	}
	if o.bufferSize != nil {
		cfg.BufferSize = *o.bufferSize
	}
	return stored, cfg, dirty, nil
}

// Path returns the store directory.
func (s *Store) Path() string { return s.path }

// State returns the lifecycle state. It is valid on a closed store.
func (s *Store) State() State { return s.state }

func (s *Store) String() string {
	return "sharedb instantiated from " + s.path
}

// gate fails every operation on a store that is no longer open.
func (s *Store) gate(op string) error {
	if s.state != StateOpen {
		return &ClosedStoreError{Path: s.path, State: s.state, Op: op}
	}
	return nil
}

// Close flushes pending writes and releases the engine. It reports true on
// the call that closed the store and false on later calls. The store is
// closed even when the flush fails; the error is returned alongside true.
func (s *Store) Close() (bool, error) {
	if s.state != StateOpen {
		return false, nil
	}
	syncErr := s.flush()
	closeErr := s.eng.Close()
	s.state = StateClosed

	if err := errors.Join(syncErr, closeErr); err != nil {
		logger.Error("close failed", "path", s.path, "err", err)
		return true, opError("close", err)
	}
	logger.Info("closed", "path", s.path)
	return true, nil
}

// Drop closes the store and deletes its directory. Like Close, it reports
// true only on the first call.
func (s *Store) Drop() (bool, error) {
	if s.state != StateOpen {
		return false, nil
	}
	closeErr := s.eng.Close()
	s.state = StateDropped
	rmErr := os.RemoveAll(s.path)

	if err := errors.Join(closeErr, rmErr); err != nil {
		logger.Error("drop failed", "path", s.path, "err", err)
		return true, opError("drop", err)
	}
	logger.Info("dropped", "path", s.path)
	return true, nil
}
