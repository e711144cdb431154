// Package pebble implements engine.Engine on a Pebble LSM tree. Write
// transactions are indexed batches (reads see the batch's own writes), read
// transactions are snapshots. Pebble holds an exclusive directory lock, so a
// store on this engine is usable from one process at a time; MaxReaders and
// MapSize have no equivalent and are ignored.
package pebble

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"sharedb/internal/engine"
	"sharedb/internal/logging"
)

// DirName is the subdirectory of the store directory that holds Pebble's files.
const DirName = "pebble"

var logger = logging.For("engine/pebble")

type Engine struct {
	db *pebble.DB
}

func Open(opts engine.Options) (*Engine, error) {
	dir := filepath.Join(opts.Dir, DirName)
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble db: %w", err)
	}
	if opts.MapSize > 0 || opts.MaxReaders > 0 {
		logger.Debug("map size and reader limits are not enforced by pebble",
			"map_size", opts.MapSize, "max_readers", opts.MaxReaders)
	}
	return &Engine{db: db}, nil
}

func (e *Engine) View(fn func(engine.Tx) error) error {
	snap := e.db.NewSnapshot()
	defer snap.Close()
	return fn(&pebbleTx{r: snap})
}

func (e *Engine) Update(fn func(engine.Tx) error) error {
	b := e.db.NewIndexedBatch()
	defer b.Close()
	if err := fn(&pebbleTx{r: b, b: b}); err != nil {
		return err
	}
	return b.Commit(pebble.NoSync)
}

// Sync forces the write-ahead log to stable storage.
func (e *Engine) Sync() error {
	return e.db.LogData(nil, pebble.Sync)
}

func (e *Engine) Len() (int, error) {
	it, err := e.db.NewIter(nil)
	if err != nil {
		return 0, err
	}
	n := 0
	for valid := it.First(); valid; valid = it.Next() {
		n++
	}
	return n, it.Close()
}

func (e *Engine) Close() error {
	return e.db.Close()
}

type pebbleTx struct {
	r pebble.Reader
	b *pebble.Batch // nil for read-only transactions
}

func (t *pebbleTx) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := t.r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return engine.Clone(v), true, nil
}

func (t *pebbleTx) Put(key, value []byte) error {
	if t.b == nil {
		return engine.ErrReadOnly
	}
	return t.b.Set(key, value, nil)
}

func (t *pebbleTx) Delete(key []byte) (bool, error) {
	if t.b == nil {
		return false, engine.ErrReadOnly
	}
	_, found, err := t.Get(key)
	if err != nil || !found {
		return false, err
	}
	return true, t.b.Delete(key, nil)
}

func (t *pebbleTx) Scan(fn func(key, value []byte) bool) error {
	it, err := t.r.NewIter(nil)
	if err != nil {
		return fmt.Errorf("creating iterator: %w", err)
	}
	for valid := it.First(); valid; valid = it.Next() {
		if !fn(engine.Clone(it.Key()), engine.Clone(it.Value())) {
			break
		}
	}
	return it.Close()
}

func (t *pebbleTx) Clear() error {
	if t.b == nil {
		return engine.ErrReadOnly
	}
	var keys [][]byte
	if err := t.Scan(func(k, _ []byte) bool {
		keys = append(keys, k)
		return true
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := t.b.Delete(k, nil); err != nil {
			return err
		}
	}
	return nil
}
