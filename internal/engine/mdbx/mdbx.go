//go:build cgo

// Package mdbx implements engine.Engine on libmdbx through mdbx-go. It is the
// engine of choice when several processes read the same store at once:
// the reader table is sized by MaxReaders and the map by MapSize.
//
// Building this package requires cgo.
package mdbx

import (
	"fmt"

	"github.com/erigontech/mdbx-go/mdbx"

	"sharedb/internal/engine"
	"sharedb/internal/logging"
)

var logger = logging.For("engine/mdbx")

// Engine wraps an mdbx environment and its unnamed root database.
type Engine struct {
	env *mdbx.Env
	dbi mdbx.DBI
}

// Open creates or opens the environment in opts.Dir. SafeNoSync keeps
// commits steady without an fsync each; Sync makes them durable.
func Open(opts engine.Options) (*Engine, error) {
	env, err := mdbx.NewEnv(mdbx.Label("sharedb"))
	if err != nil {
		return nil, fmt.Errorf("creating mdbx env: %w", err)
	}
	if opts.MaxReaders > 0 {
		if err := env.SetOption(mdbx.OptMaxReaders, uint64(opts.MaxReaders)); err != nil {
			env.Close()
			return nil, fmt.Errorf("setting max readers: %w", err)
		}
	}
	if opts.MapSize > 0 {
		if err := env.SetGeometry(-1, -1, int(opts.MapSize), -1, -1, -1); err != nil {
			env.Close()
			return nil, fmt.Errorf("setting geometry: %w", err)
		}
	}
	if err := env.Open(opts.Dir, mdbx.Create|mdbx.SafeNoSync|mdbx.NoReadahead, 0644); err != nil {
		env.Close()
		return nil, fmt.Errorf("opening mdbx env: %w", err)
	}

	e := &Engine{env: env}
	err = env.Update(func(txn *mdbx.Txn) error {
		dbi, err := txn.OpenRoot(0)
		e.dbi = dbi
		return err
	})
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("opening root dbi: %w", err)
	}
	logger.Debug("opened", "dir", opts.Dir, "map_size", opts.MapSize, "max_readers", opts.MaxReaders)
	return e, nil
}

func (e *Engine) View(fn func(engine.Tx) error) error {
	return e.env.View(func(txn *mdbx.Txn) error {
		return fn(&mdbxTx{txn: txn, dbi: e.dbi})
	})
}

func (e *Engine) Update(fn func(engine.Tx) error) error {
	return e.env.Update(func(txn *mdbx.Txn) error {
		return fn(&mdbxTx{txn: txn, dbi: e.dbi, writable: true})
	})
}

// Sync forces a synchronous flush of the environment.
func (e *Engine) Sync() error {
	return e.env.Sync(true, false)
}

func (e *Engine) Len() (int, error) {
	var n int
	err := e.env.View(func(txn *mdbx.Txn) error {
		st, err := txn.StatDBI(e.dbi)
		if err != nil {
			return err
		}
		n = int(st.Entries)
		return nil
	})
	return n, err
}

func (e *Engine) Close() error {
	e.env.Close()
	return nil
}

type mdbxTx struct {
	txn      *mdbx.Txn
	dbi      mdbx.DBI
	writable bool
}

func (t *mdbxTx) Get(key []byte) ([]byte, bool, error) {
	v, err := t.txn.Get(t.dbi, key)
	if mdbx.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return engine.Clone(v), true, nil
}

func (t *mdbxTx) Put(key, value []byte) error {
	if !t.writable {
		return engine.ErrReadOnly
	}
	return t.txn.Put(t.dbi, key, value, 0)
}

func (t *mdbxTx) Delete(key []byte) (bool, error) {
	if !t.writable {
		return false, engine.ErrReadOnly
	}
	err := t.txn.Del(t.dbi, key, nil)
	if mdbx.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *mdbxTx) Scan(fn func(key, value []byte) bool) error {
	cur, err := t.txn.OpenCursor(t.dbi)
	if err != nil {
		return fmt.Errorf("opening cursor: %w", err)
	}
	defer cur.Close()

	k, v, err := cur.Get(nil, nil, mdbx.First)
	for err == nil {
		if !fn(engine.Clone(k), engine.Clone(v)) {
			return nil
		}
		k, v, err = cur.Get(nil, nil, mdbx.Next)
	}
	if mdbx.IsNotFound(err) {
		return nil
	}
	return err
}

func (t *mdbxTx) Clear() error {
	if !t.writable {
		return engine.ErrReadOnly
	}
	return t.txn.Drop(t.dbi, false)
}
