package bolt

import (
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"sharedb/internal/engine"
	"sharedb/internal/logging"
)

// FileName is the data file kept inside the store directory.
const FileName = "data.db"

const lockTimeout = time.Second

var (
	bucket = []byte("sharedb")
	logger = logging.For("engine/bolt")
)

// Engine implements engine.Engine using bbolt (embedded B+ tree).
// Commits are written with NoSync; durability comes from Sync.
type Engine struct {
	db      *bolt.DB
	mapSize int64
}

// Open creates or opens the bbolt data file inside opts.Dir.
// bbolt has no reader table, so MaxReaders is not enforced. The file lock is
// exclusive: a second Open of the same directory fails after lockTimeout.
func Open(opts engine.Options) (*Engine, error) {
	path := filepath.Join(opts.Dir, FileName)
	db, err := bolt.Open(path, 0600, &bolt.Options{NoSync: true, Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	logger.Debug("opened", "path", path, "map_size", opts.MapSize, "max_readers", opts.MaxReaders)
	return &Engine{db: db, mapSize: opts.MapSize}, nil
}

func (e *Engine) View(fn func(engine.Tx) error) error {
	return e.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{b: tx.Bucket(bucket), tx: tx})
	})
}

func (e *Engine) Update(fn func(engine.Tx) error) error {
	return e.db.Update(func(tx *bolt.Tx) error {
		t := &boltTx{b: tx.Bucket(bucket), tx: tx, writable: true}
		if e.mapSize > 0 && tx.Size() >= e.mapSize {
			t.full = true
		}
		return fn(t)
	})
}

// Sync runs fdatasync on the data file.
func (e *Engine) Sync() error {
	return e.db.Sync()
}

func (e *Engine) Len() (int, error) {
	var n int
	err := e.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (e *Engine) Close() error {
	return e.db.Close()
}

type boltTx struct {
	b        *bolt.Bucket
	tx       *bolt.Tx
	writable bool
	full     bool
}

func (t *boltTx) Get(key []byte) ([]byte, bool, error) {
	v := t.b.Get(key)
	if v == nil {
		return nil, false, nil
	}
	return engine.Clone(v), true, nil
}

func (t *boltTx) Put(key, value []byte) error {
	if !t.writable {
		return engine.ErrReadOnly
	}
	if t.full {
		return engine.ErrMapFull
	}
	return t.b.Put(key, value)
}

func (t *boltTx) Delete(key []byte) (bool, error) {
	if !t.writable {
		return false, engine.ErrReadOnly
	}
	if t.b.Get(key) == nil {
		return false, nil
	}
	return true, t.b.Delete(key)
}

func (t *boltTx) Scan(fn func(key, value []byte) bool) error {
	c := t.b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if !fn(engine.Clone(k), engine.Clone(v)) {
			return nil
		}
	}
	return nil
}

func (t *boltTx) Clear() error {
	if !t.writable {
		return engine.ErrReadOnly
	}
	if err := t.tx.DeleteBucket(bucket); err != nil {
		return fmt.Errorf("deleting bucket: %w", err)
	}
	b, err := t.tx.CreateBucket(bucket)
	if err != nil {
		return fmt.Errorf("creating bucket: %w", err)
	}
	t.b = b
	return nil
}
