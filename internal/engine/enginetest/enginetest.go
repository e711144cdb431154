// Package enginetest is the conformance suite every engine.Engine runs.
package enginetest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedb/internal/engine"
)

// Factory opens a fresh engine rooted at dir.
type Factory func(t *testing.T, dir string) engine.Engine

// Run executes the suite against the engine produced by factory.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, e engine.Engine)
	}{
		{name: "put_get", fn: testPutGet},
		{name: "overwrite", fn: testOverwrite},
		{name: "delete", fn: testDelete},
		{name: "abort_discards_writes", fn: testAbort},
		{name: "read_only_rejects_writes", fn: testReadOnly},
		{name: "read_your_writes", fn: testReadYourWrites},
		{name: "scan_byte_order", fn: testScanOrder},
		{name: "scan_stop", fn: testScanStop},
		{name: "clear", fn: testClear},
		{name: "len", fn: testLen},
		{name: "sync", fn: testSync},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := factory(t, t.TempDir())
			defer e.Close() //nolint:errcheck

			tc.fn(t, e)
		})
	}

	t.Run("reopen_keeps_data", func(t *testing.T) {
		dir := t.TempDir()
		e := factory(t, dir)
		put(t, e, "persist", "me")
		require.NoError(t, e.Sync())
		require.NoError(t, e.Close())

		e = factory(t, dir)
		defer e.Close() //nolint:errcheck
		v, ok := get(t, e, "persist")
		assert.True(t, ok)
		assert.Equal(t, "me", v)
	})
}

func put(t *testing.T, e engine.Engine, k, v string) {
	t.Helper()
	err := e.Update(func(tx engine.Tx) error {
		return tx.Put([]byte(k), []byte(v))
	})
	require.NoError(t, err)
}

func get(t *testing.T, e engine.Engine, k string) (string, bool) {
	t.Helper()
	var (
		val   []byte
		found bool
	)
	err := e.View(func(tx engine.Tx) error {
		var err error
		val, found, err = tx.Get([]byte(k))
		return err
	})
	require.NoError(t, err)
	return string(val), found
}

func testPutGet(t *testing.T, e engine.Engine) {
	put(t, e, "key", "value")

	v, ok := get(t, e, "key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = get(t, e, "missing")
	assert.False(t, ok)
}

func testOverwrite(t *testing.T, e engine.Engine) {
	put(t, e, "k", "v1")
	put(t, e, "k", "v2")

	v, _ := get(t, e, "k")
	assert.Equal(t, "v2", v)
}

func testDelete(t *testing.T, e engine.Engine) {
	put(t, e, "k", "v")

	var existed, again bool
	err := e.Update(func(tx engine.Tx) error {
		var err error
		if existed, err = tx.Delete([]byte("k")); err != nil {
			return err
		}
		again, err = tx.Delete([]byte("k"))
		return err
	})
	require.NoError(t, err)
	assert.True(t, existed)
	assert.False(t, again, "deleting an absent key reports false")

	_, ok := get(t, e, "k")
	assert.False(t, ok)
}

func testAbort(t *testing.T, e engine.Engine) {
	boom := errors.New("boom")
	err := e.Update(func(tx engine.Tx) error {
		for i := 0; i < 10; i++ {
			if err := tx.Put([]byte(fmt.Sprintf("k%d", i)), []byte("v")); err != nil {
				return err
			}
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := e.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testReadOnly(t *testing.T, e engine.Engine) {
	err := e.View(func(tx engine.Tx) error {
		return tx.Put([]byte("k"), []byte("v"))
	})
	assert.ErrorIs(t, err, engine.ErrReadOnly)

	err = e.View(func(tx engine.Tx) error {
		_, err := tx.Delete([]byte("k"))
		return err
	})
	assert.ErrorIs(t, err, engine.ErrReadOnly)

	err = e.View(func(tx engine.Tx) error {
		return tx.Clear()
	})
	assert.ErrorIs(t, err, engine.ErrReadOnly)
}

func testReadYourWrites(t *testing.T, e engine.Engine) {
	err := e.Update(func(tx engine.Tx) error {
		if err := tx.Put([]byte("a"), []byte("1")); err != nil {
			return err
		}
		v, ok, err := tx.Get([]byte("a"))
		if err != nil {
			return err
		}
		assert.True(t, ok)
		assert.Equal(t, []byte("1"), v)
		return nil
	})
	require.NoError(t, err)
}

func testScanOrder(t *testing.T, e engine.Engine) {
	for _, k := range []string{"c", "a", "b", "\x00z", "ab"} {
		put(t, e, k, "v-"+k)
	}

	var keys [][]byte
	err := e.View(func(tx engine.Tx) error {
		return tx.Scan(func(k, v []byte) bool {
			assert.Equal(t, "v-"+string(k), string(v))
			keys = append(keys, k)
			return true
		})
	})
	require.NoError(t, err)
	require.Len(t, keys, 5)
	for i := 1; i < len(keys); i++ {
		assert.Negative(t, bytes.Compare(keys[i-1], keys[i]), "scan must be ascending")
	}
}

func testScanStop(t *testing.T, e engine.Engine) {
	for i := 0; i < 5; i++ {
		put(t, e, fmt.Sprintf("k%d", i), "v")
	}
	seen := 0
	err := e.View(func(tx engine.Tx) error {
		return tx.Scan(func(_, _ []byte) bool {
			seen++
			return seen < 2
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func testClear(t *testing.T, e engine.Engine) {
	for i := 0; i < 20; i++ {
		put(t, e, fmt.Sprintf("k%02d", i), "v")
	}
	require.NoError(t, e.Update(func(tx engine.Tx) error { return tx.Clear() }))

	n, err := e.Len()
	require.NoError(t, err)
	assert.Zero(t, n)

	put(t, e, "after", "clear")
	v, ok := get(t, e, "after")
	assert.True(t, ok)
	assert.Equal(t, "clear", v)
}

func testLen(t *testing.T, e engine.Engine) {
	n, err := e.Len()
	require.NoError(t, err)
	assert.Zero(t, n)

	err = e.Update(func(tx engine.Tx) error {
		for i := 0; i < 100; i++ {
			if err := tx.Put([]byte(fmt.Sprintf("k%03d", i)), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	n, err = e.Len()
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func testSync(t *testing.T, e engine.Engine) {
	assert.NoError(t, e.Sync(), "sync with nothing pending")
	put(t, e, "k", "v")
	assert.NoError(t, e.Sync())
}
