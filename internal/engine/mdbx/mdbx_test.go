//go:build cgo

package mdbx

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedb/internal/engine"
	"sharedb/internal/engine/enginetest"
)

func TestConformance(t *testing.T) {
	enginetest.Run(t, func(t *testing.T, dir string) engine.Engine {
		e, err := Open(engine.Options{Dir: dir, MaxReaders: 16, MapSize: 64 << 20})
		require.NoError(t, err)
		return e
	})
}

func TestConcurrentReaders(t *testing.T) {
	e, err := Open(engine.Options{Dir: t.TempDir(), MaxReaders: 8, MapSize: 64 << 20})
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck

	require.NoError(t, e.Update(func(tx engine.Tx) error {
		return tx.Put([]byte("shared"), []byte("value"))
	}))

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- e.View(func(tx engine.Tx) error {
				v, ok, err := tx.Get([]byte("shared"))
				if err == nil && (!ok || string(v) != "value") {
					err = fmt.Errorf("got %q, found=%v", v, ok)
				}
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
