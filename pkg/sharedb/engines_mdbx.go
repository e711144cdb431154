//go:build cgo

package sharedb

import (
	"sharedb/internal/engine"
	"sharedb/internal/engine/mdbx"
)

func init() {
	engines[engine.KindMDBX] = func(o engine.Options) (engine.Engine, error) {
		return mdbx.Open(o)
	}
}
