package sharedb

import (
	"fmt"

	"sharedb/internal/engine"
	"sharedb/internal/engine/bolt"
	"sharedb/internal/engine/pebble"
)

type opener func(engine.Options) (engine.Engine, error)

var engines = map[engine.Kind]opener{
	engine.KindBolt: func(o engine.Options) (engine.Engine, error) {
		return bolt.Open(o)
	},
	engine.KindPebble: func(o engine.Options) (engine.Engine, error) {
		return pebble.Open(o)
	},
}

func openEngine(kind engine.Kind, o engine.Options) (engine.Engine, error) {
	open, ok := engines[kind]
	if !ok {
		return nil, fmt.Errorf("engine %q is not available in this build", kind)
	}
	e, err := open(o)
	if err != nil {
		return nil, err
	}
	return e, nil
}
