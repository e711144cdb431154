package sharedb

import (
	"iter"

	"sharedb/internal/engine"
)

// update runs fn in one write transaction. fn reports how many mutations it
// made; they are charged to the write buffer only after the commit.
func (s *Store) update(op string, fn func(tx engine.Tx) (int, error)) error {
	var n int
	err := s.eng.Update(func(tx engine.Tx) error {
		var err error
		n, err = fn(tx)
		return err
	})
	if err != nil {
		s.metrics.aborts.Inc()
		return err
	}
	return s.committed(op, n)
}

// lookup resolves each key of keys inside one read transaction and yields
// what visit makes of the stored bytes. The transaction stays open while the
// caller ranges.
func lookup[T any](s *Store, op string, keys iter.Seq[any], visit func(key any, val []byte, found bool) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if err := s.gate(op); err != nil {
			yield(zero, err)
			return
		}
		stopped := false
		err := s.eng.View(func(tx engine.Tx) error {
			for key := range keys {
				kb, err := s.codec.EncodeKey(key)
				if err != nil {
					stopped = true
					yield(zero, opError(op, err))
					return nil
				}
				val, found, err := tx.Get(kb)
				if err != nil {
					return err
				}
				out, err := visit(key, val, found)
				if err != nil {
					stopped = true
					yield(zero, opError(op, err))
					return nil
				}
				if !yield(out, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(zero, opError(op, err))
		}
	}
}

// walk scans the whole store in key byte order inside one read transaction
// and yields what decode makes of each entry.
func walk[T any](s *Store, op string, decode func(key, val []byte) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if err := s.gate(op); err != nil {
			yield(zero, err)
			return
		}
		stopped := false
		err := s.eng.View(func(tx engine.Tx) error {
			return tx.Scan(func(k, v []byte) bool {
				out, err := decode(k, v)
				if err != nil {
					stopped = true
					yield(zero, opError(op, err))
					return false
				}
				if !yield(out, nil) {
					stopped = true
					return false
				}
				return true
			})
		})
		if err != nil && !stopped {
			yield(zero, opError(op, err))
		}
	}
}
