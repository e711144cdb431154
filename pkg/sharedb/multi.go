package sharedb

import (
	"iter"
	"slices"

	"sharedb/internal/engine"
)

// KeysOf turns a list of keys into a sequence for the Multi* operations.
func KeysOf(keys ...any) iter.Seq[any] {
	return slices.Values(keys)
}

// Pairs turns a map into a key/value sequence for MultiSet.
func Pairs[K comparable, V any](m map[K]V) iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for k, v := range m {
			if !yield(k, v) {
				return
			}
		}
	}
}

// PairsOf turns alternating keys and values into a sequence for MultiSet.
// A trailing key without a value is paired with nil, which MultiSet rejects.
func PairsOf(kv ...any) iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for i := 0; i < len(kv); i += 2 {
			var v any
			if i+1 < len(kv) {
				v = kv[i+1]
			}
			if !yield(kv[i], v) {
				return
			}
		}
	}
}

// MultiSet stores every pair in one transaction. If any pair fails to encode
// or store, nothing is written and a BatchAbortedError names the pair.
func (s *Store) MultiSet(pairs iter.Seq2[any, any]) (*Store, error) {
	const op = "multiset"
	if err := s.gate(op); err != nil {
		return nil, err
	}
	err := s.update(op, func(tx engine.Tx) (int, error) {
		i := 0
		for key, val := range pairs {
			kb, vb, err := s.encodePair(key, val)
			if err == nil {
				err = tx.Put(kb, vb)
			}
			if err != nil {
				return i, &BatchAbortedError{Op: op, Index: i, Key: key, Err: err}
			}
			i++
		}
		return i, nil
	})
	if err != nil {
		return nil, wrapOnce(op, err)
	}
	return s, nil
}

// MultiGet yields the value of each key in order, or def for absent keys,
// from one read transaction.
func (s *Store) MultiGet(keys iter.Seq[any], def any) iter.Seq2[any, error] {
	return lookup(s, "multiget", keys, func(_ any, val []byte, found bool) (any, error) {
		if !found {
			return def, nil
		}
		return s.codec.DecodeValue(val)
	})
}

// HasMultiKey yields whether each key is present, from one read transaction.
func (s *Store) HasMultiKey(keys iter.Seq[any]) iter.Seq2[bool, error] {
	return lookup(s, "has_multikey", keys, func(_ any, _ []byte, found bool) (bool, error) {
		return found, nil
	})
}

// MultiRemove deletes every key in one transaction. Absent keys are skipped.
func (s *Store) MultiRemove(keys iter.Seq[any]) (*Store, error) {
	const op = "multiremove"
	if err := s.gate(op); err != nil {
		return nil, err
	}
	err := s.update(op, func(tx engine.Tx) (int, error) {
		i := 0
		for key := range keys {
			kb, err := s.codec.EncodeKey(key)
			if err == nil {
				_, err = tx.Delete(kb)
			}
			if err != nil {
				return i, &BatchAbortedError{Op: op, Index: i, Key: key, Err: err}
			}
			i++
		}
		return i, nil
	})
	if err != nil {
		return nil, wrapOnce(op, err)
	}
	return s, nil
}

// MultiPop removes every key in one transaction and returns their values in
// order. Unlike MultiRemove, an absent key aborts the batch: nothing is
// removed and the BatchAbortedError wraps a KeyNotFoundError for that key.
func (s *Store) MultiPop(keys iter.Seq[any]) ([]any, error) {
	const op = "multipop"
	if err := s.gate(op); err != nil {
		return nil, err
	}
	var out []any
	err := s.update(op, func(tx engine.Tx) (int, error) {
		out = out[:0]
		i := 0
		for key := range keys {
			v, err := s.popIn(tx, op, key)
			if err != nil {
				return i, &BatchAbortedError{Op: op, Index: i, Key: key, Err: err}
			}
			out = append(out, v)
			i++
		}
		return i, nil
	})
	if err != nil {
		return nil, wrapOnce(op, err)
	}
	return out, nil
}

func (s *Store) popIn(tx engine.Tx, op string, key any) (any, error) {
	kb, err := s.codec.EncodeKey(key)
	if err != nil {
		return nil, err
	}
	val, found, err := tx.Get(kb)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &KeyNotFoundError{Op: op, Key: key}
	}
	v, err := s.codec.DecodeValue(val)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Delete(kb); err != nil {
		return nil, err
	}
	return v, nil
}
