package sharedb

import "iter"

// Map is a typed view of a Store. It decodes keys into K and values into V
// and shares the store's lifecycle, transactions and write buffer. Entries
// written through the untyped API must fit K and V or reads fail with a
// DecodeError.
type Map[K comparable, V any] struct {
	s *Store
}

// Entry is one typed key/value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Typed returns a typed view of s.
func Typed[K comparable, V any](s *Store) *Map[K, V] {
	return &Map[K, V]{s: s}
}

// Store returns the underlying store.
func (m *Map[K, V]) Store() *Store { return m.s }

func (m *Map[K, V]) Set(key K, val V) error {
	_, err := m.s.Set(key, val)
	return err
}

// Get returns the value under key and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool, error) {
	var v V
	found, err := m.s.get("get", key, func(b []byte) error {
		return m.s.codec.DecodeValueInto(b, &v)
	})
	return v, found, err
}

// GetItem returns the value under key or a KeyNotFoundError.
func (m *Map[K, V]) GetItem(key K) (V, error) {
	v, found, err := m.Get(key)
	if err == nil && !found {
		err = &KeyNotFoundError{Op: "getitem", Key: key}
	}
	return v, err
}

func (m *Map[K, V]) Has(key K) (bool, error) {
	return m.s.HasKey(key)
}

func (m *Map[K, V]) Remove(key K) error {
	_, err := m.s.Remove(key)
	return err
}

// Pop removes key and returns its value, or a KeyNotFoundError.
func (m *Map[K, V]) Pop(key K) (V, error) {
	var v V
	err := m.s.pop("pop", key, func(b []byte) error {
		return m.s.codec.DecodeValueInto(b, &v)
	})
	return v, err
}

// MultiSet stores all of items in one transaction.
func (m *Map[K, V]) MultiSet(items map[K]V) error {
	_, err := m.s.MultiSet(Pairs(items))
	return err
}

// MultiGet reads keys in one transaction and returns the ones present.
func (m *Map[K, V]) MultiGet(keys []K) (map[K]V, error) {
	type hit struct {
		key   K
		val   V
		found bool
	}
	seq := func(yield func(any) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
	out := make(map[K]V, len(keys))
	hits := lookup(m.s, "multiget", seq, func(key any, b []byte, found bool) (hit, error) {
		h := hit{key: key.(K), found: found}
		if found {
			if err := m.s.codec.DecodeValueInto(b, &h.val); err != nil {
				return hit{}, err
			}
		}
		return h, nil
	})
	for h, err := range hits {
		if err != nil {
			return nil, err
		}
		if h.found {
			out[h.key] = h.val
		}
	}
	return out, nil
}

// Items yields every pair in byte order of the encoded keys.
func (m *Map[K, V]) Items() iter.Seq2[Entry[K, V], error] {
	return walk(m.s, "items", func(k, v []byte) (Entry[K, V], error) {
		var e Entry[K, V]
		if err := m.s.codec.DecodeKeyInto(k, &e.Key); err != nil {
			return Entry[K, V]{}, err
		}
		if err := m.s.codec.DecodeValueInto(v, &e.Value); err != nil {
			return Entry[K, V]{}, err
		}
		return e, nil
	})
}

// Collect drains Items into a map.
func (m *Map[K, V]) Collect() (map[K]V, error) {
	out := make(map[K]V)
	for e, err := range m.Items() {
		if err != nil {
			return nil, err
		}
		out[e.Key] = e.Value
	}
	return out, nil
}
