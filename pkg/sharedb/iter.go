package sharedb

import (
	"fmt"
	"iter"

	"sharedb/internal/engine"
)

// Item is one key/value pair.
type Item struct {
	Key   any
	Value any
}

// Keys yields every key in byte order of the encoded keys, which is not the
// natural order of non-string keys.
func (s *Store) Keys() iter.Seq2[any, error] {
	return walk(s, "keys", func(k, _ []byte) (any, error) {
		return s.codec.DecodeKey(k)
	})
}

// Values yields every value in the order of Keys.
func (s *Store) Values() iter.Seq2[any, error] {
	return walk(s, "values", func(_, v []byte) (any, error) {
		return s.codec.DecodeValue(v)
	})
}

// Items yields every pair in the order of Keys.
func (s *Store) Items() iter.Seq2[Item, error] {
	return walk(s, "items", s.decodeItem)
}

// PopItem removes and returns the first pair in key order. ok is false when
// the store is empty.
func (s *Store) PopItem() (item Item, ok bool, err error) {
	items, err := s.popItems("popitem", 1)
	if err != nil || len(items) == 0 {
		return Item{}, false, err
	}
	return items[0], true, nil
}

// MultiPopItem removes and returns the first n pairs in key order, fewer if
// the store holds fewer, in one transaction.
func (s *Store) MultiPopItem(n int) ([]Item, error) {
	return s.popItems("multipopitem", n)
}

func (s *Store) popItems(op string, n int) ([]Item, error) {
	if err := s.gate(op); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, opError(op, fmt.Errorf("item count must not be negative, got %d", n))
	}
	if n == 0 {
		return []Item{}, nil
	}

	var items []Item
	err := s.update(op, func(tx engine.Tx) (int, error) {
		type entry struct{ k, v []byte }
		var entries []entry
		err := tx.Scan(func(k, v []byte) bool {
			entries = append(entries, entry{k, v})
			return len(entries) < n
		})
		if err != nil {
			return 0, err
		}

		items = make([]Item, 0, len(entries))
		for _, e := range entries {
			item, err := s.decodeItem(e.k, e.v)
			if err != nil {
				return 0, err
			}
			if _, err := tx.Delete(e.k); err != nil {
				return 0, err
			}
			items = append(items, item)
		}
		return len(items), nil
	})
	if err != nil {
		return nil, wrapOnce(op, err)
	}
	return items, nil
}

func (s *Store) decodeItem(k, v []byte) (Item, error) {
	key, err := s.codec.DecodeKey(k)
	if err != nil {
		return Item{}, err
	}
	val, err := s.codec.DecodeValue(v)
	if err != nil {
		return Item{}, err
	}
	return Item{Key: key, Value: val}, nil
}
