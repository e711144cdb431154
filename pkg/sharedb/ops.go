package sharedb

import (
	"sharedb/internal/engine"
)

// Set stores val under key, replacing any previous value.
func (s *Store) Set(key, val any) (*Store, error) {
	const op = "set"
	if err := s.gate(op); err != nil {
		return nil, err
	}
	kb, vb, err := s.encodePair(key, val)
	if err != nil {
		return nil, opError(op, err)
	}
	err = s.update(op, func(tx engine.Tx) (int, error) {
		return 1, tx.Put(kb, vb)
	})
	if err != nil {
		return nil, wrapOnce(op, err)
	}
	return s, nil
}

// Get returns the value stored under key, or def when key is absent.
func (s *Store) Get(key, def any) (any, error) {
	var v any
	found, err := s.get("get", key, func(b []byte) error {
		return s.codec.DecodeValueInto(b, &v)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// GetItem returns the value stored under key or a KeyNotFoundError.
func (s *Store) GetItem(key any) (any, error) {
	const op = "getitem"
	var v any
	found, err := s.get(op, key, func(b []byte) error {
		return s.codec.DecodeValueInto(b, &v)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &KeyNotFoundError{Op: op, Key: key}
	}
	return v, nil
}

// HasKey reports whether key is present.
func (s *Store) HasKey(key any) (bool, error) {
	return s.get("has_key", key, nil)
}

// Contains is HasKey.
func (s *Store) Contains(key any) (bool, error) {
	return s.HasKey(key)
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key any) (*Store, error) {
	const op = "remove"
	if err := s.gate(op); err != nil {
		return nil, err
	}
	kb, err := s.codec.EncodeKey(key)
	if err != nil {
		return nil, opError(op, err)
	}
	err = s.update(op, func(tx engine.Tx) (int, error) {
		_, err := tx.Delete(kb)
		return 1, err
	})
	if err != nil {
		return nil, wrapOnce(op, err)
	}
	return s, nil
}

// Pop removes key and returns its value, or a KeyNotFoundError.
func (s *Store) Pop(key any) (any, error) {
	var v any
	err := s.pop("pop", key, func(b []byte) error {
		return s.codec.DecodeValueInto(b, &v)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Len returns the number of entries.
func (s *Store) Len() (int, error) {
	const op = "length"
	if err := s.gate(op); err != nil {
		return 0, err
	}
	n, err := s.eng.Len()
	if err != nil {
		return 0, opError(op, err)
	}
	return n, nil
}

// Clear removes every entry and keeps the store open.
func (s *Store) Clear() (*Store, error) {
	const op = "clear"
	if err := s.gate(op); err != nil {
		return nil, err
	}
	err := s.update(op, func(tx engine.Tx) (int, error) {
		return 0, tx.Clear()
	})
	if err != nil {
		return nil, wrapOnce(op, err)
	}
	return s, nil
}

// get reads key in its own transaction and, when present and decode is not
// nil, hands the stored bytes to decode.
func (s *Store) get(op string, key any, decode func([]byte) error) (bool, error) {
	if err := s.gate(op); err != nil {
		return false, err
	}
	kb, err := s.codec.EncodeKey(key)
	if err != nil {
		return false, opError(op, err)
	}
	var found bool
	err = s.eng.View(func(tx engine.Tx) error {
		var (
			val []byte
			err error
		)
		val, found, err = tx.Get(kb)
		if err != nil || !found || decode == nil {
			return err
		}
		return decode(val)
	})
	if err != nil {
		return false, opError(op, err)
	}
	return found, nil
}

// pop reads and deletes key in one write transaction. A value that fails
// to decode is left in place.
func (s *Store) pop(op string, key any, decode func([]byte) error) error {
	if err := s.gate(op); err != nil {
		return err
	}
	kb, err := s.codec.EncodeKey(key)
	if err != nil {
		return opError(op, err)
	}
	err = s.update(op, func(tx engine.Tx) (int, error) {
		val, found, err := tx.Get(kb)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, &KeyNotFoundError{Op: op, Key: key}
		}
		if err := decode(val); err != nil {
			return 0, err
		}
		_, err = tx.Delete(kb)
		return 1, err
	})
	return wrapOnce(op, err)
}

func (s *Store) encodePair(key, val any) ([]byte, []byte, error) {
	kb, err := s.codec.EncodeKey(key)
	if err != nil {
		return nil, nil, err
	}
	vb, err := s.codec.EncodeValue(val)
	if err != nil {
		return nil, nil, err
	}
	return kb, vb, nil
}
