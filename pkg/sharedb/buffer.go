package sharedb

import "fmt"

// writeBuffer counts committed mutations that have not been flushed yet.
type writeBuffer struct {
	size    int
	pending int
}

// add records n mutations and reports whether the threshold is reached.
func (b *writeBuffer) add(n int) bool {
	b.pending += n
	return b.pending >= b.size
}

// Stats is a snapshot of a store's write activity since Open.
type Stats struct {
	// Pending is the number of committed mutations not yet flushed.
	Pending     int
	Commits     uint64
	Aborts      uint64
	Mutations   uint64
	Flushes     uint64
	AutoFlushes uint64
}

// Stats returns the store's counters. It is valid on a closed store.
func (s *Store) Stats() Stats {
	return Stats{
		Pending:     s.buf.pending,
		Commits:     s.metrics.commits.Get(),
		Aborts:      s.metrics.aborts.Get(),
		Mutations:   s.metrics.mutations.Get(),
		Flushes:     s.metrics.flushes.Get(),
		AutoFlushes: s.metrics.autoFlushes.Get(),
	}
}

// Sync flushes committed writes to stable storage and resets the pending
// count. With nothing pending it still asks the engine to flush, which is
// cheap.
func (s *Store) Sync() (*Store, error) {
	if err := s.gate("sync"); err != nil {
		return nil, err
	}
	if err := s.flush(); err != nil {
		return nil, opError("sync", err)
	}
	return s, nil
}

func (s *Store) flush() error {
	if err := s.eng.Sync(); err != nil {
		return err
	}
	s.buf.pending = 0
	s.metrics.flushes.Inc()
	return nil
}

// committed charges n mutations of a committed transaction to the write
// buffer and flushes once the buffer is full.
func (s *Store) committed(op string, n int) error {
	s.metrics.commits.Inc()
	if n == 0 {
		return nil
	}
	s.metrics.mutations.Add(n)
	if !s.buf.add(n) {
		return nil
	}
	logger.Debug("auto-sync", "path", s.path, "op", op, "pending", s.buf.pending)
	s.metrics.autoFlushes.Inc()
	if err := s.flush(); err != nil {
		return opError(op, fmt.Errorf("auto-sync: %w", err))
	}
	return nil
}
