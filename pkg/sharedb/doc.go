// Package sharedb is a persistent, dictionary-like store backed by an
// embedded transactional key-value engine.
//
// A Store is bound to one directory. Keys and values are arbitrary Go values
// encoded by the store's codec (canonical CBOR by default, gob on request),
// values optionally compressed with zstd. Single-key operations run in their
// own transaction; the Multi* operations run a whole batch in one
// transaction that either commits entirely or leaves no trace.
//
// Commits are not flushed to stable storage one by one. The store counts
// committed mutations and calls Sync itself once the count reaches the
// buffer size; Close always flushes.
//
// Several processes may read the same directory at once on engines that
// allow it (mdbx). At most one writer may be active at a time and nothing
// here arbitrates between writers. A Store has no internal locking: do not
// drive one handle from several goroutines, and do not write through a
// handle while ranging over one of its sequences.
package sharedb
