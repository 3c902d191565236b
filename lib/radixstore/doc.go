// Package radixstore implements a concurrent, trie-based key/value store.
//
// Keys are opaque fixed-width byte strings. Store creation fixes the key
// length K, the number of key bits consumed per trie level B, and a
// lifespan L after which an inserted entry becomes eligible for automatic
// expiry. The trie is bit-sliced: each level descends one B-bit slice of
// the key, most-significant-bit first.
//
// Inserts take the store's reader lock and use per-node spin locks to
// guard child-list edits; multiple readers and inserters never block each
// other except for the brief spin. Deletion is logical — a flag plus an
// entry on a lock-free delete list — and a background maintenance task
// periodically takes the writer lock to physically unhook deleted and
// expired nodes.
package radixstore
