package radixstore

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eneq/misc/lib/bitwise"
	"github.com/eneq/misc/lib/concurrent"
	"github.com/eneq/misc/lib/logging"
	"github.com/eneq/misc/lib/threadloop"
)

// Store is a fixed-depth, bit-sliced radix trie mapping fixed-size byte
// keys to opaque values.
type Store struct {
	root *node

	keySize int
	bits    int
	life    time.Duration

	mu sync.RWMutex

	expiryList concurrent.Stack[*node]
	deleteList concurrent.Stack[*node]

	liveCount atomic.Int64
	closed    atomic.Bool

	loop    threadloop.Loop
	logger  *logging.Logger
	metrics *storeMetrics
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger overrides the store's default logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store for keys of keySize bytes, consuming bitsPerLevel
// bits of key per trie level, with entries expiring after lifespan. It
// starts a background maintenance goroutine and returns nil if any
// parameter is out of its documented range.
func New(keySize, bitsPerLevel int, lifespan time.Duration, opts ...Option) *Store {
	if keySize < 1 || bitsPerLevel < 1 || bitsPerLevel > 8 || lifespan <= 0 {
		return nil
	}

	s := &Store{
		root:    &node{level: -1},
		keySize: keySize,
		bits:    bitsPerLevel,
		life:    lifespan,
		logger:  logging.New("radixstore"),
	}
	s.metrics = newStoreMetrics(s)

	for _, opt := range opts {
		opt(s)
	}

	s.loop.Start(s.maintenanceLoop)
	return s
}

// KeySize returns the fixed key length this store was created with.
func (s *Store) KeySize() int {
	return s.keySize
}

// Len returns the approximate number of live leaves.
func (s *Store) Len() int64 {
	return s.liveCount.Load()
}

// ValueSizeStats reports average and estimated-median value sizes for
// []byte values inserted via Add, from the store's size histogram.
func (s *Store) ValueSizeStats() (average, median int) {
	return s.metrics.sizes.AverageSize(), s.metrics.sizes.MedianEstimate()
}

// bitsAtLevel returns how many key bits the given trie level consumes;
// every level consumes s.bits except possibly the last, which only takes
// the bits remaining in the key.
func (s *Store) bitsAtLevel(level int) int {
	start := level * s.bits
	remaining := s.keySize*8 - start
	if remaining < s.bits {
		return remaining
	}
	return s.bits
}

// descend walks the trie along the bit-slices of key, returning the
// deepest matching node. A child whose id matches but is flagged
// on-delete-list is treated as absent and skipped, per the lookup-path
// contract (add's own sibling scan, below, does the opposite).
func (s *Store) descend(key []byte) *node {
	index := 0
	cur := s.root.children.Load()
	ret := s.root

	for cur != nil && index < s.keySize*8 {
		n := s.bitsAtLevel(index / s.bits)
		id := bitwise.Bits(key, index, n)

		for cur != nil && (cur.id != id || cur.onDelete.Load()) {
			cur = cur.next.Load()
		}

		if cur == nil {
			return ret
		}
		if cur.isLeaf() {
			return cur
		}

		ret = cur
		cur = cur.children.Load()
		index += n
	}

	return s.root
}

// Add inserts value under key with the given destructor, returning false
// if key is already live in the store.
func (s *Store) Add(key []byte, value any, dtor Destructor) bool {
	if s.closed.Load() || len(key) != s.keySize {
		return false
	}

	leaf := &node{
		key:        append([]byte(nil), key...),
		value:      value,
		destructor: dtor,
	}
	leaf.keyOwner = leaf
	leaf.timestamp.Store(time.Now().UnixNano())
	leaf.onExpiry.Store(true)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		found := s.descend(key)

		if found.isLeaf() && found != s.root {
			if found.keyOwner.key != nil && bytes.Equal(found.keyOwner.key, key) {
				return false // duplicate, no modification
			}

			split := &node{
				keyOwner:   found.keyOwner,
				value:      found.value,
				destructor: found.destructor,
				parent:     found,
				level:      found.level + 1,
			}
			split.timestamp.Store(found.timestamp.Load())
			split.id = bitwise.Bits(split.keyOwner.key, split.level*s.bits, s.bitsAtLevel(split.level))

			found.spin.Lock()
			if found.isLeaf() {
				found.children.Store(split)
			}
			found.spin.Unlock()

			continue // restart descent; the new leaf will now find an interior node
		}

		found.spin.Lock()

		leaf.parent = found
		leaf.level = found.level + 1
		leaf.id = bitwise.Bits(key, leaf.level*s.bits, s.bitsAtLevel(leaf.level))

		collision := false
		for tmp := found.children.Load(); tmp != nil; tmp = tmp.next.Load() {
			if tmp.id != leaf.id {
				continue
			}

			// descend skips on-delete-list children when matching ids, so a
			// sibling surfacing here is either one a concurrent Add linked in
			// after that descent, or a node Delete already marked. If it is a
			// marked leaf carrying the same key, this is a delete-then-readd race
			// with prune: revive it in place rather than treating it as a
			// live collision, or the outer loop would retry forever since
			// descend would keep skipping straight back to this same spot.
			if tmp.onDelete.Load() && tmp.isLeaf() && tmp.keyOwner.key != nil && bytes.Equal(tmp.keyOwner.key, key) {
				tmp.spin.Lock()
				revived := tmp.onDelete.Load() && tmp.isLeaf() && tmp.keyOwner.key != nil && bytes.Equal(tmp.keyOwner.key, key)
				if revived {
					tmp.value = value
					tmp.destructor = dtor
					tmp.timestamp.Store(time.Now().UnixNano())
					tmp.onDelete.Store(false)
					tmp.onExpiry.Store(true)
				}
				tmp.spin.Unlock()

				if revived {
					found.spin.Unlock()
					s.expiryList.Push(tmp)
					s.liveCount.Add(1)
					if b, ok := value.([]byte); ok {
						s.metrics.observeValueSize(len(b))
					}
					return true
				}
			}

			collision = true
			break
		}
		if collision {
			found.spin.Unlock()
			continue // retry from a fresh descent
		}

		leaf.next.Store(found.children.Load())
		found.children.Store(leaf)
		found.spin.Unlock()

		s.expiryList.Push(leaf)
		s.liveCount.Add(1)
		if b, ok := value.([]byte); ok {
			s.metrics.observeValueSize(len(b))
		}
		return true
	}
}

// Find reports whether key has a live leaf and, if so, invokes cb with the
// key, its value and user while the leaf's existence is guaranteed (under
// the reader lock).
func (s *Store) Find(key []byte, cb func(key []byte, value any, user any), user any) bool {
	if len(key) != s.keySize {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.descend(key)
	if n == s.root || !n.isLeaf() {
		return false
	}
	if n.keyOwner.key == nil || !bytes.Equal(n.keyOwner.key, key) {
		return false
	}

	if cb != nil {
		cb(key, n.value, user)
	}
	return true
}

// Delete logically marks the live leaf matching key for removal. A
// previously deleted key can no longer be found by descend (it is skipped
// during id matching), which is what makes a second Delete(key) report
// false without any extra bookkeeping.
func (s *Store) Delete(key []byte) bool {
	if len(key) != s.keySize {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.deleteLocked(key)
}

// deleteLocked is Delete's body, factored out so the maintenance loop's
// expiry pass — which already holds the reader lock for its scan — can
// mark a node for deletion without recursively re-acquiring it.
func (s *Store) deleteLocked(key []byte) bool {
	n := s.descend(key)
	if n.parent == nil || !n.isLeaf() {
		return false
	}
	if n.keyOwner.key == nil || !bytes.Equal(key, n.keyOwner.key) {
		return false
	}

	n.spin.Lock()
	if !n.onDelete.Load() {
		n.onDelete.Store(true)
		s.deleteList.Push(n)
	}
	n.spin.Unlock()

	s.liveCount.Add(-1)
	return true
}

// Close stops the maintenance goroutine, physically reclaims every
// remaining node (invoking destructors for live leaves) and marks the
// store unusable. Calling any other operation afterwards is undefined.
func (s *Store) Close() {
	s.loop.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed.Store(true)
	s.releaseAll(s.root)
}

func (s *Store) releaseAll(n *node) {
	wasLeaf := n.isLeaf()
	for c := n.children.Load(); c != nil; c = c.next.Load() {
		s.releaseAll(c)
	}
	if n == s.root || !wasLeaf {
		return
	}
	if n.keyOwner.key != nil {
		if n.destructor != nil {
			n.destructor(n.keyOwner.key, n.value)
		}
		n.keyOwner.key = nil
	}
}
