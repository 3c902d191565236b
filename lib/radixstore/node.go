package radixstore

import (
	"sync/atomic"

	"github.com/eneq/misc/lib/concurrent"
)

// Destructor is invoked at most once per key, when a leaf is physically
// reclaimed, with the key bytes and the value that was stored under them.
type Destructor func(key []byte, value any)

// node is both the internal and the leaf variant of a trie entry: whether
// it is a leaf is purely a function of whether its children list is empty.
type node struct {
	id    uint8
	level int

	parent   *node
	next     atomic.Pointer[node]
	children atomic.Pointer[node]
	spin     concurrent.SpinLock

	// keyOwner is the node that actually holds the key bytes for this
	// root-to-leaf path (invariant K3). A freshly inserted leaf owns its
	// own key; a leaf later promoted to interior keeps ownership and the
	// split node underneath it borrows the reference.
	keyOwner *node
	key      []byte

	value      any
	destructor Destructor
	timestamp  atomic.Int64 // UnixNano of the most recent insert

	onExpiry atomic.Bool
	onDelete atomic.Bool
	dead     atomic.Bool
}

func (n *node) isLeaf() bool {
	return n.children.Load() == nil
}
