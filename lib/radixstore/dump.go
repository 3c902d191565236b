package radixstore

import (
	"fmt"
	"strings"
)

// Dump renders the trie as a diagnostic tree, one line per node, for use
// in tests and CLI inspection. It is not part of the operational contract.
func (s *Store) Dump() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	s.dumpNode(&b, s.root, 0)
	return b.String()
}

func (s *Store) dumpNode(b *strings.Builder, n *node, depth int) {
	kind := "N"
	if n.isLeaf() {
		kind = "L"
	}
	fmt.Fprintf(b, "%s[%s level=%d id=%d onExpiry=%v onDelete=%v]\n",
		strings.Repeat(" ", depth), kind, n.level, n.id, n.onExpiry.Load(), n.onDelete.Load())

	for c := n.children.Load(); c != nil; c = c.next.Load() {
		s.dumpNode(b, c, depth+1)
	}
}
