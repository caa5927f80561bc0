package rtree

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Delete removes item from the tree, where r is the rectangle it was added
// with. The returned bool indicates whether the item could be found and thus
// removed.
func (t *RTree[T]) Delete(r Rect, item T) bool {
	ids, ok := t.itemIDs[item]
	if !ok {
		return false
	}

	for i, id := range ids {
		// D1 [Find node containing record]
		leaf, index := t.findLeaf(r, id)
		if leaf == nil {
			continue
		}

		// D2 [Delete record]
		leaf.deleteEntry(index, t.minNodeEntries)

		// D3 [Propagate changes]
		t.condenseTree(leaf)

		// D4 [Shorten tree]
		t.shortenTree()

		t.size--
		delete(t.items, id)
		if len(ids) == 1 {
			delete(t.itemIDs, item)
		} else {
			t.itemIDs[item] = append(ids[:i:i], ids[i+1:]...)
		}
		t.checkAfterChange("delete")
		return true
	}
	return false
}

// findLeaf finds the leaf holding the entry (r, id), along with the index of
// the entry. Only subtrees whose rectangle contains r are searched, since
// every ancestor of an entry covers it. The path to the leaf is left on the
// parents stacks. A nil node is returned when the entry isn't in the tree.
func (t *RTree[T]) findLeaf(r Rect, id int) (*node, int) {
	t.resetParents()
	t.pushParent(t.rootNodeID, -1)

	for len(t.parents) > 0 {
		last := len(t.parents) - 1
		n := t.nodes[t.parents[last]]
		start := t.parentsEntry[last] + 1

		if n.isLeaf() {
			if index := n.findEntry(r, id); index != -1 {
				// Keep only the ancestors of the leaf on the stacks.
				t.popParent()
				return n, index
			}
		} else {
			descended := false
			for i := start; i < n.count; i++ {
				if n.entries[i].Contains(r) {
					// i is where the search of n resumes if the child
					// doesn't hold the entry.
					t.parentsEntry[last] = i
					t.pushParent(n.ids[i], -1)
					descended = true
					break
				}
			}
			if descended {
				continue
			}
		}

		t.popParent()
	}
	return nil, -1
}

// condenseTree walks from the leaf the entry was removed from back up to the
// root. Nodes left with too few entries are removed from the tree and their
// entries reinserted, and the covering rectangles of the remaining nodes are
// tightened.
func (t *RTree[T]) condenseTree(leaf *node) {
	// CT1 [Initialise]
	n := leaf
	var eliminated []*node

	for n.level != t.treeHeight {
		// CT2 [Find parent entry]
		parentID, entry := t.popParent()
		parent := t.nodes[parentID]

		if n.count < t.minNodeEntries {
			// CT3 [Eliminate under-full node]
			parent.deleteEntry(entry, t.minNodeEntries)
			eliminated = append(eliminated, n)
		} else if parent.entries[entry] != n.mbr {
			// CT4 [Adjust covering rectangle]
			old := parent.entries[entry]
			parent.entries[entry] = n.mbr
			parent.recalculateMBR(old)
		}

		// CT5 [Move up one level in tree]
		n = parent
	}

	// The root is never eliminated, so keep its rectangle exact even when it
	// is below the minimum fill.
	if root := t.nodes[t.rootNodeID]; root.count > 0 {
		root.calculateMBR()
	}

	// CT6 [Reinsert orphaned entries]. Entries from higher level nodes are
	// reinserted at the same level, keeping all leaves at the same depth.
	// Higher nodes were eliminated last, so are reinserted first.
	for i := len(eliminated) - 1; i >= 0; i-- {
		e := eliminated[i]
		logs.WithTag("node_id", e.id).
			WithTag("level", e.level).
			WithTag("entries", e.count).
			Debug("reinserting entries of eliminated node")

		t.deleteNode(e.id)
		for j := 0; j < e.count; j++ {
			t.add(e.entries[j], e.ids[j], e.level)
		}
	}
}

// shortenTree removes roots with a single child.
func (t *RTree[T]) shortenTree() {
	root := t.nodes[t.rootNodeID]
	for root.count == 1 && t.treeHeight > 1 {
		t.deleteNode(root.id)
		t.rootNodeID = root.ids[0]
		t.treeHeight--
		root = t.nodes[t.rootNodeID]

		logs.WithTag("root_node_id", root.id).
			WithTag("height", t.treeHeight).
			Debug("tree shrank")
	}
}
