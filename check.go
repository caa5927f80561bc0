package rtree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Check verifies the structural invariants of the tree: node fill, levels,
// covering rectangles, reachability of every node and consistency of the
// item ids. It returns the first problem found.
func (t *RTree[T]) Check() error {
	root, ok := t.nodes[t.rootNodeID]
	if !ok {
		return errors.New("root node is missing").
			WithType(ErrTypeInconsistentTree).
			WithTag("node_id", t.rootNodeID)
	}
	if root.level != t.treeHeight {
		return errors.New("root level does not match tree height").
			WithType(ErrTypeInconsistentTree).
			WithTag("level", root.level).
			WithTag("height", t.treeHeight)
	}

	visited := make(map[int]bool, len(t.nodes))
	leafEntries := 0

	var check func(n *node, parentEntry *Rect) error
	check = func(n *node, parentEntry *Rect) error {
		if visited[n.id] {
			return errors.New("node is reachable more than once").
				WithType(ErrTypeInconsistentTree).
				WithTag("node_id", n.id)
		}
		visited[n.id] = true

		if n.count > t.maxNodeEntries {
			return errors.New("node has too many entries").
				WithType(ErrTypeInconsistentTree).
				WithTag("node_id", n.id).
				WithTag("entries", n.count)
		}
		if n.id != t.rootNodeID && n.count < t.minNodeEntries {
			return errors.New("node has too few entries").
				WithType(ErrTypeInconsistentTree).
				WithTag("node_id", n.id).
				WithTag("entries", n.count)
		}
		if n.count > 0 {
			mbr := n.entries[0]
			for i := 1; i < n.count; i++ {
				mbr.Add(n.entries[i])
			}
			if mbr != n.mbr {
				return errors.New("node rectangle does not bound its entries").
					WithType(ErrTypeInconsistentTree).
					WithTag("node_id", n.id).
					WithTag("mbr", n.mbr.String()).
					WithTag("expected", mbr.String())
			}
		}
		if parentEntry != nil && *parentEntry != n.mbr {
			return errors.New("parent entry does not match node rectangle").
				WithType(ErrTypeInconsistentTree).
				WithTag("node_id", n.id).
				WithTag("entry", parentEntry.String()).
				WithTag("mbr", n.mbr.String())
		}

		for i := 0; i < n.count; i++ {
			if n.isLeaf() {
				if _, ok := t.items[n.ids[i]]; !ok {
					return errors.New("leaf entry refers to an unknown item").
						WithType(ErrTypeInconsistentTree).
						WithTag("node_id", n.id).
						WithTag("item_id", n.ids[i])
				}
				leafEntries++
				continue
			}

			child, ok := t.nodes[n.ids[i]]
			if !ok {
				return errors.New("entry refers to a missing node").
					WithType(ErrTypeInconsistentTree).
					WithTag("node_id", n.id).
					WithTag("child_node_id", n.ids[i])
			}
			if child.level != n.level-1 {
				return errors.New("child node is at the wrong level").
					WithType(ErrTypeInconsistentTree).
					WithTag("node_id", n.id).
					WithTag("level", n.level).
					WithTag("child_node_id", child.id).
					WithTag("child_level", child.level)
			}
			if err := check(child, &n.entries[i]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(root, nil); err != nil {
		return err
	}

	if len(visited) != len(t.nodes) {
		return errors.New("tree holds unreachable nodes").
			WithType(ErrTypeInconsistentTree).
			WithTag("reachable", len(visited)).
			WithTag("nodes", len(t.nodes))
	}
	if leafEntries != t.size || len(t.items) != t.size {
		return errors.New("item count mismatch").
			WithType(ErrTypeInconsistentTree).
			WithTag("leaf_entries", leafEntries).
			WithTag("items", len(t.items)).
			WithTag("count", t.size)
	}

	ids := 0
	for item, itemIDs := range t.itemIDs {
		for _, id := range itemIDs {
			if stored, ok := t.items[id]; !ok || stored != item {
				return errors.New("item id index is out of date").
					WithType(ErrTypeInconsistentTree).
					WithTag("item_id", id)
			}
		}
		ids += len(itemIDs)
	}
	if ids != len(t.items) {
		return errors.New("item id index is out of date").
			WithType(ErrTypeInconsistentTree).
			WithTag("indexed", ids).
			WithTag("items", len(t.items))
	}
	return nil
}
