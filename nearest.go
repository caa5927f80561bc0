package rtree

// Nearest returns the items nearest to p, provided they are no further than
// furthestDistance away. Every item tied for the nearest distance is
// returned.
func (t *RTree[T]) Nearest(p Point, furthestDistance float64) []T {
	var items []T
	t.NearestFunc(p, furthestDistance, func(item T) bool {
		items = append(items, item)
		return true
	})
	return items
}

// NearestFunc calls fn for each item tied for the nearest distance to p,
// stopping early if fn returns false. Items further than furthestDistance
// away are never reported.
func (t *RTree[T]) NearestFunc(p Point, furthestDistance float64, fn func(item T) bool) {
	for _, id := range t.nearest(p, furthestDistance) {
		if !fn(t.items[id]) {
			return
		}
	}
}

type nodeDistance struct {
	nodeID   int
	distance float64
}

// nearest is a branch and bound search. The bound starts at furthestDistance
// and shrinks as closer leaf entries are found, and subtrees further away
// than the bound are skipped.
func (t *RTree[T]) nearest(p Point, furthestDistance float64) []int {
	var (
		nearestDistance = furthestDistance
		nearestIDs      []int
		stack           = []nodeDistance{{nodeID: t.rootNodeID}}
	)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.distance > nearestDistance {
			// The bound shrank since the node was queued.
			continue
		}

		n := t.nodes[top.nodeID]
		for i := 0; i < n.count; i++ {
			d := n.entries[i].Distance(p)
			if !n.isLeaf() {
				if d <= nearestDistance {
					stack = append(stack, nodeDistance{nodeID: n.ids[i], distance: d})
				}
				continue
			}

			if d < nearestDistance {
				nearestDistance = d
				nearestIDs = nearestIDs[:0]
			}
			if d <= nearestDistance {
				nearestIDs = append(nearestIDs, n.ids[i])
			}
		}
	}
	return nearestIDs
}
