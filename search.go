package rtree

// Intersects returns the items whose rectangles intersect r.
func (t *RTree[T]) Intersects(r Rect) []T {
	var items []T
	t.IntersectsFunc(r, func(item T) bool {
		items = append(items, item)
		return true
	})
	return items
}

// IntersectsFunc calls fn for each item whose rectangle intersects r. The
// search stops early if fn returns false.
func (t *RTree[T]) IntersectsFunc(r Rect, fn func(item T) bool) {
	t.search(r, fn, Rect.Intersects)
}

// Contains returns the items whose rectangles lie entirely within r.
func (t *RTree[T]) Contains(r Rect) []T {
	var items []T
	t.ContainsFunc(r, func(item T) bool {
		items = append(items, item)
		return true
	})
	return items
}

// ContainsFunc calls fn for each item whose rectangle lies entirely within
// r. The search stops early if fn returns false.
func (t *RTree[T]) ContainsFunc(r Rect, fn func(item T) bool) {
	t.search(r, fn, Rect.Contains)
}

// search walks every subtree whose rectangle intersects r, and reports the
// leaf entries for which match(r, entry) holds. A subtree can only hold
// contained entries if it intersects r, so intersection is also the right
// test for internal nodes in a containment search.
func (t *RTree[T]) search(r Rect, fn func(T) bool, match func(query, entry Rect) bool) {
	stack := []int{t.rootNodeID}
	for len(stack) > 0 {
		n := t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		for i := 0; i < n.count; i++ {
			if n.isLeaf() {
				if match(r, n.entries[i]) && !fn(t.items[n.ids[i]]) {
					return
				}
				continue
			}
			if r.Intersects(n.entries[i]) {
				stack = append(stack, n.ids[i])
			}
		}
	}
}
