package rtree

// node is a node in the tree. Leaf nodes (level 1) hold entries for stored
// items, whose ids index the tree's item arena. Higher nodes hold entries
// for child nodes, whose ids are node ids.
type node struct {
	id    int
	level int

	// entries and ids are parallel arrays with room for maxNodeEntries
	// entries. Only [0, count) is live outside of a split.
	entries []Rect
	ids     []int
	count   int

	// mbr bounds entries [0, count).
	mbr Rect
}

// unused marks an entry slot that has been moved out of a node.
const unused = -1

func newNode(id, level, maxNodeEntries int) *node {
	n := &node{
		id:      id,
		level:   level,
		entries: make([]Rect, maxNodeEntries),
		ids:     make([]int, maxNodeEntries),
	}
	for i := range n.ids {
		n.ids[i] = unused
	}
	return n
}

func (n *node) isLeaf() bool {
	return n.level == 1
}

func (n *node) addEntry(r Rect, id int) {
	n.entries[n.count] = r
	n.ids[n.count] = id
	n.count++
	if n.count == 1 {
		n.mbr = r
	} else {
		n.mbr.Add(r)
	}
}

// deleteEntry removes entry i by moving the last entry into its slot. The
// mbr is left alone once the node drops below minNodeEntries, since such a
// node is about to be eliminated.
func (n *node) deleteEntry(i, minNodeEntries int) {
	last := n.count - 1
	deleted := n.entries[i]
	if i != last {
		n.entries[i] = n.entries[last]
		n.ids[i] = n.ids[last]
	}
	n.entries[last] = Rect{}
	n.ids[last] = unused
	n.count--

	if n.count >= minNodeEntries {
		n.recalculateMBR(deleted)
	}
}

// recalculateMBR rebuilds the mbr, but only when the removed rectangle was
// touching its edge. Anything strictly inside cannot have been defining it.
func (n *node) recalculateMBR(deleted Rect) {
	if n.count == 0 || !n.mbr.EdgeOverlaps(deleted) {
		return
	}
	n.calculateMBR()
}

func (n *node) calculateMBR() {
	n.mbr = n.entries[0]
	for i := 1; i < n.count; i++ {
		n.mbr.Add(n.entries[i])
	}
}

// findEntry returns the index of the entry with the given rectangle and id,
// or -1.
func (n *node) findEntry(r Rect, id int) int {
	for i := 0; i < n.count; i++ {
		if n.ids[i] == id && n.entries[i].Equal(r) {
			return i
		}
	}
	return -1
}

// reorganize moves the entries that survived a split into [0, count) by
// filling the holes from the back of the arrays.
func (n *node) reorganize() {
	back := len(n.ids) - 1
	for i := 0; i < n.count; i++ {
		if n.ids[i] != unused {
			continue
		}
		for n.ids[back] == unused && back > i {
			back--
		}
		n.entries[i] = n.entries[back]
		n.ids[i] = n.ids[back]
		n.entries[back] = Rect{}
		n.ids[back] = unused
	}
}
