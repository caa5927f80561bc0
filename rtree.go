// Package rtree is an in-memory R-Tree over 3D axis-aligned bounding boxes,
// following Guttman's original algorithms for insertion, node splitting and
// deletion.
package rtree

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Version is the version of the index implementation.
const Version = "1.0.0"

const (
	// DefaultMaxNodeEntries is the node capacity used when none is given.
	DefaultMaxNodeEntries = 10

	// DefaultMinNodeEntries is the minimum node fill used when none is
	// given.
	DefaultMinNodeEntries = DefaultMaxNodeEntries / 2
)

// RTree is an R-Tree holding items of type T. Items are identified by a
// synthetic id assigned on Add, so equal items added twice are stored as two
// separate entries.
//
// An RTree is not safe for concurrent use.
type RTree[T comparable] struct {
	maxNodeEntries int
	minNodeEntries int
	checkOnChange  bool

	nodes      map[int]*node
	rootNodeID int
	treeHeight int

	// freeNodeIDs holds the ids of deleted nodes, which are handed out again
	// before a new id is minted.
	freeNodeIDs   []int
	highestNodeID int
	nextItemID    int
	items         map[int]T
	itemIDs       map[T][]int
	size          int

	// parents and parentsEntry record the path taken by chooseNode and
	// findLeaf, so that changes can be propagated back up the tree.
	parents      []int
	parentsEntry []int

	// entryStatus is scratch space for splitNode.
	entryStatus []bool
}

// Option configures an RTree.
type Option func(*options)

type options struct {
	maxNodeEntries int
	minNodeEntries int
	checkOnChange  bool
}

// WithNodeEntries sets the maximum and minimum number of entries per node.
// A maximum below 2 falls back to DefaultMaxNodeEntries, and a minimum below
// 1 or above half the maximum falls back to half the maximum.
func WithNodeEntries(maxEntries, minEntries int) Option {
	return func(o *options) {
		o.maxNodeEntries = maxEntries
		o.minNodeEntries = minEntries
	}
}

// WithConsistencyChecks makes the tree verify its invariants after every Add
// and Delete, logging any inconsistency found. This is slow and meant for
// debugging.
func WithConsistencyChecks() Option {
	return func(o *options) {
		o.checkOnChange = true
	}
}

// New creates an empty RTree.
func New[T comparable](opts ...Option) *RTree[T] {
	o := options{
		maxNodeEntries: DefaultMaxNodeEntries,
		minNodeEntries: DefaultMinNodeEntries,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.maxNodeEntries < 2 {
		logs.WithTag("max_node_entries", o.maxNodeEntries).
			WithTag("default", DefaultMaxNodeEntries).
			Warn("invalid max node entries, using default")
		o.maxNodeEntries = DefaultMaxNodeEntries
	}
	if o.minNodeEntries < 1 || o.minNodeEntries > o.maxNodeEntries/2 {
		logs.WithTag("min_node_entries", o.minNodeEntries).
			WithTag("default", o.maxNodeEntries/2).
			Warn("invalid min node entries, using half of max node entries")
		o.minNodeEntries = o.maxNodeEntries / 2
	}

	t := &RTree[T]{
		maxNodeEntries: o.maxNodeEntries,
		minNodeEntries: o.minNodeEntries,
		checkOnChange:  o.checkOnChange,
		nodes:          make(map[int]*node),
		treeHeight:     1,
		items:          make(map[int]T),
		itemIDs:        make(map[T][]int),
		entryStatus:    make([]bool, o.maxNodeEntries),
	}
	root := newNode(t.rootNodeID, 1, t.maxNodeEntries)
	t.nodes[root.id] = root
	return t
}

// Count returns the number of items in the tree.
func (t *RTree[T]) Count() int {
	return t.size
}

// Height returns the number of levels in the tree. A tree whose root is a
// leaf has height 1.
func (t *RTree[T]) Height() int {
	return t.treeHeight
}

// Bounds returns the smallest rectangle covering every item in the tree. The
// bool is false when the tree is empty.
func (t *RTree[T]) Bounds() (Rect, bool) {
	root := t.nodes[t.rootNodeID]
	if root == nil || root.count == 0 {
		return Rect{}, false
	}
	return root.mbr, true
}

// RootNodeID returns the id of the root node.
func (t *RTree[T]) RootNodeID() int {
	return t.rootNodeID
}

// Version identifies the index implementation.
func (t *RTree[T]) Version() string {
	return "rtree-" + Version
}

// Stats describes the shape of a tree.
type Stats struct {
	Items  int
	Height int
	Nodes  int
	Leaves int
}

// Stats returns the current shape of the tree.
func (t *RTree[T]) Stats() Stats {
	s := Stats{
		Items:  t.size,
		Height: t.treeHeight,
		Nodes:  len(t.nodes),
	}
	for _, n := range t.nodes {
		if n.isLeaf() {
			s.Leaves++
		}
	}
	return s
}

func (t *RTree[T]) nextNodeID() int {
	if n := len(t.freeNodeIDs); n > 0 {
		id := t.freeNodeIDs[n-1]
		t.freeNodeIDs = t.freeNodeIDs[:n-1]
		return id
	}
	t.highestNodeID++
	return t.highestNodeID
}

func (t *RTree[T]) createNode(level int) *node {
	n := newNode(t.nextNodeID(), level, t.maxNodeEntries)
	t.nodes[n.id] = n
	return n
}

func (t *RTree[T]) deleteNode(id int) {
	delete(t.nodes, id)
	t.freeNodeIDs = append(t.freeNodeIDs, id)
}

func (t *RTree[T]) pushParent(nodeID, entry int) {
	t.parents = append(t.parents, nodeID)
	t.parentsEntry = append(t.parentsEntry, entry)
}

func (t *RTree[T]) popParent() (nodeID, entry int) {
	last := len(t.parents) - 1
	nodeID, entry = t.parents[last], t.parentsEntry[last]
	t.parents = t.parents[:last]
	t.parentsEntry = t.parentsEntry[:last]
	return nodeID, entry
}

func (t *RTree[T]) resetParents() {
	t.parents = t.parents[:0]
	t.parentsEntry = t.parentsEntry[:0]
}

func (t *RTree[T]) checkAfterChange(op string) {
	if !t.checkOnChange {
		return
	}
	if err := t.Check(); err != nil {
		logs.WithTag("operation", op).Error(err)
	}
}
