package rtree

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Add inserts item into the tree, covering the rectangle r. The same item
// may be added more than once.
func (t *RTree[T]) Add(r Rect, item T) {
	id := t.nextItemID
	t.nextItemID++
	t.items[id] = item
	t.itemIDs[item] = append(t.itemIDs[item], id)

	t.add(r, id, 1)
	t.size++
	t.checkAfterChange("add")
}

// add inserts an entry into a node at the given level. Items go in at level
// 1. Higher levels are used to reinsert the entries of eliminated nodes.
func (t *RTree[T]) add(r Rect, id, level int) {
	// I1 [Find position for new record]
	n := t.chooseNode(r, level)

	// I2 [Add record to leaf node]
	var split *node
	if n.count < t.maxNodeEntries {
		n.addEntry(r, id)
	} else {
		split = t.splitNode(n, r, id)
	}

	// I3 [Propagate changes upwards]
	split = t.adjustTree(n, split)

	// I4 [Grow tree taller]
	if split != nil {
		oldRoot := t.nodes[t.rootNodeID]
		t.treeHeight++
		root := t.createNode(t.treeHeight)
		root.addEntry(split.mbr, split.id)
		root.addEntry(oldRoot.mbr, oldRoot.id)
		t.rootNodeID = root.id

		logs.WithTag("root_node_id", root.id).
			WithTag("height", t.treeHeight).
			Debug("tree grew taller")
	}
}

// chooseNode descends from the root to the node at the given level that
// needs the least enlargement to take r, recording the path on the parents
// stacks.
func (t *RTree[T]) chooseNode(r Rect, level int) *node {
	t.resetParents()
	n := t.nodes[t.rootNodeID]

	for n.level != level {
		best := 0
		bestEnlargement := n.entries[0].Enlargement(r)
		for i := 1; i < n.count; i++ {
			e := n.entries[i].Enlargement(r)
			if e < bestEnlargement ||
				// Area is used as a tie breaker if the enlargements are the same.
				(e == bestEnlargement && n.entries[i].Area() < n.entries[best].Area()) {
				best = i
				bestEnlargement = e
			}
		}

		t.pushParent(n.id, best)
		n = t.nodes[n.ids[best]]
	}
	return n
}

// adjustTree walks from n back up to the root, fixing the covering
// rectangles of the parent entries, and inserting split (the sibling created
// by splitting n, if any) into the parent. The return value is the sibling
// created by splitting the root, or nil.
func (t *RTree[T]) adjustTree(n, split *node) *node {
	for n.level != t.treeHeight {
		parentID, entry := t.popParent()
		parent := t.nodes[parentID]

		if err := checkParentEntry(parent, entry, n); err != nil {
			logs.WithTag("node_id", n.id).Error(err)
		}

		// AT3 [Adjust covering rectangle in parent entry]
		if parent.entries[entry] != n.mbr {
			parent.entries[entry] = n.mbr
			parent.calculateMBR()
		}

		// AT4 [Propagate node split upward]
		var parentSplit *node
		if split != nil {
			if parent.count < t.maxNodeEntries {
				parent.addEntry(split.mbr, split.id)
			} else {
				parentSplit = t.splitNode(parent, split.mbr, split.id)
			}
		}

		// AT5 [Move up to next level]
		n, split = parent, parentSplit
	}
	return split
}

// checkParentEntry reports an error when the entry of parent that was
// followed to reach n doesn't point to n.
func checkParentEntry(parent *node, entry int, n *node) error {
	if parent.ids[entry] == n.id {
		return nil
	}
	return errors.New("parent entry points to the wrong node").
		WithType(ErrTypeInconsistentTree).
		WithTag("parent_node_id", parent.id).
		WithTag("entry", entry).
		WithTag("expected_node_id", n.id).
		WithTag("actual_node_id", parent.ids[entry])
}

// splitNode divides the entries of the full node n, plus the new entry
// (r, id), between n and a newly created sibling, which is returned.
func (t *RTree[T]) splitNode(n *node, r Rect, id int) *node {
	for i := range t.entryStatus {
		t.entryStatus[i] = false
	}

	sibling := t.createNode(n.level)

	// QS1 [Pick first entry for each group]
	t.pickSeeds(n, r, id, sibling)

	// QS2 [Check if done]
	for n.count+sibling.count < t.maxNodeEntries+1 {
		if t.maxNodeEntries+1-sibling.count == t.minNodeEntries {
			// Every remaining entry is needed to fill n.
			for i := 0; i < t.maxNodeEntries; i++ {
				if !t.entryStatus[i] {
					t.entryStatus[i] = true
					n.mbr.Add(n.entries[i])
					n.count++
				}
			}
			break
		}
		if t.maxNodeEntries+1-n.count == t.minNodeEntries {
			// Every remaining entry is needed to fill the sibling.
			for i := 0; i < t.maxNodeEntries; i++ {
				if !t.entryStatus[i] {
					t.entryStatus[i] = true
					sibling.addEntry(n.entries[i], n.ids[i])
					n.ids[i] = unused
				}
			}
			break
		}

		// QS3 [Select entry to assign]
		t.pickNext(n, sibling)
	}

	n.reorganize()
	return sibling
}

// pickSeeds chooses the first entry of each group: along every dimension,
// the entry with the highest low side and the one with the lowest high side
// are found, and the pair with the greatest separation (normalised by the
// width of the whole set) is used, even when every pair overlaps. The new entry takes part as a candidate.
// On return n holds only its seed, and the sibling holds its own.
func (t *RTree[T]) pickSeeds(n *node, r Rect, id int, sibling *node) {
	// The new rectangle is included when measuring the width of the set.
	n.mbr.Add(r)

	// Slot 0 and the new rectangle are the seeds when every dimension is
	// degenerate.
	var (
		maxSeparation = math.Inf(-1)
		highestLow    = 0
		lowestHigh    = 0
	)
	for d := 0; d < Dimensions; d++ {
		// -1 stands for the new rectangle.
		tempHighestLow, tempHighestLowIndex := r.Min[d], -1
		tempLowestHigh, tempLowestHighIndex := r.Max[d], -1

		for i := 0; i < n.count; i++ {
			low := n.entries[i].Min[d]
			if low >= tempHighestLow {
				tempHighestLow, tempHighestLowIndex = low, i
				// The same entry can't also be the lowest high.
				continue
			}
			if high := n.entries[i].Max[d]; high <= tempLowestHigh {
				tempLowestHigh, tempLowestHighIndex = high, i
			}
		}

		if tempHighestLowIndex == -1 && tempLowestHighIndex == -1 {
			// The new rectangle can't seed both groups.
			tempLowestHigh, tempLowestHighIndex = n.entries[0].Max[d], 0
			for i := 1; i < n.count; i++ {
				if high := n.entries[i].Max[d]; high <= tempLowestHigh {
					tempLowestHigh, tempLowestHighIndex = high, i
				}
			}
		}

		width := n.mbr.Max[d] - n.mbr.Min[d]
		if width <= 0 {
			continue
		}
		separation := (tempHighestLow - tempLowestHigh) / width
		if separation > maxSeparation {
			maxSeparation = separation
			highestLow = tempHighestLowIndex
			lowestHigh = tempLowestHighIndex
		}
	}

	// The highest low seeds the sibling.
	if highestLow == -1 {
		sibling.addEntry(r, id)
	} else {
		sibling.addEntry(n.entries[highestLow], n.ids[highestLow])
		// The new entry takes the slot freed by the sibling's seed.
		n.entries[highestLow] = r
		n.ids[highestLow] = id
	}

	// The lowest high seeds n. If it was the new entry, that now lives where
	// the sibling's seed used to be.
	if lowestHigh == -1 {
		lowestHigh = highestLow
	}
	t.entryStatus[lowestHigh] = true
	n.count = 1
	n.mbr = n.entries[lowestHigh]
}

// pickNext assigns one more entry to a group. The entry chosen is the one
// with the greatest preference for one group over the other, and it goes to
// the group whose rectangle needs the least enlargement. Ties go to the
// group with the smaller area, then the one with fewer entries, then n.
func (t *RTree[T]) pickNext(n, sibling *node) {
	maxDifference := math.Inf(-1)
	next := -1
	toSibling := false

	for i := 0; i < t.maxNodeEntries; i++ {
		if t.entryStatus[i] {
			continue
		}

		nIncrease := n.mbr.Enlargement(n.entries[i])
		siblingIncrease := sibling.mbr.Enlargement(n.entries[i])
		difference := math.Abs(nIncrease - siblingIncrease)
		if difference <= maxDifference {
			continue
		}

		next = i
		maxDifference = difference
		switch {
		case nIncrease < siblingIncrease:
			toSibling = false
		case siblingIncrease < nIncrease:
			toSibling = true
		case n.mbr.Area() < sibling.mbr.Area():
			toSibling = false
		case sibling.mbr.Area() < n.mbr.Area():
			toSibling = true
		case sibling.count < n.count:
			toSibling = true
		default:
			toSibling = false
		}
	}

	t.entryStatus[next] = true
	if toSibling {
		sibling.addEntry(n.entries[next], n.ids[next])
		n.ids[next] = unused
	} else {
		n.mbr.Add(n.entries[next])
		n.count++
	}
}
