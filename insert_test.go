package rtree

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func cube(lo, hi float64) Rect {
	return R(lo, lo, lo, hi, hi, hi)
}

// seeds runs pickSeeds on the full root of rt and returns the item ids that
// seed the root and its new sibling.
func seeds(t *testing.T, rt *RTree[int], r Rect, id int) (nSeed, siblingSeed int) {
	t.Helper()

	n := rt.nodes[rt.RootNodeID()]
	require.Equal(t, rt.maxNodeEntries, n.count)
	sibling := rt.createNode(n.level)
	rt.pickSeeds(n, r, id, sibling)

	require.Equal(t, 1, n.count)
	require.Equal(t, 1, sibling.count)
	nSeed = -1
	for i, assigned := range rt.entryStatus {
		if assigned {
			require.Equal(t, -1, nSeed, "more than one seed for n")
			nSeed = n.ids[i]
			require.Equal(t, n.entries[i], n.mbr)
		}
	}
	return nSeed, sibling.ids[0]
}

func TestPickSeedsOverlapping(t *testing.T) {
	rt := New[int](WithNodeEntries(4, 1))
	rt.Add(cube(4, 6), 0)
	rt.Add(cube(0, 5), 1)
	rt.Add(cube(4.5, 5.5), 2)
	rt.Add(cube(5, 10), 3)

	// Every box overlaps the others, so the separations are all zero or
	// less. The low and high boxes are still the furthest apart.
	nSeed, siblingSeed := seeds(t, rt, cube(4.9, 5.1), 99)
	require.Equal(t, 1, nSeed)
	require.Equal(t, 3, siblingSeed)
}

func TestPickSeedsNewRectInside(t *testing.T) {
	rt := New[int](WithNodeEntries(4, 1))
	for i := 0; i < 4; i++ {
		rt.Add(cube(0, 10), i)
	}

	// The new rectangle has both the highest low and the lowest high side,
	// so the other seed is taken from the existing entries.
	nSeed, siblingSeed := seeds(t, rt, cube(5, 5), 99)
	require.Equal(t, 99, siblingSeed)
	require.Equal(t, 3, nSeed)
}

func TestSplitOverlapping(t *testing.T) {
	rt := New[int](WithNodeEntries(4, 1))
	rt.Add(cube(4, 6), 0)
	rt.Add(cube(0, 5), 1)
	rt.Add(cube(4.5, 5.5), 2)
	rt.Add(cube(5, 10), 3)
	rt.Add(cube(4.9, 5.1), 99)
	checkInvariants(t, rt)
	require.Equal(t, 2, rt.Height())

	leafOf := func(id int) int {
		for _, n := range rt.nodes {
			if !n.isLeaf() {
				continue
			}
			for i := 0; i < n.count; i++ {
				if n.ids[i] == id {
					return n.id
				}
			}
		}
		return -1
	}
	// Items were added in id order starting at zero, so the item ids match
	// the payloads of the first four.
	require.NotEqual(t, leafOf(1), leafOf(3))
}

func TestCheckParentEntry(t *testing.T) {
	parent := newNode(0, 2, 4)
	parent.addEntry(cube(0, 1), 7)
	child := newNode(7, 1, 4)
	other := newNode(8, 1, 4)

	require.NoError(t, checkParentEntry(parent, 0, child))

	err := checkParentEntry(parent, 0, other)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeInconsistentTree))
}
