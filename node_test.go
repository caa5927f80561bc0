package rtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeAddEntry(t *testing.T) {
	n := newNode(1, 1, 4)
	require.True(t, n.isLeaf())

	n.addEntry(R(1, 1, 1, 2, 2, 2), 10)
	require.Equal(t, R(1, 1, 1, 2, 2, 2), n.mbr)

	n.addEntry(R(0, 3, 0, 1, 4, 1), 11)
	require.Equal(t, 2, n.count)
	require.Equal(t, R(0, 1, 0, 2, 4, 2), n.mbr)
	require.Equal(t, 1, n.findEntry(R(0, 3, 0, 1, 4, 1), 11))
	require.Equal(t, -1, n.findEntry(R(0, 3, 0, 1, 4, 1), 10))
	require.Equal(t, -1, n.findEntry(R(0, 0, 0, 1, 4, 1), 11))
}

func TestNodeDeleteEntry(t *testing.T) {
	n := newNode(1, 1, 4)
	n.addEntry(R(0, 0, 0, 1, 1, 1), 0)
	n.addEntry(R(2, 2, 2, 3, 3, 3), 1)
	n.addEntry(R(0.5, 0.5, 0.5, 0.6, 0.6, 0.6), 2)

	// The last entry moves into the freed slot.
	n.deleteEntry(1, 1)
	require.Equal(t, 2, n.count)
	require.Equal(t, []int{0, 2, unused, unused}, n.ids)
	require.Equal(t, R(0, 0, 0, 1, 1, 1), n.mbr)

	// Deleting an entry strictly inside the rectangle leaves it alone.
	n.deleteEntry(1, 1)
	require.Equal(t, 1, n.count)
	require.Equal(t, R(0, 0, 0, 1, 1, 1), n.mbr)
}

func TestNodeDeleteEntryBelowMinimum(t *testing.T) {
	n := newNode(1, 1, 4)
	n.addEntry(R(0, 0, 0, 1, 1, 1), 0)
	n.addEntry(R(2, 2, 2, 3, 3, 3), 1)

	// Nodes about to be eliminated don't have their rectangle updated.
	n.deleteEntry(1, 2)
	require.Equal(t, 1, n.count)
	require.Equal(t, R(0, 0, 0, 3, 3, 3), n.mbr)
}

func TestNodeReorganize(t *testing.T) {
	n := newNode(1, 1, 5)
	for i := 0; i < 5; i++ {
		n.addEntry(R(float64(i), 0, 0, float64(i), 0, 0), i)
	}
	n.ids[0] = unused
	n.ids[2] = unused
	n.count = 3

	n.reorganize()
	require.ElementsMatch(t, []int{1, 3, 4}, n.ids[:3])
	require.Equal(t, []int{unused, unused}, n.ids[3:])
	for i := 0; i < n.count; i++ {
		require.Equal(t, float64(n.ids[i]), n.entries[i].Min[0])
	}
}
