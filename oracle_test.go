package rtree_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/acadlib/rtree"
	"github.com/dhconnelly/rtreego"
	"github.com/stretchr/testify/require"
)

type spatialItem struct {
	id     int
	bounds rtreego.Rect
}

func (s *spatialItem) Bounds() rtreego.Rect {
	return s.bounds
}

func toRtreego(t *testing.T, r rtree.Rect) rtreego.Rect {
	rect, err := rtreego.NewRectFromPoints(r.Min[:], r.Max[:])
	require.NoError(t, err)
	return rect
}

// TestIntersectsMatchesRtreego compares intersection queries against an
// independent R-tree implementation, through a sequence of adds and deletes.
func TestIntersectsMatchesRtreego(t *testing.T) {
	for _, population := range []int{10, 100, 1000} {
		t.Run(fmt.Sprintf("pop_%d", population), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(0))
			ours := rtree.New[int](rtree.WithNodeEntries(8, 3))
			theirs := rtreego.NewTree(rtree.Dimensions, 3, 8)

			rects := make([]rtree.Rect, population)
			items := make([]*spatialItem, population)
			for i := range rects {
				rects[i] = randomOracleBox(rnd)
				items[i] = &spatialItem{id: i, bounds: toRtreego(t, rects[i])}
				ours.Add(rects[i], i)
				theirs.Insert(items[i])
			}

			compare := func() {
				for q := 0; q < 20; q++ {
					query := randomOracleBox(rnd)

					got := ours.Intersects(query)
					sort.Ints(got)

					var want []int
					for _, s := range theirs.SearchIntersect(toRtreego(t, query)) {
						want = append(want, s.(*spatialItem).id)
					}
					sort.Ints(want)

					require.Equal(t, len(want), len(got), "query %v", query)
					if len(want) > 0 {
						require.Equal(t, want, got, "query %v", query)
					}
				}
			}
			compare()

			for _, i := range rnd.Perm(population)[:population/2] {
				require.True(t, ours.Delete(rects[i], i))
				require.True(t, theirs.Delete(items[i]))
			}
			require.Equal(t, theirs.Size(), ours.Count())
			require.NoError(t, ours.Check())
			compare()
		})
	}
}

// randomOracleBox returns a box with unrounded coordinates, so that boxes
// never share an edge and strict and inclusive intersection tests agree.
func randomOracleBox(rnd *rand.Rand) rtree.Rect {
	var r rtree.Rect
	for d := 0; d < rtree.Dimensions; d++ {
		r.Min[d] = rnd.Float64() * 0.9
		r.Max[d] = r.Min[d] + 0.001 + rnd.Float64()*0.2
	}
	return r
}
