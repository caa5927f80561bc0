package metrics

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/acadlib/rtree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	tree := rtree.New[int](rtree.WithNodeEntries(4, 2))
	for i := 0; i < 5; i++ {
		x := float64(i)
		tree.Add(rtree.R(x, x, x, x+1, x+1, x+1), i)
	}

	// Five items in nodes of four: two leaves under a new root.
	expected := `
# HELP rtree_height The number of levels in the index.
# TYPE rtree_height gauge
rtree_height{index="test"} 2
# HELP rtree_items The number of items in the index.
# TYPE rtree_items gauge
rtree_items{index="test"} 5
# HELP rtree_leaves The number of leaf nodes in the index.
# TYPE rtree_leaves gauge
rtree_leaves{index="test"} 2
# HELP rtree_nodes The number of nodes in the index.
# TYPE rtree_nodes gauge
rtree_nodes{index="test"} 3
`
	c := NewCollector("test", tree)
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	require.Equal(t, 4, testutil.CollectAndCount(c))
}

func TestCollectorReadsAtScrape(t *testing.T) {
	tree := rtree.New[string]()
	c := NewCollector("live", tree)

	expected := func(items int) string {
		return fmt.Sprintf(`
# HELP rtree_items The number of items in the index.
# TYPE rtree_items gauge
rtree_items{index="live"} %d
`, items)
	}
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected(0)), "rtree_items"))

	tree.Add(rtree.R(0, 0, 0, 1, 1, 1), "a")
	tree.Add(rtree.R(0, 0, 0, 1, 1, 1), "b")
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected(2)), "rtree_items"))
}

func TestInstrumentOperation(t *testing.T) {
	count := operationCount.WithLabelValues(OperationIntersects)
	results := operationResults.WithLabelValues(OperationIntersects)
	countBefore := testutil.ToFloat64(count)
	resultsBefore := testutil.ToFloat64(results)

	InstrumentOperation(OperationIntersects, time.Now(), 3)
	InstrumentOperation(OperationIntersects, time.Now(), 0)

	require.Equal(t, countBefore+2, testutil.ToFloat64(count))
	require.Equal(t, resultsBefore+3, testutil.ToFloat64(results))
}
