package main

import (
	"sync"
	"time"

	"github.com/acadlib/rtree"
	"github.com/acadlib/rtree/dataset"
	"github.com/acadlib/rtree/metrics"
)

// index is an RTree of entry ids that can be queried while its metrics are
// scraped. An id may be indexed more than once, with one rectangle per copy.
type index struct {
	mu    sync.RWMutex
	tree  *rtree.RTree[string]
	rects map[string][]rtree.Rect
}

func newIndex(opts ...rtree.Option) *index {
	return &index{
		tree:  rtree.New[string](opts...),
		rects: make(map[string][]rtree.Rect),
	}
}

func (i *index) load(entries []dataset.Entry) error {
	for _, e := range entries {
		r, err := e.Rect()
		if err != nil {
			return err
		}
		i.add(r, e.ID)
	}
	return nil
}

func (i *index) add(r rtree.Rect, id string) {
	defer metrics.InstrumentOperation(metrics.OperationAdd, time.Now(), 1)

	i.mu.Lock()
	defer i.mu.Unlock()

	i.tree.Add(r, id)
	i.rects[id] = append(i.rects[id], r)
}

// delete removes the most recently added copy of the entry with the given id
// and reports whether there was one.
func (i *index) delete(id string) bool {
	start := time.Now()

	i.mu.Lock()
	rects := i.rects[id]
	ok := false
	if last := len(rects) - 1; last >= 0 {
		ok = i.tree.Delete(rects[last], id)
		if last == 0 {
			delete(i.rects, id)
		} else {
			i.rects[id] = rects[:last]
		}
	}
	i.mu.Unlock()

	removed := 0
	if ok {
		removed = 1
	}
	metrics.InstrumentOperation(metrics.OperationDelete, start, removed)
	return ok
}

func (i *index) intersects(r rtree.Rect) []string {
	return i.search(metrics.OperationIntersects, func() []string {
		return i.tree.Intersects(r)
	})
}

func (i *index) contains(r rtree.Rect) []string {
	return i.search(metrics.OperationContains, func() []string {
		return i.tree.Contains(r)
	})
}

func (i *index) nearest(p rtree.Point, furthestDistance float64) []string {
	return i.search(metrics.OperationNearest, func() []string {
		return i.tree.Nearest(p, furthestDistance)
	})
}

func (i *index) search(operation string, query func() []string) []string {
	start := time.Now()

	i.mu.RLock()
	ids := query()
	i.mu.RUnlock()

	metrics.InstrumentOperation(operation, start, len(ids))
	return ids
}

func (i *index) Stats() rtree.Stats {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.tree.Stats()
}

func (i *index) bounds() (rtree.Rect, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.tree.Bounds()
}
