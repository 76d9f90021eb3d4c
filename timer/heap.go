package timer

import "github.com/quantix/backtest/models"

// entry is one scheduling-queue slot: the next instant a timer id is
// due to fire. A stale entry whose id no longer resolves to a live
// timer is detected by map lookup miss and dropped.
type entry struct {
	instant models.Datetime
	id      int
}

// timerHeap is a min-heap on entry.instant, implementing
// container/heap.Interface.
type timerHeap []entry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].instant.Equal(h[j].instant) {
		return h[i].id < h[j].id
	}
	return h[i].instant.Before(h[j].instant)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x interface{}) {
	*h = append(*h, x.(entry))
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
