package timer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/quantix/backtest/models"
	"golang.org/x/exp/slices"
)

// timerState is the live, mutable record for one submitted Spec: the
// original spec plus however many firings remain.
type timerState struct {
	spec      Spec
	remaining int
}

// Scheduler is a timer scheduler: a min-heap keyed on next-fire
// instant, served by one detector goroutine, with callbacks dispatched
// onto a worker pool. Mutable state is guarded by a single mutex; the
// detector's condition-variable wait is emulated with a buffered "wake"
// channel signalled by a non-blocking send, combined with a timed wait
// via time.Timer since Go has no native condition variable.
type Scheduler struct {
	mu      sync.Mutex
	heap    timerHeap
	timers  map[int]*timerState
	nextID  int
	running bool
	wake    chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup
	pool    *workerPool
	now     func() time.Time
}

// NewScheduler builds a Scheduler with workers callback goroutines.
// The scheduler is created stopped; call Start to begin serving timers.
func NewScheduler(workers int) *Scheduler {
	return &Scheduler{
		timers: make(map[int]*timerState),
		pool:   newWorkerPool(workers),
		now:    time.Now,
	}
}

// WithClock overrides the scheduler's notion of the current time, for
// deterministic tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// AddFunc submits a validated Spec and returns its id. If the scheduler
// is already running, the timer is scheduled immediately per the same
// initial-instant snapping Start applies at startup; otherwise it is
// picked up the next time Start runs.
func (s *Scheduler) AddFunc(spec Spec) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.allocateIDLocked()
	if err != nil {
		return 0, err
	}
	s.timers[id] = &timerState{spec: spec, remaining: spec.RepeatNum}

	if s.running {
		instant := snapInitial(models.NewDatetime(s.now()), spec)
		if instant.After(windowEnd(spec)) {
			delete(s.timers, id)
			return id, nil
		}
		heap.Push(&s.heap, entry{instant: instant, id: id})
		s.signalLocked()
	}
	return id, nil
}

// Remove cancels a timer. A heap entry for it that later surfaces is
// detected by lookup miss in the detector and discarded.
func (s *Scheduler) Remove(id int) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()
}

// Start idempotently transitions the scheduler from stopped to
// running: it rebuilds the heap from every live timer (dropping ones
// already past their window), then spawns the detector goroutine and
// the worker pool.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.wake = make(chan struct{}, 1)

	now := models.NewDatetime(s.now())
	s.heap = s.heap[:0]

	ids := make([]int, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		ts := s.timers[id]
		instant := snapInitial(now, ts.spec)
		if instant.After(windowEnd(ts.spec)) {
			delete(s.timers, id)
			continue
		}
		heap.Push(&s.heap, entry{instant: instant, id: id})
	}
	s.mu.Unlock()

	s.pool.start()
	s.wg.Add(1)
	go s.detect()
}

// Stop clears the heap and wakes the detector, which exits once its
// current wait returns; already-dispatched callbacks run to completion.
// Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.heap = s.heap[:0]
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.pool.stop()
}

func (s *Scheduler) signalLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// allocateIDLocked assigns the next free id, wrapping at the sentinel
// max and probing forward for the first unused slot on wraparound.
// Callers must hold s.mu.
func (s *Scheduler) allocateIDLocked() (int, error) {
	if len(s.timers) >= RepeatInfinite-1 {
		return 0, ErrIDSpaceExhausted
	}
	start := s.nextID
	for {
		id := s.nextID
		s.nextID++
		if s.nextID < 0 {
			s.nextID = 0
		}
		if _, exists := s.timers[id]; !exists {
			return id, nil
		}
		if s.nextID == start {
			return 0, ErrIDSpaceExhausted
		}
	}
}

// detect is the single detector goroutine: it owns the heap, peeking
// the earliest entry and either waiting for it or dispatching it.
func (s *Scheduler) detect() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(s.heap) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.stopCh:
				return
			}
		}

		head := s.heap[0]
		diff := head.instant.Sub(models.NewDatetime(s.now())).Duration()
		if diff > 0 {
			s.mu.Unlock()
			t := time.NewTimer(diff)
			select {
			case <-t.C:
			case <-s.wake:
				t.Stop()
			case <-s.stopCh:
				t.Stop()
				return
			}
			continue
		}

		heap.Pop(&s.heap)
		ts, ok := s.timers[head.id]
		if !ok {
			s.mu.Unlock()
			continue
		}

		s.pool.submit(ts.spec.Callback)
		s.rescheduleLocked(head.id, head.instant, ts)
		s.mu.Unlock()
	}
}

// rescheduleLocked applies the post-fire bookkeeping: decrement the
// repeat counter, compute the next instant, and either delete the timer
// (exhausted, or past its overall window) or push it back with any
// daily-window rollover applied. Callers must hold s.mu.
func (s *Scheduler) rescheduleLocked(id int, fired models.Datetime, ts *timerState) {
	if ts.spec.RepeatNum != RepeatInfinite {
		ts.remaining--
		if ts.remaining <= 0 {
			delete(s.timers, id)
			return
		}
	}

	next := fired.Add(models.NewTimeDelta(ts.spec.Duration))
	if next.After(windowEnd(ts.spec)) {
		delete(s.timers, id)
		return
	}

	if ts.spec.StartTime != ts.spec.EndTime {
		todEnd := fired.StartOfDay().Add(ts.spec.EndTime)
		if next.After(todEnd) {
			nextDayStart := fired.StartOfDay().Add(models.NewTimeDelta(24 * time.Hour)).Add(ts.spec.StartTime)
			next = nextDayStart.Add(models.NewTimeDelta(time.Microsecond))
		}
	}

	heap.Push(&s.heap, entry{instant: next, id: id})
}

// windowEnd is the overall instant beyond which a timer is retired.
func windowEnd(spec Spec) models.Datetime {
	return spec.EndDate.StartOfDay().Add(spec.EndTime)
}

// snapInitial computes the first fire instant for a timer becoming
// active at now: the naive now+duration instant is snapped into the
// daily window, shifted up to today's start if early, rolled to
// tomorrow's start if late, or rounded up to the next
// start_time + k*duration slot otherwise.
func snapInitial(now models.Datetime, spec Spec) models.Datetime {
	first := now.Add(models.NewTimeDelta(spec.Duration))
	todayStart := first.StartOfDay()
	winStart := todayStart.Add(spec.StartTime)
	winEnd := todayStart.Add(spec.EndTime)

	tod := first.TimeOfDay()
	switch {
	case tod < spec.StartTime:
		return winStart
	case tod > spec.EndTime:
		nextDayStart := todayStart.Add(models.NewTimeDelta(24 * time.Hour)).Add(spec.StartTime)
		return nextDayStart.Add(models.NewTimeDelta(time.Microsecond))
	default:
		elapsed := first.Sub(winStart).Duration()
		k := elapsed / spec.Duration
		if elapsed%spec.Duration != 0 {
			k++
		}
		slot := winStart.Add(models.NewTimeDelta(time.Duration(k) * spec.Duration))
		if slot.After(winEnd) {
			nextDayStart := todayStart.Add(models.NewTimeDelta(24 * time.Hour)).Add(spec.StartTime)
			return nextDayStart.Add(models.NewTimeDelta(time.Microsecond))
		}
		return slot
	}
}
