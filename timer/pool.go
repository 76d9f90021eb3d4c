package timer

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// workerPool executes timer callbacks off the detector goroutine, so a
// slow or panicking callback never stalls scheduling.
type workerPool struct {
	size   int
	jobs   chan func()
	wg     sync.WaitGroup
	stopCh chan struct{}
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}
	return &workerPool{size: size, jobs: make(chan func(), 64)}
}

func (p *workerPool) start() {
	p.stopCh = make(chan struct{})
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			runJob(job)
		case <-p.stopCh:
			return
		}
	}
}

// submit hands a callback to the pool without blocking the caller
// (the detector goroutine): if every worker is busy and the queue is
// full, a transient goroutine runs the callback instead of stalling
// the scheduler.
func (p *workerPool) submit(job func()) {
	select {
	case p.jobs <- job:
	default:
		go runJob(job)
	}
}

func (p *workerPool) stop() {
	close(p.stopCh)
	p.wg.Wait()
}

// runJob isolates one callback invocation: a panic is caught and
// logged, never propagated to the detector.
func runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("timer: callback panicked")
		}
	}()
	job()
}
