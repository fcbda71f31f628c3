package field

import "sync"

// defaultParallelThreshold is the minimum particle count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const defaultParallelThreshold = 16384

// workChunk represents a range of particles for a worker to step.
type workChunk struct {
	grid       *Grid
	start, end int
	attractor  Point
	radius     float64
}

// workerPool steps disjoint particle ranges on persistent goroutines.
type workerPool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers int) *workerPool {
	return &workerPool{numWorkers: numWorkers}
}

// start launches the worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.grid.stepRange(chunk.start, chunk.end, chunk.attractor, chunk.radius)
			p.doneChan <- struct{}{}
		}
	}
}

// step splits the grid into one chunk per worker and blocks until all are done.
func (p *workerPool) step(g *Grid, a Point, radius float64) {
	p.start()

	n := g.Len()
	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	sent := 0
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		p.workChan <- workChunk{grid: g, start: start, end: end, attractor: a, radius: radius}
		sent++
	}
	for i := 0; i < sent; i++ {
		<-p.doneChan
	}
}
