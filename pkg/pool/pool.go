package pool

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of goroutines used when parallelizing expensive work,
// such as safe prime search or the independent iterations of a zero-knowledge proof.
//
// Functions needing a *Pool work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
type Pool struct {
	workerCount int
	// closed is set by TearDown, after which the pool runs work inline.
	closed atomic.Bool
}

// NewPool returns a pool running at most count goroutines, or one per CPU when count <= 0.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	return &Pool{workerCount: count}
}

// TearDown releases the pool. Later calls run on the current goroutine.
func (p *Pool) TearDown() {
	if p != nil {
		p.closed.Store(true)
	}
}

func (p *Pool) inline() bool {
	return p == nil || p.closed.Load() || p.workerCount == 1
}

// Search calls f until it has returned count non-nil values, and returns them.
// Each call of f tries a single candidate and returns nil on failure.
func (p *Pool) Search(count int, f func() interface{}) []interface{} {
	results := make([]interface{}, count)
	if p.inline() {
		for i := range results {
			for results[i] == nil {
				results[i] = f()
			}
		}
		return results
	}

	remaining := int64(count)
	var g errgroup.Group
	for w := 0; w < p.workerCount; w++ {
		g.Go(func() error {
			for atomic.LoadInt64(&remaining) > 0 {
				res := f()
				if res == nil {
					continue
				}
				i := atomic.AddInt64(&remaining, -1)
				if i < 0 {
					break
				}
				results[i] = res
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Parallelize returns [f(0), …, f(count-1)], evaluated on the pool.
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	results := make([]interface{}, count)
	if p.inline() {
		for i := range results {
			results[i] = f(i)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.workerCount)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			results[i] = f(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// LockedReader serializes reads from an io.Reader shared by workers.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader wraps r.
func NewLockedReader(r io.Reader) *LockedReader {
	return &LockedReader{reader: r}
}

func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
