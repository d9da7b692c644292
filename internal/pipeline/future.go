package pipeline

import "sync"

// Future is a write-once handle carrying a worker's item count or its failure.
// Exactly one of Resolve or Fail takes effect; later calls are ignored.
type Future struct {
	once  sync.Once
	done  chan struct{}
	count int
	err   error
}

// NewFuture returns an unresolved future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve completes the future with count. It reports whether this call won.
func (f *Future) Resolve(count int) bool {
	return f.complete(count, nil)
}

// Fail completes the future with err. It reports whether this call won.
func (f *Future) Fail(err error) bool {
	return f.complete(0, err)
}

func (f *Future) complete(count int, err error) bool {
	won := false
	f.once.Do(func() {
		f.count = count
		f.err = err
		won = true
		close(f.done)
	})
	return won
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future is resolved.
func (f *Future) Wait() (int, error) {
	<-f.done
	return f.count, f.err
}
