package observe

import (
	"sync"

	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Region is a rendering area whose host reports size changes.
//
// Observe registers fn for size notifications and returns a function that
// releases the observation. Release must be safe to call more than once.
type Region interface {
	Observe(fn func(grid.Size)) (release func())
}

// Feed is a Region driven by its host: every Notify call is forwarded to the
// current listeners. A new listener immediately receives the last notified
// size, if any, the way a ResizeObserver reports the initial size of a newly
// observed element.
type Feed struct {
	mu        sync.Mutex
	listeners map[uint64]func(grid.Size)
	next      uint64
	last      grid.Size
	hasLast   bool
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{listeners: make(map[uint64]func(grid.Size))}
}

// Observe implements Region.
func (f *Feed) Observe(fn func(grid.Size)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	last, hasLast := f.last, f.hasLast
	f.mu.Unlock()

	if hasLast {
		fn(last)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// Notify reports a new size to every listener.
func (f *Feed) Notify(size grid.Size) {
	f.mu.Lock()
	f.last, f.hasLast = size, true
	fns := make([]func(grid.Size), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(size)
	}
}

// Listeners returns the number of active observations.
func (f *Feed) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// ChanRegion returns a Region fed from ch. Each observation runs a goroutine
// that forwards sizes until ch is closed or the observation is released.
func ChanRegion(ch <-chan grid.Size) Region {
	return chanRegion{ch: ch}
}

type chanRegion struct {
	ch <-chan grid.Size
}

func (r chanRegion) Observe(fn func(grid.Size)) func() {
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case size, ok := <-r.ch:
				if !ok {
					return
				}
				fn(size)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
