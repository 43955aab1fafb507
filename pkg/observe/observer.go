package observe

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/observability"
)

// Snapshot is one computed layout together with the inputs it came from.
type Snapshot struct {
	// Seq increases by one for every accepted change.
	Seq uint64 `json:"seq"`

	// Count is the participant count the layout was computed for.
	Count int `json:"count"`

	// Size is the last observed container size.
	Size grid.Size `json:"size"`

	// Measured is false while Size is still the initial assumption.
	Measured bool `json:"measured"`

	Layout grid.Layout `json:"layout"`
}

// Ready reports whether the snapshot's cells are drawable.
func (s Snapshot) Ready() bool { return s.Layout.Cell.Ready() }

// Option configures an Observer.
type Option func(*Observer)

// WithInitialSize overrides the 640×360 size assumed before measurement.
func WithInitialSize(size grid.Size) Option {
	return func(o *Observer) { o.size = size }
}

// WithGap sets the inter-cell gap passed to grid.Compute.
func WithGap(gap float64) Option {
	return func(o *Observer) { o.gap = gap }
}

// WithParticipants sets the initial participant count.
func WithParticipants(n int) Option {
	return func(o *Observer) { o.count = max(n, 0) }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(o *Observer) {
		if l != nil {
			o.logger = l
		}
	}
}

// Observer recomputes a grid layout whenever the observed region's size or
// the participant count changes. It is safe for concurrent use.
type Observer struct {
	mu       sync.Mutex
	size     grid.Size
	measured bool
	count    int
	gap      float64
	current  Snapshot
	subs     map[string]*Subscription
	release  func()
	gen      uint64
	closed   bool

	// queue holds deliveries in Seq order. Only the goroutine that set
	// draining delivers, one callback at a time.
	queue    []delivery
	draining bool

	logger *log.Logger
}

// New creates an observer with no region attached.
func New(opts ...Option) *Observer {
	o := &Observer{
		size:   grid.DefaultSize(),
		gap:    grid.DefaultGap,
		subs:   make(map[string]*Subscription),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.current = o.snapshot(0)
	return o
}

// snapshot computes the layout for the current inputs. Callers hold o.mu.
func (o *Observer) snapshot(seq uint64) Snapshot {
	return Snapshot{
		Seq:      seq,
		Count:    o.count,
		Size:     o.size,
		Measured: o.measured,
		Layout:   grid.ComputeSize(o.count, o.size, grid.WithGap(o.gap)),
	}
}

// Current returns the latest snapshot.
func (o *Observer) Current() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Attach binds r as the observed region, releasing any region attached
// before. Size notifications from r are applied until Detach, Close, or the
// next Attach.
func (o *Observer) Attach(r Region) {
	o.Detach()
	if r == nil {
		return
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.gen++
	gen := o.gen
	o.mu.Unlock()

	release := r.Observe(func(size grid.Size) { o.resizeFrom(gen, size) })

	o.mu.Lock()
	if o.closed || o.gen != gen {
		o.mu.Unlock()
		release()
		return
	}
	o.release = release
	o.mu.Unlock()
	o.logger.Debug("attached region")
}

// Detach releases the attached region, if any. Notifications that the region
// still emits afterwards are ignored.
func (o *Observer) Detach() {
	o.mu.Lock()
	release := o.release
	o.release = nil
	o.gen++
	o.mu.Unlock()

	if release != nil {
		release()
		o.logger.Debug("detached region")
	}
}

// Attached reports whether a region is currently bound.
func (o *Observer) Attached() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.release != nil
}

func (o *Observer) resizeFrom(gen uint64, size grid.Size) {
	o.update(func() bool {
		if o.gen != gen {
			return false
		}
		return o.setSize(size)
	})
}

// Resize reports a new container size directly, without a Region.
func (o *Observer) Resize(size grid.Size) {
	o.update(func() bool { return o.setSize(size) })
}

// setSize records size and reports whether the snapshot changed. The first
// measurement counts as a change even when it matches the assumed size.
// Callers hold o.mu.
func (o *Observer) setSize(size grid.Size) bool {
	if size == o.size && o.measured {
		return false
	}
	o.size = size
	o.measured = true
	return true
}

// SetParticipants updates the participant count. Negative counts are
// treated as zero.
func (o *Observer) SetParticipants(n int) {
	n = max(n, 0)
	o.update(func() bool {
		if n == o.count {
			return false
		}
		o.count = n
		return true
	})
}

// delivery is one snapshot bound for the subscribers live when it was
// produced.
type delivery struct {
	snap Snapshot
	subs []*Subscription
}

// update applies change under the lock and, if it reports a change,
// recomputes the layout and delivers it to every subscriber.
func (o *Observer) update(change func() bool) {
	o.mu.Lock()
	if o.closed || !change() {
		o.mu.Unlock()
		return
	}
	snap := o.snapshot(o.current.Seq + 1)
	o.current = snap
	subs := make([]*Subscription, 0, len(o.subs))
	for _, s := range o.subs {
		subs = append(subs, s)
	}
	o.queue = append(o.queue, delivery{snap: snap, subs: subs})
	o.mu.Unlock()

	o.logger.Debug("recomputed layout",
		"seq", snap.Seq,
		"count", snap.Count,
		"size", snap.Size.String(),
		"shape", snap.Layout.Shape.String())
	observability.Observer().OnRecompute(snap.Seq, snap.Count, snap.Size.Width, snap.Size.Height)

	o.drain()
}

// drain delivers queued snapshots until the queue is empty. If another call
// is already draining, including one further up the current goroutine's
// stack, drain returns at once and that call delivers the new entries.
func (o *Observer) drain() {
	o.mu.Lock()
	if o.draining {
		o.mu.Unlock()
		return
	}
	o.draining = true

	for len(o.queue) > 0 {
		d := o.queue[0]
		o.queue[0] = delivery{}
		o.queue = o.queue[1:]
		o.mu.Unlock()
		for _, s := range d.subs {
			s.deliver(d.snap)
		}
		o.mu.Lock()
	}
	o.draining = false
	o.mu.Unlock()
}

// Subscribe registers fn and delivers the current snapshot to it, then
// every later snapshot until the subscription ends. The first delivery
// happens before Subscribe returns unless another delivery is in progress,
// for example when Subscribe is called from a callback; it then follows
// the deliveries already queued. Subscribing to a closed observer returns
// an already-ended subscription.
func (o *Observer) Subscribe(fn func(Snapshot)) *Subscription {
	s := &Subscription{id: uuid.NewString(), fn: fn, obs: o}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		s.ended.Store(true)
		return s
	}
	o.subs[s.id] = s
	o.queue = append(o.queue, delivery{snap: o.current, subs: []*Subscription{s}})
	o.mu.Unlock()

	observability.Observer().OnSubscribe(s.id)
	o.drain()
	return s
}

// Subscribers returns the number of live subscriptions.
func (o *Observer) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// Close detaches the region, ends every subscription, and ignores all later
// notifications. Close is idempotent.
func (o *Observer) Close() {
	o.Detach()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	subs := o.subs
	o.subs = make(map[string]*Subscription)
	o.mu.Unlock()

	for id, s := range subs {
		s.ended.Store(true)
		observability.Observer().OnUnsubscribe(id)
	}
}

func (o *Observer) remove(id string) {
	o.mu.Lock()
	_, ok := o.subs[id]
	delete(o.subs, id)
	o.mu.Unlock()
	if ok {
		observability.Observer().OnUnsubscribe(id)
	}
}

// Subscription is a registered snapshot callback.
type Subscription struct {
	id    string
	fn    func(Snapshot)
	obs   *Observer
	ended atomic.Bool
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string { return s.id }

// Active reports whether the subscription still receives snapshots.
func (s *Subscription) Active() bool { return !s.ended.Load() }

// Unsubscribe stops delivery. It is safe to call more than once and from
// inside the subscription's own callback.
func (s *Subscription) Unsubscribe() {
	if s.ended.Swap(true) {
		return
	}
	s.obs.remove(s.id)
}

func (s *Subscription) deliver(snap Snapshot) {
	if s.ended.Load() || s.fn == nil {
		return
	}
	s.fn(snap)
}
