package observe

import (
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/tilegrid/pkg/grid"
)

// recorder collects delivered snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func (r *recorder) last() Snapshot {
	all := r.all()
	return all[len(all)-1]
}

func TestObserverInitialSnapshot(t *testing.T) {
	o := New()
	defer o.Close()

	s := o.Current()
	if s.Seq != 0 {
		t.Errorf("Seq = %d, want 0", s.Seq)
	}
	if s.Size != grid.DefaultSize() {
		t.Errorf("Size = %v, want 640x360", s.Size)
	}
	if s.Measured {
		t.Error("Measured = true before any notification")
	}
	if !s.Ready() {
		t.Error("initial snapshot should be drawable")
	}
}

func TestObserverSubscribeDeliversCurrent(t *testing.T) {
	o := New(WithParticipants(4))
	defer o.Close()

	var rec recorder
	sub := o.Subscribe(rec.record)
	defer sub.Unsubscribe()

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(got))
	}
	if got[0].Layout.Shape != (grid.Shape{Columns: 2, Rows: 2}) {
		t.Errorf("Shape = %v, want 2x2", got[0].Layout.Shape)
	}
	if sub.ID() == "" {
		t.Error("subscription ID is empty")
	}
}

func TestObserverResizeReactivity(t *testing.T) {
	o := New()
	defer o.Close()

	var rec recorder
	o.Subscribe(rec.record)

	feed := NewFeed()
	o.Attach(feed)

	feed.Notify(grid.Size{Width: 1280, Height: 720})
	o.SetParticipants(6)

	s := rec.last()
	if s.Seq != 2 {
		t.Errorf("Seq = %d, want 2", s.Seq)
	}
	if !s.Measured {
		t.Error("Measured = false after a notification")
	}
	if s.Layout.Shape != (grid.Shape{Columns: 3, Rows: 2}) {
		t.Errorf("Shape = %v, want 3x2", s.Layout.Shape)
	}

	feed.Notify(grid.Size{Width: 600, Height: 800})
	o.SetParticipants(2)
	if got := rec.last().Layout.Shape; got != (grid.Shape{Columns: 1, Rows: 2}) {
		t.Errorf("portrait pair Shape = %v, want 1x2", got)
	}
}

func TestObserverIgnoresIdenticalNotifications(t *testing.T) {
	o := New()
	defer o.Close()

	var rec recorder
	o.Subscribe(rec.record)

	feed := NewFeed()
	o.Attach(feed)

	for i := 0; i < 5; i++ {
		feed.Notify(grid.Size{Width: 1000, Height: 500})
		o.SetParticipants(3)
	}

	if got := len(rec.all()); got != 3 {
		t.Errorf("got %d deliveries, want 3 (initial, resize, count)", got)
	}
}

func TestObserverDefaultSizeNotificationMarksMeasured(t *testing.T) {
	o := New()
	defer o.Close()

	var rec recorder
	o.Subscribe(rec.record)

	o.Resize(grid.DefaultSize())
	o.Resize(grid.DefaultSize())

	got := rec.all()
	if len(got) != 2 {
		t.Fatalf("got %d deliveries, want 2 (initial, first measurement)", len(got))
	}
	if got[1].Seq != 1 || !got[1].Measured {
		t.Errorf("second delivery = seq %d measured %v, want seq 1 measured", got[1].Seq, got[1].Measured)
	}
	if got[1].Layout != got[0].Layout {
		t.Errorf("layout changed from %+v to %+v", got[0].Layout, got[1].Layout)
	}
	if !o.Current().Measured {
		t.Error("Measured = false after notification of the default size")
	}
}

func TestObserverDetachReleasesRegion(t *testing.T) {
	o := New()
	defer o.Close()

	var rec recorder
	o.Subscribe(rec.record)

	feed := NewFeed()
	o.Attach(feed)
	if feed.Listeners() != 1 {
		t.Fatalf("Listeners = %d, want 1", feed.Listeners())
	}

	o.Detach()
	if feed.Listeners() != 0 {
		t.Errorf("Listeners = %d after Detach, want 0", feed.Listeners())
	}
	if o.Attached() {
		t.Error("Attached = true after Detach")
	}

	feed.Notify(grid.Size{Width: 1920, Height: 1080})
	if got := len(rec.all()); got != 1 {
		t.Errorf("got %d deliveries after Detach, want 1", got)
	}
}

func TestObserverAttachReplacesRegion(t *testing.T) {
	o := New()
	defer o.Close()

	first, second := NewFeed(), NewFeed()
	o.Attach(first)
	o.Attach(second)

	if first.Listeners() != 0 {
		t.Errorf("first region still observed: %d listeners", first.Listeners())
	}
	if second.Listeners() != 1 {
		t.Errorf("second region listeners = %d, want 1", second.Listeners())
	}

	first.Notify(grid.Size{Width: 300, Height: 300})
	if o.Current().Size != grid.DefaultSize() {
		t.Errorf("stale region changed size to %v", o.Current().Size)
	}
}

func TestObserverAttachReplaysLastSize(t *testing.T) {
	feed := NewFeed()
	feed.Notify(grid.Size{Width: 1280, Height: 720})

	o := New()
	defer o.Close()
	o.Attach(feed)

	if got := o.Current().Size; got != (grid.Size{Width: 1280, Height: 720}) {
		t.Errorf("Size = %v, want 1280x720", got)
	}
}

func TestObserverUnsubscribe(t *testing.T) {
	o := New()
	defer o.Close()

	var rec recorder
	sub := o.Subscribe(rec.record)
	sub.Unsubscribe()
	sub.Unsubscribe()

	if sub.Active() {
		t.Error("Active = true after Unsubscribe")
	}
	if o.Subscribers() != 0 {
		t.Errorf("Subscribers = %d, want 0", o.Subscribers())
	}

	o.SetParticipants(9)
	if got := len(rec.all()); got != 1 {
		t.Errorf("got %d deliveries, want 1", got)
	}
}

func TestObserverUnsubscribeFromCallback(t *testing.T) {
	o := New()
	defer o.Close()

	var sub *Subscription
	calls := 0
	sub = o.Subscribe(func(s Snapshot) {
		calls++
		if s.Seq == 1 {
			sub.Unsubscribe()
		}
	})

	o.SetParticipants(1)
	o.SetParticipants(2)

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestObserverCallbackFeedsObserver(t *testing.T) {
	o := New()
	defer o.Close()

	var seqs []uint64
	var counts []int
	o.Subscribe(func(s Snapshot) {
		seqs = append(seqs, s.Seq)
		counts = append(counts, s.Count)
		// Grow to three participants, one step per delivery.
		if s.Count > 0 && s.Count < 3 {
			o.SetParticipants(s.Count + 1)
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.SetParticipants(1)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SetParticipants from a callback deadlocked")
	}

	wantCounts := []int{0, 1, 2, 3}
	if len(counts) != len(wantCounts) {
		t.Fatalf("counts = %v, want %v", counts, wantCounts)
	}
	for i := range wantCounts {
		if counts[i] != wantCounts[i] || seqs[i] != uint64(i) {
			t.Errorf("delivery %d = seq %d count %d, want seq %d count %d", i, seqs[i], counts[i], i, wantCounts[i])
		}
	}
}

func TestObserverSubscribeFromCallback(t *testing.T) {
	o := New()
	defer o.Close()

	var inner recorder
	var outerCalls int
	o.Subscribe(func(s Snapshot) {
		outerCalls++
		if s.Seq == 1 {
			o.Subscribe(inner.record)
		}
	})

	o.SetParticipants(2)
	o.SetParticipants(3)

	got := inner.all()
	if len(got) != 2 || got[0].Seq != 1 || got[1].Seq != 2 {
		t.Errorf("inner deliveries = %+v, want seqs [1 2]", got)
	}
	if outerCalls != 3 {
		t.Errorf("outer calls = %d, want 3", outerCalls)
	}
}

func TestObserverConcurrentNotifications(t *testing.T) {
	o := New()
	defer o.Close()

	var rec recorder
	o.Subscribe(rec.record)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 1; i <= 50; i++ {
				if w%2 == 0 {
					o.SetParticipants(w*100 + i)
				} else {
					o.Resize(grid.Size{Width: float64(400 + w*100 + i), Height: 300})
				}
			}
		}(w)
	}
	wg.Wait()

	got := rec.all()
	for i, s := range got {
		if s.Seq != uint64(i) {
			t.Fatalf("delivery %d has seq %d; deliveries out of order", i, s.Seq)
		}
	}
	if last := rec.last(); last != o.Current() {
		t.Errorf("last delivery seq %d, current seq %d", last.Seq, o.Current().Seq)
	}
}

func TestObserverClose(t *testing.T) {
	o := New()
	feed := NewFeed()
	o.Attach(feed)

	var rec recorder
	sub := o.Subscribe(rec.record)

	o.Close()
	o.Close()

	if feed.Listeners() != 0 {
		t.Errorf("Listeners = %d after Close, want 0", feed.Listeners())
	}
	if sub.Active() {
		t.Error("subscription still active after Close")
	}

	o.SetParticipants(5)
	o.Resize(grid.Size{Width: 10, Height: 10})
	if got := len(rec.all()); got != 1 {
		t.Errorf("got %d deliveries after Close, want 1", got)
	}

	late := o.Subscribe(rec.record)
	if late.Active() {
		t.Error("subscription on closed observer is active")
	}
}

func TestObserverNegativeParticipants(t *testing.T) {
	o := New(WithParticipants(3))
	defer o.Close()

	o.SetParticipants(-4)
	if got := o.Current().Count; got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestObserverDegenerateSizeNotReady(t *testing.T) {
	o := New(WithParticipants(12))
	defer o.Close()

	o.Resize(grid.Size{Width: 12, Height: 12})
	if o.Current().Ready() {
		t.Error("12x12 container with 12 tiles should not be ready")
	}
}

func TestChanRegion(t *testing.T) {
	ch := make(chan grid.Size)
	o := New(WithParticipants(2))
	defer o.Close()

	got := make(chan Snapshot, 4)
	o.Subscribe(func(s Snapshot) { got <- s })
	<-got // initial

	o.Attach(ChanRegion(ch))
	ch <- grid.Size{Width: 400, Height: 900}

	select {
	case s := <-got:
		if s.Layout.Shape != (grid.Shape{Columns: 1, Rows: 2}) {
			t.Errorf("Shape = %v, want 1x2", s.Layout.Shape)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}

	o.Detach()
	select {
	case ch <- grid.Size{Width: 800, Height: 400}:
		t.Error("released region still consumed a size")
	case <-time.After(50 * time.Millisecond):
	}
}
