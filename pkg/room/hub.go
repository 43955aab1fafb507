package room

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// EventKind says what changed in a roster.
type EventKind string

const (
	// EventSnapshot is the first event of every subscription and carries the
	// roster as it was when the subscription started.
	EventSnapshot EventKind = "snapshot"
	EventJoin     EventKind = "join"
	EventLeave    EventKind = "leave"
	EventUpdate   EventKind = "update"
)

// Event reports one roster change together with the resulting roster.
type Event struct {
	Room          string              `json:"room"`
	Kind          EventKind           `json:"kind"`
	ParticipantID string              `json:"participant_id,omitempty"`
	Roster        []tiles.Participant `json:"roster"`
}

// Hub is a Store that notifies per-room subscribers after every successful
// write. Subscribers of one room never see another room's events.
//
// Writes to one room are serialized together with the roster reload and
// delivery that follow them, so subscribers receive events in write order
// and the last event always carries the latest roster. Ordering holds for
// writes made through this Hub; writers sharing the backing store from
// other processes are not observed.
type Hub struct {
	store  Store
	logger *log.Logger

	mu    sync.Mutex
	next  uint64
	subs  map[string]map[uint64]func(Event)
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// NewHub wraps store. A nil logger discards output.
func NewHub(store Store, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Hub{
		store:  store,
		logger: logger,
		subs:   make(map[string]map[uint64]func(Event)),
		locks:  make(map[string]*roomLock),
	}
}

// lockRoom blocks until the caller holds room's write lock and returns the
// matching unlock. Locks are dropped once nobody holds or waits on them.
func (h *Hub) lockRoom(room string) (unlock func()) {
	h.mu.Lock()
	l := h.locks[room]
	if l == nil {
		l = &roomLock{}
		h.locks[room] = l
	}
	l.refs++
	h.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, room)
		}
		h.mu.Unlock()
	}
}

// Subscribe registers fn for room's events and delivers an EventSnapshot
// with the current roster before Subscribe returns. No write can land
// between the snapshot and the first change event.
//
// fn runs on the writer's goroutine while the room is locked. It must not
// block and must not write to the same room through h.
func (h *Hub) Subscribe(ctx context.Context, room string, fn func(Event)) (cancel func(), err error) {
	unlock := h.lockRoom(room)
	defer unlock()

	roster, err := h.store.List(ctx, room)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.next++
	id := h.next
	if h.subs[room] == nil {
		h.subs[room] = make(map[uint64]func(Event))
	}
	h.subs[room][id] = fn
	h.mu.Unlock()

	fn(Event{Room: room, Kind: EventSnapshot, Roster: roster})

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[room], id)
			if len(h.subs[room]) == 0 {
				delete(h.subs, room)
			}
		})
	}, nil
}

// Watchers returns the number of subscribers for room.
func (h *Hub) Watchers(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[room])
}

// write runs op under room's lock and publishes kind on success.
func (h *Hub) write(ctx context.Context, room string, kind EventKind, id string, op func() error) error {
	unlock := h.lockRoom(room)
	defer unlock()
	if err := op(); err != nil {
		return err
	}
	h.publish(ctx, room, kind, id)
	return nil
}

// publish must be called with room's lock held.
func (h *Hub) publish(ctx context.Context, room string, kind EventKind, id string) {
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.subs[room]))
	for _, fn := range h.subs[room] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	roster, err := h.store.List(ctx, room)
	if err != nil {
		h.logger.Warn("roster reload failed", "room", room, "error", err)
		return
	}
	ev := Event{Room: room, Kind: kind, ParticipantID: id, Roster: roster}
	h.logger.Debug("roster changed", "room", room, "kind", kind, "participant", id, "count", len(roster))
	for _, fn := range fns {
		fn(ev)
	}
}

func (h *Hub) Join(ctx context.Context, room string, p tiles.Participant) error {
	return h.write(ctx, room, EventJoin, p.ID, func() error {
		return h.store.Join(ctx, room, p)
	})
}

func (h *Hub) Leave(ctx context.Context, room, id string) error {
	return h.write(ctx, room, EventLeave, id, func() error {
		return h.store.Leave(ctx, room, id)
	})
}

func (h *Hub) Update(ctx context.Context, room string, p tiles.Participant) error {
	return h.write(ctx, room, EventUpdate, p.ID, func() error {
		return h.store.Update(ctx, room, p)
	})
}

func (h *Hub) List(ctx context.Context, room string) ([]tiles.Participant, error) {
	return h.store.List(ctx, room)
}

// Close closes the underlying store.
func (h *Hub) Close() error {
	return h.store.Close()
}

var _ Store = (*Hub)(nil)
