package room

import (
	"context"
	"sync"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// MemoryStore keeps rosters in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string][]tiles.Participant
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]tiles.Participant)}
}

func (s *MemoryStore) Join(ctx context.Context, room string, p tiles.Participant) error {
	if err := validate(room, p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.rooms[room]
	for i, existing := range roster {
		if existing.ID == p.ID {
			p.JoinedAt = existing.JoinedAt
			roster[i] = p
			return nil
		}
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = now()
	}
	s.rooms[room] = append(roster, p)
	return nil
}

func (s *MemoryStore) Leave(ctx context.Context, room, id string) error {
	if err := errors.ValidateRoomID(room); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.rooms[room]
	for i, existing := range roster {
		if existing.ID == id {
			roster = append(roster[:i], roster[i+1:]...)
			if len(roster) == 0 {
				delete(s.rooms, room)
			} else {
				s.rooms[room] = roster
			}
			return nil
		}
	}
	return notFound(room, id)
}

func (s *MemoryStore) Update(ctx context.Context, room string, p tiles.Participant) error {
	if err := validate(room, p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.rooms[room] {
		if existing.ID == p.ID {
			p.JoinedAt = existing.JoinedAt
			s.rooms[room][i] = p
			return nil
		}
	}
	return notFound(room, p.ID)
}

func (s *MemoryStore) List(ctx context.Context, room string) ([]tiles.Participant, error) {
	if err := errors.ValidateRoomID(room); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]tiles.Participant(nil), s.rooms[room]...)
	sortRoster(out)
	return out, nil
}

// Rooms returns the IDs of every non-empty room.
func (s *MemoryStore) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
