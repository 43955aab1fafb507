package room

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// clockBase is the time fakeClock counts from; its first reading is
// clockBase plus one millisecond.
var clockBase = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeClock makes join times strictly increasing at millisecond steps so that
// ordering survives stores with millisecond precision.
func fakeClock(t *testing.T) {
	t.Helper()
	orig := now
	n := 0
	now = func() time.Time {
		n++
		return clockBase.Add(time.Duration(n) * time.Millisecond)
	}
	t.Cleanup(func() { now = orig })
}

func ids(ps []tiles.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// testStore runs the behaviour every Store must share.
func testStore(t *testing.T, s Store, room string) {
	ctx := context.Background()
	fakeClock(t)

	t.Run("empty room", func(t *testing.T) {
		ps, err := s.List(ctx, room)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(ps) != 0 {
			t.Errorf("List = %v, want empty", ids(ps))
		}
	})

	t.Run("join order", func(t *testing.T) {
		for _, id := range []string{"carol", "alice", "bob"} {
			if err := s.Join(ctx, room, tiles.Participant{ID: id, Name: id}); err != nil {
				t.Fatalf("Join(%s): %v", id, err)
			}
		}
		ps, err := s.List(ctx, room)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if want := []string{"carol", "alice", "bob"}; !equal(ids(ps), want) {
			t.Errorf("List = %v, want %v", ids(ps), want)
		}
	})

	t.Run("rejoin keeps place", func(t *testing.T) {
		if err := s.Join(ctx, room, tiles.Participant{ID: "carol", Name: "Carol", CameraOn: true}); err != nil {
			t.Fatalf("Join: %v", err)
		}
		ps, _ := s.List(ctx, room)
		if ps[0].ID != "carol" || ps[0].Name != "Carol" || !ps[0].CameraOn {
			t.Errorf("first = %+v, want updated carol", ps[0])
		}
		if len(ps) != 3 {
			t.Errorf("len = %d, want 3", len(ps))
		}
	})

	t.Run("update", func(t *testing.T) {
		if err := s.Update(ctx, room, tiles.Participant{ID: "bob", Name: "Bob", ScreenShare: true}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		ps, _ := s.List(ctx, room)
		last := ps[len(ps)-1]
		if last.ID != "bob" || !last.ScreenShare {
			t.Errorf("last = %+v, want screen-sharing bob", last)
		}

		err := s.Update(ctx, room, tiles.Participant{ID: "mallory"})
		if !errors.Is(err, errors.ErrCodeParticipantNotFound) {
			t.Errorf("Update(missing) error = %v, want %s", err, errors.ErrCodeParticipantNotFound)
		}
	})

	t.Run("leave", func(t *testing.T) {
		if err := s.Leave(ctx, room, "alice"); err != nil {
			t.Fatalf("Leave: %v", err)
		}
		ps, _ := s.List(ctx, room)
		if want := []string{"carol", "bob"}; !equal(ids(ps), want) {
			t.Errorf("List = %v, want %v", ids(ps), want)
		}

		err := s.Leave(ctx, room, "alice")
		if !errors.Is(err, errors.ErrCodeParticipantNotFound) {
			t.Errorf("second Leave error = %v, want %s", err, errors.ErrCodeParticipantNotFound)
		}
	})

	t.Run("rooms are isolated", func(t *testing.T) {
		other := room + "-other"
		if err := s.Join(ctx, other, tiles.Participant{ID: "dave"}); err != nil {
			t.Fatalf("Join: %v", err)
		}
		ps, _ := s.List(ctx, room)
		for _, p := range ps {
			if p.ID == "dave" {
				t.Error("participant leaked across rooms")
			}
		}
		_ = s.Leave(ctx, other, "dave")
	})

	t.Run("validation", func(t *testing.T) {
		if err := s.Join(ctx, "../etc", tiles.Participant{ID: "x"}); !errors.Is(err, errors.ErrCodeInvalidRoom) {
			t.Errorf("Join(bad room) error = %v", err)
		}
		if err := s.Join(ctx, room, tiles.Participant{ID: ""}); !errors.Is(err, errors.ErrCodeInvalidParticipant) {
			t.Errorf("Join(empty id) error = %v", err)
		}
		if _, err := s.List(ctx, ""); !errors.Is(err, errors.ErrCodeInvalidRoom) {
			t.Errorf("List(empty room) error = %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	testStore(t, s, "standup")
}

func TestMemoryStoreDropsEmptyRooms(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Join(ctx, "r1", tiles.Participant{ID: "a"})
	if got := len(s.Rooms()); got != 1 {
		t.Fatalf("Rooms = %d, want 1", got)
	}
	_ = s.Leave(ctx, "r1", "a")
	if got := len(s.Rooms()); got != 0 {
		t.Errorf("Rooms = %d after last leave, want 0", got)
	}
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Join(ctx, "r1", tiles.Participant{ID: "a", Name: "A"})

	ps, _ := s.List(ctx, "r1")
	ps[0].Name = "changed"

	again, _ := s.List(ctx, "r1")
	if again[0].Name != "A" {
		t.Error("List returned a slice aliasing the store")
	}
}
