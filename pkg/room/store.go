// Package room tracks who is in which room.
//
// A [Store] holds each room's roster in join order. The roster is what
// [tiles.Plan] lays out: the first participants to join get the visible tiles
// and the rest overflow. Three stores are provided:
//
//   - [MemoryStore]: process-local, for the CLI and tests
//   - [RedisStore]: one Redis hash per room, shared between server instances
//   - [MongoStore]: a participants collection, for durable deployments
//
// A [Hub] wraps any store and notifies subscribers whenever a room's roster
// changes, which is how the server keeps WebSocket and SSH viewers current.
package room

import (
	"context"
	"sort"
	"time"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// Store persists room rosters.
type Store interface {
	// Join adds p to room. Joining again updates p's fields but keeps the
	// original join time, so the participant keeps its place in the roster.
	Join(ctx context.Context, room string, p tiles.Participant) error

	// Leave removes the participant with the given id.
	Leave(ctx context.Context, room, id string) error

	// Update replaces an existing participant's fields, keeping the join time.
	Update(ctx context.Context, room string, p tiles.Participant) error

	// List returns the room's participants in join order. Unknown rooms are
	// empty.
	List(ctx context.Context, room string) ([]tiles.Participant, error)

	// Close releases the store's resources.
	Close() error
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func validate(room string, p tiles.Participant) error {
	if err := errors.ValidateRoomID(room); err != nil {
		return err
	}
	if err := errors.ValidateParticipantID(p.ID); err != nil {
		return err
	}
	return errors.ValidateDisplayName(p.Name)
}

func notFound(room, id string) error {
	return errors.New(errors.ErrCodeParticipantNotFound, "participant %q is not in room %q", id, room)
}

// sortRoster orders participants by join time, breaking ties by ID.
func sortRoster(ps []tiles.Participant) {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].JoinedAt.Equal(ps[j].JoinedAt) {
			return ps[i].JoinedAt.Before(ps[j].JoinedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
