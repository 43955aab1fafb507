package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// =============================================================================
// Layout Generation
// =============================================================================

// ResolveParticipants returns the participant list the options describe.
// Explicit Participants win; otherwise Count participants are synthesized,
// named from Names where given and "Participant N" beyond that.
func ResolveParticipants(opts Options) []tiles.Participant {
	if len(opts.Participants) > 0 {
		return opts.Participants
	}
	ps := make([]tiles.Participant, opts.Count)
	for i := range ps {
		name := fmt.Sprintf("Participant %d", i+1)
		if i < len(opts.Names) && opts.Names[i] != "" {
			name = opts.Names[i]
		}
		ps[i] = tiles.Participant{ID: fmt.Sprintf("p%d", i+1), Name: name}
	}
	return ps
}

// GenerateLayout plans the arrangement for opts without caching.
func GenerateLayout(opts Options) tiles.Arrangement {
	return tiles.Plan(ResolveParticipants(opts), opts.Size(), opts.TileOptions())
}

// hashParticipants identifies a participant list for cache keys.
func hashParticipants(ps []tiles.Participant) string {
	data, _ := json.Marshal(ps)
	return cache.Hash(data)
}
