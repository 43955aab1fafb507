package sshview

import (
	"fmt"
	"sync"

	"github.com/gliderlabs/ssh"

	"github.com/matzehuels/tilegrid/pkg/config"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/render/sink"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// A terminal cell is treated as 8×16 pixels, so a terminal's container has
// roughly the shape the grid would have on screen.
const (
	cellWidth  = 8
	cellHeight = 16

	// footerRows is reserved below the grid for the summary line.
	footerRows = 2
)

// TermSize converts a terminal window to a container size in pixels.
func TermSize(w ssh.Window) grid.Size {
	return CellsToSize(w.Width, w.Height-footerRows)
}

// CellsToSize converts a block of terminal cells to a container size in
// pixels. Negative dimensions count as zero.
func CellsToSize(cols, rows int) grid.Size {
	return grid.Size{Width: float64(max(cols, 0) * cellWidth), Height: float64(max(rows, 0) * cellHeight)}
}

type action int

const (
	actionNone action = iota
	actionQuit
	actionCount
	actionRedraw
)

// view holds one session's participants and display mode.
type view struct {
	mu           sync.Mutex
	participants []tiles.Participant
	placeholders bool
	mode         tiles.Mode
	gap          float64
	maxVisible   int
}

func newView(cfg config.GridConfig) *view {
	return &view{mode: tiles.ModeGrid, gap: cfg.Gap, maxVisible: cfg.MaxVisible}
}

func (v *view) setPlaceholders(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.placeholders = true
	v.participants = make([]tiles.Participant, max(n, 0))
	for i := range v.participants {
		v.participants[i] = placeholder(i)
	}
}

func placeholder(i int) tiles.Participant {
	return tiles.Participant{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("Participant %d", i+1)}
}

func (v *view) setRoster(roster []tiles.Participant) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.placeholders = false
	v.participants = roster
}

func (v *view) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.participants)
}

// handleKey applies a key press. Count changes only apply to placeholder
// previews; a live room's roster comes from the room.
func (v *view) handleKey(k byte) action {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch k {
	case 'q', 'Q', 3: // 3 is Ctrl-C
		return actionQuit
	case 'm', 'M':
		if v.mode == tiles.ModeGrid {
			v.mode = tiles.ModeSpeaker
		} else {
			v.mode = tiles.ModeGrid
		}
		return actionRedraw
	case '+', '=':
		if !v.placeholders {
			return actionNone
		}
		v.participants = append(v.participants, placeholder(len(v.participants)))
		return actionCount
	case '-', '_':
		if !v.placeholders || len(v.participants) == 0 {
			return actionNone
		}
		v.participants = v.participants[:len(v.participants)-1]
		return actionCount
	}
	return actionNone
}

// frame renders the participants laid out in size.
func (v *view) frame(size grid.Size) string {
	v.mu.Lock()
	a := tiles.Plan(v.participants, size, tiles.Options{
		Mode:       v.mode,
		MaxVisible: v.maxVisible,
		Gap:        tiles.Gap(v.gap),
	})
	v.mu.Unlock()

	cols := int(size.Width / cellWidth)
	if cols <= 0 {
		return "terminal too small\n"
	}
	return sink.RenderText(a, sink.WithTextWidth(cols))
}
