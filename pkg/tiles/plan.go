// Package tiles places participant tiles on top of a grid layout.
//
// [Plan] turns a participant list and a container size into an
// [Arrangement]: which participants are visible, where each tile goes, and
// how many are left over for the "+N more" indicator. Two modes are
// supported: an equal-cell grid driven by [grid.Compute], and a speaker view
// with one large tile next to a sidebar of thumbnails.
package tiles

import (
	"fmt"

	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Mode selects how tiles are arranged.
type Mode string

const (
	// ModeGrid shows every visible participant in equal cells.
	ModeGrid Mode = "grid"

	// ModeSpeaker shows one participant large and the rest in a sidebar.
	ModeSpeaker Mode = "speaker"
)

// ParseMode converts s to a Mode. The empty string is ModeGrid.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeGrid:
		return ModeGrid, nil
	case ModeSpeaker:
		return ModeSpeaker, nil
	}
	return "", fmt.Errorf("unknown mode %q (must be grid or speaker)", s)
}

// DefaultMaxVisible is the number of participants shown before overflow.
const DefaultMaxVisible = grid.MaxCells

// Speaker view geometry, in pixels.
const (
	speakerGap         = 12.0
	sidebarWidth       = 224.0
	sidebarWidthNarrow = 192.0
	thumbHeight        = 112.0
	thumbHeightNarrow  = 96.0
	thumbGap           = 8.0
	narrowBreakpoint   = 768.0
)

// Options configures Plan.
type Options struct {
	Mode Mode `json:"mode,omitempty"`

	// MaxVisible caps how many participants get a tile. Values <= 0 or above
	// grid.MaxCells mean grid.MaxCells.
	MaxVisible int `json:"max_visible,omitempty"`

	// SpeakerIndex selects the large tile in speaker mode. Out-of-range
	// values fall back to the first participant.
	SpeakerIndex int `json:"speaker_index,omitempty"`

	// Gap between grid cells. Nil means grid.DefaultGap.
	Gap *float64 `json:"gap,omitempty"`
}

// Gap returns a pointer to px for use in Options.
func Gap(px float64) *float64 { return &px }

// ClampMaxVisible returns the visible-participant cap Plan uses for n:
// values <= 0 or above grid.MaxCells become DefaultMaxVisible.
func ClampMaxVisible(n int) int {
	if n <= 0 || n > grid.MaxCells {
		return DefaultMaxVisible
	}
	return n
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeGrid
	}
	o.MaxVisible = ClampMaxVisible(o.MaxVisible)
	if o.Gap == nil {
		o.Gap = Gap(grid.DefaultGap)
	}
	return o
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// CenterX returns the horizontal center of r.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the vertical center of r.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Tile is one placed participant.
type Tile struct {
	// Index is the participant's position in the visible list.
	Index       int         `json:"index" yaml:"index"`
	Participant Participant `json:"participant" yaml:"participant"`

	// Slot is the space reserved for the tile; Rect is the tile itself,
	// centered in Slot.
	Slot Rect `json:"slot" yaml:"slot"`
	Rect Rect `json:"rect" yaml:"rect"`

	Source  Source `json:"source" yaml:"source"`
	Focused bool   `json:"focused,omitempty" yaml:"focused,omitempty"`
}

// Arrangement is the placement of every visible participant.
type Arrangement struct {
	Mode      Mode        `json:"mode" yaml:"mode"`
	Container grid.Size   `json:"container" yaml:"container"`
	Layout    grid.Layout `json:"layout" yaml:"layout"`

	// Slots lists every grid cell (Columns*Rows of them) in grid mode,
	// including the empty ones.
	Slots []Rect `json:"slots,omitempty" yaml:"slots,omitempty"`
	Tiles []Tile `json:"tiles" yaml:"tiles"`

	// Overflow counts participants beyond MaxVisible.
	Overflow int  `json:"overflow,omitempty" yaml:"overflow,omitempty"`
	Empty    bool `json:"empty,omitempty" yaml:"empty,omitempty"`
}

// OverflowLabel returns "+N more" when participants overflow, or "".
func (a Arrangement) OverflowLabel() string {
	if a.Overflow <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", a.Overflow)
}

// Ready reports whether the arrangement can be drawn. Empty rooms are ready
// (they draw a placeholder); others need a positive cell size.
func (a Arrangement) Ready() bool {
	return a.Empty || a.Layout.Cell.Ready()
}

// Plan arranges participants inside container.
func Plan(participants []Participant, container grid.Size, opts Options) Arrangement {
	opts = opts.withDefaults()

	visible := participants
	if len(visible) > opts.MaxVisible {
		visible = visible[:opts.MaxVisible]
	}
	count := len(visible)

	a := Arrangement{
		Mode:      opts.Mode,
		Container: container,
		Layout:    grid.ComputeSize(count, container, grid.WithGap(*opts.Gap)),
		Overflow:  len(participants) - count,
	}

	if count == 0 {
		a.Empty = true
		return a
	}

	if opts.Mode == ModeSpeaker && count > 1 {
		a.Tiles = planSpeaker(visible, container, opts.SpeakerIndex)
		return a
	}

	a.Mode = ModeGrid
	a.Slots, a.Tiles = planGrid(visible, a.Layout)
	return a
}

// planGrid lays out one slot per grid cell and centers a tile of the
// layout's cell size in each of the first len(visible) slots.
func planGrid(visible []Participant, l grid.Layout) ([]Rect, []Tile) {
	cols, rows := l.Shape.Columns, l.Shape.Rows
	gap := l.Gap
	slotW := (l.Container.Width - float64(cols-1)*gap) / float64(cols)
	slotH := (l.Container.Height - float64(rows-1)*gap) / float64(rows)

	slots := make([]Rect, 0, cols*rows)
	for i := 0; i < cols*rows; i++ {
		col, row := i%cols, i/cols
		slots = append(slots, Rect{
			X:      float64(col) * (slotW + gap),
			Y:      float64(row) * (slotH + gap),
			Width:  slotW,
			Height: slotH,
		})
	}

	tiles := make([]Tile, 0, len(visible))
	for i, p := range visible {
		if i >= len(slots) {
			break
		}
		tiles = append(tiles, Tile{
			Index:       i,
			Participant: p,
			Slot:        slots[i],
			Rect:        centerIn(slots[i], l.Cell.Width, l.Cell.Height),
			Source:      p.VideoSource(),
		})
	}
	return slots, tiles
}

// planSpeaker puts the focused participant in the main area and stacks the
// others in a fixed-width sidebar on the right. Thumbnails past the bottom
// of the container keep their positions; the sidebar scrolls.
func planSpeaker(visible []Participant, container grid.Size, speaker int) []Tile {
	if speaker < 0 || speaker >= len(visible) {
		speaker = 0
	}

	sideW, thumbH := sidebarWidth, thumbHeight
	if container.Width < narrowBreakpoint {
		sideW, thumbH = sidebarWidthNarrow, thumbHeightNarrow
	}

	main := Rect{Width: container.Width - sideW - speakerGap, Height: container.Height}
	cell := grid.ComputeCellSize(grid.Shape{Columns: 1, Rows: 1}, main.Width, main.Height, 0)

	tiles := make([]Tile, 0, len(visible))
	tiles = append(tiles, Tile{
		Index:       speaker,
		Participant: visible[speaker],
		Slot:        main,
		Rect:        centerIn(main, cell.Width, cell.Height),
		Source:      visible[speaker].VideoSource(),
		Focused:     true,
	})

	y := 0.0
	for i, p := range visible {
		if i == speaker {
			continue
		}
		slot := Rect{X: main.Width + speakerGap, Y: y, Width: sideW, Height: thumbH}
		tiles = append(tiles, Tile{
			Index:       i,
			Participant: p,
			Slot:        slot,
			Rect:        slot,
			Source:      p.VideoSource(),
		})
		y += thumbH + thumbGap
	}
	return tiles
}

func centerIn(slot Rect, w, h float64) Rect {
	return Rect{
		X:      slot.X + (slot.Width-w)/2,
		Y:      slot.Y + (slot.Height-h)/2,
		Width:  w,
		Height: h,
	}
}
