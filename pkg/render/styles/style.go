package styles

import (
	"bytes"
	"fmt"
	"sort"
)

// Style defines the visual appearance of a rendered arrangement.
// Implementations control how slots, tiles, labels, and badges are drawn.
type Style interface {
	// Name returns the style's registry name.
	Name() string
	// RenderDefs writes SVG <defs> content (filters, gradients).
	RenderDefs(buf *bytes.Buffer)
	// RenderBackground writes the container background.
	RenderBackground(buf *bytes.Buffer, w, h float64)
	// RenderSlot writes an unoccupied grid slot.
	RenderSlot(buf *bytes.Buffer, s Slot)
	// RenderTile writes a participant tile's frame.
	RenderTile(buf *bytes.Buffer, t Tile)
	// RenderText writes a tile's label.
	RenderText(buf *bytes.Buffer, t Tile)
	// RenderBadge writes the overflow or placeholder text.
	RenderBadge(buf *bytes.Buffer, b Badge)
}

// Slot is an empty grid cell.
type Slot struct {
	X, Y, W, H float64
}

// Tile contains everything needed to draw one participant.
type Tile struct {
	ID         string  // Participant identifier
	Label      string  // Display text
	X, Y, W, H float64 // Position and dimensions
	CX, CY     float64 // Center coordinates (for text)
	Source     string  // "camera", "screen", or "none"
	Speaking   bool
	Muted      bool
	Focused    bool
}

// Badge is a short piece of text anchored at a point.
type Badge struct {
	Text   string
	X, Y   float64
	Anchor string // SVG text-anchor
}

var registry = map[string]Style{}

func register(s Style) { registry[s.Name()] = s }

// Lookup returns the style registered under name.
func Lookup(name string) (Style, error) {
	if name == "" {
		return Light{}, nil
	}
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown style %q (available: %v)", name, Names())
	}
	return s, nil
}

// Names lists the registered style names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
