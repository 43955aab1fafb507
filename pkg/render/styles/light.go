package styles

import (
	"bytes"
	"fmt"
)

func init() {
	register(Light{})
	register(Dark{})
}

// palette holds the colors shared by the flat styles.
type palette struct {
	background, slot, tile, stroke, speaking, text, dim, screen string
}

// Light is a flat style on a white background.
type Light struct{}

var lightPalette = palette{
	background: "#f4f4f5",
	slot:       "#d4d4d8",
	tile:       "#e4e4e7",
	stroke:     "#a1a1aa",
	speaking:   "#16a34a",
	text:       "#18181b",
	dim:        "#71717a",
	screen:     "#2563eb",
}

func (Light) Name() string                                     { return "light" }
func (Light) RenderDefs(buf *bytes.Buffer)                     {}
func (Light) RenderBackground(buf *bytes.Buffer, w, h float64) { flatBackground(buf, lightPalette, w, h) }
func (Light) RenderSlot(buf *bytes.Buffer, s Slot)             { flatSlot(buf, lightPalette, s) }
func (Light) RenderTile(buf *bytes.Buffer, t Tile)             { flatTile(buf, lightPalette, t) }
func (Light) RenderText(buf *bytes.Buffer, t Tile)             { flatText(buf, lightPalette, t) }
func (Light) RenderBadge(buf *bytes.Buffer, b Badge)           { flatBadge(buf, lightPalette, b) }

// Dark mirrors Light on a near-black background.
type Dark struct{}

var darkPalette = palette{
	background: "#09090b",
	slot:       "#27272a",
	tile:       "#18181b",
	stroke:     "#3f3f46",
	speaking:   "#22c55e",
	text:       "#fafafa",
	dim:        "#a1a1aa",
	screen:     "#60a5fa",
}

func (Dark) Name() string                                     { return "dark" }
func (Dark) RenderDefs(buf *bytes.Buffer)                     {}
func (Dark) RenderBackground(buf *bytes.Buffer, w, h float64) { flatBackground(buf, darkPalette, w, h) }
func (Dark) RenderSlot(buf *bytes.Buffer, s Slot)             { flatSlot(buf, darkPalette, s) }
func (Dark) RenderTile(buf *bytes.Buffer, t Tile)             { flatTile(buf, darkPalette, t) }
func (Dark) RenderText(buf *bytes.Buffer, t Tile)             { flatText(buf, darkPalette, t) }
func (Dark) RenderBadge(buf *bytes.Buffer, b Badge)           { flatBadge(buf, darkPalette, b) }

const cornerRadius = 8.0

func flatBackground(buf *bytes.Buffer, p palette, w, h float64) {
	fmt.Fprintf(buf, `  <rect x="0" y="0" width="%.2f" height="%.2f" fill="%s"/>`+"\n", w, h, p.background)
}

func flatSlot(buf *bytes.Buffer, p palette, s Slot) {
	fmt.Fprintf(buf, `  <rect class="slot" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.0f" fill="none" stroke="%s" stroke-dasharray="6 4"/>`+"\n",
		s.X, s.Y, s.W, s.H, cornerRadius, p.slot)
}

func flatTile(buf *bytes.Buffer, p palette, t Tile) {
	stroke, width := p.stroke, 1.0
	switch {
	case t.Speaking:
		stroke, width = p.speaking, 3.0
	case t.Source == "screen":
		stroke, width = p.screen, 2.0
	}
	fmt.Fprintf(buf, `  <rect id="tile-%s" class="tile" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.0f" fill="%s" stroke="%s" stroke-width="%.0f"/>`+"\n",
		EscapeXML(t.ID), t.X, t.Y, t.W, t.H, cornerRadius, p.tile, stroke, width)
}

func flatText(buf *bytes.Buffer, p palette, t Tile) {
	size := FontSize(t)
	label := TruncateLabel(t)
	if t.Muted {
		label += " (muted)"
	}
	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.1f" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		t.CX, t.CY, size, p.text, EscapeXML(label))
	if t.Source == "screen" {
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.1f" fill="%s" text-anchor="middle">screen</text>`+"\n",
			t.CX, t.CY+size*1.4, size*0.6, p.screen)
	}
}

func flatBadge(buf *bytes.Buffer, p palette, b Badge) {
	anchor := b.Anchor
	if anchor == "" {
		anchor = "middle"
	}
	fmt.Fprintf(buf, `  <text class="badge" x="%.2f" y="%.2f" font-family="sans-serif" font-size="16" fill="%s" text-anchor="%s">%s</text>`+"\n",
		b.X, b.Y, p.dim, anchor, EscapeXML(b.Text))
}
