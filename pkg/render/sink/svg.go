package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/tilegrid/pkg/render/styles"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// badgeHeight is the strip added below the container for the overflow badge.
const badgeHeight = 32.0

// PlaceholderText is drawn for rooms without participants.
const PlaceholderText = "Waiting for participants to join"

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style styles.Style
	slots bool
}

func WithStyle(s styles.Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithoutSlots skips the dashed outlines of unoccupied grid cells.
func WithoutSlots() SVGOption { return func(r *svgRenderer) { r.slots = false } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{style: styles.Light{}, slots: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws a at its container size.
func RenderSVG(a tiles.Arrangement, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	w, h := a.Container.Width, a.Container.Height
	total := h
	if a.Overflow > 0 {
		total += badgeHeight
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, total, w, total)
	r.style.RenderDefs(&buf)
	r.style.RenderBackground(&buf, w, total)

	if a.Empty {
		r.style.RenderBadge(&buf, styles.Badge{Text: PlaceholderText, X: w / 2, Y: h / 2})
		buf.WriteString("</svg>\n")
		return buf.Bytes()
	}

	if r.slots {
		for i := len(a.Tiles); i < len(a.Slots); i++ {
			s := a.Slots[i]
			r.style.RenderSlot(&buf, styles.Slot{X: s.X, Y: s.Y, W: s.Width, H: s.Height})
		}
	}

	blocks := buildTiles(a)
	for _, t := range blocks {
		r.style.RenderTile(&buf, t)
	}
	for _, t := range blocks {
		r.style.RenderText(&buf, t)
	}

	if label := a.OverflowLabel(); label != "" {
		r.style.RenderBadge(&buf, styles.Badge{Text: label, X: w / 2, Y: h + badgeHeight*0.65})
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func buildTiles(a tiles.Arrangement) []styles.Tile {
	out := make([]styles.Tile, 0, len(a.Tiles))
	for _, t := range a.Tiles {
		out = append(out, styles.Tile{
			ID:       t.Participant.ID,
			Label:    t.Participant.Label(),
			X:        t.Rect.X,
			Y:        t.Rect.Y,
			W:        t.Rect.Width,
			H:        t.Rect.Height,
			CX:       t.Rect.CenterX(),
			CY:       t.Rect.CenterY(),
			Source:   string(t.Source),
			Speaking: t.Participant.Speaking,
			Muted:    t.Participant.Muted,
			Focused:  t.Focused,
		})
	}
	return out
}
