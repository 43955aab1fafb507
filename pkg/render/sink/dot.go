package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// pointsPerInch converts pixels (treated as points) to Graphviz inches.
const pointsPerInch = 72.0

// ToDOT converts an arrangement to a Graphviz graph for the neato engine.
// Every node is pinned (pos="x,y!") so Graphviz only draws it. Graphviz puts
// the origin at the bottom-left, so y coordinates are flipped.
func ToDOT(a tiles.Arrangement) string {
	return toDOT(a, pointsPerInch)
}

func toDOT(a tiles.Arrangement, dpi float64) string {
	w, h := a.Container.Width, a.Container.Height
	flip := func(y float64) float64 { return h - y }

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  outputorder=nodesfirst;\n")
	buf.WriteString("  bgcolor=\"#f4f4f5\";\n")
	fmt.Fprintf(&buf, "  dpi=%.0f;\n", dpi)
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontname=\"Helvetica\", fillcolor=\"#e4e4e7\", color=\"#a1a1aa\"];\n")
	buf.WriteString("\n")

	// The frame pins the bounding box to the container.
	fmt.Fprintf(&buf, "  \"__frame\" [label=\"\", style=invis, %s];\n", place(w/2, h/2, w, h))

	if a.Empty {
		fmt.Fprintf(&buf, "  \"__placeholder\" [label=%s, shape=plaintext, %s];\n", quote(PlaceholderText), place(w/2, h/2, w, 40))
		buf.WriteString("}\n")
		return buf.String()
	}

	for i := len(a.Tiles); i < len(a.Slots); i++ {
		s := a.Slots[i]
		fmt.Fprintf(&buf, "  \"__slot%d\" [label=\"\", style=\"rounded,dashed\", color=\"#d4d4d8\", %s];\n",
			i, place(s.CenterX(), flip(s.CenterY()), s.Width, s.Height))
	}

	for _, t := range a.Tiles {
		attrs := fmt.Sprintf("label=%s, %s", quote(t.Participant.Label()), place(t.Rect.CenterX(), flip(t.Rect.CenterY()), t.Rect.Width, t.Rect.Height))
		switch {
		case t.Participant.Speaking:
			attrs += ", color=\"#16a34a\", penwidth=3"
		case t.Source == tiles.SourceScreen:
			attrs += ", color=\"#2563eb\", penwidth=2"
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(t.Participant.ID), attrs)
	}

	if label := a.OverflowLabel(); label != "" {
		fmt.Fprintf(&buf, "  \"__overflow\" [label=%s, shape=plaintext, style=\"\", %s];\n",
			quote(label), place(w/2, -badgeHeight/2, w, badgeHeight))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// place formats the pinned position and fixed size attributes of a node.
func place(cx, cy, w, h float64) string {
	return fmt.Sprintf("pos=\"%.2f,%.2f!\", width=%.4f, height=%.4f",
		cx/pointsPerInch, cy/pointsPerInch, max(w, 0)/pointsPerInch, max(h, 0)/pointsPerInch)
}

// quote returns s as a DOT double-quoted string.
func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
}

// WithScale sets the PNG scale factor (default 1.0; 2.0 for high-DPI).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// RenderPNG rasterizes the arrangement through Graphviz.
func RenderPNG(ctx context.Context, a tiles.Arrangement, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1.0}
	for _, opt := range opts {
		opt(&r)
	}
	return renderGraphviz(ctx, toDOT(a, pointsPerInch*r.scale), graphviz.PNG)
}

// RenderDOTSVG draws the arrangement's DOT graph as SVG. Its geometry matches
// RenderSVG; it exists for comparing the two renderers.
func RenderDOTSVG(ctx context.Context, a tiles.Arrangement) ([]byte, error) {
	return renderGraphviz(ctx, ToDOT(a), graphviz.SVG)
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
