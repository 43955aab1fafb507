package sink

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// JSONOption configures JSON and YAML rendering.
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	style   string
	slots   bool
	compact bool
}

// WithJSONStyle records the style name in the output so that a client can
// reproduce the SVG.
func WithJSONStyle(s string) JSONOption { return func(r *jsonRenderer) { r.style = s } }

// WithJSONSlots includes every grid slot, not just the occupied ones.
func WithJSONSlots() JSONOption { return func(r *jsonRenderer) { r.slots = true } }

// WithJSONCompact disables indentation.
func WithJSONCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

type document struct {
	Mode          string         `json:"mode" yaml:"mode"`
	Style         string         `json:"style,omitempty" yaml:"style,omitempty"`
	Container     grid.Size      `json:"container" yaml:"container"`
	Shape         grid.Shape     `json:"shape" yaml:"shape"`
	Cell          grid.CellSize  `json:"cell" yaml:"cell"`
	Gap           float64        `json:"gap" yaml:"gap"`
	Tiles         []documentTile `json:"tiles" yaml:"tiles"`
	Slots         []tiles.Rect   `json:"slots,omitempty" yaml:"slots,omitempty"`
	Overflow      int            `json:"overflow,omitempty" yaml:"overflow,omitempty"`
	OverflowLabel string         `json:"overflow_label,omitempty" yaml:"overflow_label,omitempty"`
	Empty         bool           `json:"empty,omitempty" yaml:"empty,omitempty"`
}

type documentTile struct {
	ID       string  `json:"id" yaml:"id"`
	Label    string  `json:"label" yaml:"label"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Source   string  `json:"source" yaml:"source"`
	Focused  bool    `json:"focused,omitempty" yaml:"focused,omitempty"`
	Speaking bool    `json:"speaking,omitempty" yaml:"speaking,omitempty"`
	Muted    bool    `json:"muted,omitempty" yaml:"muted,omitempty"`
}

func buildDocument(a tiles.Arrangement, r jsonRenderer) document {
	doc := document{
		Mode:          string(a.Mode),
		Style:         r.style,
		Container:     a.Container,
		Shape:         a.Layout.Shape,
		Cell:          a.Layout.Cell,
		Gap:           a.Layout.Gap,
		Tiles:         make([]documentTile, 0, len(a.Tiles)),
		Overflow:      a.Overflow,
		OverflowLabel: a.OverflowLabel(),
		Empty:         a.Empty,
	}
	if r.slots {
		doc.Slots = a.Slots
	}
	for _, t := range a.Tiles {
		doc.Tiles = append(doc.Tiles, documentTile{
			ID:       t.Participant.ID,
			Label:    t.Participant.Label(),
			X:        t.Rect.X,
			Y:        t.Rect.Y,
			Width:    t.Rect.Width,
			Height:   t.Rect.Height,
			Source:   string(t.Source),
			Focused:  t.Focused,
			Speaking: t.Participant.Speaking,
			Muted:    t.Participant.Muted,
		})
	}
	return doc
}

func newJSONRenderer(opts []JSONOption) jsonRenderer {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderJSON exports the arrangement as a JSON document with tile positions,
// the grid shape and cell size, and the overflow count.
//
// It does not modify a and is safe to call concurrently.
func RenderJSON(a tiles.Arrangement, opts ...JSONOption) ([]byte, error) {
	r := newJSONRenderer(opts)
	doc := buildDocument(a, r)
	if r.compact {
		return json.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// RenderYAML exports the same document as RenderJSON in YAML.
func RenderYAML(a tiles.Arrangement, opts ...JSONOption) ([]byte, error) {
	return yaml.Marshal(buildDocument(a, newJSONRenderer(opts)))
}
