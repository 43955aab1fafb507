package sink

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/tilegrid/pkg/tiles"
)

var (
	colorTile     = lipgloss.Color("245")
	colorSpeaking = lipgloss.Color("35")
	colorScreen   = lipgloss.Color("75")
	colorDim      = lipgloss.Color("240")

	styleTileBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorTile).Align(lipgloss.Center, lipgloss.Center)
	styleFooter  = lipgloss.NewStyle().Foreground(colorDim)
)

// TextOption configures text rendering.
type TextOption func(*textRenderer)

type textRenderer struct {
	width int
}

// WithTextWidth sets the preview width in terminal columns (default 80).
func WithTextWidth(cols int) TextOption {
	return func(r *textRenderer) {
		if cols > 0 {
			r.width = cols
		}
	}
}

// RenderText draws a in a terminal. Container pixels are scaled to the
// preview width, with rows at half the horizontal scale since terminal cells
// are about twice as tall as they are wide. A one-line summary follows.
func RenderText(a tiles.Arrangement, opts ...TextOption) string {
	r := textRenderer{width: 80}
	for _, opt := range opts {
		opt(&r)
	}

	sx := 0.0
	if a.Container.Width > 0 {
		sx = float64(r.width) / a.Container.Width
	}
	sy := sx / 2
	height := max(3, int(a.Container.Height*sy))

	var body string
	switch {
	case a.Empty:
		body = lipgloss.Place(r.width, height, lipgloss.Center, lipgloss.Center, PlaceholderText)
	case a.Mode == tiles.ModeSpeaker:
		body = r.speaker(a, sx, sy)
	default:
		body = r.grid(a, sx, sy)
	}
	return body + "\n" + styleFooter.Render(summary(a)) + "\n"
}

func (r textRenderer) grid(a tiles.Arrangement, sx, sy float64) string {
	cols, rows := a.Layout.Shape.Columns, a.Layout.Shape.Rows
	slotW := max(5, (r.width-(cols-1))/cols)
	slotH := max(3, int((a.Container.Height-float64(rows-1)*a.Layout.Gap)/float64(rows)*sy))
	tileW := min(slotW, max(5, int(a.Layout.Cell.Width*sx)))
	tileH := min(slotH, max(3, int(a.Layout.Cell.Height*sy)))

	lines := make([]string, 0, rows)
	for row := 0; row < rows; row++ {
		cells := make([]string, 0, cols*2)
		for col := 0; col < cols; col++ {
			if col > 0 {
				cells = append(cells, " ")
			}
			i := row*cols + col
			content := ""
			if i < len(a.Tiles) {
				content = tileBox(a.Tiles[i], tileW, tileH)
			}
			cells = append(cells, lipgloss.Place(slotW, slotH, lipgloss.Center, lipgloss.Center, content))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (r textRenderer) speaker(a tiles.Arrangement, sx, sy float64) string {
	main := a.Tiles[0]
	mainW := max(5, int(main.Slot.Width*sx))
	mainH := max(3, int(main.Slot.Height*sy))
	box := tileBox(main, min(mainW, max(5, int(main.Rect.Width*sx))), min(mainH, max(3, int(main.Rect.Height*sy))))
	left := lipgloss.Place(mainW, mainH, lipgloss.Center, lipgloss.Center, box)

	thumbs := make([]string, 0, len(a.Tiles)-1)
	for _, t := range a.Tiles[1:] {
		thumbs = append(thumbs, tileBox(t, max(5, int(t.Rect.Width*sx)), max(3, int(t.Rect.Height*sy))))
	}
	right := lipgloss.JoinVertical(lipgloss.Left, thumbs...)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// tileBox draws a bordered box of outer size w×h with the participant's label.
func tileBox(t tiles.Tile, w, h int) string {
	style := styleTileBox
	switch {
	case t.Participant.Speaking:
		style = style.BorderForeground(colorSpeaking).Bold(true)
	case t.Source == tiles.SourceScreen:
		style = style.BorderForeground(colorScreen)
	}
	inner := max(1, w-2)
	label := truncate(t.Participant.Label(), inner)
	if t.Participant.Muted && len([]rune(label))+2 <= inner {
		label += " ⊘"
	}
	return style.Width(inner).Height(max(1, h-2)).Render(label)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}

func summary(a tiles.Arrangement) string {
	if a.Empty {
		return fmt.Sprintf("%s · empty", a.Container)
	}
	parts := []string{
		string(a.Mode),
		a.Layout.Shape.String(),
		fmt.Sprintf("cell %.0fx%.0f", a.Layout.Cell.Width, a.Layout.Cell.Height),
		fmt.Sprintf("%d shown", len(a.Tiles)),
	}
	if label := a.OverflowLabel(); label != "" {
		parts = append(parts, label)
	}
	return strings.Join(parts, " · ")
}
