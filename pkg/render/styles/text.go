package styles

import (
	"bytes"
	"encoding/xml"
	"unicode/utf8"
)

const (
	fontHeightRatio = 0.14
	fontWidthRatio  = 0.85
	fontCharWidth   = 0.55
	fontSizeMin     = 8.0
	fontSizeMax     = 28.0
)

// FontSize picks a label size that fits t's width and scales with its height.
func FontSize(t Tile) float64 {
	n := max(1, utf8.RuneCountInString(t.Label))
	byHeight := t.H * fontHeightRatio
	byWidth := (t.W * fontWidthRatio) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

// TruncateLabel shortens t's label to what fits at FontSize.
func TruncateLabel(t Tile) string {
	charWidth := FontSize(t) * fontCharWidth
	maxChars := max(3, int(t.W*fontWidthRatio/charWidth))

	runes := []rune(t.Label)
	if len(runes) <= maxChars {
		return t.Label
	}
	return string(runes[:maxChars-2]) + ".."
}

func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
