// Package render groups the packages that draw a [tiles.Arrangement].
//
//   - [sink]: turns an arrangement into SVG, PNG, JSON, YAML, DOT, or text
//   - [styles]: the visual styles the SVG sink draws with
//
// [tiles.Arrangement]: github.com/matzehuels/tilegrid/pkg/tiles.Arrangement
// [sink]: github.com/matzehuels/tilegrid/pkg/render/sink
// [styles]: github.com/matzehuels/tilegrid/pkg/render/styles
package render
