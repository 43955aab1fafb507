// Package sink renders a [tiles.Arrangement] into output formats.
//
// # Overview
//
// A "sink" turns a computed arrangement into bytes. This package provides:
//
//   - SVG: a static picture of the grid, styled by [styles.Style]
//   - JSON and YAML: the arrangement as data, for clients and caching
//   - Text: a terminal preview drawn with lipgloss boxes
//   - DOT and PNG: a Graphviz graph with every tile pinned in place
//
// # SVG Output
//
//	svg := sink.RenderSVG(a, sink.WithStyle(styles.Dark{}))
//
// Empty slots are drawn dashed. When participants overflow, a "+N more"
// badge is drawn under the grid; an empty room gets a placeholder message.
//
// # PNG Output
//
// [RenderPNG] lays the arrangement out as a Graphviz graph with the neato
// engine and fixed node positions, so the raster matches the SVG geometry.
// It uses the WebAssembly build of Graphviz bundled with go-graphviz and needs
// no system packages.
//
// [tiles.Arrangement]: github.com/matzehuels/tilegrid/pkg/tiles.Arrangement
// [styles.Style]: github.com/matzehuels/tilegrid/pkg/render/styles.Style
package sink
