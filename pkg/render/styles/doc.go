// Package styles provides the visual styles used by the SVG renderer.
//
// A [Style] draws the background, empty slots, participant tiles, labels, and
// badges of an arrangement. Two flat styles are registered: "light" (the
// default) and "dark". [Lookup] resolves a style by name.
package styles
