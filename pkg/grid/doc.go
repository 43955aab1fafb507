// Package grid computes video-tile grid layouts for voice and video rooms.
//
// # Overview
//
// A grid layout answers two questions for a room with N participants shown
// inside a container of W×H pixels:
//
//  1. Which shape (columns × rows) should the tiles use?
//  2. How large is each tile so it fits the container and stays close to 16:9?
//
// [SelectShape] answers the first question with a small set of hand-tuned
// presets (1→1×1, 2→2×1 or 1×2, 3–4→2×2, 5–6→3×2, 7–9→3×3, 10+→4×3) followed by
// an adjustment pass that guarantees capacity and trims empty rows or columns.
// The grid never grows past [MaxCells]; rooms with more participants show the
// remainder as an overflow indicator, which is the caller's job.
//
// [ComputeCellSize] answers the second question. It divides the container
// (minus fixed gaps) evenly and then shrinks whichever dimension is too large
// relative to [TargetAspect]. It never grows a dimension, so the corrected
// cell always fits the space the grid implies.
//
// [Compute] runs both steps and returns a [Layout].
//
// # Degenerate Inputs
//
// The functions are total. Negative participant counts are clamped to zero.
// Containers smaller than their gaps produce zero or negative cell sizes
// rather than errors; use [CellSize.Ready] to decide whether a layout can be
// drawn yet.
//
// # Usage
//
//	l := grid.Compute(6, 1280, 720)
//	fmt.Println(l.Shape)              // 3x2
//	fmt.Printf("%.1f\n", l.Cell.Height) // 237.0
package grid
