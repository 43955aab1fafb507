// Package pkg provides the core libraries for tilegrid.
//
// # Overview
//
// Tilegrid decides how a video call shows its participants: how many columns
// and rows the grid has and how large each 16:9 tile can be inside a given
// container. The pkg directory is organized into these areas:
//
//  1. [grid] - Shape selection and cell sizing
//  2. [tiles] - Tile placement, speaker view, and overflow
//  3. [observe] - Recomputing layouts as a container resizes
//  4. [room] - Room rosters in memory, Redis, or MongoDB
//  5. [pipeline] - Orchestration (layout → render) with caching
//  6. [render] - Output formats and styles
//
// Supporting packages: [cache], [config], [errors], [observability], and
// [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	participant count or roster + container size
//	         ↓
//	    [grid] package (shape + cell size)
//	         ↓
//	    [tiles] package (visible tiles + positions)
//	         ↓
//	    [render/sink] package
//	         ↓
//	    SVG/PNG/JSON/YAML/text output
//
// # Quick Start
//
//	l := grid.Compute(6, 1280, 720)
//	fmt.Println(l.Shape, l.Cell) // 3x2 ...
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Count: 6})
//	svg := result.Artifacts["svg"]
package pkg
