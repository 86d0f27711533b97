// Package geometry computes the transforms that place captured photos and
// template-authored decoration into a composited canvas.
//
// All functions are pure: they map design-space dimensions plus user
// adjustments to device-pixel placements, with no I/O and no stored state.
// This keeps the math independently testable from the renderer that consumes
// it.
//
// # Coordinate model
//
// A template is authored at a fixed design size. Each slot is a rectangular
// frame inside that design. A captured photo is cover-fit into its frame:
// the limiting dimension stretches to fill the frame and overflow on the
// other axis is cropped. User adjustments then scale the photo up from the
// cover-fit base and pan it within the cropped overflow, so no gap between
// photo and frame edge can ever appear.
package geometry
