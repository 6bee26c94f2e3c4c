// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package raster

import "github.com/gogpu/softgpu/types"

// EdgeFn is a linear edge equation A*x + B*y + C over screen space.
// For an edge from (x0, y0) to (x1, y1), points to the right of the
// directed edge as seen on a Y-down screen evaluate positive.
type EdgeFn struct {
	A, B, C float32
}

// NewEdgeFn builds the edge function for the directed edge
// (x0, y0) → (x1, y1).
func NewEdgeFn(x0, y0, x1, y1 float32) EdgeFn {
	return EdgeFn{
		A: y0 - y1,
		B: x1 - x0,
		C: x0*y1 - x1*y0,
	}
}

// Eval returns the signed value of the edge function at (x, y).
func (e EdgeFn) Eval(x, y float32) float32 {
	return e.A*x + e.B*y + e.C
}

// Neg returns the edge function of the reversed edge. Negating all
// three edges of a negative-area triangle (counter-clockwise in NDC)
// yields the form with the interior on the positive side, so one
// fill-rule test covers both windings.
func (e EdgeFn) Neg() EdgeFn {
	return EdgeFn{A: -e.A, B: -e.B, C: -e.C}
}

// IsTopLeft reports whether the edge is a top or left edge in screen
// space (Y grows downward). Pixels exactly on a shared edge are owned
// by the triangle whose edge is top or left, so adjacent triangles
// never double-cover a pixel.
func (e EdgeFn) IsTopLeft() bool {
	// With the interior on the positive side, (A, B) points inward.
	// Left edge: interior to its right, so it goes upward (A > 0).
	if e.A > 0 {
		return true
	}
	// Top edge: horizontal with the interior below, so going rightward.
	return e.A == 0 && e.B > 0
}

// fillBias is the coverage threshold for non-top-left edges, so that
// pixels exactly on such edges are excluded.
const fillBias = 1e-6

// Bias returns the fill-rule coverage threshold for the edge: a pixel
// is covered when the edge value is >= the bias. Top-left edges own
// their pixels (threshold 0); other edges require a strictly positive
// value.
func (e EdgeFn) Bias() float32 {
	if e.IsTopLeft() {
		return 0
	}
	return fillBias
}

// Area returns twice the signed area of the screen-space triangle
// (v0, v1, v2). With a top-left origin (Y down), triangles wound
// counter-clockwise in NDC come out negative.
func Area(x0, y0, x1, y1, x2, y2 float32) float32 {
	return NewEdgeFn(x0, y0, x1, y1).Eval(x2, y2)
}

// ShouldCull reports whether a triangle with the given doubled signed
// screen area is discarded under the cull mode. Front faces wind
// counter-clockwise in NDC, which is negative area in top-left screen
// coordinates. Zero-area triangles are always culled.
func ShouldCull(area float32, mode types.CullMode) bool {
	if area == 0 {
		return true
	}
	switch mode {
	case types.CullBack:
		return area > 0
	case types.CullFront:
		return area < 0
	}
	return false
}
