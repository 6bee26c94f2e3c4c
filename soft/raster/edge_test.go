// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package raster

import (
	"testing"

	"github.com/gogpu/softgpu/types"
)

func TestEdgeSides(t *testing.T) {
	// Edge from (0,0) to (10,0): points with positive Y (below, in
	// screen coordinates) are on the right of the edge and positive.
	e := NewEdgeFn(0, 0, 10, 0)
	if v := e.Eval(5, -1); v >= 0 {
		t.Errorf("point above edge: %v, want < 0", v)
	}
	if v := e.Eval(5, 1); v <= 0 {
		t.Errorf("point below edge: %v, want > 0", v)
	}
	if v := e.Eval(5, 0); v != 0 {
		t.Errorf("point on edge: %v, want 0", v)
	}
}

func TestTopLeftClassification(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float32
		want           bool
	}{
		{"upward (left) edge", 0, 10, 0, 0, true},
		{"downward (right) edge", 0, 0, 0, 10, false},
		{"horizontal rightward (top) edge", 0, 0, 10, 0, true},
		{"horizontal leftward (bottom) edge", 10, 0, 0, 0, false},
		{"diagonal up", 0, 10, 5, 0, true},
		{"diagonal down", 5, 0, 0, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEdgeFn(tt.x0, tt.y0, tt.x1, tt.y1)
			if got := e.IsTopLeft(); got != tt.want {
				t.Errorf("IsTopLeft = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAreaSign(t *testing.T) {
	// CCW in NDC stays CCW as seen on a Y-down screen: negative area.
	// Screen triangle visiting (0,10) → (10,10) → (5,0) goes
	// counter-clockwise on screen and in NDC.
	if a := Area(0, 10, 10, 10, 5, 0); a >= 0 {
		t.Errorf("screen-CCW triangle area %v, want < 0", a)
	}
	if a := Area(0, 10, 5, 0, 10, 10); a <= 0 {
		t.Errorf("screen-CW triangle area %v, want > 0", a)
	}
}

func TestShouldCull(t *testing.T) {
	front := float32(-20.0) // NDC counter-clockwise
	back := float32(20.0)

	tests := []struct {
		name string
		area float32
		mode types.CullMode
		want bool
	}{
		{"none keeps front", front, types.CullNone, false},
		{"none keeps back", back, types.CullNone, false},
		{"back culls back", back, types.CullBack, true},
		{"back keeps front", front, types.CullBack, false},
		{"front culls front", front, types.CullFront, true},
		{"front keeps back", back, types.CullFront, false},
		{"degenerate always culled", 0, types.CullNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldCull(tt.area, tt.mode); got != tt.want {
				t.Errorf("ShouldCull(%v, %v) = %v, want %v", tt.area, tt.mode, got, tt.want)
			}
		})
	}
}
