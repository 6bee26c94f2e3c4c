// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"unsafe"

	"github.com/gogpu/softgpu/internal/arena"
	"github.com/gogpu/softgpu/types"
)

// triangleRecord is the baked form of one screen-space triangle,
// ready for rasterization. Records are plain old data and live in the
// frame arena; their addresses are valid only until the frame resets.
type triangleRecord struct {
	// pos holds, per vertex: screen x, screen y (pixels, top-left
	// origin), depth z in [0, 1], and 1/w for perspective-correct
	// interpolation.
	pos [3][4]float32

	// varyings are the vertex shader outputs, pre-divided by w.
	varyings [3][types.MaxVaryings]float32

	// numVaryings is how many entries of each varying vector are live.
	numVaryings int32
}

// clearRecord is the baked form of a mid-pass clear. The scissor at
// record time is captured so later scissor changes do not affect it.
type clearRecord struct {
	color   [4]float32
	depth   float32
	scissor types.Rect
	clearColor bool
	clearDepth bool
}

// allocRecord places a zeroed T in the frame arena and returns its
// address together with the byte offset stored in tile commands.
// The arena's 8-byte alignment covers both record types.
func allocRecord[T any](a *arena.Arena) (*T, uint32, error) {
	var zero T
	off, err := a.Alloc(int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, 0, err
	}
	p := (*T)(unsafe.Pointer(&a.Bytes()[off]))
	*p = zero
	return p, uint32(off), nil
}

// recordAt resolves a tile command's data offset back to its record.
// Valid only between allocation and the frame reset.
func recordAt[T any](a *arena.Arena, off uint32) *T {
	return (*T)(unsafe.Pointer(&a.Bytes()[off]))
}
