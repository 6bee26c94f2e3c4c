// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/softgpu/types"
)

// VertexIn is the input of one vertex shader invocation. Attributes
// are decoded from the bound vertex streams per the pipeline's layout
// and expanded to four components; missing components read as
// (0, 0, 0, 1).
type VertexIn struct {
	// Index is the vertex index being processed.
	Index int

	// Attr holds the decoded attributes by shader location.
	Attr [types.MaxVertexAttributes][4]float32
}

// VertexOut is the output of one vertex shader invocation.
type VertexOut struct {
	// Position is the clip-space position (x, y, z, w).
	Position [4]float32

	// Varyings are scalars interpolated across the triangle. Only the
	// first Program.NumVaryings entries are consumed.
	Varyings [types.MaxVaryings]float32
}

// FragIn is the input of one fragment shader invocation.
type FragIn struct {
	// X, Y are the pixel coordinates (top-left origin).
	X, Y int

	// Depth is the interpolated depth in [0, 1].
	Depth float32

	// W is the reconstructed per-pixel clip-space w.
	W float32

	// Varyings are the perspective-correct interpolated varyings;
	// the slice has Program.NumVaryings entries.
	Varyings []float32
}

// Env is the resource environment a draw executes in: the uniform
// staging slots and the bound textures. It is read-only during
// rasterization and shared across worker goroutines.
type Env struct {
	// Uniforms is the staging region written by UpdateUniform packets.
	Uniforms *[types.MaxUniformSlots][types.UniformSlotSize]byte

	// Textures are the bound texture views by slot.
	Textures [types.MaxTextureSlots]TexView
}

// Uniform returns the raw bytes of a uniform slot, or nil for an
// out-of-range slot.
func (e *Env) Uniform(slot int) []byte {
	if e.Uniforms == nil || slot < 0 || slot >= types.MaxUniformSlots {
		return nil
	}
	return e.Uniforms[slot][:]
}

// UniformF32 reads one float32 from a uniform slot at a byte offset.
// Out-of-range reads return 0.
func (e *Env) UniformF32(slot, offset int) float32 {
	b := e.Uniform(slot)
	if b == nil || offset < 0 || offset+4 > len(b) {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}

// UniformVec4 reads four float32 from a uniform slot at a byte offset.
func (e *Env) UniformVec4(slot, offset int) [4]float32 {
	var v [4]float32
	for i := range v {
		v[i] = e.UniformF32(slot, offset+i*4)
	}
	return v
}

// UniformMat4 reads a column-major 4x4 matrix from a uniform slot at a
// byte offset.
func (e *Env) UniformMat4(slot, offset int) [16]float32 {
	var m [16]float32
	for i := range m {
		m[i] = e.UniformF32(slot, offset+i*4)
	}
	return m
}

// Program executes the programmable stages of one pipeline. A program
// instance is created per pipeline by the shader's [SoftFactory] and
// may carry per-pipeline state derived from the descriptor.
//
// Fragment is called concurrently from worker goroutines; programs
// must not mutate shared state from it.
type Program interface {
	// NumVaryings returns how many scalars Vertex writes into
	// VertexOut.Varyings. Must not exceed types.MaxVaryings.
	NumVaryings() int

	// Vertex transforms one vertex to clip space.
	Vertex(env *Env, in *VertexIn, out *VertexOut)

	// Fragment shades one covered pixel, returning RGBA in [0, 1].
	Fragment(env *Env, in *FragIn) [4]float32
}

// Funcs is a Program built from plain functions, for shaders without
// per-pipeline state.
type Funcs struct {
	// Varyings is the varying count reported by NumVaryings.
	Varyings int

	// VertexFn transforms one vertex.
	VertexFn func(env *Env, in *VertexIn, out *VertexOut)

	// FragmentFn shades one pixel.
	FragmentFn func(env *Env, in *FragIn) [4]float32
}

// NumVaryings implements Program.
func (f *Funcs) NumVaryings() int { return f.Varyings }

// Vertex implements Program.
func (f *Funcs) Vertex(env *Env, in *VertexIn, out *VertexOut) { f.VertexFn(env, in, out) }

// Fragment implements Program.
func (f *Funcs) Fragment(env *Env, in *FragIn) [4]float32 { return f.FragmentFn(env, in) }
