// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package gl implements the softgpu device contract on top of a
// GL-style graphics context supplied by the host.
//
// The package owns no window or GL loader: the host hands the device
// a [Context] bound to its rendering thread, and the device translates
// the backend-neutral packet stream into context calls, caching
// binding state to elide redundant changes. Registry shaders are
// carried as WGSL and translated to GLSL with naga when a pipeline is
// created.
//
// The backend exists to demonstrate that the RHI is backend-neutral;
// the soft package is the primary implementation.
package gl

import "github.com/gogpu/softgpu/types"

// BufferTarget selects the context bind point of a buffer.
type BufferTarget uint8

const (
	// TargetArray is the vertex data bind point.
	TargetArray BufferTarget = iota
	// TargetElementArray is the index data bind point.
	TargetElementArray
	// TargetUniform is the uniform data bind point.
	TargetUniform
)

// DataUsage is the allocation hint forwarded to the context.
type DataUsage uint8

const (
	// UsageStatic marks data uploaded once.
	UsageStatic DataUsage = iota
	// UsageDynamic marks data rewritten occasionally.
	UsageDynamic
	// UsageStream marks data overwritten every frame.
	UsageStream
)

// Context is the GL-style API surface the device drives. The host
// implements it over its GL bindings (or anything shaped like them)
// and is responsible for making the underlying context current on the
// calling thread.
//
// All calls happen on the goroutine that calls Device methods.
type Context interface {
	// GenBuffer allocates a buffer object.
	GenBuffer() uint32
	// DeleteBuffer releases a buffer object.
	DeleteBuffer(id uint32)
	// BindBuffer binds a buffer to a target.
	BindBuffer(target BufferTarget, id uint32)
	// BufferData allocates and optionally fills the bound buffer.
	BufferData(target BufferTarget, size int, data []byte, usage DataUsage)
	// BufferSubData overwrites a range of the bound buffer.
	BufferSubData(target BufferTarget, offset int, data []byte)
	// BindUniformBase binds a buffer to an indexed uniform slot.
	BindUniformBase(slot int, id uint32)

	// GenTexture allocates a texture object.
	GenTexture() uint32
	// DeleteTexture releases a texture object.
	DeleteTexture(id uint32)
	// BindTexture binds a 2D texture to a texture unit.
	BindTexture(unit int, id uint32)
	// TexImage2D uploads RGBA8 pixels to the bound texture of unit 0.
	TexImage2D(width, height int, pixels []byte)

	// CreateProgram compiles and links a program from GLSL sources.
	CreateProgram(vertexSrc, fragmentSrc string) (uint32, error)
	// DeleteProgram releases a program object.
	DeleteProgram(id uint32)
	// UseProgram makes a program current.
	UseProgram(id uint32)

	// SetVertexLayout configures attribute pointers for the bound
	// vertex buffer.
	SetVertexLayout(attrs []types.VertexAttribute, stride, offset int)

	// SetDepthState toggles the depth test and depth writes.
	SetDepthState(test, write bool)
	// SetCullMode configures face culling.
	SetCullMode(mode types.CullMode)
	// SetBlend toggles standard alpha blending.
	SetBlend(enabled bool)

	// Viewport sets the viewport rectangle.
	Viewport(x, y, w, h int)
	// Scissor sets the scissor rectangle.
	Scissor(x, y, w, h int)
	// Clear clears the selected planes of the current framebuffer.
	Clear(color, depth bool, c [4]float32, d float32)

	// DrawArrays draws non-indexed triangles.
	DrawArrays(first, count int)
	// DrawElements draws indexed triangles; byteOffset is into the
	// bound element buffer holding 32-bit indices.
	DrawElements(count, byteOffset, baseVertex int)
}
