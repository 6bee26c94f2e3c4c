// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package types

// CullMode specifies which triangle faces are discarded.
type CullMode uint8

const (
	// CullNone disables face culling.
	CullNone CullMode = iota
	// CullFront culls front-facing triangles.
	CullFront
	// CullBack culls back-facing triangles.
	CullBack
)

// PrimitiveType selects how vertices are assembled into primitives.
type PrimitiveType uint8

const (
	// PrimitiveTriangles assembles independent triangles.
	PrimitiveTriangles PrimitiveType = iota
	// PrimitiveLines assembles independent line segments.
	PrimitiveLines
	// PrimitivePoints assembles single points.
	PrimitivePoints
)

// VertexFormat describes the in-memory format of one vertex attribute.
type VertexFormat uint8

const (
	// VertexFloat1 is one 32-bit float.
	VertexFloat1 VertexFormat = iota
	// VertexFloat2 is two 32-bit floats.
	VertexFloat2
	// VertexFloat3 is three 32-bit floats.
	VertexFloat3
	// VertexFloat4 is four 32-bit floats.
	VertexFloat4
	// VertexUByte4 is four unsigned bytes, read as 0..255.
	VertexUByte4
	// VertexUByte4N is four unsigned bytes, normalized to 0..1.
	VertexUByte4N
)

// Size returns the byte width of the format.
func (f VertexFormat) Size() int {
	switch f {
	case VertexFloat1:
		return 4
	case VertexFloat2:
		return 8
	case VertexFloat3:
		return 12
	case VertexFloat4:
		return 16
	case VertexUByte4, VertexUByte4N:
		return 4
	}
	return 0
}

// Components returns the scalar count of the format.
func (f VertexFormat) Components() int {
	switch f {
	case VertexFloat1:
		return 1
	case VertexFloat2:
		return 2
	case VertexFloat3:
		return 3
	case VertexFloat4, VertexUByte4, VertexUByte4N:
		return 4
	}
	return 0
}

// VertexAttribute describes one attribute inside a vertex stream.
type VertexAttribute struct {
	// Format is the in-memory layout of the attribute.
	Format VertexFormat

	// Offset is the byte offset from the start of the vertex.
	Offset int

	// Location is the attribute index the shader reads it at.
	Location int
}

// VertexLayout describes the vertex data consumed by a pipeline.
type VertexLayout struct {
	// Stride is the byte distance between consecutive vertices.
	Stride int

	// Attributes lists the attributes decoded from each vertex.
	Attributes []VertexAttribute
}

// PipelineDesc describes a pipeline state object: a shader plus the
// fixed-function state used for a draw.
type PipelineDesc struct {
	// Shader is the registry entry the pipeline executes.
	Shader ShaderHandle

	// Layout describes the vertex input.
	Layout VertexLayout

	// Cull selects face culling. Default CullNone.
	Cull CullMode

	// Primitive selects primitive assembly. Default triangles.
	Primitive PrimitiveType

	// DepthTest enables the depth test (pass = strictly less).
	DepthTest bool

	// DepthWrite enables depth buffer writes.
	DepthWrite bool

	// BlendEnabled enables alpha blending on backends that support it.
	BlendEnabled bool

	// Label is an optional debug name.
	Label string
}
