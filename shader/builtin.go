// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import "github.com/gogpu/softgpu/types"

// Builtin shader names.
const (
	// SolidColorName renders every fragment with a uniform color.
	// Uniform slot 0: mat4 MVP at offset 0, vec4 color at offset 64.
	// Attribute location 0: position.
	SolidColorName = "builtin/solid_color"

	// VertexColorName interpolates per-vertex colors.
	// Uniform slot 0: mat4 MVP. Locations: 0 position, 1 color.
	VertexColorName = "builtin/vertex_color"

	// TexturedName samples texture slot 0 with nearest filtering.
	// Uniform slot 0: mat4 MVP. Locations: 0 position, 1 UV.
	TexturedName = "builtin/textured"
)

// RegisterBuiltins registers the builtin shaders and returns their
// handles in declaration order. Safe to call more than once.
func RegisterBuiltins() (solid, vertex, textured types.ShaderHandle) {
	solid = Register(SolidColorName, Desc{
		Soft:   func(*types.PipelineDesc) Program { return solidColorProgram{} },
		Source: solidColorWGSL,
	})
	vertex = Register(VertexColorName, Desc{
		Soft:   func(*types.PipelineDesc) Program { return vertexColorProgram{} },
		Source: vertexColorWGSL,
	})
	textured = Register(TexturedName, Desc{
		Soft:   func(*types.PipelineDesc) Program { return texturedProgram{} },
		Source: texturedWGSL,
	})
	return solid, vertex, textured
}

type solidColorProgram struct{}

func (solidColorProgram) NumVaryings() int { return 0 }

func (solidColorProgram) Vertex(env *Env, in *VertexIn, out *VertexOut) {
	mvp := env.UniformMat4(0, 0)
	out.Position = Mat4MulVec4(mvp, in.Attr[0])
}

func (solidColorProgram) Fragment(env *Env, _ *FragIn) [4]float32 {
	return env.UniformVec4(0, 64)
}

type vertexColorProgram struct{}

func (vertexColorProgram) NumVaryings() int { return 4 }

func (vertexColorProgram) Vertex(env *Env, in *VertexIn, out *VertexOut) {
	mvp := env.UniformMat4(0, 0)
	out.Position = Mat4MulVec4(mvp, in.Attr[0])
	copy(out.Varyings[:4], in.Attr[1][:])
}

func (vertexColorProgram) Fragment(_ *Env, in *FragIn) [4]float32 {
	return [4]float32{in.Varyings[0], in.Varyings[1], in.Varyings[2], in.Varyings[3]}
}

type texturedProgram struct{}

func (texturedProgram) NumVaryings() int { return 2 }

func (texturedProgram) Vertex(env *Env, in *VertexIn, out *VertexOut) {
	mvp := env.UniformMat4(0, 0)
	out.Position = Mat4MulVec4(mvp, in.Attr[0])
	out.Varyings[0] = in.Attr[1][0]
	out.Varyings[1] = in.Attr[1][1]
}

func (texturedProgram) Fragment(env *Env, in *FragIn) [4]float32 {
	return env.Textures[0].SampleNearest(in.Varyings[0], in.Varyings[1], WrapRepeat)
}

var solidColorWGSL = Source{
	Vertex: `struct Params {
    mvp: mat4x4<f32>,
    color: vec4<f32>,
}
@group(0) @binding(0) var<uniform> params: Params;

@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return params.mvp * vec4<f32>(position, 1.0);
}
`,
	Fragment: `struct Params {
    mvp: mat4x4<f32>,
    color: vec4<f32>,
}
@group(0) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.color;
}
`,
}

var vertexColorWGSL = Source{
	Vertex: `struct Params {
    mvp: mat4x4<f32>,
}
@group(0) @binding(0) var<uniform> params: Params;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) color: vec4<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = params.mvp * vec4<f32>(position, 1.0);
    out.color = color;
    return out;
}
`,
	Fragment: `@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`,
}

var texturedWGSL = Source{
	Vertex: `struct Params {
    mvp: mat4x4<f32>,
}
@group(0) @binding(0) var<uniform> params: Params;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = params.mvp * vec4<f32>(position, 1.0);
    out.uv = uv;
    return out;
}
`,
	Fragment: `@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(2) var samp: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(tex, samp, uv);
}
`,
}
