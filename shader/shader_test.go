// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"math"
	"testing"

	"github.com/gogpu/softgpu/types"
)

func TestRegisterIdempotent(t *testing.T) {
	Reset()
	defer Reset()

	desc := Desc{Soft: func(*types.PipelineDesc) Program { return &Funcs{} }}
	a := Register("flat", desc)
	if !a.IsValid() {
		t.Fatal("Register returned invalid handle")
	}
	b := Register("flat", Desc{})
	if a != b {
		t.Fatalf("re-registration returned %v, want existing %v", b, a)
	}

	// The original description survives.
	got, ok := DescOf(a)
	if !ok || got.Soft == nil {
		t.Fatal("re-registration replaced the original description")
	}
}

func TestLookup(t *testing.T) {
	Reset()
	defer Reset()

	h := Register("lit", Desc{})
	if got := Lookup("lit"); got != h {
		t.Errorf("Lookup = %v, want %v", got, h)
	}
	if got := Lookup("missing"); got.IsValid() {
		t.Errorf("Lookup of unregistered name = %v, want invalid", got)
	}
	if !IsRegistered("lit") || IsRegistered("missing") {
		t.Error("IsRegistered mismatch")
	}
}

func TestZeroHandleInvalid(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := DescOf(0); ok {
		t.Error("DescOf(0) resolved")
	}
	if _, ok := DescOf(99); ok {
		t.Error("DescOf(99) resolved on empty registry")
	}
}

func TestResetEmpties(t *testing.T) {
	Reset()
	Register("gone", Desc{})
	Reset()
	if IsRegistered("gone") {
		t.Fatal("registry still holds entries after Reset")
	}
	// Handles restart from 1.
	if h := Register("fresh", Desc{}); h != 1 {
		t.Fatalf("first handle after Reset = %v, want 1", h)
	}
	Reset()
}

func TestSampleNearest(t *testing.T) {
	// 2x2 checkerboard: red, green / blue, white.
	tv := TexView{
		Width:  2,
		Height: 2,
		Pix: []byte{
			255, 0, 0, 255, 0, 255, 0, 255,
			0, 0, 255, 255, 255, 255, 255, 255,
		},
	}

	tests := []struct {
		u, v float32
		want [4]float32
	}{
		{0.25, 0.25, [4]float32{1, 0, 0, 1}},
		{0.75, 0.25, [4]float32{0, 1, 0, 1}},
		{0.25, 0.75, [4]float32{0, 0, 1, 1}},
		{0.75, 0.75, [4]float32{1, 1, 1, 1}},
		// Repeat wrap: 1.25 ≡ 0.25.
		{1.25, 1.25, [4]float32{1, 0, 0, 1}},
		{-0.75, 0.25, [4]float32{1, 0, 0, 1}},
	}
	for _, tt := range tests {
		if got := tv.SampleNearest(tt.u, tt.v, WrapRepeat); got != tt.want {
			t.Errorf("SampleNearest(%v, %v) = %v, want %v", tt.u, tt.v, got, tt.want)
		}
	}
}

func TestSampleClamp(t *testing.T) {
	tv := TexView{
		Width:  2,
		Height: 1,
		Pix:    []byte{10, 0, 0, 255, 250, 0, 0, 255},
	}
	got := tv.SampleNearest(5, 0, WrapClamp)
	if got[0] < 0.9 {
		t.Errorf("clamped sample = %v, want right edge texel", got)
	}
	got = tv.SampleNearest(-5, 0, WrapClamp)
	if got[0] > 0.1 {
		t.Errorf("clamped sample = %v, want left edge texel", got)
	}
}

func TestSampleBilinearMidpoint(t *testing.T) {
	// Two texels black/white: the midpoint between centers is 50% grey.
	tv := TexView{
		Width:  2,
		Height: 1,
		Pix:    []byte{0, 0, 0, 255, 255, 255, 255, 255},
	}
	got := tv.SampleBilinear(0.5, 0.5, WrapClamp)
	if got[0] < 0.45 || got[0] > 0.55 {
		t.Errorf("midpoint bilinear sample = %v, want ~0.5", got[0])
	}
}

func TestMissingTextureMagenta(t *testing.T) {
	var tv TexView
	if got := tv.SampleNearest(0.5, 0.5, WrapRepeat); got != missingTexture {
		t.Errorf("unbound sample = %v, want magenta", got)
	}
}

func TestBuiltinPrograms(t *testing.T) {
	Reset()
	defer Reset()

	solid, vertex, textured := RegisterBuiltins()
	for _, h := range []types.ShaderHandle{solid, vertex, textured} {
		desc, ok := DescOf(h)
		if !ok {
			t.Fatalf("builtin %v not registered", h)
		}
		if desc.Soft == nil {
			t.Fatalf("builtin %v has no soft factory", h)
		}
		if desc.Source.Vertex == "" || desc.Source.Fragment == "" {
			t.Fatalf("builtin %v has no WGSL source", h)
		}
	}

	// Second registration returns identical handles.
	s2, v2, t2 := RegisterBuiltins()
	if s2 != solid || v2 != vertex || t2 != textured {
		t.Fatal("RegisterBuiltins is not idempotent")
	}

	// Solid color: identity MVP, color in slot 0 at offset 64.
	var uniforms [types.MaxUniformSlots][types.UniformSlotSize]byte
	env := &Env{Uniforms: &uniforms}
	writeMat4(uniforms[0][:], Mat4Identity())
	writeVec4(uniforms[0][64:], [4]float32{0, 1, 0, 1})

	desc, _ := DescOf(solid)
	prog := desc.Soft(&types.PipelineDesc{})
	var out VertexOut
	in := VertexIn{}
	in.Attr[0] = [4]float32{0.5, -0.5, 0, 1}
	prog.Vertex(env, &in, &out)
	if out.Position != in.Attr[0] {
		t.Errorf("identity transform moved vertex: %v", out.Position)
	}
	if got := prog.Fragment(env, &FragIn{}); got != [4]float32{0, 1, 0, 1} {
		t.Errorf("solid fragment = %v, want green", got)
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := Mat4Mul(Mat4Identity(), Mat4Translate(1, 2, 3))
	v := Mat4MulVec4(m, [4]float32{0, 0, 0, 1})
	if v != [4]float32{1, 2, 3, 1} {
		t.Errorf("translate = %v, want (1,2,3,1)", v)
	}
}

func writeMat4(dst []byte, m [16]float32) {
	for i, v := range m {
		writeF32(dst[i*4:], v)
	}
}

func writeVec4(dst []byte, v [4]float32) {
	for i, f := range v {
		writeF32(dst[i*4:], f)
	}
}

func writeF32(dst []byte, v float32) {
	bits := math.Float32bits(v)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}
