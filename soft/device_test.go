// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/shader"
	"github.com/gogpu/softgpu/types"
)

// Test shaders, registered once for the package.
var (
	flatShader     types.ShaderHandle
	countingShader types.ShaderHandle

	// countingPixels is swapped in by the coverage test; the counting
	// shader writes through it so re-registration (a no-op) never
	// captures stale state.
	countingPixels []int
	countingWidth  int
)

func init() {
	// Pass-through position, flat color from uniform slot 0.
	flatShader = shader.Register("soft_test/flat", shader.Desc{
		Soft: func(*types.PipelineDesc) shader.Program {
			return &shader.Funcs{
				VertexFn: func(_ *shader.Env, in *shader.VertexIn, out *shader.VertexOut) {
					out.Position = in.Attr[0]
				},
				FragmentFn: func(env *shader.Env, _ *shader.FragIn) [4]float32 {
					return env.UniformVec4(0, 0)
				},
			}
		},
	})
	countingShader = shader.Register("soft_test/counting", shader.Desc{
		Soft: func(*types.PipelineDesc) shader.Program {
			return &shader.Funcs{
				VertexFn: func(_ *shader.Env, in *shader.VertexIn, out *shader.VertexOut) {
					out.Position = in.Attr[0]
				},
				FragmentFn: func(_ *shader.Env, in *shader.FragIn) [4]float32 {
					countingPixels[in.Y*countingWidth+in.X]++
					return [4]float32{1, 1, 1, 1}
				},
			}
		},
	})
	shader.RegisterBuiltins()
}

func newTestDevice(t *testing.T, w, h int) (*Device, []byte) {
	t.Helper()
	d := NewDevice(Options{Workers: 4, PoolSize: 1 << 20})
	t.Cleanup(d.Close)
	color := make([]byte, w*h*4)
	if err := d.SetRenderTarget(color, nil, w, h); err != nil {
		t.Fatal(err)
	}
	return d, color
}

func flatPipeline(t *testing.T, d *Device) types.PipelineHandle {
	t.Helper()
	return flatPipelineDepth(t, d, false, false)
}

func flatPipelineDepth(t *testing.T, d *Device, depthTest, depthWrite bool) types.PipelineHandle {
	t.Helper()
	p, err := d.CreatePipeline(&types.PipelineDesc{
		Shader: flatShader,
		Layout: types.VertexLayout{
			Stride: 12,
			Attributes: []types.VertexAttribute{
				{Format: types.VertexFloat3, Offset: 0, Location: 0},
			},
		},
		DepthTest:  depthTest,
		DepthWrite: depthWrite,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func vertexBuffer(t *testing.T, d *Device, verts []float32) types.BufferHandle {
	t.Helper()
	data := make([]byte, len(verts)*4)
	for i, v := range verts {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	h, err := d.CreateBuffer(&types.BufferDesc{
		Kind:        types.BufferVertex,
		Size:        len(data),
		InitialData: data,
	})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func colorUniform(r, g, b, a float32) []byte {
	data := make([]byte, 16)
	for i, v := range []float32{r, g, b, a} {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

func pixel(color []byte, w, x, y int) [4]byte {
	i := (y*w + x) * 4
	return [4]byte{color[i], color[i+1], color[i+2], color[i+3]}
}

// fullscreenTri is the classic single triangle covering all of NDC.
var fullscreenTri = []float32{
	-1, -1, 0,
	3, -1, 0,
	-1, 3, 0,
}

func fullscreenTriAt(z float32) []float32 {
	return []float32{-1, -1, z, 3, -1, z, -1, 3, z}
}

func TestClearPass(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{
		ColorLoadOp: types.LoadOpClear,
		ClearColor:  types.Color{R: 0, G: 0, B: 0, A: 1},
	})
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := pixel(color, 4, x, y); got != [4]byte{0, 0, 0, 255} {
				t.Fatalf("pixel (%d,%d) = %v, want opaque black", x, y, got)
			}
		}
	}
}

func TestFullscreenTriangle(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipeline(t, d)
	vbo := vertexBuffer(t, d, fullscreenTri)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(1, 0, 0, 1))
	cb.Draw(3, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := pixel(color, 4, x, y); got != [4]byte{255, 0, 0, 255} {
				t.Fatalf("pixel (%d,%d) = %v, want red", x, y, got)
			}
		}
	}
}

func TestDepthTestNearWins(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipelineDepth(t, d, true, true)
	near := vertexBuffer(t, d, fullscreenTriAt(0.5))
	nearer := vertexBuffer(t, d, fullscreenTriAt(0.3))

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{
		ColorLoadOp: types.LoadOpClear,
		DepthLoadOp: types.LoadOpClear,
		ClearDepth:  1,
	})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(near, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(1, 0, 0, 1))
	cb.Draw(3, 0, 1)
	cb.SetVertexStream(nearer, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(0, 0, 1, 1))
	cb.Draw(3, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := pixel(color, 4, x, y); got != [4]byte{0, 0, 255, 255} {
				t.Fatalf("pixel (%d,%d) = %v, want blue (z=0.3 beats z=0.5)", x, y, got)
			}
		}
	}
}

func TestDepthTestFartherLoses(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipelineDepth(t, d, true, true)
	near := vertexBuffer(t, d, fullscreenTriAt(0.5))
	farther := vertexBuffer(t, d, fullscreenTriAt(0.7))

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{
		ColorLoadOp: types.LoadOpClear,
		DepthLoadOp: types.LoadOpClear,
		ClearDepth:  1,
	})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(near, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(1, 0, 0, 1))
	cb.Draw(3, 0, 1)
	cb.SetVertexStream(farther, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(0, 0, 1, 1))
	cb.Draw(3, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := pixel(color, 4, x, y); got != [4]byte{255, 0, 0, 255} {
				t.Fatalf("pixel (%d,%d) = %v, want red (z=0.7 fails against 0.5)", x, y, got)
			}
		}
	}
}

func TestScissor(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipeline(t, d)
	vbo := vertexBuffer(t, d, fullscreenTri)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetScissor(types.Rect{X: 1, Y: 1, W: 2, H: 2})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(1, 1, 1, 1))
	cb.Draw(3, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			inside := x >= 1 && x < 3 && y >= 1 && y < 3
			got := pixel(color, 4, x, y)
			if inside && got != [4]byte{255, 255, 255, 255} {
				t.Errorf("pixel (%d,%d) = %v, want white inside scissor", x, y, got)
			}
			if !inside && got != [4]byte{0, 0, 0, 0} {
				t.Errorf("pixel (%d,%d) = %v written outside scissor", x, y, got)
			}
		}
	}
}

func TestUniformSnapshotPerDraw(t *testing.T) {
	// The second draw only covers the left half; the first draw's
	// color must survive on the right even though the uniform changed
	// before rasterization ran.
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipeline(t, d)
	full := vertexBuffer(t, d, fullscreenTri)
	left := vertexBuffer(t, d, []float32{
		-1, -1, 0,
		0, -1, 0,
		0, 1, 0,
		-1, -1, 0,
		0, 1, 0,
		-1, 1, 0,
	})

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(full, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(1, 0, 0, 1))
	cb.Draw(3, 0, 1)
	cb.SetVertexStream(left, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(0, 1, 0, 1))
	cb.Draw(6, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		if got := pixel(color, 4, 0, y); got != [4]byte{0, 255, 0, 255} {
			t.Errorf("left pixel (0,%d) = %v, want green", y, got)
		}
		if got := pixel(color, 4, 3, y); got != [4]byte{255, 0, 0, 255} {
			t.Errorf("right pixel (3,%d) = %v, want red", y, got)
		}
	}
}

func TestYOrientationTopLeft(t *testing.T) {
	// A quad covering NDC y in [0, 1] must land in the top rows.
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipeline(t, d)
	top := vertexBuffer(t, d, []float32{
		-1, 0, 0,
		1, 0, 0,
		1, 1, 0,
		-1, 0, 0,
		1, 1, 0,
		-1, 1, 0,
	})

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(top, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(1, 1, 1, 1))
	cb.Draw(6, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	for x := 0; x < 4; x++ {
		if got := pixel(color, 4, x, 0); got != [4]byte{255, 255, 255, 255} {
			t.Errorf("top row pixel (%d,0) = %v, want white", x, got)
		}
		if got := pixel(color, 4, x, 3); got != [4]byte{0, 0, 0, 0} {
			t.Errorf("bottom row pixel (%d,3) = %v, want untouched", x, got)
		}
	}
}

func TestSharedEdgeNoDoubleCoverage(t *testing.T) {
	// Two triangles sharing the quad diagonal: every covered pixel is
	// shaded exactly once under the top-left fill rule.
	const w, h = 8, 8
	counts := make([]int, w*h)
	countingPixels = counts
	countingWidth = w

	// One worker and one tile so the counting shader needs no locking.
	d := NewDevice(Options{Workers: 1, TileSize: 64, PoolSize: 1 << 20})
	t.Cleanup(d.Close)
	color := make([]byte, w*h*4)
	if err := d.SetRenderTarget(color, nil, w, h); err != nil {
		t.Fatal(err)
	}

	pipe, err := d.CreatePipeline(&types.PipelineDesc{
		Shader: countingShader,
		Layout: types.VertexLayout{
			Stride: 12,
			Attributes: []types.VertexAttribute{
				{Format: types.VertexFloat3, Offset: 0, Location: 0},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	quad := vertexBuffer(t, d, []float32{
		-1, -1, 0,
		1, -1, 0,
		1, 1, 0,
		-1, -1, 0,
		1, 1, 0,
		-1, 1, 0,
	})

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(quad, 0, 12, 0)
	cb.Draw(6, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if got := counts[y*w+x]; got != 1 {
				t.Errorf("pixel (%d,%d) shaded %d times, want 1", x, y, got)
			}
		}
	}
}

func TestMidPassClear(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipeline(t, d)
	vbo := vertexBuffer(t, d, fullscreenTri)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(1, 0, 0, 1))
	cb.Draw(3, 0, 1)
	// The clear lands after the draw in tile order, wiping it.
	cb.Clear(true, false, false, types.Color{R: 0, G: 1, B: 0, A: 1}, 0, 0)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := pixel(color, 4, x, y); got != [4]byte{0, 255, 0, 255} {
				t.Fatalf("pixel (%d,%d) = %v, want mid-pass clear green", x, y, got)
			}
		}
	}
}

func TestDrawOutsidePassFatal(t *testing.T) {
	d, _ := newTestDevice(t, 4, 4)

	cb := softgpu.NewCommandBuffer(0)
	cb.Draw(3, 0, 1)
	err := d.Submit(cb)
	if !errors.Is(err, softgpu.ErrOutsidePass) {
		t.Fatalf("Submit = %v, want ErrOutsidePass", err)
	}

	// The device stays usable.
	cb2 := softgpu.NewCommandBuffer(0)
	cb2.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb2.EndPass()
	if err := d.Submit(cb2); err != nil {
		t.Fatalf("submit after fatal error: %v", err)
	}
}

func TestNestedBeginPassFatal(t *testing.T) {
	d, _ := newTestDevice(t, 4, 4)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{})
	cb.BeginPass(softgpu.PassDesc{})
	if err := d.Submit(cb); !errors.Is(err, softgpu.ErrNestedPass) {
		t.Fatalf("Submit = %v, want ErrNestedPass", err)
	}
}

func TestInvalidHandleSkipsCommand(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipeline(t, d)
	vbo := vertexBuffer(t, d, fullscreenTri)
	d.DestroyBuffer(vbo)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 12, 0) // stale handle: bind skipped
	cb.UpdateUniform(0, colorUniform(1, 0, 0, 1))
	cb.Draw(3, 0, 1) // no stream bound: draw skipped
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatalf("per-command failures must not abort the submit: %v", err)
	}
	if got := pixel(color, 4, 0, 0); got != [4]byte{0, 0, 0, 0} {
		t.Errorf("pixel (0,0) = %v, want untouched", got)
	}
}

func TestUpdateBufferBounds(t *testing.T) {
	d, _ := newTestDevice(t, 4, 4)
	h, err := d.CreateBuffer(&types.BufferDesc{Kind: types.BufferVertex, Size: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateBuffer(h, make([]byte, 8), 8); err != nil {
		t.Errorf("in-bounds update: %v", err)
	}
	if err := d.UpdateBuffer(h, make([]byte, 9), 8); !errors.Is(err, softgpu.ErrOutOfBounds) {
		t.Errorf("out-of-bounds update = %v, want ErrOutOfBounds", err)
	}
	if err := d.UpdateBuffer(h, []byte{1}, -1); !errors.Is(err, softgpu.ErrOutOfBounds) {
		t.Errorf("negative offset = %v, want ErrOutOfBounds", err)
	}
	if err := d.UpdateBuffer(0, []byte{1}, 0); !errors.Is(err, softgpu.ErrInvalidHandle) {
		t.Errorf("invalid handle = %v, want ErrInvalidHandle", err)
	}
}

func TestDrawIndexed(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)
	pipe := flatPipeline(t, d)
	vbo := vertexBuffer(t, d, fullscreenTri)

	idx := make([]byte, 12)
	for i, v := range []uint32{0, 1, 2} {
		binary.LittleEndian.PutUint32(idx[i*4:], v)
	}
	ibo, err := d.CreateBuffer(&types.BufferDesc{
		Kind:        types.BufferIndex,
		Size:        len(idx),
		InitialData: idx,
	})
	if err != nil {
		t.Fatal(err)
	}

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 12, 0)
	cb.SetIndexBuffer(ibo, 0)
	cb.UpdateUniform(0, colorUniform(0, 0, 1, 1))
	cb.DrawIndexed(3, 0, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	if got := pixel(color, 4, 2, 2); got != [4]byte{0, 0, 255, 255} {
		t.Errorf("pixel (2,2) = %v, want blue", got)
	}
}

func TestTexturedQuad(t *testing.T) {
	d, color := newTestDevice(t, 4, 4)

	// 2x2 texture: red green / blue white.
	tex, err := d.CreateTexture([]byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}, 2, 2, 4)
	if err != nil {
		t.Fatal(err)
	}

	pipe, err := d.CreatePipeline(&types.PipelineDesc{
		Shader: shader.Lookup(shader.TexturedName),
		Layout: types.VertexLayout{
			Stride: 20,
			Attributes: []types.VertexAttribute{
				{Format: types.VertexFloat3, Offset: 0, Location: 0},
				{Format: types.VertexFloat2, Offset: 12, Location: 1},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Fullscreen quad; v=0 at the top row (NDC y=+1).
	quad := vertexBuffer(t, d, []float32{
		-1, -1, 0, 0, 1,
		1, -1, 0, 1, 1,
		1, 1, 0, 1, 0,
		-1, -1, 0, 0, 1,
		1, 1, 0, 1, 0,
		-1, 1, 0, 0, 0,
	})

	mvp := make([]byte, 64)
	for i, v := range shader.Mat4Identity() {
		binary.LittleEndian.PutUint32(mvp[i*4:], math.Float32bits(v))
	}

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(quad, 0, 20, 0)
	cb.SetTexture(tex, 0)
	cb.UpdateUniform(0, mvp)
	cb.Draw(6, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}

	// Each 2x2 pixel quadrant maps to one texel.
	tests := []struct {
		x, y int
		want [4]byte
	}{
		{0, 0, [4]byte{255, 0, 0, 255}},
		{3, 0, [4]byte{0, 255, 0, 255}},
		{0, 3, [4]byte{0, 0, 255, 255}},
		{3, 3, [4]byte{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := pixel(color, 4, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPresentAlwaysSafe(t *testing.T) {
	d := NewDevice(Options{Workers: 1})
	t.Cleanup(d.Close)
	d.Present() // even without a render target
}

func TestPipelineUnregisteredShader(t *testing.T) {
	d, _ := newTestDevice(t, 4, 4)
	if _, err := d.CreatePipeline(&types.PipelineDesc{Shader: 0}); err == nil {
		t.Fatal("CreatePipeline with invalid shader succeeded")
	}
}

func TestPoolExhaustionDropsGeometry(t *testing.T) {
	// A pool too small for one triangle record: the draw is dropped,
	// the submit still succeeds.
	d := NewDevice(Options{Workers: 1, PoolSize: 64})
	t.Cleanup(d.Close)
	color := make([]byte, 4*4*4)
	if err := d.SetRenderTarget(color, nil, 4, 4); err != nil {
		t.Fatal(err)
	}
	pipe := flatPipeline(t, d)
	vbo := vertexBuffer(t, d, fullscreenTri)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{ColorLoadOp: types.LoadOpClear})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 12, 0)
	cb.UpdateUniform(0, colorUniform(1, 0, 0, 1))
	cb.Draw(3, 0, 1)
	cb.EndPass()
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	if got := pixel(color, 4, 0, 0); got != [4]byte{0, 0, 0, 0} {
		t.Errorf("pixel (0,0) = %v, want untouched after dropped geometry", got)
	}
}
