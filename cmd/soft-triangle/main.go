// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command soft-triangle exercises the software rasterizer end to end:
// it renders a vertex-colored triangle, a textured quad, and a pair of
// depth-tested triangles, writing each frame as a PNG.
//
// Usage:
//
//	soft-triangle [-size 512] [-out .] [-v]
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/shader"
	"github.com/gogpu/softgpu/soft"
	"github.com/gogpu/softgpu/types"
)

func main() {
	size := flag.Int("size", 512, "framebuffer size in pixels")
	out := flag.String("out", ".", "output directory")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		softgpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(*size, *out); err != nil {
		fmt.Fprintln(os.Stderr, "soft-triangle:", err)
		os.Exit(1)
	}
}

func run(size int, out string) error {
	_, vertexColor, textured := shader.RegisterBuiltins()

	dev := soft.NewDevice(soft.Options{})
	defer dev.Close()

	color := make([]byte, size*size*4)
	if err := dev.SetRenderTarget(color, nil, size, size); err != nil {
		return err
	}

	scenes := []struct {
		name   string
		render func(*soft.Device) error
	}{
		{"triangle", func(d *soft.Device) error { return drawTriangle(d, vertexColor) }},
		{"textured", func(d *soft.Device) error { return drawTextured(d, textured) }},
		{"depth", func(d *soft.Device) error { return drawDepth(d, vertexColor) }},
	}

	for _, scene := range scenes {
		if err := scene.render(dev); err != nil {
			return fmt.Errorf("%s: %w", scene.name, err)
		}
		dev.Present()
		path := filepath.Join(out, scene.name+".png")
		if err := writePNG(path, color, size, size); err != nil {
			return err
		}
		fmt.Println("wrote", path)
	}
	return nil
}

// identityMVP is the column-major identity matrix as uniform bytes.
func identityMVP() []byte {
	return mat4Bytes(shader.Mat4Identity())
}

func mat4Bytes(m [16]float32) []byte {
	data := make([]byte, 64)
	for i, v := range m {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

func floatBytes(vals []float32) []byte {
	data := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

func colorPipeline(d *soft.Device, sh types.ShaderHandle, depthTest bool) (types.PipelineHandle, error) {
	return d.CreatePipeline(&types.PipelineDesc{
		Shader: sh,
		Layout: types.VertexLayout{
			Stride: 28, // vec3 position + vec4 color
			Attributes: []types.VertexAttribute{
				{Format: types.VertexFloat3, Offset: 0, Location: 0},
				{Format: types.VertexFloat4, Offset: 12, Location: 1},
			},
		},
		DepthTest:  depthTest,
		DepthWrite: depthTest,
		Label:      "vertex-color",
	})
}

func drawTriangle(d *soft.Device, sh types.ShaderHandle) error {
	pipe, err := colorPipeline(d, sh, false)
	if err != nil {
		return err
	}
	defer d.DestroyPipeline(pipe)

	vbo, err := d.CreateBuffer(&types.BufferDesc{
		Kind: types.BufferVertex,
		Size: 3 * 28,
		InitialData: floatBytes([]float32{
			0, 0.8, 0, 1, 0, 0, 1,
			-0.8, -0.8, 0, 0, 1, 0, 1,
			0.8, -0.8, 0, 0, 0, 1, 1,
		}),
		Label: "triangle",
	})
	if err != nil {
		return err
	}
	defer d.DestroyBuffer(vbo)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{
		ColorLoadOp: types.LoadOpClear,
		ClearColor:  types.Color{R: 0.1, G: 0.1, B: 0.12, A: 1},
	})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 28, 0)
	cb.UpdateUniform(0, identityMVP())
	cb.Draw(3, 0, 1)
	cb.EndPass()
	return d.Submit(cb)
}

func drawTextured(d *soft.Device, sh types.ShaderHandle) error {
	pipe, err := d.CreatePipeline(&types.PipelineDesc{
		Shader: sh,
		Layout: types.VertexLayout{
			Stride: 20, // vec3 position + vec2 uv
			Attributes: []types.VertexAttribute{
				{Format: types.VertexFloat3, Offset: 0, Location: 0},
				{Format: types.VertexFloat2, Offset: 12, Location: 1},
			},
		},
		Label: "textured",
	})
	if err != nil {
		return err
	}
	defer d.DestroyPipeline(pipe)

	tex, err := d.CreateTexture(checkerboard(64, 8), 64, 64, 4)
	if err != nil {
		return err
	}
	defer d.DestroyTexture(tex)

	vbo, err := d.CreateBuffer(&types.BufferDesc{
		Kind: types.BufferVertex,
		Size: 4 * 20,
		InitialData: floatBytes([]float32{
			-0.8, -0.8, 0, 0, 1,
			0.8, -0.8, 0, 1, 1,
			0.8, 0.8, 0, 1, 0,
			-0.8, 0.8, 0, 0, 0,
		}),
	})
	if err != nil {
		return err
	}
	defer d.DestroyBuffer(vbo)

	indices := make([]byte, 24)
	for i, v := range []uint32{0, 1, 2, 0, 2, 3} {
		binary.LittleEndian.PutUint32(indices[i*4:], v)
	}
	ibo, err := d.CreateBuffer(&types.BufferDesc{
		Kind:        types.BufferIndex,
		Size:        len(indices),
		InitialData: indices,
	})
	if err != nil {
		return err
	}
	defer d.DestroyBuffer(ibo)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{
		ColorLoadOp: types.LoadOpClear,
		ClearColor:  types.Color{R: 0.1, G: 0.1, B: 0.12, A: 1},
	})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 20, 0)
	cb.SetIndexBuffer(ibo, 0)
	cb.SetTexture(tex, 0)
	cb.UpdateUniform(0, identityMVP())
	cb.DrawIndexed(6, 0, 0, 1)
	cb.EndPass()
	return d.Submit(cb)
}

func drawDepth(d *soft.Device, sh types.ShaderHandle) error {
	pipe, err := colorPipeline(d, sh, true)
	if err != nil {
		return err
	}
	defer d.DestroyPipeline(pipe)

	// Two overlapping triangles; the blue one sits closer and must
	// win where they overlap.
	vbo, err := d.CreateBuffer(&types.BufferDesc{
		Kind: types.BufferVertex,
		Size: 6 * 28,
		InitialData: floatBytes([]float32{
			-0.9, 0.7, 0.6, 1, 0.3, 0.2, 1,
			-0.9, -0.9, 0.6, 1, 0.3, 0.2, 1,
			0.7, -0.1, 0.6, 1, 0.3, 0.2, 1,
			0.9, 0.7, 0.4, 0.2, 0.4, 1, 1,
			-0.7, -0.1, 0.4, 0.2, 0.4, 1, 1,
			0.9, -0.9, 0.4, 0.2, 0.4, 1, 1,
		}),
	})
	if err != nil {
		return err
	}
	defer d.DestroyBuffer(vbo)

	cb := softgpu.NewCommandBuffer(0)
	cb.BeginPass(softgpu.PassDesc{
		ColorLoadOp: types.LoadOpClear,
		ClearColor:  types.Color{R: 0.1, G: 0.1, B: 0.12, A: 1},
		DepthLoadOp: types.LoadOpClear,
		ClearDepth:  1,
	})
	cb.SetPipeline(pipe)
	cb.SetVertexStream(vbo, 0, 28, 0)
	cb.UpdateUniform(0, identityMVP())
	cb.Draw(6, 0, 1)
	cb.EndPass()
	return d.Submit(cb)
}

// checkerboard builds an RGBA checker texture with cells pixels per
// square.
func checkerboard(size, cells int) []byte {
	pix := make([]byte, size*size*4)
	cell := size / cells
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := (y*size + x) * 4
			if (x/cell+y/cell)%2 == 0 {
				pix[i], pix[i+1], pix[i+2] = 235, 235, 235
			} else {
				pix[i], pix[i+1], pix[i+2] = 40, 40, 60
			}
			pix[i+3] = 255
		}
	}
	return pix
}

func writePNG(path string, color []byte, w, h int) error {
	img := &image.RGBA{Pix: color, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
