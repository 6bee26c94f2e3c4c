// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"math"

	"github.com/gogpu/softgpu/shader"
	"github.com/gogpu/softgpu/soft/raster"
	"github.com/gogpu/softgpu/types"
)

// rasterizeTile executes one tile's command list. Tiles partition the
// framebuffer, so the worker owns its pixels exclusively and writes
// without locks. Commands run in bin order, which keeps overlapping
// geometry correct when the depth test is off.
func (d *Device) rasterizeTile(i int) {
	t := &d.binner.tiles[i]
	if len(t.commands) == 0 {
		return
	}
	rect := d.binner.tileRect(i)
	for _, cmd := range t.commands {
		switch cmd.kind {
		case tileClear:
			d.execClear(rect, recordAt[clearRecord](d.pool, cmd.data))
		case tileDrawTriangle:
			d.execTriangle(rect, d.drawStates[cmd.state], recordAt[triangleRecord](d.pool, cmd.data))
		}
	}
}

// execClear fills the tile's slice of the color and depth planes,
// restricted to the scissor captured when the clear was recorded.
func (d *Device) execClear(tileRect types.Rect, rec *clearRecord) {
	region := tileRect.Intersect(rec.scissor)
	if region.Empty() {
		return
	}
	if rec.clearColor {
		r := clampByte(rec.color[0])
		g := clampByte(rec.color[1])
		b := clampByte(rec.color[2])
		a := clampByte(rec.color[3])
		for y := region.Y; y < region.Y+region.H; y++ {
			row := (y*d.width + region.X) * 4
			for x := 0; x < region.W; x++ {
				d.color[row] = r
				d.color[row+1] = g
				d.color[row+2] = b
				d.color[row+3] = a
				row += 4
			}
		}
	}
	if rec.clearDepth {
		for y := region.Y; y < region.Y+region.H; y++ {
			row := y*d.width + region.X
			for x := 0; x < region.W; x++ {
				d.depth[row+x] = rec.depth
			}
		}
	}
}

// execTriangle rasterizes one triangle record over the tile: edge
// coverage with the top-left fill rule, linear depth interpolation,
// strictly-less depth testing, perspective-correct varying recovery,
// and fragment shading.
func (d *Device) execTriangle(tileRect types.Rect, ds *drawState, rec *triangleRecord) {
	region := tileRect.Intersect(ds.scissor)
	if region.Empty() {
		return
	}

	x0, y0 := rec.pos[0][0], rec.pos[0][1]
	x1, y1 := rec.pos[1][0], rec.pos[1][1]
	x2, y2 := rec.pos[2][0], rec.pos[2][1]

	// Clip the pixel loop to scissor ∩ tile ∩ triangle AABB.
	startX := max(region.X, int(math.Floor(float64(min(x0, x1, x2)))))
	endX := min(region.X+region.W, int(math.Ceil(float64(max(x0, x1, x2)))))
	startY := max(region.Y, int(math.Floor(float64(min(y0, y1, y2)))))
	endY := min(region.Y+region.H, int(math.Ceil(float64(max(y0, y1, y2)))))
	if startX >= endX || startY >= endY {
		return
	}

	// Edge functions, each opposite the vertex whose barycentric it
	// weighs.
	e12 := raster.NewEdgeFn(x1, y1, x2, y2)
	e20 := raster.NewEdgeFn(x2, y2, x0, y0)
	e01 := raster.NewEdgeFn(x0, y0, x1, y1)

	area := e01.Eval(x2, y2)
	if area == 0 {
		return
	}
	// Normalize to the interior-positive form so one coverage test and
	// one top-left classification serve both windings.
	if area < 0 {
		e12, e20, e01 = e12.Neg(), e20.Neg(), e01.Neg()
		area = -area
	}
	invArea := 1 / area
	bias0 := e12.Bias()
	bias1 := e20.Bias()
	bias2 := e01.Bias()

	nv := int(rec.numVaryings)
	var varyings [types.MaxVaryings]float32
	frag := shader.FragIn{Varyings: varyings[:nv]}

	z0, z1, z2 := rec.pos[0][2], rec.pos[1][2], rec.pos[2][2]
	iw0, iw1, iw2 := rec.pos[0][3], rec.pos[1][3], rec.pos[2][3]

	for y := startY; y < endY; y++ {
		py := float32(y) + 0.5
		for x := startX; x < endX; x++ {
			px := float32(x) + 0.5

			w0 := e12.Eval(px, py)
			w1 := e20.Eval(px, py)
			w2 := e01.Eval(px, py)

			// Coverage with the fill-rule bias: pixels exactly on an
			// edge belong to the triangle only if it is a top or left
			// edge.
			if w0 < bias0 || w1 < bias1 || w2 < bias2 {
				continue
			}

			// Barycentrics normalize positive for both windings.
			b0 := w0 * invArea
			b1 := w1 * invArea
			b2 := w2 * invArea

			// Screen-space z is affine; interpolate linearly.
			depth := b0*z0 + b1*z1 + b2*z2

			fbIdx := y*d.width + x
			if ds.depthTest && !(depth < d.depth[fbIdx]) {
				continue
			}
			if ds.depthWrite {
				d.depth[fbIdx] = depth
			}

			// Varyings were stored divided by w; interpolating 1/w
			// linearly and scaling back recovers perspective-correct
			// values.
			oneOverW := b0*iw0 + b1*iw1 + b2*iw2
			w := float32(1)
			if oneOverW != 0 {
				w = 1 / oneOverW
			}
			for k := 0; k < nv; k++ {
				varyings[k] = (b0*rec.varyings[0][k] + b1*rec.varyings[1][k] + b2*rec.varyings[2][k]) * w
			}

			frag.X = x
			frag.Y = y
			frag.Depth = depth
			frag.W = w
			c := ds.prog.Fragment(&ds.env, &frag)

			ci := fbIdx * 4
			d.color[ci] = clampByte(c[0])
			d.color[ci+1] = clampByte(c[1])
			d.color[ci+2] = clampByte(c[2])
			d.color[ci+3] = clampByte(c[3])
		}
	}
}
