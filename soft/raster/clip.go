// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package raster

import "github.com/gogpu/softgpu/types"

// NearEpsilon is the minimum clip-space w accepted by the pipeline.
// Vertices with w below it are behind the eye plane and get clipped.
const NearEpsilon = 1e-5

// ClipVertex is a vertex in homogeneous clip space together with its
// shader-produced varyings. Only the first n varyings of a pipeline
// are meaningful; the array is fixed-size so triangle records stay
// plain old data.
type ClipVertex struct {
	// Position is (x, y, z, w) before perspective divide.
	Position [4]float32

	// Varyings are the vertex shader outputs to interpolate.
	Varyings [types.MaxVaryings]float32
}

// lerp returns v0 + t*(v1-v0) for position and the first n varyings.
func lerp(v0, v1 *ClipVertex, t float32, n int) ClipVertex {
	var out ClipVertex
	for i := 0; i < 4; i++ {
		out.Position[i] = v0.Position[i] + t*(v1.Position[i]-v0.Position[i])
	}
	for i := 0; i < n; i++ {
		out.Varyings[i] = v0.Varyings[i] + t*(v1.Varyings[i]-v0.Varyings[i])
	}
	return out
}

// ClipNear clips a triangle against the near plane w >= NearEpsilon
// and appends the resulting triangles (0, 1, or 2) to dst. n is the
// number of live varyings to interpolate at the clip points. The
// other frustum planes are not pre-clipped; the screen-space scissor
// handles them during rasterization.
func ClipNear(dst [][3]ClipVertex, tri [3]ClipVertex, n int) [][3]ClipVertex {
	d := [3]float32{
		tri[0].Position[3] - NearEpsilon,
		tri[1].Position[3] - NearEpsilon,
		tri[2].Position[3] - NearEpsilon,
	}
	inside := [3]bool{d[0] >= 0, d[1] >= 0, d[2] >= 0}
	count := 0
	for _, in := range inside {
		if in {
			count++
		}
	}

	switch count {
	case 3:
		return append(dst, tri)
	case 0:
		return dst
	case 1:
		// One vertex survives: a single smaller triangle.
		var i0 int
		for i, in := range inside {
			if in {
				i0 = i
				break
			}
		}
		i1 := (i0 + 1) % 3
		i2 := (i0 + 2) % 3
		a := lerp(&tri[i0], &tri[i1], crossing(d[i0], d[i1]), n)
		b := lerp(&tri[i0], &tri[i2], crossing(d[i0], d[i2]), n)
		return append(dst, [3]ClipVertex{tri[i0], a, b})
	default: // 2
		// One vertex clipped away: the quad splits into two triangles.
		// Boundary order is i1, i2, b, a, which keeps the winding.
		var out int
		for i, in := range inside {
			if !in {
				out = i
				break
			}
		}
		i1 := (out + 1) % 3
		i2 := (out + 2) % 3
		a := lerp(&tri[i1], &tri[out], crossing(d[i1], d[out]), n)
		b := lerp(&tri[i2], &tri[out], crossing(d[i2], d[out]), n)
		dst = append(dst, [3]ClipVertex{tri[i1], tri[i2], b})
		return append(dst, [3]ClipVertex{tri[i1], b, a})
	}
}

// crossing returns the parameter t in [0, 1] where the edge between
// two signed plane distances crosses zero.
func crossing(d0, d1 float32) float32 {
	t := d0 / (d0 - d1)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
