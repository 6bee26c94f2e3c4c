// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

// Wrap selects how texture coordinates outside [0, 1) are handled.
// Filter and wrap are not baked into textures; the shader's sampling
// code chooses them per lookup.
type Wrap uint8

const (
	// WrapRepeat tiles the texture.
	WrapRepeat Wrap = iota
	// WrapClamp clamps coordinates to the edge texels.
	WrapClamp
)

// TexView is the shader-facing view of a bound texture: immutable
// RGBA8 pixels in row-major order, top-left origin.
type TexView struct {
	// Width and Height are the dimensions in texels.
	Width, Height int

	// Pix is the RGBA payload, stride Width*4.
	Pix []byte
}

// Valid reports whether the view refers to a texture.
func (t TexView) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pix) >= t.Width*t.Height*4
}

// missingTexture is the color returned for lookups against an unbound
// slot: magenta, loud enough to spot.
var missingTexture = [4]float32{1, 0, 1, 1}

// Texel returns the texel at integer coordinates, clamped to the
// texture bounds.
func (t TexView) Texel(x, y int) [4]float32 {
	if !t.Valid() {
		return missingTexture
	}
	x = clampInt(x, 0, t.Width-1)
	y = clampInt(y, 0, t.Height-1)
	i := (y*t.Width + x) * 4
	return [4]float32{
		float32(t.Pix[i]) / 255,
		float32(t.Pix[i+1]) / 255,
		float32(t.Pix[i+2]) / 255,
		float32(t.Pix[i+3]) / 255,
	}
}

// SampleNearest returns the nearest texel for (u, v) under the wrap
// mode.
func (t TexView) SampleNearest(u, v float32, wrap Wrap) [4]float32 {
	if !t.Valid() {
		return missingTexture
	}
	u, v = t.wrapUV(u, v, wrap)
	x := int(u * float32(t.Width))
	y := int(v * float32(t.Height))
	return t.Texel(x, y)
}

// SampleBilinear returns the bilinearly filtered color for (u, v)
// under the wrap mode.
func (t TexView) SampleBilinear(u, v float32, wrap Wrap) [4]float32 {
	if !t.Valid() {
		return missingTexture
	}
	u, v = t.wrapUV(u, v, wrap)
	// Texel centers are at (x+0.5)/W.
	fx := u*float32(t.Width) - 0.5
	fy := v*float32(t.Height) - 0.5
	x0 := floorInt(fx)
	y0 := floorInt(fy)
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := t.Texel(x0, y0)
	c10 := t.Texel(x0+1, y0)
	c01 := t.Texel(x0, y0+1)
	c11 := t.Texel(x0+1, y0+1)

	var out [4]float32
	for i := range out {
		top := c00[i] + tx*(c10[i]-c00[i])
		bot := c01[i] + tx*(c11[i]-c01[i])
		out[i] = top + ty*(bot-top)
	}
	return out
}

func (t TexView) wrapUV(u, v float32, wrap Wrap) (float32, float32) {
	switch wrap {
	case WrapClamp:
		return clampF(u, 0, 1), clampF(v, 0, 1)
	default:
		return fract(u), fract(v)
	}
}

func fract(v float32) float32 {
	v -= float32(floorInt(v))
	return v
}

func floorInt(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
