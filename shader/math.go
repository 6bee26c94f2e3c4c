// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import "math"

// Matrix helpers shared by builtin shaders, demos, and tests.
// Matrices are column-major 4x4, the standard GL/WebGPU convention.

// Mat4MulVec4 multiplies a column-major matrix by a vector.
func Mat4MulVec4(m [16]float32, v [4]float32) [4]float32 {
	return [4]float32{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2] + m[12]*v[3],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2] + m[13]*v[3],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2] + m[14]*v[3],
		m[3]*v[0] + m[7]*v[1] + m[11]*v[2] + m[15]*v[3],
	}
}

// Mat4Identity returns the identity matrix.
func Mat4Identity() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a*b.
func Mat4Mul(a, b [16]float32) [16]float32 {
	var out [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Mat4Translate returns a translation matrix.
func Mat4Translate(x, y, z float32) [16]float32 {
	m := Mat4Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Mat4Scale returns a scale matrix.
func Mat4Scale(x, y, z float32) [16]float32 {
	var m [16]float32
	m[0], m[5], m[10], m[15] = x, y, z, 1
	return m
}

// Mat4RotateY returns a rotation around the Y axis by angle radians.
func Mat4RotateY(angle float32) [16]float32 {
	s := float32(math.Sin(float64(angle)))
	c := float32(math.Cos(float64(angle)))
	m := Mat4Identity()
	m[0], m[8] = c, s
	m[2], m[10] = -s, c
	return m
}

// Mat4Ortho returns an orthographic projection mapping the box
// [left,right]x[bottom,top]x[near,far] into clip space with depth in
// [0, 1].
func Mat4Ortho(left, right, bottom, top, near, far float32) [16]float32 {
	rml := right - left
	tmb := top - bottom
	fmn := far - near
	var m [16]float32
	m[0] = 2 / rml
	m[5] = 2 / tmb
	m[10] = 1 / fmn
	m[12] = -(right + left) / rml
	m[13] = -(top + bottom) / tmb
	m[14] = -near / fmn
	m[15] = 1
	return m
}

// Mat4Perspective returns a perspective projection with a vertical
// field of view in radians, mapping depth into [0, 1].
func Mat4Perspective(fovY, aspect, near, far float32) [16]float32 {
	f := float32(1.0 / math.Tan(float64(fovY)/2))
	var m [16]float32
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (far - near)
	m[11] = 1
	m[14] = -near * far / (far - near)
	return m
}
