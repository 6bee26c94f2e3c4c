// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package softgpu

import (
	"image"

	"golang.org/x/image/draw"
)

// TextureDataFromImage converts any image.Image into the tightly
// packed RGBA payload expected by Device.CreateTexture, returning the
// pixel data and dimensions. The channel count is always 4.
func TextureDataFromImage(img image.Image) (pix []byte, w, h int) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != w*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return rgba.Pix, w, h
}
