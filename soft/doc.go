// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package soft implements the softgpu device contract entirely on the
// CPU.
//
// Submitted command streams are decoded on the calling goroutine: the
// vertex stage transforms, clips, and screen-maps triangles into
// per-frame records held in a bump allocator, and a tile binner
// assigns each record to every framebuffer tile (64x64 by default) its
// bounding box touches. EndPass dispatches one blocking parallel-for across the
// tiles; each worker rasterizes its tile's command list with
// perspective-correct interpolation, the top-left fill rule, and
// strictly-less depth testing, writing straight into the caller's
// color buffer. Tiles are disjoint, so the workers share no mutable
// state; the triangle pool and tile lists are read-only while the
// parallel-for runs and are reset when it finishes.
package soft
