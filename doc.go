// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package softgpu is a render hardware interface (RHI) with a
// CPU-based tile-parallel rasterizer backend.
//
// Applications create resources through a [Device], record packets
// into a [CommandBuffer], and hand the buffer to [Device.Submit]. The
// packet stream is backend-neutral: the soft backend decodes it into a
// programmable vertex/fragment pipeline executed across worker
// goroutines, one framebuffer tile per work item; the gl backend
// translates the same stream into calls on a GL-style context.
//
// # Backends
//
//   - soft: the software rasterizer. Vertex transform, near-plane
//     clipping, tile binning, and perspective-correct per-tile
//     rasterization on the CPU.
//   - gl: a demonstration backend over a host-supplied GL-like
//     context, using naga to translate WGSL shader sources.
//
// Shaders are registered process-wide in the shader package; a
// registry entry carries both a factory for the soft backend and WGSL
// source for hardware backends.
//
// # Logging
//
// softgpu produces no log output by default. Call [SetLogger] to
// enable diagnostics (skipped commands, invalid handles, pool
// exhaustion).
package softgpu
