// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shader holds the process-wide shader registry and the
// programmable-stage contract of the software backend.
//
// A registry entry maps a unique name to a per-backend description: a
// [SoftFactory] that instantiates a [Program] for the software
// rasterizer, and WGSL source text for hardware backends. Register
// shaders at startup; lookups after startup are lock-free reads as far
// as callers are concerned (the registry locks internally).
package shader
