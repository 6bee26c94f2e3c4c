// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package types defines the shared data model of the softgpu RHI:
// resource handles, resource descriptors, pipeline state enums, and
// the fixed limits of the command stream.
//
// The package is dependency-free so that backends, the command buffer
// layer, and user code can all import it without cycles.
package types
