// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package types

// Handles are opaque 32-bit identifiers for device-owned resources.
// Handle 0 is always invalid. The value packs a slot index in the lower
// HandleIndexBits bits and a generation in the upper bits; the generation
// is bumped each time a slot is reused, so a destroyed handle never
// aliases a live resource.

// HandleIndexBits is the number of bits used for the slot index.
const HandleIndexBits = 20

// HandleIndexMask extracts the slot index from a raw handle value.
const HandleIndexMask = (1 << HandleIndexBits) - 1

// BufferHandle identifies a vertex, index, or uniform buffer.
type BufferHandle uint32

// IsValid reports whether the handle refers to a resource.
func (h BufferHandle) IsValid() bool { return h != 0 }

// TextureHandle identifies an immutable 2D RGBA texture.
type TextureHandle uint32

// IsValid reports whether the handle refers to a resource.
func (h TextureHandle) IsValid() bool { return h != 0 }

// ShaderHandle identifies a shader registry entry.
type ShaderHandle uint32

// IsValid reports whether the handle refers to a registered shader.
func (h ShaderHandle) IsValid() bool { return h != 0 }

// PipelineHandle identifies a compiled pipeline state object.
type PipelineHandle uint32

// IsValid reports whether the handle refers to a resource.
func (h PipelineHandle) IsValid() bool { return h != 0 }
