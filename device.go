// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package softgpu

import "github.com/gogpu/softgpu/types"

// Device is the render hardware interface implemented by backends.
//
// Resources are owned by the device and referred to by copyable
// handles; destroying a handle the device does not know is a logged
// no-op. Submit executes a recorded command stream; packets are
// processed in the exact order written, and all draws issued before
// EndPass are fully rasterized before Submit returns.
//
// Resource creation and Submit must be called from one goroutine at a
// time per device.
type Device interface {
	// CreateBuffer creates a buffer per desc and returns its handle.
	CreateBuffer(desc *types.BufferDesc) (types.BufferHandle, error)

	// DestroyBuffer releases the buffer. Double destroy is a no-op.
	DestroyBuffer(h types.BufferHandle)

	// UpdateBuffer overwrites buffer bytes at offset. The range
	// [offset, offset+len(data)) must lie within the buffer.
	UpdateBuffer(h types.BufferHandle, data []byte, offset int) error

	// CreateTexture creates an immutable 2D texture from pixel data
	// with 1, 2, 3, or 4 channels; the payload is expanded to RGBA on
	// upload (missing alpha = 255).
	CreateTexture(pixels []byte, width, height, channels int) (types.TextureHandle, error)

	// DestroyTexture releases the texture. Double destroy is a no-op.
	DestroyTexture(h types.TextureHandle)

	// CreatePipeline compiles a pipeline state object.
	CreatePipeline(desc *types.PipelineDesc) (types.PipelineHandle, error)

	// DestroyPipeline releases the pipeline. Double destroy is a no-op.
	DestroyPipeline(h types.PipelineHandle)

	// Submit decodes and executes a command stream. Per-command
	// failures (invalid handles, out-of-bounds updates) are logged and
	// skipped; a malformed stream or state-machine violation aborts
	// the submit at the offending packet and returns a *DecodeError.
	Submit(cb *CommandBuffer) error

	// Present performs the backend's end-of-frame work. It is always
	// safe to call.
	Present()
}
