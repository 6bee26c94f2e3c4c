// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package softgpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/softgpu/types"
)

// CommandBuffer is an append-only byte stream of variable-sized
// packets. Each packet starts with a 4-byte header (type u16, total
// size u16, little-endian); the size includes the header and trailing
// payload, rounded up to 4-byte alignment, so a reader advances from
// header to header by the size field alone.
//
// A CommandBuffer is recorded on one goroutine and may be submitted to
// any Device; the stream carries no backend-specific data.
type CommandBuffer struct {
	buf []byte
}

// NewCommandBuffer creates a command buffer with an initial capacity.
// capacity <= 0 selects a default.
func NewCommandBuffer(capacity int) *CommandBuffer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &CommandBuffer{buf: make([]byte, 0, capacity)}
}

// Reset clears the stream for reuse, retaining capacity.
func (cb *CommandBuffer) Reset() { cb.buf = cb.buf[:0] }

// Bytes returns the recorded stream.
func (cb *CommandBuffer) Bytes() []byte { return cb.buf }

// Len returns the recorded size in bytes.
func (cb *CommandBuffer) Len() int { return len(cb.buf) }

// IsEmpty reports whether nothing has been recorded.
func (cb *CommandBuffer) IsEmpty() bool { return len(cb.buf) == 0 }

// header appends a packet header. size is the total packet size
// including the header.
func (cb *CommandBuffer) header(t CommandType, size int) {
	cb.u16(uint16(t))
	cb.u16(uint16(size))
}

func (cb *CommandBuffer) u16(v uint16) { cb.buf = binary.LittleEndian.AppendUint16(cb.buf, v) }
func (cb *CommandBuffer) u32(v uint32) { cb.buf = binary.LittleEndian.AppendUint32(cb.buf, v) }
func (cb *CommandBuffer) i32(v int32)  { cb.u32(uint32(v)) }
func (cb *CommandBuffer) f32(v float32) {
	cb.u32(math.Float32bits(v))
}
func (cb *CommandBuffer) rect(r types.Rect) {
	cb.i32(int32(r.X))
	cb.i32(int32(r.Y))
	cb.i32(int32(r.W))
	cb.i32(int32(r.H))
}

// PassDesc describes the initial state of a render pass.
type PassDesc struct {
	// ColorLoadOp selects how the color buffer is initialized.
	ColorLoadOp types.LoadOp

	// ClearColor is used when ColorLoadOp is LoadOpClear.
	ClearColor types.Color

	// DepthLoadOp selects how the depth buffer is initialized.
	DepthLoadOp types.LoadOp

	// ClearDepth is used when DepthLoadOp is LoadOpClear.
	ClearDepth float32

	// Viewport is the initial viewport rectangle.
	Viewport types.Rect

	// Scissor is the initial scissor rectangle.
	Scissor types.Rect
}

// BeginPass records the start of a render pass.
func (cb *CommandBuffer) BeginPass(desc PassDesc) {
	cb.header(CmdBeginPass, headerSize+56)
	cb.buf = append(cb.buf, byte(desc.ColorLoadOp), byte(desc.DepthLoadOp), 0, 0)
	c := desc.ClearColor.Array()
	for _, v := range c {
		cb.f32(v)
	}
	cb.f32(desc.ClearDepth)
	cb.rect(desc.Viewport)
	cb.rect(desc.Scissor)
}

// EndPass records the end of the current render pass.
func (cb *CommandBuffer) EndPass() {
	cb.header(CmdEndPass, headerSize)
}

// SetPipeline records a pipeline bind.
func (cb *CommandBuffer) SetPipeline(h types.PipelineHandle) {
	cb.header(CmdSetPipeline, headerSize+4)
	cb.u32(uint32(h))
}

// SetVertexStream records a vertex buffer bind on a stream slot.
func (cb *CommandBuffer) SetVertexStream(h types.BufferHandle, offset, stride uint32, binding uint16) {
	cb.header(CmdSetVertexStream, headerSize+16)
	cb.u32(uint32(h))
	cb.u32(offset)
	cb.u32(stride)
	cb.u16(binding)
	cb.u16(0)
}

// SetIndexBuffer records an index buffer bind. Index buffers hold
// 32-bit little-endian indices.
func (cb *CommandBuffer) SetIndexBuffer(h types.BufferHandle, offset uint32) {
	cb.header(CmdSetIndexBuffer, headerSize+8)
	cb.u32(uint32(h))
	cb.u32(offset)
}

// SetTexture records a texture bind on a sampler slot.
func (cb *CommandBuffer) SetTexture(h types.TextureHandle, slot uint8) {
	cb.header(CmdSetTexture, headerSize+8)
	cb.u32(uint32(h))
	cb.buf = append(cb.buf, slot, 0, 0, 0)
}

// UpdateUniform records a write of data into a uniform slot.
// The payload is copied into the stream and zero-padded to keep the
// following packet header 4-byte aligned.
func (cb *CommandBuffer) UpdateUniform(slot uint8, data []byte) {
	total := headerSize + 4 + len(data)
	aligned := (total + 3) &^ 3
	cb.header(CmdUpdateUniform, aligned)
	cb.buf = append(cb.buf, slot, 0, 0, 0)
	cb.buf = append(cb.buf, data...)
	for i := total; i < aligned; i++ {
		cb.buf = append(cb.buf, 0)
	}
}

// Draw records a non-indexed draw.
func (cb *CommandBuffer) Draw(vertexCount, firstVertex, instanceCount uint32) {
	cb.header(CmdDraw, headerSize+12)
	cb.u32(vertexCount)
	cb.u32(firstVertex)
	cb.u32(instanceCount)
}

// DrawIndexed records an indexed draw.
func (cb *CommandBuffer) DrawIndexed(indexCount, firstIndex uint32, baseVertex int32, instanceCount uint32) {
	cb.header(CmdDrawIndexed, headerSize+16)
	cb.u32(indexCount)
	cb.u32(firstIndex)
	cb.i32(baseVertex)
	cb.u32(instanceCount)
}

// SetViewport records a viewport change.
func (cb *CommandBuffer) SetViewport(r types.Rect) {
	cb.header(CmdSetViewport, headerSize+16)
	cb.rect(r)
}

// SetScissor records a scissor change.
func (cb *CommandBuffer) SetScissor(r types.Rect) {
	cb.header(CmdSetScissor, headerSize+16)
	cb.rect(r)
}

// Clear records a mid-pass clear of the selected buffers.
// The stencil flag is accepted for wire compatibility; backends
// without a stencil buffer ignore it.
func (cb *CommandBuffer) Clear(color, depth, stencil bool, value types.Color, depthValue float32, stencilValue int32) {
	cb.header(CmdClear, headerSize+28)
	cb.buf = append(cb.buf, b2u(color), b2u(depth), b2u(stencil), 0)
	c := value.Array()
	for _, v := range c {
		cb.f32(v)
	}
	cb.f32(depthValue)
	cb.i32(stencilValue)
}

// NoOp records a packet that decodes to nothing.
func (cb *CommandBuffer) NoOp() {
	cb.header(CmdNoOp, headerSize)
}

func b2u(b bool) byte {
	if b {
		return 1
	}
	return 0
}
