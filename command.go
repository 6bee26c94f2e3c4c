// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package softgpu

import "github.com/gogpu/softgpu/types"

// CommandType is the 16-bit packet type tag.
type CommandType uint16

// Packet type tags. The numeric values are part of the wire format.
const (
	CmdSetPipeline CommandType = iota
	CmdSetVertexStream
	CmdSetIndexBuffer
	CmdSetTexture
	CmdUpdateUniform
	CmdDraw
	CmdDrawIndexed
	CmdSetViewport
	CmdSetScissor
	CmdClear
	CmdBeginPass
	CmdEndPass
	CmdNoOp
)

// String returns the tag name.
func (t CommandType) String() string {
	switch t {
	case CmdSetPipeline:
		return "SetPipeline"
	case CmdSetVertexStream:
		return "SetVertexStream"
	case CmdSetIndexBuffer:
		return "SetIndexBuffer"
	case CmdSetTexture:
		return "SetTexture"
	case CmdUpdateUniform:
		return "UpdateUniform"
	case CmdDraw:
		return "Draw"
	case CmdDrawIndexed:
		return "DrawIndexed"
	case CmdSetViewport:
		return "SetViewport"
	case CmdSetScissor:
		return "SetScissor"
	case CmdClear:
		return "Clear"
	case CmdBeginPass:
		return "BeginPass"
	case CmdEndPass:
		return "EndPass"
	case CmdNoOp:
		return "NoOp"
	}
	return "Unknown"
}

// headerSize is the byte size of the packet header: type u16, size u16.
// The size field is the total packet size including the header,
// rounded up to 4-byte alignment, and equals the distance to the next
// header.
const headerSize = 4

// Packet is a decoded command-stream packet. Concrete types are the
// *Packet structs below; consumers type-switch over them.
type Packet interface {
	// Type returns the packet's type tag.
	Type() CommandType
}

// BeginPassPacket starts a render pass and carries its initial state.
type BeginPassPacket struct {
	ColorLoadOp types.LoadOp
	DepthLoadOp types.LoadOp
	ClearColor  [4]float32
	ClearDepth  float32
	Viewport    types.Rect
	Scissor     types.Rect
}

// Type implements Packet.
func (BeginPassPacket) Type() CommandType { return CmdBeginPass }

// EndPassPacket ends the current render pass, flushing binned work.
type EndPassPacket struct{}

// Type implements Packet.
func (EndPassPacket) Type() CommandType { return CmdEndPass }

// SetPipelinePacket binds a pipeline for subsequent draws.
type SetPipelinePacket struct {
	Pipeline types.PipelineHandle
}

// Type implements Packet.
func (SetPipelinePacket) Type() CommandType { return CmdSetPipeline }

// SetVertexStreamPacket binds a vertex buffer range to a stream slot.
type SetVertexStreamPacket struct {
	Buffer  types.BufferHandle
	Offset  uint32
	Stride  uint32
	Binding uint16
}

// Type implements Packet.
func (SetVertexStreamPacket) Type() CommandType { return CmdSetVertexStream }

// SetIndexBufferPacket binds the index buffer.
type SetIndexBufferPacket struct {
	Buffer types.BufferHandle
	Offset uint32
}

// Type implements Packet.
func (SetIndexBufferPacket) Type() CommandType { return CmdSetIndexBuffer }

// SetTexturePacket binds a texture to a sampler slot.
type SetTexturePacket struct {
	Texture types.TextureHandle
	Slot    uint8
}

// Type implements Packet.
func (SetTexturePacket) Type() CommandType { return CmdSetTexture }

// UpdateUniformPacket writes payload bytes into a uniform slot.
// Data aliases the command stream and is only valid until the stream
// is reset.
type UpdateUniformPacket struct {
	Slot uint8
	Data []byte
}

// Type implements Packet.
func (UpdateUniformPacket) Type() CommandType { return CmdUpdateUniform }

// DrawPacket draws non-indexed primitives.
type DrawPacket struct {
	VertexCount   uint32
	FirstVertex   uint32
	InstanceCount uint32
}

// Type implements Packet.
func (DrawPacket) Type() CommandType { return CmdDraw }

// DrawIndexedPacket draws indexed primitives.
type DrawIndexedPacket struct {
	IndexCount    uint32
	FirstIndex    uint32
	BaseVertex    int32
	InstanceCount uint32
}

// Type implements Packet.
func (DrawIndexedPacket) Type() CommandType { return CmdDrawIndexed }

// SetViewportPacket replaces the viewport rectangle.
type SetViewportPacket struct {
	Rect types.Rect
}

// Type implements Packet.
func (SetViewportPacket) Type() CommandType { return CmdSetViewport }

// SetScissorPacket replaces the scissor rectangle.
type SetScissorPacket struct {
	Rect types.Rect
}

// Type implements Packet.
func (SetScissorPacket) Type() CommandType { return CmdSetScissor }

// ClearPacket clears the selected buffers mid-pass.
type ClearPacket struct {
	Color   bool
	Depth   bool
	Stencil bool
	Value   [4]float32
	DepthV  float32
	StencilV int32
}

// Type implements Packet.
func (ClearPacket) Type() CommandType { return CmdClear }

// NoOpPacket does nothing. Useful as a stream marker.
type NoOpPacket struct{}

// Type implements Packet.
func (NoOpPacket) Type() CommandType { return CmdNoOp }
