// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package softgpu

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gogpu/softgpu/types"
)

// Reader walks a recorded command stream packet by packet.
//
// The stream is self-describing: the reader consumes a header, decodes
// the payload, and advances by the header's size field. A size field
// that points past the end of the stream or an unknown type tag is a
// fatal decode error; the reader refuses to advance further.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a reader over a recorded stream.
func NewReader(cb *CommandBuffer) *Reader {
	return &Reader{buf: cb.Bytes()}
}

// Offset returns the byte offset of the next packet header.
func (r *Reader) Offset() int { return r.off }

// Next decodes and returns the next packet. It returns io.EOF once
// the stream is exhausted, or a *DecodeError if the stream is
// malformed at the current position.
func (r *Reader) Next() (Packet, error) {
	if r.off == len(r.buf) {
		return nil, io.EOF
	}
	if len(r.buf)-r.off < headerSize {
		return nil, &DecodeError{Offset: r.off, Err: ErrTruncatedStream}
	}
	start := r.off
	tag := binary.LittleEndian.Uint16(r.buf[start:])
	size := int(binary.LittleEndian.Uint16(r.buf[start+2:]))
	if size < headerSize || start+size > len(r.buf) {
		return nil, &DecodeError{Offset: start, Tag: tag,
			Err: fmt.Errorf("%w: packet size %d", ErrTruncatedStream, size)}
	}
	payload := r.buf[start+headerSize : start+size]

	pkt, err := decodePacket(CommandType(tag), payload)
	if err != nil {
		return nil, &DecodeError{Offset: start, Tag: tag, Err: err}
	}
	r.off = start + size
	return pkt, nil
}

func decodePacket(t CommandType, p []byte) (Packet, error) {
	switch t {
	case CmdBeginPass:
		if len(p) < 56 {
			return nil, fmt.Errorf("%w: BeginPass payload %d bytes", ErrTruncatedStream, len(p))
		}
		pkt := BeginPassPacket{
			ColorLoadOp: types.LoadOp(p[0]),
			DepthLoadOp: types.LoadOp(p[1]),
		}
		for i := range pkt.ClearColor {
			pkt.ClearColor[i] = getF32(p[4+i*4:])
		}
		pkt.ClearDepth = getF32(p[20:])
		pkt.Viewport = getRect(p[24:])
		pkt.Scissor = getRect(p[40:])
		return pkt, nil

	case CmdEndPass:
		return EndPassPacket{}, nil

	case CmdSetPipeline:
		if len(p) < 4 {
			return nil, shortPayload(t, len(p))
		}
		return SetPipelinePacket{Pipeline: types.PipelineHandle(getU32(p))}, nil

	case CmdSetVertexStream:
		if len(p) < 16 {
			return nil, shortPayload(t, len(p))
		}
		return SetVertexStreamPacket{
			Buffer:  types.BufferHandle(getU32(p)),
			Offset:  getU32(p[4:]),
			Stride:  getU32(p[8:]),
			Binding: binary.LittleEndian.Uint16(p[12:]),
		}, nil

	case CmdSetIndexBuffer:
		if len(p) < 8 {
			return nil, shortPayload(t, len(p))
		}
		return SetIndexBufferPacket{
			Buffer: types.BufferHandle(getU32(p)),
			Offset: getU32(p[4:]),
		}, nil

	case CmdSetTexture:
		if len(p) < 8 {
			return nil, shortPayload(t, len(p))
		}
		return SetTexturePacket{
			Texture: types.TextureHandle(getU32(p)),
			Slot:    p[4],
		}, nil

	case CmdUpdateUniform:
		if len(p) < 4 {
			return nil, shortPayload(t, len(p))
		}
		return UpdateUniformPacket{Slot: p[0], Data: p[4:]}, nil

	case CmdDraw:
		if len(p) < 12 {
			return nil, shortPayload(t, len(p))
		}
		return DrawPacket{
			VertexCount:   getU32(p),
			FirstVertex:   getU32(p[4:]),
			InstanceCount: getU32(p[8:]),
		}, nil

	case CmdDrawIndexed:
		if len(p) < 16 {
			return nil, shortPayload(t, len(p))
		}
		return DrawIndexedPacket{
			IndexCount:    getU32(p),
			FirstIndex:    getU32(p[4:]),
			BaseVertex:    int32(getU32(p[8:])),
			InstanceCount: getU32(p[12:]),
		}, nil

	case CmdSetViewport:
		if len(p) < 16 {
			return nil, shortPayload(t, len(p))
		}
		return SetViewportPacket{Rect: getRect(p)}, nil

	case CmdSetScissor:
		if len(p) < 16 {
			return nil, shortPayload(t, len(p))
		}
		return SetScissorPacket{Rect: getRect(p)}, nil

	case CmdClear:
		if len(p) < 28 {
			return nil, shortPayload(t, len(p))
		}
		pkt := ClearPacket{
			Color:   p[0] != 0,
			Depth:   p[1] != 0,
			Stencil: p[2] != 0,
		}
		for i := range pkt.Value {
			pkt.Value[i] = getF32(p[4+i*4:])
		}
		pkt.DepthV = getF32(p[20:])
		pkt.StencilV = int32(getU32(p[24:]))
		return pkt, nil

	case CmdNoOp:
		return NoOpPacket{}, nil
	}
	return nil, ErrUnknownPacket
}

func shortPayload(t CommandType, n int) error {
	return fmt.Errorf("%w: %v payload %d bytes", ErrTruncatedStream, t, n)
}

func getU32(p []byte) uint32 { return binary.LittleEndian.Uint32(p) }

func getF32(p []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(p)) }

func getRect(p []byte) types.Rect {
	return types.Rect{
		X: int(int32(getU32(p))),
		Y: int(int32(getU32(p[4:]))),
		W: int(int32(getU32(p[8:]))),
		H: int(int32(getU32(p[12:]))),
	}
}
