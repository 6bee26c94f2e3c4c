// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package softgpu

import (
	"errors"
	"fmt"
)

// Errors shared by all backends.
var (
	// ErrInvalidHandle indicates an operation referenced a handle that
	// is zero, destroyed, or of a recycled slot. The offending command
	// is skipped; the device stays valid.
	ErrInvalidHandle = errors.New("softgpu: invalid handle")

	// ErrOutOfBounds indicates a buffer update outside
	// [0, buffer.Size). The update is skipped.
	ErrOutOfBounds = errors.New("softgpu: buffer update out of bounds")

	// ErrUnknownPacket indicates an unrecognized packet tag in a
	// command stream. Fatal for the submit.
	ErrUnknownPacket = errors.New("softgpu: unknown packet tag")

	// ErrTruncatedStream indicates a packet size field pointing past
	// the end of the command stream. Fatal for the submit.
	ErrTruncatedStream = errors.New("softgpu: truncated command stream")

	// ErrOutsidePass indicates a draw-family packet outside
	// BeginPass/EndPass. Fatal for the submit.
	ErrOutsidePass = errors.New("softgpu: draw outside render pass")

	// ErrNestedPass indicates BeginPass while already inside a pass.
	// Fatal for the submit.
	ErrNestedPass = errors.New("softgpu: BeginPass inside render pass")

	// ErrNoRenderTarget indicates a submit without a configured color
	// buffer.
	ErrNoRenderTarget = errors.New("softgpu: no render target bound")
)

// DecodeError wraps a fatal command-stream error with its location.
// Submit aborts at the offending packet; earlier packets have already
// executed and the device remains usable.
type DecodeError struct {
	// Offset is the byte offset of the packet header in the stream.
	Offset int

	// Tag is the raw packet type tag.
	Tag uint16

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("packet at offset %d (tag %d): %v", e.Offset, e.Tag, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Err }
