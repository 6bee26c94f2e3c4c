// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package gl

import (
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/internal/handle"
	"github.com/gogpu/softgpu/shader"
	"github.com/gogpu/softgpu/types"
)

type glBuffer struct {
	id     uint32
	target BufferTarget
}

type glTexture struct {
	id uint32
}

type glPipeline struct {
	program uint32
	desc    types.PipelineDesc
}

// binding state cached to elide redundant context calls.
type glState struct {
	program      uint32
	arrayBuffer  uint32
	elementBuffer uint32
	texUnits     [types.MaxTextureSlots]uint32
	depthTest    bool
	depthWrite   bool
	cull         types.CullMode
	blend        bool
	stateValid   bool
}

// Device implements softgpu.Device over a host-supplied Context.
type Device struct {
	ctx Context

	buffers   *handle.Table[glBuffer]
	textures  *handle.Table[glTexture]
	pipelines *handle.Table[*glPipeline]

	// One uniform buffer per staging slot, bound to its index once.
	uniformBufs [types.MaxUniformSlots]uint32
	staging     [types.MaxUniformSlots][types.UniformSlotSize]byte
	stagingDirty [types.MaxUniformSlots]bool

	// Stream bindings recorded from packets; applied lazily at draw.
	streams  [types.MaxVertexStreams]streamBinding
	indexBuf types.BufferHandle
	indexOff uint32

	pipeline *glPipeline
	inPass   bool
	state    glState
}

type streamBinding struct {
	buffer types.BufferHandle
	offset uint32
	stride uint32
}

// NewDevice wraps a context in a device. The context must already be
// current on the calling goroutine.
func NewDevice(ctx Context) *Device {
	d := &Device{
		ctx:       ctx,
		buffers:   handle.New[glBuffer](),
		textures:  handle.New[glTexture](),
		pipelines: handle.New[*glPipeline](),
	}
	for slot := range d.uniformBufs {
		id := ctx.GenBuffer()
		ctx.BindBuffer(TargetUniform, id)
		ctx.BufferData(TargetUniform, types.UniformSlotSize, nil, UsageStream)
		ctx.BindUniformBase(slot, id)
		d.uniformBufs[slot] = id
	}
	return d
}

func dataUsage(u types.BufferUsage) DataUsage {
	switch u {
	case types.UsageDynamic:
		return UsageDynamic
	case types.UsageStream:
		return UsageStream
	}
	return UsageStatic
}

func bufferTarget(k types.BufferKind) BufferTarget {
	switch k {
	case types.BufferIndex:
		return TargetElementArray
	case types.BufferUniform:
		return TargetUniform
	}
	return TargetArray
}

// CreateBuffer implements softgpu.Device.
func (d *Device) CreateBuffer(desc *types.BufferDesc) (types.BufferHandle, error) {
	if desc.Size <= 0 {
		return 0, fmt.Errorf("gl: buffer size %d", desc.Size)
	}
	target := bufferTarget(desc.Kind)
	id := d.ctx.GenBuffer()
	d.bindBuffer(target, id)
	d.ctx.BufferData(target, desc.Size, desc.InitialData, dataUsage(desc.Usage))
	return types.BufferHandle(d.buffers.Add(glBuffer{id: id, target: target})), nil
}

// DestroyBuffer implements softgpu.Device.
func (d *Device) DestroyBuffer(h types.BufferHandle) {
	buf, ok := d.buffers.Remove(uint32(h))
	if !ok {
		softgpu.Logger().Warn("gl: DestroyBuffer on invalid handle", "handle", h)
		return
	}
	d.ctx.DeleteBuffer(buf.id)
	if d.state.arrayBuffer == buf.id {
		d.state.arrayBuffer = 0
	}
	if d.state.elementBuffer == buf.id {
		d.state.elementBuffer = 0
	}
}

// UpdateBuffer implements softgpu.Device.
func (d *Device) UpdateBuffer(h types.BufferHandle, data []byte, offset int) error {
	buf, ok := d.buffers.Get(uint32(h))
	if !ok {
		softgpu.Logger().Warn("gl: UpdateBuffer on invalid handle", "handle", h)
		return softgpu.ErrInvalidHandle
	}
	if offset < 0 {
		return softgpu.ErrOutOfBounds
	}
	d.bindBuffer(buf.target, buf.id)
	d.ctx.BufferSubData(buf.target, offset, data)
	return nil
}

// CreateTexture implements softgpu.Device.
func (d *Device) CreateTexture(pixels []byte, width, height, channels int) (types.TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("gl: texture %dx%d has no area", width, height)
	}
	if channels < 1 || channels > 4 {
		return 0, fmt.Errorf("gl: texture with %d channels", channels)
	}
	rgba := pixels
	if channels != 4 {
		rgba = expandRGBA(pixels, width*height, channels)
	}
	id := d.ctx.GenTexture()
	d.ctx.BindTexture(0, id)
	d.state.texUnits[0] = id
	d.ctx.TexImage2D(width, height, rgba)
	return types.TextureHandle(d.textures.Add(glTexture{id: id})), nil
}

// expandRGBA converts a packed n-channel payload to RGBA.
func expandRGBA(src []byte, texels, channels int) []byte {
	dst := make([]byte, texels*4)
	for i := 0; i < texels; i++ {
		s := i * channels
		t := i * 4
		switch channels {
		case 1:
			dst[t], dst[t+1], dst[t+2], dst[t+3] = src[s], src[s], src[s], 255
		case 2:
			dst[t], dst[t+1], dst[t+2], dst[t+3] = src[s], src[s], src[s], src[s+1]
		case 3:
			dst[t], dst[t+1], dst[t+2], dst[t+3] = src[s], src[s+1], src[s+2], 255
		}
	}
	return dst
}

// DestroyTexture implements softgpu.Device.
func (d *Device) DestroyTexture(h types.TextureHandle) {
	tex, ok := d.textures.Remove(uint32(h))
	if !ok {
		softgpu.Logger().Warn("gl: DestroyTexture on invalid handle", "handle", h)
		return
	}
	d.ctx.DeleteTexture(tex.id)
	for i := range d.state.texUnits {
		if d.state.texUnits[i] == tex.id {
			d.state.texUnits[i] = 0
		}
	}
}

// CreatePipeline implements softgpu.Device. The registry shader's
// WGSL is translated to GLSL here, once per pipeline.
func (d *Device) CreatePipeline(desc *types.PipelineDesc) (types.PipelineHandle, error) {
	sd, ok := shader.DescOf(desc.Shader)
	if !ok {
		return 0, fmt.Errorf("gl: pipeline references unregistered shader %v", desc.Shader)
	}
	vsrc, err := compileWGSL(sd.Source.Vertex, "vs_main")
	if err != nil {
		return 0, err
	}
	fsrc, err := compileWGSL(sd.Source.Fragment, "fs_main")
	if err != nil {
		return 0, err
	}
	program, err := d.ctx.CreateProgram(vsrc, fsrc)
	if err != nil {
		return 0, fmt.Errorf("gl: program link failed for %q: %w", shader.Name(desc.Shader), err)
	}
	res := &glPipeline{program: program, desc: *desc}
	res.desc.Layout.Attributes = append([]types.VertexAttribute(nil), desc.Layout.Attributes...)
	return types.PipelineHandle(d.pipelines.Add(res)), nil
}

// DestroyPipeline implements softgpu.Device.
func (d *Device) DestroyPipeline(h types.PipelineHandle) {
	res, ok := d.pipelines.Remove(uint32(h))
	if !ok {
		softgpu.Logger().Warn("gl: DestroyPipeline on invalid handle", "handle", h)
		return
	}
	d.ctx.DeleteProgram(res.program)
	if d.state.program == res.program {
		d.state.program = 0
	}
}

// Submit implements softgpu.Device.
func (d *Device) Submit(cb *softgpu.CommandBuffer) error {
	r := softgpu.NewReader(cb)
	for {
		off := r.Offset()
		pkt, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			d.inPass = false
			softgpu.Logger().Error("gl: submit aborted", "err", err)
			return err
		}
		if err := d.execute(pkt); err != nil {
			d.inPass = false
			derr := &softgpu.DecodeError{Offset: off, Tag: uint16(pkt.Type()), Err: err}
			softgpu.Logger().Error("gl: submit aborted", "err", derr)
			return derr
		}
	}
}

func (d *Device) execute(pkt softgpu.Packet) error {
	switch p := pkt.(type) {
	case softgpu.BeginPassPacket:
		if d.inPass {
			return softgpu.ErrNestedPass
		}
		d.inPass = true
		if !p.Viewport.Empty() {
			d.ctx.Viewport(p.Viewport.X, p.Viewport.Y, p.Viewport.W, p.Viewport.H)
		}
		if !p.Scissor.Empty() {
			d.ctx.Scissor(p.Scissor.X, p.Scissor.Y, p.Scissor.W, p.Scissor.H)
		}
		clearColor := p.ColorLoadOp == types.LoadOpClear
		clearDepth := p.DepthLoadOp == types.LoadOpClear
		if clearColor || clearDepth {
			d.ctx.Clear(clearColor, clearDepth, p.ClearColor, p.ClearDepth)
		}
		return nil

	case softgpu.EndPassPacket:
		if !d.inPass {
			return softgpu.ErrOutsidePass
		}
		d.inPass = false
		return nil

	case softgpu.SetPipelinePacket:
		res, ok := d.pipelines.Get(uint32(p.Pipeline))
		if !ok {
			softgpu.Logger().Warn("gl: SetPipeline on invalid handle", "handle", p.Pipeline)
			d.pipeline = nil
			return nil
		}
		d.pipeline = res
		return nil

	case softgpu.SetVertexStreamPacket:
		if int(p.Binding) >= types.MaxVertexStreams {
			softgpu.Logger().Warn("gl: vertex stream binding out of range", "binding", p.Binding)
			return nil
		}
		d.streams[p.Binding] = streamBinding{buffer: p.Buffer, offset: p.Offset, stride: p.Stride}
		return nil

	case softgpu.SetIndexBufferPacket:
		d.indexBuf = p.Buffer
		d.indexOff = p.Offset
		return nil

	case softgpu.SetTexturePacket:
		if int(p.Slot) >= types.MaxTextureSlots {
			softgpu.Logger().Warn("gl: texture slot out of range", "slot", p.Slot)
			return nil
		}
		tex, ok := d.textures.Get(uint32(p.Texture))
		if !ok {
			softgpu.Logger().Warn("gl: SetTexture on invalid handle", "handle", p.Texture)
			return nil
		}
		if d.state.texUnits[p.Slot] != tex.id {
			d.ctx.BindTexture(int(p.Slot), tex.id)
			d.state.texUnits[p.Slot] = tex.id
		}
		return nil

	case softgpu.UpdateUniformPacket:
		if int(p.Slot) >= types.MaxUniformSlots {
			softgpu.Logger().Warn("gl: uniform slot out of range", "slot", p.Slot)
			return nil
		}
		data := p.Data
		if len(data) > types.UniformSlotSize {
			data = data[:types.UniformSlotSize]
		}
		copy(d.staging[p.Slot][:], data)
		d.stagingDirty[p.Slot] = true
		return nil

	case softgpu.SetViewportPacket:
		d.ctx.Viewport(p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H)
		return nil

	case softgpu.SetScissorPacket:
		d.ctx.Scissor(p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H)
		return nil

	case softgpu.ClearPacket:
		if !d.inPass {
			return softgpu.ErrOutsidePass
		}
		d.ctx.Clear(p.Color, p.Depth, p.Value, p.DepthV)
		return nil

	case softgpu.DrawPacket:
		if !d.inPass {
			return softgpu.ErrOutsidePass
		}
		if !d.prepareDraw() {
			return nil
		}
		d.ctx.DrawArrays(int(p.FirstVertex), int(p.VertexCount))
		return nil

	case softgpu.DrawIndexedPacket:
		if !d.inPass {
			return softgpu.ErrOutsidePass
		}
		if !d.prepareDraw() {
			return nil
		}
		ibuf, ok := d.buffers.Get(uint32(d.indexBuf))
		if !ok {
			softgpu.Logger().Warn("gl: indexed draw with no index buffer bound")
			return nil
		}
		d.bindElementBuffer(ibuf.id)
		byteOff := int(d.indexOff) + int(p.FirstIndex)*4
		d.ctx.DrawElements(int(p.IndexCount), byteOff, int(p.BaseVertex))
		return nil

	case softgpu.NoOpPacket:
		return nil
	}
	return softgpu.ErrUnknownPacket
}

// prepareDraw binds pipeline, vertex stream, and fixed-function state,
// and flushes dirty uniform slots. The staging region reaches the
// context right before each draw, so a draw always sees the latest
// uniform writes and never an earlier draw's.
func (d *Device) prepareDraw() bool {
	if d.pipeline == nil {
		softgpu.Logger().Warn("gl: draw with no pipeline bound")
		return false
	}
	stream := d.streams[0]
	vbuf, ok := d.buffers.Get(uint32(stream.buffer))
	if !ok {
		softgpu.Logger().Warn("gl: draw with no vertex stream bound")
		return false
	}

	if d.state.program != d.pipeline.program {
		d.ctx.UseProgram(d.pipeline.program)
		d.state.program = d.pipeline.program
	}
	d.bindBuffer(TargetArray, vbuf.id)

	stride := int(stream.stride)
	if stride == 0 {
		stride = d.pipeline.desc.Layout.Stride
	}
	d.ctx.SetVertexLayout(d.pipeline.desc.Layout.Attributes, stride, int(stream.offset))

	desc := &d.pipeline.desc
	if !d.state.stateValid || d.state.depthTest != desc.DepthTest || d.state.depthWrite != desc.DepthWrite {
		d.ctx.SetDepthState(desc.DepthTest, desc.DepthWrite)
		d.state.depthTest = desc.DepthTest
		d.state.depthWrite = desc.DepthWrite
	}
	if !d.state.stateValid || d.state.cull != desc.Cull {
		d.ctx.SetCullMode(desc.Cull)
		d.state.cull = desc.Cull
	}
	if !d.state.stateValid || d.state.blend != desc.BlendEnabled {
		d.ctx.SetBlend(desc.BlendEnabled)
		d.state.blend = desc.BlendEnabled
	}
	d.state.stateValid = true

	d.flushUniforms()
	return true
}

// flushUniforms uploads dirty staging slots to their uniform buffers.
func (d *Device) flushUniforms() {
	for slot := range d.stagingDirty {
		if !d.stagingDirty[slot] {
			continue
		}
		d.bindBuffer(TargetUniform, d.uniformBufs[slot])
		d.ctx.BufferSubData(TargetUniform, 0, d.staging[slot][:])
		d.stagingDirty[slot] = false
	}
}

func (d *Device) bindBuffer(target BufferTarget, id uint32) {
	switch target {
	case TargetArray:
		if d.state.arrayBuffer == id {
			return
		}
		d.state.arrayBuffer = id
	case TargetElementArray:
		if d.state.elementBuffer == id {
			return
		}
		d.state.elementBuffer = id
	}
	d.ctx.BindBuffer(target, id)
}

func (d *Device) bindElementBuffer(id uint32) {
	d.bindBuffer(TargetElementArray, id)
}

// Present implements softgpu.Device. Buffer swapping belongs to the
// host's windowing layer, so the device has nothing to do here.
func (d *Device) Present() {}
