// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/internal/arena"
	"github.com/gogpu/softgpu/shader"
	"github.com/gogpu/softgpu/soft/raster"
	"github.com/gogpu/softgpu/types"
)

// Submit implements softgpu.Device. Packets execute in the order
// written. Per-command failures are logged and skipped; malformed
// streams and state-machine violations abort the submit with a
// *softgpu.DecodeError, after which the device is back outside any
// pass and remains usable.
func (d *Device) Submit(cb *softgpu.CommandBuffer) error {
	if d.color == nil {
		return softgpu.ErrNoRenderTarget
	}

	r := softgpu.NewReader(cb)
	for {
		off := r.Offset()
		pkt, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			d.abortPass()
			softgpu.Logger().Error("soft: submit aborted", "err", err)
			return err
		}
		if err := d.execute(pkt); err != nil {
			d.abortPass()
			derr := &softgpu.DecodeError{Offset: off, Tag: uint16(pkt.Type()), Err: err}
			softgpu.Logger().Error("soft: submit aborted", "err", derr)
			return derr
		}
	}
}

// abortPass rewinds frame state after a fatal decode error so the
// device is usable for the next submit.
func (d *Device) abortPass() {
	if !d.inPass {
		return
	}
	d.inPass = false
	d.endFrame()
}

// endFrame releases all frame-scoped state: tile command lists, the
// triangle pool, and the draw-state list.
func (d *Device) endFrame() {
	d.binner.reset()
	d.pool.Reset()
	d.drawStates = d.drawStates[:0]
	d.curState = -1
	d.bindingsDirty = true
	d.poolExhausted = false
	d.pipeline = nil
}

func (d *Device) execute(pkt softgpu.Packet) error {
	switch p := pkt.(type) {
	case softgpu.BeginPassPacket:
		return d.beginPass(p)

	case softgpu.EndPassPacket:
		if !d.inPass {
			return softgpu.ErrOutsidePass
		}
		d.flushTiles()
		d.inPass = false
		d.endFrame()
		return nil

	case softgpu.SetPipelinePacket:
		res, ok := d.pipelines.Get(uint32(p.Pipeline))
		if !ok {
			softgpu.Logger().Warn("soft: SetPipeline on invalid handle", "handle", p.Pipeline)
			d.pipeline = nil
			return nil
		}
		d.pipeline = res
		d.bindingsDirty = true
		return nil

	case softgpu.SetVertexStreamPacket:
		if int(p.Binding) >= types.MaxVertexStreams {
			softgpu.Logger().Warn("soft: vertex stream binding out of range", "binding", p.Binding)
			return nil
		}
		if p.Buffer.IsValid() && !d.buffers.Contains(uint32(p.Buffer)) {
			softgpu.Logger().Warn("soft: SetVertexStream on invalid handle", "handle", p.Buffer)
			return nil
		}
		d.streams[p.Binding] = streamBinding{buffer: p.Buffer, offset: p.Offset, stride: p.Stride}
		return nil

	case softgpu.SetIndexBufferPacket:
		if p.Buffer.IsValid() && !d.buffers.Contains(uint32(p.Buffer)) {
			softgpu.Logger().Warn("soft: SetIndexBuffer on invalid handle", "handle", p.Buffer)
			return nil
		}
		d.indexBuf = p.Buffer
		d.indexOff = p.Offset
		return nil

	case softgpu.SetTexturePacket:
		if int(p.Slot) >= types.MaxTextureSlots {
			softgpu.Logger().Warn("soft: texture slot out of range", "slot", p.Slot)
			return nil
		}
		if p.Texture.IsValid() && !d.textures.Contains(uint32(p.Texture)) {
			softgpu.Logger().Warn("soft: SetTexture on invalid handle", "handle", p.Texture)
			return nil
		}
		d.texSlots[p.Slot] = p.Texture
		d.bindingsDirty = true
		return nil

	case softgpu.UpdateUniformPacket:
		if int(p.Slot) >= types.MaxUniformSlots {
			softgpu.Logger().Warn("soft: uniform slot out of range", "slot", p.Slot)
			return nil
		}
		data := p.Data
		if len(data) > types.UniformSlotSize {
			softgpu.Logger().Warn("soft: uniform payload truncated",
				"slot", p.Slot, "size", len(data))
			data = data[:types.UniformSlotSize]
		}
		copy(d.staging[p.Slot][:], data)
		d.bindingsDirty = true
		return nil

	case softgpu.SetViewportPacket:
		d.viewport = p.Rect
		return nil

	case softgpu.SetScissorPacket:
		d.scissor = p.Rect
		d.bindingsDirty = true
		return nil

	case softgpu.DrawPacket:
		if !d.inPass {
			return softgpu.ErrOutsidePass
		}
		d.draw(int(p.VertexCount), int(p.FirstVertex), int(p.InstanceCount), false, 0)
		return nil

	case softgpu.DrawIndexedPacket:
		if !d.inPass {
			return softgpu.ErrOutsidePass
		}
		d.draw(int(p.IndexCount), int(p.FirstIndex), int(p.InstanceCount), true, int(p.BaseVertex))
		return nil

	case softgpu.ClearPacket:
		if !d.inPass {
			return softgpu.ErrOutsidePass
		}
		d.clearMidPass(p)
		return nil

	case softgpu.NoOpPacket:
		return nil
	}
	return softgpu.ErrUnknownPacket
}

func (d *Device) beginPass(p softgpu.BeginPassPacket) error {
	if d.inPass {
		return softgpu.ErrNestedPass
	}
	d.inPass = true

	full := types.Rect{W: d.width, H: d.height}
	d.viewport = p.Viewport
	if d.viewport.Empty() {
		d.viewport = full
	}
	d.scissor = p.Scissor
	if d.scissor.Empty() {
		d.scissor = full
	}
	d.bindingsDirty = true
	d.curState = -1

	if p.ColorLoadOp == types.LoadOpClear {
		fillColor(d.color, d.width*d.height, p.ClearColor)
	}
	if p.DepthLoadOp == types.LoadOpClear {
		for i := range d.depth[:d.width*d.height] {
			d.depth[i] = p.ClearDepth
		}
	}
	return nil
}

// flushTiles runs the rasterization stage: one parallel-for over all
// tiles. The triangle pool, draw states, and tile lists are read-only
// until it returns.
func (d *Device) flushTiles() {
	d.jobs.ParallelFor(0, d.binner.tileCount(), d.rasterizeTile)
}

func (d *Device) clearMidPass(p softgpu.ClearPacket) {
	if !p.Color && !p.Depth {
		return
	}
	rec, off, err := allocRecord[clearRecord](d.pool)
	if err != nil {
		d.reportPoolExhausted(err)
		return
	}
	rec.color = p.Value
	rec.depth = p.DepthV
	rec.scissor = d.scissor
	rec.clearColor = p.Color
	rec.clearDepth = p.Depth
	d.binner.binAll(tileCommand{kind: tileClear, data: off})
}

// snapshotState captures the current pipeline, uniform staging,
// texture bindings, and scissor into a draw state and returns its
// 16-bit id, reusing the previous state when nothing changed.
func (d *Device) snapshotState() (uint16, bool) {
	if !d.bindingsDirty && d.curState >= 0 {
		return uint16(d.curState), true
	}
	if len(d.drawStates) > 0xFFFF {
		softgpu.Logger().Warn("soft: draw state limit reached, draw skipped")
		return 0, false
	}
	ds := &drawState{
		prog:        d.pipeline.prog,
		numVaryings: d.pipeline.numVaryings,
		depthTest:   d.pipeline.desc.DepthTest,
		depthWrite:  d.pipeline.desc.DepthWrite,
		scissor:     d.scissor,
		uniforms:    d.staging,
	}
	ds.env.Uniforms = &ds.uniforms
	for slot, h := range d.texSlots {
		if !h.IsValid() {
			continue
		}
		if tex, ok := d.textures.Get(uint32(h)); ok {
			ds.env.Textures[slot] = shader.TexView{Width: tex.width, Height: tex.height, Pix: tex.pix}
		}
	}
	d.drawStates = append(d.drawStates, ds)
	d.curState = len(d.drawStates) - 1
	d.bindingsDirty = false
	return uint16(d.curState), true
}

// draw runs the vertex stage for one draw call: vertex assembly,
// shading, triangle assembly, near clip, screen mapping, culling, and
// binning.
func (d *Device) draw(count, first, instances int, indexed bool, baseVertex int) {
	if d.pipeline == nil {
		softgpu.Logger().Warn("soft: draw with no pipeline bound")
		return
	}
	if count <= 0 || instances <= 0 {
		return
	}
	if d.pipeline.desc.Primitive != types.PrimitiveTriangles {
		if !d.primitiveWarned {
			softgpu.Logger().Warn("soft: only triangle lists are rasterized",
				"primitive", d.pipeline.desc.Primitive)
			d.primitiveWarned = true
		}
		return
	}
	if instances != 1 {
		softgpu.Logger().Debug("soft: instancing not supported, drawing one instance",
			"instances", instances)
	}

	stream := d.streams[0]
	if !stream.buffer.IsValid() {
		softgpu.Logger().Warn("soft: draw with no vertex stream bound")
		return
	}
	vbuf, ok := d.buffers.Get(uint32(stream.buffer))
	if !ok {
		softgpu.Logger().Warn("soft: draw with destroyed vertex buffer", "handle", stream.buffer)
		return
	}
	stride := int(stream.stride)
	if stride == 0 {
		stride = d.pipeline.desc.Layout.Stride
	}
	if stride <= 0 {
		softgpu.Logger().Warn("soft: draw with zero vertex stride")
		return
	}

	var ibuf *bufferRes
	if indexed {
		if !d.indexBuf.IsValid() {
			softgpu.Logger().Warn("soft: indexed draw with no index buffer bound")
			return
		}
		ibuf, ok = d.buffers.Get(uint32(d.indexBuf))
		if !ok {
			softgpu.Logger().Warn("soft: indexed draw with destroyed index buffer", "handle", d.indexBuf)
			return
		}
	}

	stateID, ok := d.snapshotState()
	if !ok {
		return
	}
	env := &d.drawStates[stateID].env
	prog := d.pipeline.prog
	nv := d.pipeline.numVaryings

	var vin shader.VertexIn
	var vout shader.VertexOut
	var tri [3]raster.ClipVertex
	triVerts := 0

	for i := 0; i < count; i++ {
		idx := first + i
		if indexed {
			byteOff := int(d.indexOff) + idx*4
			if byteOff < 0 || byteOff+4 > len(ibuf.data) {
				softgpu.Logger().Warn("soft: index read out of bounds", "index", idx)
				return
			}
			idx = int(binary.LittleEndian.Uint32(ibuf.data[byteOff:])) + baseVertex
		}

		base := int(stream.offset) + idx*stride
		if idx < 0 || base < 0 || base+stride > len(vbuf.data) {
			softgpu.Logger().Warn("soft: vertex read out of bounds", "vertex", idx)
			return
		}

		vin.Index = idx
		decodeAttributes(&vin, vbuf.data[base:base+stride], &d.pipeline.desc.Layout)
		vout = shader.VertexOut{}
		prog.Vertex(env, &vin, &vout)

		tri[triVerts] = raster.ClipVertex{Position: vout.Position}
		copy(tri[triVerts].Varyings[:nv], vout.Varyings[:nv])
		triVerts++
		if triVerts < 3 {
			continue
		}
		triVerts = 0
		d.emitTriangle(tri, nv, stateID)
	}
}

// decodeAttributes reads one vertex's attributes per the pipeline
// layout. Missing components read as (0, 0, 0, 1).
func decodeAttributes(vin *shader.VertexIn, vertex []byte, layout *types.VertexLayout) {
	for _, attr := range layout.Attributes {
		out := &vin.Attr[attr.Location]
		*out = [4]float32{0, 0, 0, 1}
		if attr.Offset < 0 || attr.Offset+attr.Format.Size() > len(vertex) {
			continue
		}
		src := vertex[attr.Offset:]
		switch attr.Format {
		case types.VertexFloat1, types.VertexFloat2, types.VertexFloat3, types.VertexFloat4:
			n := attr.Format.Components()
			for c := 0; c < n; c++ {
				out[c] = f32at(src, c*4)
			}
		case types.VertexUByte4:
			for c := 0; c < 4; c++ {
				out[c] = float32(src[c])
			}
		case types.VertexUByte4N:
			for c := 0; c < 4; c++ {
				out[c] = float32(src[c]) / 255
			}
		}
	}
}

func f32at(p []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p[off:]))
}

// emitTriangle clips one clip-space triangle, maps the pieces to
// screen space, culls, bakes records into the frame pool, and bins
// them.
func (d *Device) emitTriangle(tri [3]raster.ClipVertex, nv int, stateID uint16) {
	d.clipScratch = raster.ClipNear(d.clipScratch[:0], tri, nv)

	cull := d.pipeline.desc.Cull
	vp := d.viewport

	for _, ct := range d.clipScratch {
		rec := bakeTriangle(&ct, nv, vp)
		area := raster.Area(
			rec.pos[0][0], rec.pos[0][1],
			rec.pos[1][0], rec.pos[1][1],
			rec.pos[2][0], rec.pos[2][1],
		)
		if raster.ShouldCull(area, cull) {
			continue
		}
		stored, off, err := allocRecord[triangleRecord](d.pool)
		if err != nil {
			d.reportPoolExhausted(err)
			return
		}
		*stored = rec
		d.binner.binTriangle(stored, stateID, off)
	}
}

// bakeTriangle performs the perspective divide and viewport transform.
// Screen Y is flipped: the framebuffer origin is the top-left pixel,
// so NDC +Y maps toward row zero. Varyings are stored divided by w for
// perspective-correct interpolation; position w holds 1/w.
func bakeTriangle(ct *[3]raster.ClipVertex, nv int, vp types.Rect) triangleRecord {
	var rec triangleRecord
	rec.numVaryings = int32(nv)
	for i := 0; i < 3; i++ {
		p := ct[i].Position
		invW := 1 / p[3]
		ndcX := p[0] * invW
		ndcY := p[1] * invW
		rec.pos[i][0] = (ndcX + 1) * 0.5 * float32(vp.W) + float32(vp.X)
		rec.pos[i][1] = (1 - ndcY) * 0.5 * float32(vp.H) + float32(vp.Y)
		rec.pos[i][2] = p[2] * invW
		rec.pos[i][3] = invW
		for k := 0; k < nv; k++ {
			rec.varyings[i][k] = ct[i].Varyings[k] * invW
		}
	}
	return rec
}

// reportPoolExhausted logs pool exhaustion once per frame; further
// records this frame are dropped silently.
func (d *Device) reportPoolExhausted(err error) {
	if errors.Is(err, arena.ErrOutOfMemory) {
		if !d.poolExhausted {
			softgpu.Logger().Warn("soft: triangle pool exhausted, dropping geometry until frame reset",
				"capacity", d.pool.Cap())
			d.poolExhausted = true
		}
		return
	}
	softgpu.Logger().Warn("soft: triangle pool allocation failed", "err", err)
}

func fillColor(dst []byte, texels int, c [4]float32) {
	r := clampByte(c[0])
	g := clampByte(c[1])
	b := clampByte(c[2])
	a := clampByte(c[3])
	for i := 0; i < texels; i++ {
		dst[i*4] = r
		dst[i*4+1] = g
		dst[i*4+2] = b
		dst[i*4+3] = a
	}
}

func clampByte(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(v*255 + 0.5)
}
