// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"fmt"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/internal/arena"
	"github.com/gogpu/softgpu/internal/handle"
	"github.com/gogpu/softgpu/internal/jobs"
	"github.com/gogpu/softgpu/shader"
	"github.com/gogpu/softgpu/soft/raster"
	"github.com/gogpu/softgpu/types"
)

// DefaultPoolSize is the default capacity of the per-frame triangle
// pool.
const DefaultPoolSize = 16 << 20

// Options configures a Device. The zero value selects defaults.
type Options struct {
	// Workers is the worker goroutine count for tile rasterization.
	// 0 selects runtime.NumCPU() with a floor of 4.
	Workers int

	// TileSize is the tile edge length in pixels. 0 selects
	// DefaultTileSize.
	TileSize int

	// PoolSize is the byte capacity of the per-frame triangle pool.
	// 0 selects DefaultPoolSize.
	PoolSize int
}

type bufferRes struct {
	kind  types.BufferKind
	usage types.BufferUsage
	data  []byte
	label string
}

type textureRes struct {
	width  int
	height int
	pix    []byte
}

type pipelineRes struct {
	desc types.PipelineDesc
	prog shader.Program
	numVaryings int
}

type streamBinding struct {
	buffer types.BufferHandle
	offset uint32
	stride uint32
}

// drawState is the snapshot a draw executes against during deferred
// rasterization: program, fixed-function flags, the uniform staging
// contents, bound textures, and the scissor at decode time. One entry
// is appended per draw whose bindings changed; tile commands index
// this list with a 16-bit id.
type drawState struct {
	prog        shader.Program
	numVaryings int
	depthTest   bool
	depthWrite  bool
	scissor     types.Rect
	uniforms    [types.MaxUniformSlots][types.UniformSlotSize]byte
	env         shader.Env
}

// Device is the software implementation of softgpu.Device.
//
// Resource creation, command decoding, and the vertex stage run on
// the goroutine calling Submit; rasterization fans out over the
// device's worker pool and completes before Submit returns.
type Device struct {
	buffers   *handle.Table[*bufferRes]
	textures  *handle.Table[*textureRes]
	pipelines *handle.Table[*pipelineRes]

	pool *arena.Arena
	jobs *jobs.System

	tileSize int
	binner   *binner

	// Render target, caller-owned color and depth planes.
	color  []byte
	depth  []float32
	width  int
	height int

	// Current bindings while decoding a stream.
	streams  [types.MaxVertexStreams]streamBinding
	indexBuf types.BufferHandle
	indexOff uint32
	staging  [types.MaxUniformSlots][types.UniformSlotSize]byte
	texSlots [types.MaxTextureSlots]types.TextureHandle

	// Pass state machine.
	inPass   bool
	viewport types.Rect
	scissor  types.Rect
	pipeline *pipelineRes

	// Per-frame deferred state.
	drawStates    []*drawState
	bindingsDirty bool
	curState      int // index into drawStates, -1 if none valid

	// Scratch for the vertex stage.
	clipScratch [][3]raster.ClipVertex

	poolExhausted  bool
	primitiveWarned bool
}

// NewDevice creates a software device. The returned device has no
// render target; call SetRenderTarget before submitting passes.
func NewDevice(opts Options) *Device {
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	tileSize := opts.TileSize
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return &Device{
		buffers:   handle.New[*bufferRes](),
		textures:  handle.New[*textureRes](),
		pipelines: handle.New[*pipelineRes](),
		pool:      arena.New(poolSize),
		jobs:      jobs.New(opts.Workers),
		tileSize:  tileSize,
		curState:  -1,
	}
}

// Close shuts down the device's worker pool. The device must not be
// used afterwards.
func (d *Device) Close() {
	d.jobs.Shutdown()
}

// SetRenderTarget points the device at the caller-owned output
// planes. color is tightly packed RGBA8 with a top-left origin,
// stride width*4; depth may be nil, in which case the device keeps an
// internal depth plane of the same dimensions.
func (d *Device) SetRenderTarget(color []byte, depth []float32, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("soft: render target %dx%d has no area", width, height)
	}
	if len(color) < width*height*4 {
		return fmt.Errorf("soft: color plane %d bytes, need %d", len(color), width*height*4)
	}
	if depth == nil {
		depth = make([]float32, width*height)
	} else if len(depth) < width*height {
		return fmt.Errorf("soft: depth plane %d entries, need %d", len(depth), width*height)
	}
	d.color = color
	d.depth = depth
	d.width = width
	d.height = height
	d.binner = newBinner(width, height, d.tileSize)
	return nil
}

// CreateBuffer implements softgpu.Device.
func (d *Device) CreateBuffer(desc *types.BufferDesc) (types.BufferHandle, error) {
	if desc.Size <= 0 {
		return 0, fmt.Errorf("soft: buffer size %d", desc.Size)
	}
	if len(desc.InitialData) > desc.Size {
		return 0, fmt.Errorf("soft: initial data %d bytes exceeds buffer size %d",
			len(desc.InitialData), desc.Size)
	}
	res := &bufferRes{
		kind:  desc.Kind,
		usage: desc.Usage,
		data:  make([]byte, desc.Size),
		label: desc.Label,
	}
	copy(res.data, desc.InitialData)
	h := types.BufferHandle(d.buffers.Add(res))
	softgpu.Logger().Debug("soft: buffer created",
		"handle", h, "kind", desc.Kind.String(), "size", desc.Size, "label", desc.Label)
	return h, nil
}

// DestroyBuffer implements softgpu.Device.
func (d *Device) DestroyBuffer(h types.BufferHandle) {
	if _, ok := d.buffers.Remove(uint32(h)); !ok {
		softgpu.Logger().Warn("soft: DestroyBuffer on invalid handle", "handle", h)
	}
}

// UpdateBuffer implements softgpu.Device. The destination range must
// lie inside the buffer.
func (d *Device) UpdateBuffer(h types.BufferHandle, data []byte, offset int) error {
	buf, ok := d.buffers.Get(uint32(h))
	if !ok {
		softgpu.Logger().Warn("soft: UpdateBuffer on invalid handle", "handle", h)
		return softgpu.ErrInvalidHandle
	}
	if offset < 0 || offset+len(data) > len(buf.data) {
		softgpu.Logger().Warn("soft: UpdateBuffer out of bounds",
			"handle", h, "offset", offset, "size", len(data), "capacity", len(buf.data))
		return softgpu.ErrOutOfBounds
	}
	copy(buf.data[offset:], data)
	return nil
}

// CreateTexture implements softgpu.Device. Payloads with fewer than
// four channels are expanded to RGBA on upload; a missing alpha
// channel reads as opaque.
func (d *Device) CreateTexture(pixels []byte, width, height, channels int) (types.TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("soft: texture %dx%d has no area", width, height)
	}
	if channels < 1 || channels > 4 {
		return 0, fmt.Errorf("soft: texture with %d channels", channels)
	}
	if len(pixels) < width*height*channels {
		return 0, fmt.Errorf("soft: texture payload %d bytes, need %d",
			len(pixels), width*height*channels)
	}
	res := &textureRes{
		width:  width,
		height: height,
		pix:    expandRGBA(pixels, width*height, channels),
	}
	h := types.TextureHandle(d.textures.Add(res))
	softgpu.Logger().Debug("soft: texture created", "handle", h, "width", width, "height", height)
	return h, nil
}

// expandRGBA converts a packed n-channel payload to RGBA.
func expandRGBA(src []byte, texels, channels int) []byte {
	if channels == 4 {
		dst := make([]byte, texels*4)
		copy(dst, src[:texels*4])
		return dst
	}
	dst := make([]byte, texels*4)
	for i := 0; i < texels; i++ {
		s := i * channels
		t := i * 4
		switch channels {
		case 1:
			// Greyscale replicated, opaque.
			dst[t], dst[t+1], dst[t+2], dst[t+3] = src[s], src[s], src[s], 255
		case 2:
			// Grey + alpha.
			dst[t], dst[t+1], dst[t+2], dst[t+3] = src[s], src[s], src[s], src[s+1]
		case 3:
			dst[t], dst[t+1], dst[t+2], dst[t+3] = src[s], src[s+1], src[s+2], 255
		}
	}
	return dst
}

// DestroyTexture implements softgpu.Device.
func (d *Device) DestroyTexture(h types.TextureHandle) {
	if _, ok := d.textures.Remove(uint32(h)); !ok {
		softgpu.Logger().Warn("soft: DestroyTexture on invalid handle", "handle", h)
	}
}

// CreatePipeline implements softgpu.Device. The shader's soft factory
// runs once here, producing the per-pipeline executor.
func (d *Device) CreatePipeline(desc *types.PipelineDesc) (types.PipelineHandle, error) {
	sd, ok := shader.DescOf(desc.Shader)
	if !ok {
		return 0, fmt.Errorf("soft: pipeline references unregistered shader %v", desc.Shader)
	}
	if sd.Soft == nil {
		return 0, fmt.Errorf("soft: shader %q has no software implementation", shader.Name(desc.Shader))
	}
	for _, attr := range desc.Layout.Attributes {
		if attr.Location < 0 || attr.Location >= types.MaxVertexAttributes {
			return 0, fmt.Errorf("soft: attribute location %d out of range", attr.Location)
		}
	}
	res := &pipelineRes{desc: *desc, prog: sd.Soft(desc)}
	res.desc.Layout.Attributes = append([]types.VertexAttribute(nil), desc.Layout.Attributes...)
	res.numVaryings = res.prog.NumVaryings()
	if res.numVaryings > types.MaxVaryings {
		return 0, fmt.Errorf("soft: shader %q outputs %d varyings, limit %d",
			shader.Name(desc.Shader), res.numVaryings, types.MaxVaryings)
	}
	h := types.PipelineHandle(d.pipelines.Add(res))
	softgpu.Logger().Debug("soft: pipeline created", "handle", h, "label", desc.Label)
	return h, nil
}

// DestroyPipeline implements softgpu.Device.
func (d *Device) DestroyPipeline(h types.PipelineHandle) {
	if _, ok := d.pipelines.Remove(uint32(h)); !ok {
		softgpu.Logger().Warn("soft: DestroyPipeline on invalid handle", "handle", h)
	}
}

// Present implements softgpu.Device. The soft backend renders
// directly into the caller's color plane, so Present has nothing to
// swap; it exists as the frame boundary hook and is always safe.
func (d *Device) Present() {}
