// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package soft

import "github.com/gogpu/softgpu/types"

// DefaultTileSize is the edge length of a framebuffer tile in pixels.
// A tile is the unit of rasterization parallelism.
const DefaultTileSize = 64

type tileCommandKind uint8

const (
	tileDrawTriangle tileCommandKind = iota
	tileClear
)

// tileCommand references work binned to one tile. state indexes the
// frame's draw-state list; data is the byte offset of the record in
// the frame arena.
type tileCommand struct {
	kind  tileCommandKind
	state uint16
	data  uint32
}

// tile owns the command sequence of one screen rectangle. Within a
// tile, commands execute in bin order, which keeps overlap correct
// without a depth test.
type tile struct {
	commands []tileCommand
}

// binner assigns triangles to the screen tiles their bounding boxes
// touch. Binning is conservative: a binned triangle may not actually
// cover its tile; the rasterizer re-tests coverage per pixel, so over-
// binning only costs command-list entries.
type binner struct {
	width    int
	height   int
	tileSize int
	gridW    int
	gridH    int
	tiles    []tile
}

func newBinner(width, height, tileSize int) *binner {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	gridW := (width + tileSize - 1) / tileSize
	gridH := (height + tileSize - 1) / tileSize
	return &binner{
		width:    width,
		height:   height,
		tileSize: tileSize,
		gridW:    gridW,
		gridH:    gridH,
		tiles:    make([]tile, gridW*gridH),
	}
}

// reset empties every tile's command sequence, retaining capacity.
func (b *binner) reset() {
	for i := range b.tiles {
		b.tiles[i].commands = b.tiles[i].commands[:0]
	}
}

// tileCount returns the number of tiles in the grid.
func (b *binner) tileCount() int { return len(b.tiles) }

// tileRect returns the pixel rectangle of tile i, clipped to the
// framebuffer.
func (b *binner) tileRect(i int) types.Rect {
	tx := i % b.gridW
	ty := i / b.gridW
	r := types.Rect{
		X: tx * b.tileSize,
		Y: ty * b.tileSize,
		W: b.tileSize,
		H: b.tileSize,
	}
	if r.X+r.W > b.width {
		r.W = b.width - r.X
	}
	if r.Y+r.H > b.height {
		r.H = b.height - r.Y
	}
	return r
}

// binTriangle appends a draw command to every tile overlapped by the
// triangle's screen-space bounding box.
func (b *binner) binTriangle(rec *triangleRecord, state uint16, data uint32) {
	minX := min(rec.pos[0][0], rec.pos[1][0], rec.pos[2][0])
	minY := min(rec.pos[0][1], rec.pos[1][1], rec.pos[2][1])
	maxX := max(rec.pos[0][0], rec.pos[1][0], rec.pos[2][0])
	maxY := max(rec.pos[0][1], rec.pos[1][1], rec.pos[2][1])

	if maxX < 0 || maxY < 0 || minX >= float32(b.width) || minY >= float32(b.height) {
		return
	}

	minTx := max(0, int(minX)/b.tileSize)
	minTy := max(0, int(minY)/b.tileSize)
	maxTx := min(b.gridW-1, int(maxX)/b.tileSize)
	maxTy := min(b.gridH-1, int(maxY)/b.tileSize)

	cmd := tileCommand{kind: tileDrawTriangle, state: state, data: data}
	for ty := minTy; ty <= maxTy; ty++ {
		row := ty * b.gridW
		for tx := minTx; tx <= maxTx; tx++ {
			b.tiles[row+tx].commands = append(b.tiles[row+tx].commands, cmd)
		}
	}
}

// binAll appends a command to every tile.
func (b *binner) binAll(cmd tileCommand) {
	for i := range b.tiles {
		b.tiles[i].commands = append(b.tiles[i].commands, cmd)
	}
}
