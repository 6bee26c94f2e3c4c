// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package soft

import "testing"

func record(p0, p1, p2 [2]float32) *triangleRecord {
	rec := &triangleRecord{}
	rec.pos[0][0], rec.pos[0][1] = p0[0], p0[1]
	rec.pos[1][0], rec.pos[1][1] = p1[0], p1[1]
	rec.pos[2][0], rec.pos[2][1] = p2[0], p2[1]
	return rec
}

func TestBinSmallTriangle(t *testing.T) {
	b := newBinner(128, 128, 64)
	if b.tileCount() != 4 {
		t.Fatalf("128x128 with 64px tiles: %d tiles, want 4", b.tileCount())
	}

	b.binTriangle(record([2]float32{10, 10}, [2]float32{20, 10}, [2]float32{10, 20}), 0, 0)

	if got := len(b.tiles[0].commands); got != 1 {
		t.Errorf("tile (0,0) has %d commands, want 1", got)
	}
	for i := 1; i < b.tileCount(); i++ {
		if got := len(b.tiles[i].commands); got != 0 {
			t.Errorf("tile %d has %d commands, want 0", i, got)
		}
	}
}

func TestBinSpanningTriangle(t *testing.T) {
	b := newBinner(128, 128, 64)
	// Crosses all four tiles.
	b.binTriangle(record([2]float32{10, 10}, [2]float32{120, 10}, [2]float32{10, 120}), 0, 0)
	for i := 0; i < b.tileCount(); i++ {
		if got := len(b.tiles[i].commands); got != 1 {
			t.Errorf("tile %d has %d commands, want 1", i, got)
		}
	}
}

func TestBinConservative(t *testing.T) {
	// Every pixel the triangle covers must live in a tile holding the
	// triangle's command (the binner may over-include, never miss).
	b := newBinner(128, 128, 64)
	tri := record([2]float32{30, 30}, [2]float32{100, 40}, [2]float32{50, 110})
	b.binTriangle(tri, 0, 7)

	binned := make(map[int]bool)
	for i := range b.tiles {
		for _, cmd := range b.tiles[i].commands {
			if cmd.data == 7 {
				binned[i] = true
			}
		}
	}

	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			if !pointInTriangle(float32(x)+0.5, float32(y)+0.5, tri) {
				continue
			}
			ti := (y/64)*b.gridW + x/64
			if !binned[ti] {
				t.Fatalf("pixel (%d,%d) covered but tile %d has no command", x, y, ti)
			}
		}
	}
}

func pointInTriangle(px, py float32, rec *triangleRecord) bool {
	sign := func(x0, y0, x1, y1 float32) float32 {
		return (x1-x0)*(py-y0) - (y1-y0)*(px-x0)
	}
	d0 := sign(rec.pos[0][0], rec.pos[0][1], rec.pos[1][0], rec.pos[1][1])
	d1 := sign(rec.pos[1][0], rec.pos[1][1], rec.pos[2][0], rec.pos[2][1])
	d2 := sign(rec.pos[2][0], rec.pos[2][1], rec.pos[0][0], rec.pos[0][1])
	neg := d0 < 0 || d1 < 0 || d2 < 0
	pos := d0 > 0 || d1 > 0 || d2 > 0
	return !(neg && pos)
}

func TestBinOffscreenRejected(t *testing.T) {
	b := newBinner(128, 128, 64)
	b.binTriangle(record([2]float32{-50, -50}, [2]float32{-10, -50}, [2]float32{-50, -10}), 0, 0)
	b.binTriangle(record([2]float32{200, 200}, [2]float32{300, 200}, [2]float32{200, 300}), 0, 0)
	for i := range b.tiles {
		if len(b.tiles[i].commands) != 0 {
			t.Fatalf("offscreen triangle binned into tile %d", i)
		}
	}
}

func TestBinResetRetainsCapacity(t *testing.T) {
	b := newBinner(128, 128, 64)
	b.binAll(tileCommand{kind: tileClear})
	b.reset()
	for i := range b.tiles {
		if len(b.tiles[i].commands) != 0 {
			t.Fatalf("tile %d not emptied by reset", i)
		}
		if cap(b.tiles[i].commands) == 0 {
			t.Fatalf("tile %d capacity not retained", i)
		}
	}
}

func TestTileRectClipping(t *testing.T) {
	b := newBinner(100, 70, 64)
	if b.gridW != 2 || b.gridH != 2 {
		t.Fatalf("grid %dx%d, want 2x2", b.gridW, b.gridH)
	}
	r := b.tileRect(3) // bottom-right partial tile
	if r.X != 64 || r.Y != 64 || r.W != 36 || r.H != 6 {
		t.Errorf("tile 3 rect = %+v, want {64 64 36 6}", r)
	}
}
