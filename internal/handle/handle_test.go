// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package handle

import "testing"

func TestZeroIDInvalid(t *testing.T) {
	tbl := New[int]()
	if _, ok := tbl.Get(0); ok {
		t.Fatal("Get(0) resolved, want invalid")
	}
	if tbl.Contains(0) {
		t.Fatal("Contains(0) = true, want false")
	}
}

func TestAddGetRemove(t *testing.T) {
	tbl := New[string]()

	id := tbl.Add("mesh")
	if id == 0 {
		t.Fatal("Add returned the invalid ID 0")
	}
	got, ok := tbl.Get(id)
	if !ok || got != "mesh" {
		t.Fatalf("Get(%#x) = %q, %v; want \"mesh\", true", id, got, ok)
	}

	removed, ok := tbl.Remove(id)
	if !ok || removed != "mesh" {
		t.Fatalf("Remove = %q, %v; want \"mesh\", true", removed, ok)
	}
	if _, ok := tbl.Get(id); ok {
		t.Fatal("stale ID still resolves after Remove")
	}
	// Double destroy is a no-op.
	if _, ok := tbl.Remove(id); ok {
		t.Fatal("second Remove resolved, want no-op")
	}
}

func TestNoAliasingAfterReuse(t *testing.T) {
	tbl := New[int]()

	a := tbl.Add(1)
	tbl.Remove(a)
	b := tbl.Add(2)

	if a == b {
		t.Fatalf("reissued ID %#x aliases destroyed ID", b)
	}
	// Slot reuse is fine; the stale ID must not see the new resource.
	if _, ok := tbl.Get(a); ok {
		t.Fatal("destroyed ID resolves to reused slot")
	}
	if got, ok := tbl.Get(b); !ok || got != 2 {
		t.Fatalf("Get(new) = %d, %v; want 2, true", got, ok)
	}
}

func TestUpdate(t *testing.T) {
	tbl := New[[]byte]()
	id := tbl.Add(make([]byte, 4))

	if !tbl.Update(id, func(b *[]byte) { (*b)[0] = 0xFF }) {
		t.Fatal("Update failed on live ID")
	}
	got, _ := tbl.Get(id)
	if got[0] != 0xFF {
		t.Fatalf("record not mutated: got %#x", got[0])
	}
	if tbl.Update(9999, func(*[]byte) {}) {
		t.Fatal("Update succeeded on bogus ID")
	}
}

func TestLen(t *testing.T) {
	tbl := New[int]()
	ids := make([]uint32, 10)
	for i := range ids {
		ids[i] = tbl.Add(i)
	}
	if tbl.Len() != 10 {
		t.Fatalf("Len = %d, want 10", tbl.Len())
	}
	for _, id := range ids[:5] {
		tbl.Remove(id)
	}
	if tbl.Len() != 5 {
		t.Fatalf("Len = %d, want 5", tbl.Len())
	}
}
