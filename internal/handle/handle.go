// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package handle implements generational handle tables mapping opaque
// 32-bit IDs to typed resource records.
//
// An ID packs a slot index in its lower bits and an epoch in its upper
// bits. Released slots go on a free list and come back with the epoch
// incremented, so an ID is never re-issued verbatim and a stale ID
// never resolves to a newer resource occupying the same slot. The zero
// ID is always invalid: epochs start at 1.
package handle

import (
	"sync"

	"github.com/gogpu/softgpu/types"
)

const (
	indexBits = types.HandleIndexBits
	indexMask = types.HandleIndexMask
	maxEpoch  = (1 << (32 - indexBits)) - 1
)

type slot[T any] struct {
	item  T
	epoch uint32
	live  bool
}

// Table maps generational IDs to records of type T.
//
// All operations except Len are O(1); Len scans every slot. The table
// is safe for concurrent use.
type Table[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32 // indices available for reuse
}

// New creates an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{}
}

// Add stores item and returns its ID.
func (t *Table[T]) Add(item T) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var index uint32
	var epoch uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
		epoch = t.slots[index].epoch + 1
		if epoch > maxEpoch {
			// Epoch wrapped; retire the slot rather than alias old IDs.
			epoch = 1
			index = uint32(len(t.slots))
			t.slots = append(t.slots, slot[T]{})
		}
	} else {
		index = uint32(len(t.slots))
		epoch = 1
		t.slots = append(t.slots, slot[T]{})
	}
	t.slots[index] = slot[T]{item: item, epoch: epoch, live: true}
	return index | epoch<<indexBits
}

// Get returns the record for id. The boolean is false for the zero
// ID, a destroyed ID, or an ID from a reused slot.
func (t *Table[T]) Get(id uint32) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if s := t.lookup(id); s != nil {
		return s.item, true
	}
	var zero T
	return zero, false
}

// Update applies fn to the record for id while holding the table
// lock. Returns false if the ID does not resolve.
func (t *Table[T]) Update(id uint32, fn func(*T)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.lookup(id)
	if s == nil {
		return false
	}
	fn(&s.item)
	return true
}

// Remove destroys the record for id, releasing the slot for reuse
// under a new epoch. Returns the removed record and whether the ID
// resolved; removing an already-destroyed ID is a no-op.
func (t *Table[T]) Remove(id uint32) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.lookup(id)
	if s == nil {
		var zero T
		return zero, false
	}
	item := s.item
	var zero T
	s.item = zero
	s.live = false
	t.free = append(t.free, id&indexMask)
	return item, true
}

// Contains reports whether id resolves to a live record.
func (t *Table[T]) Contains(id uint32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookup(id) != nil
}

// Len returns the number of live records.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for i := range t.slots {
		if t.slots[i].live {
			n++
		}
	}
	return n
}

// lookup resolves id to its slot, or nil. Caller holds a lock.
func (t *Table[T]) lookup(id uint32) *slot[T] {
	if id == 0 {
		return nil
	}
	index := id & indexMask
	epoch := id >> indexBits
	if int(index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[index]
	if !s.live || s.epoch != epoch {
		return nil
	}
	return s
}
