// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"sync"

	"github.com/gogpu/softgpu/types"
)

// Source is shader source text for hardware backends, one entry point
// per stage, in WGSL.
type Source struct {
	Vertex   string
	Fragment string
}

// SoftFactory constructs a per-pipeline Program for the software
// backend. It is invoked once per pipeline creation; the descriptor
// lets the factory specialize on fixed-function state.
type SoftFactory func(desc *types.PipelineDesc) Program

// Desc is a registered shader: the per-backend implementations under
// one name. Either field may be empty if a backend is not targeted.
type Desc struct {
	// Soft constructs the software-backend executor.
	Soft SoftFactory

	// Source is the WGSL text compiled by hardware backends.
	Source Source
}

// The registry is process-wide. Registration happens at startup;
// reads afterwards are safe from any goroutine.
var registry = struct {
	sync.RWMutex
	entries []regEntry // index = handle; entry 0 reserved invalid
	byName  map[string]types.ShaderHandle
}{
	entries: make([]regEntry, 1),
	byName:  make(map[string]types.ShaderHandle),
}

type regEntry struct {
	name string
	desc Desc
}

// Register adds a shader under a unique name and returns its handle.
// Registering an already-registered name is a no-op that returns the
// existing handle unchanged.
func Register(name string, desc Desc) types.ShaderHandle {
	registry.Lock()
	defer registry.Unlock()

	if h, ok := registry.byName[name]; ok {
		return h
	}
	h := types.ShaderHandle(len(registry.entries))
	registry.entries = append(registry.entries, regEntry{name: name, desc: desc})
	registry.byName[name] = h
	return h
}

// Lookup returns the handle registered under name, or the invalid
// handle 0.
func Lookup(name string) types.ShaderHandle {
	registry.RLock()
	defer registry.RUnlock()
	return registry.byName[name]
}

// IsRegistered reports whether name is registered.
func IsRegistered(name string) bool {
	return Lookup(name).IsValid()
}

// DescOf returns the description for a handle.
func DescOf(h types.ShaderHandle) (Desc, bool) {
	registry.RLock()
	defer registry.RUnlock()

	i := int(h)
	if i <= 0 || i >= len(registry.entries) {
		return Desc{}, false
	}
	return registry.entries[i].desc, true
}

// Name returns the name a handle was registered under.
func Name(h types.ShaderHandle) string {
	registry.RLock()
	defer registry.RUnlock()

	i := int(h)
	if i <= 0 || i >= len(registry.entries) {
		return ""
	}
	return registry.entries[i].name
}

// Reset empties the registry. Intended for tests.
func Reset() {
	registry.Lock()
	defer registry.Unlock()
	registry.entries = make([]regEntry, 1)
	registry.byName = make(map[string]types.ShaderHandle)
}
