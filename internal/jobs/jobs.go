// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package jobs provides a fixed worker pool with a blocking
// parallel-for over integer ranges.
//
// One job is active at a time: ParallelFor publishes a shared
// (next, end, fn) triple and wakes every worker. Workers fetch work one
// index at a time from a single atomic counter, which load-balances
// uneven per-index costs (rasterizing a dense tile next to an empty
// one) without any per-task allocation. The caller blocks until the
// range is fully processed.
package jobs

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// System is a pool of worker goroutines executing parallel-for jobs.
//
// Nested ParallelFor calls and calls from multiple goroutines at once
// are not supported; behavior is undefined if attempted.
type System struct {
	mu   sync.Mutex
	wake *sync.Cond
	done *sync.Cond

	shutdown  bool
	jobActive bool
	active    int // workers currently inside the job
	fn        func(int)

	// The work counter is the only cross-thread hot word; keep it on
	// its own cache line.
	_    cpu.CacheLinePad
	next atomic.Int64
	_    cpu.CacheLinePad
	end  atomic.Int64

	workers int
	wg      sync.WaitGroup
}

// New creates a system with the given number of workers and starts
// them. If workers <= 0, the count defaults to runtime.NumCPU() with a
// floor of 4.
func New(workers int) *System {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 4 {
			workers = 4
		}
	}
	s := &System{workers: workers}
	s.wake = sync.NewCond(&s.mu)
	s.done = sync.NewCond(&s.mu)
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.workerLoop()
	}
	return s
}

// Workers returns the number of worker goroutines.
func (s *System) Workers() int { return s.workers }

// ParallelFor invokes fn(i) for every i in [start, end), possibly in
// parallel, and blocks until all invocations have returned. There is
// no ordering between invocations; fn must be safe to call from
// multiple goroutines for disjoint indices.
func (s *System) ParallelFor(start, end int, fn func(int)) {
	if start >= end {
		return
	}

	s.mu.Lock()
	s.next.Store(int64(start))
	s.end.Store(int64(end))
	s.fn = fn
	s.jobActive = true
	s.active = 0
	s.mu.Unlock()
	s.wake.Broadcast()

	s.mu.Lock()
	for s.next.Load() < s.end.Load() || s.active != 0 {
		s.done.Wait()
	}
	s.jobActive = false
	s.fn = nil
	s.mu.Unlock()
}

// Shutdown stops all workers and waits for them to exit. It is safe to
// call more than once; after Shutdown the system must not be used.
func (s *System) Shutdown() {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	s.mu.Unlock()
	s.wake.Broadcast()
	s.wg.Wait()
}

func (s *System) workerLoop() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for !s.shutdown && !(s.jobActive && s.next.Load() < s.end.Load()) {
			s.wake.Wait()
		}
		if s.shutdown {
			s.mu.Unlock()
			return
		}
		fn := s.fn
		s.active++
		s.mu.Unlock()

		// Drain indices until the range is exhausted.
		for {
			idx := s.next.Add(1) - 1
			if idx >= s.end.Load() {
				break
			}
			fn(int(idx))
		}

		s.mu.Lock()
		s.active--
		s.mu.Unlock()
		s.done.Broadcast()
	}
}
