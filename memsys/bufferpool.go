// Package memsys implements the buffer and object pools that back the
// Framed Channel's receive/send paths (spec §4.6): a size-segmented Buffer
// Pool that avoids a per-frame allocation, and a typed Object Pool for
// reusable poolable values.
//
// Grounded on the teacher's MMSA/SGL slab allocator in spirit (size classes,
// rent/return, elastic capacity) but deliberately simpler: no memory-pressure
// feedback, no disk spillover, no SGL chaining. One size class holds buffers
// of exactly one length; Rent always returns a buffer of its class's size.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package memsys

import (
	"sort"
	"sync"

	"github.com/nalix-net/nalix/cmn/debug"
)

const (
	// minFreeFrac is the free/target ratio at or below which a Rent fires
	// an increase event; a Rent that finds the class empty fires one too.
	minFreeFrac = 0.25
	// maxCapacity bounds how large a single subpool's target may grow.
	maxCapacity = 1024
	// minGrowth is the minimum number of buffers added by one increase event.
	minGrowth = 4
	// safetyMargin is the slack kept above target before Shrink reclaims.
	safetyMargin = 8
	// maxShrinkStep bounds how many buffers Shrink reclaims per pass.
	maxShrinkStep = 20
)

// Allocation describes one size class's share of TotalBuffers.
type Allocation struct {
	Size     int
	Fraction float64
}

// Config configures a BufferPool's size classes.
type Config struct {
	TotalBuffers int
	Allocations  []Allocation
}

type subpool struct {
	mu     sync.Mutex
	size   int
	target int
	free   [][]byte
	misses int64
	rents  int64
}

// BufferPool rents and returns byte slices from a fixed set of size classes.
type BufferPool struct {
	subs  []*subpool // sorted ascending by size
	sizes []int
}

// NewBufferPool preallocates each configured size class to
// TotalBuffers*Fraction buffers.
func NewBufferPool(cfg Config) *BufferPool {
	bp := &BufferPool{}
	for _, a := range cfg.Allocations {
		target := int(float64(cfg.TotalBuffers) * a.Fraction)
		if target < 1 {
			target = 1
		}
		sp := &subpool{size: a.Size, target: target, free: make([][]byte, 0, target)}
		for i := 0; i < target; i++ {
			sp.free = append(sp.free, make([]byte, sp.size))
		}
		bp.subs = append(bp.subs, sp)
	}
	sort.Slice(bp.subs, func(i, j int) bool { return bp.subs[i].size < bp.subs[j].size })
	bp.sizes = make([]int, len(bp.subs))
	for i, sp := range bp.subs {
		bp.sizes[i] = sp.size
	}
	return bp
}

// classFor returns the smallest subpool whose size >= requested, or nil if
// requested exceeds every configured class (caller must allocate directly).
func (bp *BufferPool) classFor(requested int) *subpool {
	i := sort.SearchInts(bp.sizes, requested)
	if i == len(bp.subs) {
		return nil
	}
	return bp.subs[i]
}

// Rent returns a buffer whose length is at least requested. Buffers beyond
// the largest configured class are allocated directly and never pooled.
func (bp *BufferPool) Rent(requested int) []byte {
	sp := bp.classFor(requested)
	if sp == nil {
		return make([]byte, requested)
	}
	sp.mu.Lock()
	sp.rents++
	n := len(sp.free)
	if n == 0 {
		sp.misses++
		shouldGrow := true
		sp.mu.Unlock()
		if shouldGrow {
			sp.grow()
		}
		return make([]byte, sp.size)
	}
	buf := sp.free[n-1]
	sp.free[n-1] = nil
	sp.free = sp.free[:n-1]
	lowWater := n-1 <= int(float64(sp.target)*minFreeFrac)
	sp.mu.Unlock()
	if lowWater {
		sp.grow()
	}
	return buf
}

// Return gives a buffer back to its size class. Buffers whose length does
// not match a configured class (or whose class already holds
// target+safetyMargin free buffers) are dropped for the garbage collector.
func (bp *BufferPool) Return(buf []byte) {
	if buf == nil {
		return
	}
	for i := range buf {
		buf[i] = 0
	}
	i := sort.SearchInts(bp.sizes, len(buf))
	if i == len(bp.subs) || bp.subs[i].size != len(buf) {
		return
	}
	sp := bp.subs[i]
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if len(sp.free) >= sp.target+safetyMargin {
		return
	}
	sp.free = append(sp.free, buf)
}

// roundUpPow2 returns the smallest power of two >= n (n >= 1).
func roundUpPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// grow implements the Increase event: add max(4, roundUpPow2(total)/4)
// buffers, capped at maxCapacity.
func (sp *subpool) grow() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.target >= maxCapacity {
		return
	}
	delta := roundUpPow2(sp.target) / 4
	if delta < minGrowth {
		delta = minGrowth
	}
	if sp.target+delta > maxCapacity {
		delta = maxCapacity - sp.target
	}
	sp.target += delta
	for i := 0; i < delta; i++ {
		sp.free = append(sp.free, make([]byte, sp.size))
	}
}

// shrink implements the periodic Shrink event: reclaim up to maxShrinkStep
// buffers when free exceeds target+safetyMargin.
func (sp *subpool) shrink() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	excess := len(sp.free) - (sp.target + safetyMargin)
	if excess <= 0 {
		return
	}
	if excess > maxShrinkStep {
		excess = maxShrinkStep
	}
	n := len(sp.free)
	for i := 0; i < excess; i++ {
		sp.free[n-1-i] = nil
	}
	sp.free = sp.free[:n-excess]
}

// Shrink runs the Shrink event across every size class. cmd/nalixd calls it
// from its periodic buffer-pool housekeeper job.
func (bp *BufferPool) Shrink() {
	for _, sp := range bp.subs {
		sp.shrink()
	}
}

// Stats reports rent/miss counters per size class, for the stats package.
type ClassStats struct {
	Size   int
	Target int
	Free   int
	Rents  int64
	Misses int64
}

func (bp *BufferPool) Stats() []ClassStats {
	out := make([]ClassStats, len(bp.subs))
	for i, sp := range bp.subs {
		sp.mu.Lock()
		out[i] = ClassStats{Size: sp.size, Target: sp.target, Free: len(sp.free), Rents: sp.rents, Misses: sp.misses}
		sp.mu.Unlock()
	}
	return out
}

func init() {
	debug.Assert(minFreeFrac > 0 && minFreeFrac < 1)
}
