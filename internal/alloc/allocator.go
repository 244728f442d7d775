// Package alloc provides space management for HDF5 file writing.
package alloc

import "sync"

// Allocator hands out file space append-only. Metadata rewrites (growing
// object headers) allocate fresh space and abandon the old block; the logical
// EOF recorded in the superblock comes from here.
type Allocator struct {
	mu       sync.Mutex
	baseAddr uint64
	eofAddr  uint64
	stats    Stats
}

// Stats contains allocation statistics.
type Stats struct {
	Allocations  uint64
	BytesAlloced uint64
}

// New creates an Allocator starting at the given base address, typically the
// first byte after the superblock and root group header.
func New(baseAddr uint64) *Allocator {
	return &Allocator{
		baseAddr: baseAddr,
		eofAddr:  baseAddr,
	}
}

// Alloc reserves a block of the given size at EOF and returns its address.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr := a.eofAddr
	a.eofAddr += size
	if size > 0 {
		a.stats.Allocations++
		a.stats.BytesAlloced += size
	}
	return addr
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}

// BaseAddr returns the start of allocatable space.
func (a *Allocator) BaseAddr() uint64 {
	return a.baseAddr
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
