package interp

import "github.com/sva-lab/wmc/label"

// SAddr is the structured address spec.md §4.H calls for: storage class
// plus thread id plus allocation id plus byte offset, so that pointer
// aliasing is decided structurally rather than by comparing raw integers
// a front end happened to assign.
//
// Grounded on original_source's SAddr.hpp (storage/thread/index/offset
// quadruple); Linear packs that quadruple into the flat uint64 address
// space every other package in this checker keys memory accesses by.
type SAddr struct {
	Storage  label.StorageDuration
	ThreadID int
	AllocID  uint64
	Offset   uint64
}

// offsetBits bounds a single allocation to 16Mi bytes — generous for the
// small programs this checker explores, and small enough to leave room
// for the storage/thread/alloc-id fields in a 64-bit address.
const offsetBits = 24

// Linear returns the flat address package label and package graph key
// memory accesses by. Two SAddr values with equal Storage/ThreadID/AllocID
// and Offsets within the same allocation's size alias; anything else
// never does — the decidability spec.md §4.H asks for.
func (a SAddr) Linear() uint64 {
	base := (uint64(a.Storage&0x3) << 38) | (uint64(uint32(a.ThreadID)&0xFFFF) << 22) | (a.AllocID & 0x3FFFFF)
	return (base << offsetBits) | (a.Offset & (1<<offsetBits - 1))
}

// Plus returns a with its Offset advanced by delta bytes — pointer
// arithmetic (OpGEP) within the same allocation.
func (a SAddr) Plus(delta uint64) SAddr {
	a.Offset += delta
	return a
}
