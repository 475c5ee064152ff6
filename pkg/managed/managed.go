// Package managed provides composite wrapper types whose fields live
// inside collector-managed memory rather than the Go heap, so a
// congc.Collector can trace through them during a conservative scan.
//
// This mirrors bgc_Buffer and bgc_Array from the system congc
// reimplements: both are themselves allocated blocks, with their
// fields written at fixed byte offsets via raw pointer arithmetic
// rather than held as ordinary struct fields. A Go struct field of
// type congc.Address would be invisible to the collector's byte-wise
// heap scan, since the collector never looks inside Go-heap memory —
// only inside the arena. Buffer and Array solve that by writing their
// fields into the arena themselves.
package managed

import "github.com/brindlewood/congc/pkg/congc"

const (
	bufferAddressOffset = 0
	bufferLengthOffset  = 8
	bufferSize          = 16
)

// Buffer is a managed, resizable byte range: a fixed-size two-word
// record (holding a payload address and a length) allocated through
// the collector, plus the variable-size payload block it points to.
type Buffer struct {
	gc   *congc.Collector
	Addr congc.Address
}

// NewBuffer allocates a payload of length bytes and the two-word
// record describing it, with no finalizer. Returns the zero Buffer on
// allocation failure.
//
// Like any other managed block, a Buffer survives a collection only if
// it is reachable — push b.Addr onto gc.Stack(), or gc.Pin it, before
// triggering a collection while the only reference is this Go value.
func NewBuffer(gc *congc.Collector, length uint64) Buffer {
	return NewBufferExt(gc, length, nil)
}

// NewBufferExt is [NewBuffer] with a finalizer, run once when the
// payload is reclaimed.
//
// The finalizer attaches to the payload block only, never to the
// two-word wrapper record: the source attaches a supplied finalizer to
// both the buffer wrapper and its payload, which would invoke it
// twice for one logical buffer. That double-attach is treated as a
// defect here — the wrapper record's own finalizer is always nil.
func NewBufferExt(gc *congc.Collector, length uint64, fin congc.Finalizer) Buffer {
	payload := gc.AllocateExt(length, fin)
	if payload == 0 {
		return Buffer{}
	}

	rec := gc.AllocateExt(bufferSize, nil)
	if rec == 0 {
		gc.Free(payload)
		return Buffer{}
	}

	gc.WriteAddress(rec, bufferAddressOffset, payload)
	gc.WriteUint64(rec, bufferLengthOffset, length)

	return Buffer{gc: gc, Addr: rec}
}

// Valid reports whether b refers to a live record.
func (b Buffer) Valid() bool {
	return b.Addr != 0
}

// Payload returns the address of the buffer's underlying byte range.
func (b Buffer) Payload() congc.Address {
	return congc.Address(b.gc.ReadAddress(b.Addr, bufferAddressOffset))
}

// Length returns the buffer's byte length.
func (b Buffer) Length() uint64 {
	return b.gc.ReadUint64(b.Addr, bufferLengthOffset)
}

// Bytes returns a live view of the buffer's payload.
func (b Buffer) Bytes() []byte {
	return b.gc.Bytes(b.Payload(), b.Length())
}

const (
	arrayBufferOffset    = 0
	arraySlotCountOffset = 8
	arraySlotSizeOffset  = 16
	arraySize            = 24
)

// Array is a managed, fixed-layout slab of equally-sized slots: a
// three-word record (an embedded Buffer's record address, a slot
// count, and a slot size) plus the backing Buffer it describes.
type Array struct {
	gc   *congc.Collector
	Addr congc.Address
}

// NewArray allocates slotCount slots of slotSize bytes each, plus the
// three-word record describing the layout, with no finalizer. Returns
// the zero Array on allocation failure.
func NewArray(gc *congc.Collector, slotCount, slotSize uint64) Array {
	return NewArrayExt(gc, slotCount, slotSize, nil)
}

// NewArrayExt is [NewArray] with a finalizer, run once when the
// backing slot buffer is reclaimed. As with [NewBufferExt], the
// finalizer attaches only to that payload, never to the array's own
// three-word wrapper record or the buffer's two-word one.
func NewArrayExt(gc *congc.Collector, slotCount, slotSize uint64, fin congc.Finalizer) Array {
	buf := NewBufferExt(gc, slotCount*slotSize, fin)
	if !buf.Valid() {
		return Array{}
	}

	rec := gc.AllocateExt(arraySize, nil)
	if rec == 0 {
		gc.Free(buf.Addr)
		return Array{}
	}

	gc.WriteAddress(rec, arrayBufferOffset, buf.Addr)
	gc.WriteUint64(rec, arraySlotCountOffset, slotCount)
	gc.WriteUint64(rec, arraySlotSizeOffset, slotSize)

	return Array{gc: gc, Addr: rec}
}

// Valid reports whether a refers to a live record.
func (a Array) Valid() bool {
	return a.Addr != 0
}

func (a Array) buffer() Buffer {
	bufAddr := congc.Address(a.gc.ReadAddress(a.Addr, arrayBufferOffset))
	return Buffer{gc: a.gc, Addr: bufAddr}
}

// SlotCount returns the number of slots in the array.
func (a Array) SlotCount() uint64 {
	return a.gc.ReadUint64(a.Addr, arraySlotCountOffset)
}

// SlotSize returns the byte size of one slot.
func (a Array) SlotSize() uint64 {
	return a.gc.ReadUint64(a.Addr, arraySlotSizeOffset)
}

// Slot returns a live view of the ith slot's bytes.
func (a Array) Slot(i uint64) []byte {
	buf := a.buffer()
	size := a.SlotSize()
	full := buf.Bytes()

	return full[i*size : i*size+size]
}
