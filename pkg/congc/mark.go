package congc

import "encoding/binary"

// readCandidate reads a word-sized, possibly-unaligned candidate
// address out of b at offset 0.
func readCandidate(b []byte) Address {
	return Address(binary.NativeEndian.Uint64(b))
}

// markLocked marks addr's record (if any, and not already marked),
// then transitively scans its payload for further candidate addresses.
// The MARK check makes this safe against cycles: a block already
// marked is never rescanned.
func (gc *Collector) markLocked(addr Address) {
	rec := gc.allocs.get(addr)
	if rec == nil || rec.tag&tagMark != 0 {
		return
	}

	rec.tag |= tagMark

	gc.scanRange(rec.address, rec.size)
}

// scanRange treats every overlapping pointer-sized byte window of the
// size bytes starting at addr as a candidate block address. The scan
// advances one byte at a time rather than by word stride, so a pointer
// stored at an unaligned offset is still discovered — conservative at
// the cost of extra registry probes.
func (gc *Collector) scanRange(addr Address, size uint64) {
	if size < uint64(wordSize) {
		return
	}

	data := gc.arena.Bytes(uintptr(addr), size)

	for i := 0; i+wordSize <= len(data); i++ {
		gc.markLocked(readCandidate(data[i:]))
	}
}

// markRootsLocked transitively marks every record still tagged ROOT.
func (gc *Collector) markRootsLocked() {
	for _, head := range gc.allocs.buckets {
		for cur := head; cur != nil; cur = cur.chainNext {
			if cur.tag&tagRoot != 0 {
				gc.markLocked(cur.address)
			}
		}
	}
}

// markStackLocked scans the conservative root region.
func (gc *Collector) markStackLocked() {
	data := gc.stack.bytes()

	for i := 0; i+wordSize <= len(data); i++ {
		gc.markLocked(readCandidate(data[i:]))
	}
}

// markAllLocked runs the full mark phase: roots first, then the stack,
// matching the source's ordering exactly.
func (gc *Collector) markAllLocked() {
	gc.markRootsLocked()
	gc.markStackLocked()
}
