package congc

// sweepLocked walks every bucket chain. Marked records survive (MARK is
// cleared); unmarked records are finalized, released to the arena, and
// unlinked from the registry without triggering a resize mid-walk, to
// keep the traversal stable. One resize-to-fit pass runs after the full
// walk. Returns the total bytes reclaimed.
func (gc *Collector) sweepLocked() uint64 {
	var total uint64

	for _, head := range gc.allocs.buckets {
		var next *record

		for cur := head; cur != nil; cur = next {
			next = cur.chainNext

			if cur.tag&tagMark != 0 {
				cur.tag &^= tagMark
				continue
			}

			total += cur.size

			if cur.finalizer != nil {
				cur.finalizer(cur.address)
			}

			gc.arena.Free(uintptr(cur.address))
			gc.allocs.remove(cur.address, false)
		}
	}

	gc.allocs.resizeToFit()

	return total
}

// unrootRootsLocked clears ROOT on every record, run during Stop so the
// final sweep can reclaim previously pinned blocks.
func (gc *Collector) unrootRootsLocked() {
	for _, head := range gc.allocs.buckets {
		for cur := head; cur != nil; cur = cur.chainNext {
			cur.tag &^= tagRoot
		}
	}
}
