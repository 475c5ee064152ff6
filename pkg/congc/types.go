package congc

// Address is a handle to a managed block: an offset into the
// collector's host arena. The zero Address is the null sentinel —
// never a valid block.
type Address uintptr

// Finalizer is invoked with a block's address immediately before the
// block is released, at most once per record.
type Finalizer func(addr Address)

type tag uint8

const (
	tagNone tag = 0
	tagRoot tag = 1 << 0
	tagMark tag = 1 << 1
)

// record is the collector's metadata entry for one live block.
type record struct {
	address   Address
	size      uint64
	tag       tag
	finalizer Finalizer
	chainNext *record
}
