package arena

import (
	"fmt"
	"sort"

	"golang.org/x/sys/unix"
)

// freeBlock is a run of unused bytes in the arena, identified by its
// offset from the start of the backing mapping.
type freeBlock struct {
	offset uintptr
	size   uint64
}

// Real is a host allocator backed by a single anonymous mmap region,
// carved up by a first-fit free list. It gives congc a real heap of
// addressable, byte-inspectable memory the way the original relied on
// the platform's malloc — except this one is obtained directly from the
// kernel via mmap rather than through Go's own allocator, so nothing
// inside it is visible to the Go runtime's own garbage collector.
//
// Real does not return unused tail bytes from a shrinking Realloc back
// to the free list eagerly; they remain charged to the live block until
// the next Free. This is a deliberate simplification: congc's own
// bookkeeping (the allocation registry) is the source of truth for
// reclaimed byte counts, not the arena's internal fragmentation.
type Real struct {
	mem  []byte
	free []freeBlock // sorted by offset; no two entries are adjacent
	live map[uintptr]uint64
}

// nullGuard is the number of bytes reserved at the start of the mapping
// and never handed out, so no block is ever placed at offset 0, the
// null address.
const nullGuard = 8

// NewReal mmaps an anonymous region with size usable bytes (plus the
// reserved nullGuard prefix) and returns an [Allocator] backed by it.
// Call Close to release the region.
func NewReal(size uint64) (*Real, error) {
	mem, err := unix.Mmap(-1, 0, int(size+nullGuard), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", size, err)
	}

	return &Real{
		mem:  mem,
		free: []freeBlock{{offset: nullGuard, size: size}},
		live: make(map[uintptr]uint64),
	}, nil
}

// Close unmaps the backing region. The Real must not be used afterward.
func (r *Real) Close() error {
	return unix.Munmap(r.mem)
}

// Malloc implements [Allocator].
func (r *Real) Malloc(size uint64) (uintptr, error) {
	if size == 0 {
		size = 1
	}

	return r.carve(size)
}

// Calloc implements [Allocator].
func (r *Real) Calloc(count, unitSize uint64) (uintptr, error) {
	size := unitSize
	if count != 0 {
		size = count * unitSize
	}

	off, err := r.Malloc(size)
	if err != nil {
		return 0, err
	}

	clear(r.mem[off : off+uintptr(size)])

	return off, nil
}

func (r *Real) carve(size uint64) (uintptr, error) {
	for i, blk := range r.free {
		if blk.size < size {
			continue
		}

		off := blk.offset
		if blk.size == size {
			r.free = append(r.free[:i], r.free[i+1:]...)
		} else {
			r.free[i] = freeBlock{offset: blk.offset + uintptr(size), size: blk.size - size}
		}

		r.live[off] = size

		return off, nil
	}

	return 0, ErrOutOfMemory
}

// Free implements [Allocator].
func (r *Real) Free(addr uintptr) {
	size, ok := r.live[addr]
	if !ok {
		return
	}

	delete(r.live, addr)
	r.insertFree(freeBlock{offset: addr, size: size})
}

func (r *Real) insertFree(blk freeBlock) {
	i := sort.Search(len(r.free), func(i int) bool { return r.free[i].offset >= blk.offset })
	r.free = append(r.free, freeBlock{})
	copy(r.free[i+1:], r.free[i:])
	r.free[i] = blk
	r.coalesce(i)
}

// coalesce merges the free entry at index i with its neighbours if
// they describe physically adjacent byte ranges.
func (r *Real) coalesce(i int) {
	if i+1 < len(r.free) && r.free[i].offset+uintptr(r.free[i].size) == r.free[i+1].offset {
		r.free[i].size += r.free[i+1].size
		r.free = append(r.free[:i+1], r.free[i+2:]...)
	}

	if i > 0 && r.free[i-1].offset+uintptr(r.free[i-1].size) == r.free[i].offset {
		r.free[i-1].size += r.free[i].size
		r.free = append(r.free[:i], r.free[i+1:]...)
	}
}

// Realloc implements [Allocator].
func (r *Real) Realloc(addr uintptr, newSize uint64) (uintptr, error) {
	if addr == 0 {
		return r.Malloc(newSize)
	}

	oldSize, ok := r.live[addr]
	if !ok {
		return 0, ErrUnknownAddress
	}

	if newSize <= oldSize {
		return addr, nil
	}

	newAddr, err := r.Malloc(newSize)
	if err != nil {
		return 0, err
	}

	copy(r.mem[newAddr:uintptr(newAddr)+uintptr(oldSize)], r.mem[addr:addr+uintptr(oldSize)])
	r.Free(addr)

	return newAddr, nil
}

// Bytes implements [Allocator].
func (r *Real) Bytes(addr uintptr, size uint64) []byte {
	return r.mem[addr : addr+uintptr(size)]
}

var _ Allocator = (*Real)(nil)
