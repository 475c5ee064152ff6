package congc

import "errors"

var (
	// ErrOutOfMemory is returned by [Collector.Reallocate] when the host
	// allocator cannot satisfy a resize request.
	//
	// Recovery: free other blocks first, or size the backing arena
	// larger at startup. [Collector.Allocate] and friends do not return
	// this error directly — they report failure via the zero [Address]
	// instead, matching the spec's null-return error surface.
	ErrOutOfMemory = errors.New("congc: out of memory")

	// ErrInvalidArgument is returned by [Collector.Reallocate] when addr
	// is non-zero but unknown to the collector.
	//
	// Recovery: pass the zero [Address] to allocate fresh memory
	// instead of reallocating an address the collector never issued.
	ErrInvalidArgument = errors.New("congc: invalid address")

	// ErrMetadataFailure marks the rollback path in [Collector.Allocate]
	// and friends: the host allocator granted a block but the registry
	// could not record it. The block is freed back to the host before
	// the zero [Address] is returned, so no leak is observable; this
	// sentinel only labels the diagnostic logged through internal/gclog.
	//
	// Recovery: none needed by the caller — retry the allocation as if
	// it had failed outright. This is distinct from [ErrOutOfMemory],
	// which marks the host allocator itself refusing the request.
	ErrMetadataFailure = errors.New("congc: metadata insertion failed")

	// ErrUnknownAddress marks [Collector.Free] given an address the
	// collector never issued or has already reclaimed. The call logs a
	// warning through internal/gclog and is otherwise a no-op; this
	// sentinel only labels that diagnostic. [Collector.Pin] accepts the
	// same kind of unknown address silently, with no log line, per the
	// spec's "pin silently no-ops" rule.
	//
	// Recovery: none needed — treat the block as already gone.
	ErrUnknownAddress = errors.New("congc: unknown address")
)
