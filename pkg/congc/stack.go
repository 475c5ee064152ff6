package congc

import "unsafe"

// wordSize is the width, in bytes, of a conservatively-scanned
// candidate pointer. congc targets 64-bit hosts, matching sizeof(void*)
// in the system this collector reimplements.
const wordSize = int(unsafe.Sizeof(Address(0)))

// Stack is an explicit conservative root region standing in for the
// mutator's native call stack.
//
// Go gives no portable way to obtain a goroutine's stack bounds (its
// stacks grow and move), so congc cannot scan the real call stack byte
// range the way the system it reimplements does. Instead, the mutator
// pushes every address-sized local reference that might be the sole
// path to a managed block before a collection can run, and pops it
// once the local goes out of scope — exactly the discipline a compiler
// would otherwise give you for free via register/stack spilling.
//
// Example:
//
//	root := gc.Stack()
//	addr := gc.Allocate(64)
//	root.Push(addr)
//	defer root.Pop()
type Stack struct {
	words []Address
}

// NewStack returns an empty conservative root region.
func NewStack() *Stack {
	return &Stack{}
}

// Push records addr as a root for the next collection.
func (s *Stack) Push(addr Address) {
	s.words = append(s.words, addr)
}

// Pop discards the most recently pushed root. A no-op if the stack is
// empty.
func (s *Stack) Pop() {
	if len(s.words) == 0 {
		return
	}

	s.words = s.words[:len(s.words)-1]
}

// Len reports the number of roots currently pushed.
func (s *Stack) Len() int {
	return len(s.words)
}

// bytes views the pushed words as a raw byte region, so it can be
// scanned with the same byte-wise stride-1 rule used for heap payloads.
func (s *Stack) bytes() []byte {
	if len(s.words) == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(&s.words[0])), len(s.words)*wordSize)
}
