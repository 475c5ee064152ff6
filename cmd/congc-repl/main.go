// Command congc-repl is an interactive shell for poking a live
// congc.Collector: allocate blocks, pin and free them, push and pop
// stack roots, and trigger collections, watching the registry react.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/brindlewood/congc/internal/arena"
	"github.com/brindlewood/congc/pkg/congc"
)

const arenaSize = 16 << 20

func main() {
	os.Exit(run())
}

func run() int {
	host, err := arena.NewReal(arenaSize)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer host.Close()

	gc := congc.Start(host)
	sess := newSession(gc)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("congc-repl — type 'help' for commands, 'exit' to quit")

	for {
		input, err := line.Prompt("congc> ")
		if err != nil {
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if input == "exit" || input == "quit" {
			break
		}

		if err := sess.dispatch(context.Background(), input); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}

	reclaimed := gc.Stop()
	fmt.Printf("stopped: reclaimed %d bytes\n", reclaimed)

	return 0
}

// session tracks named handles so the REPL user can refer to "a1",
// "a2", ... instead of raw addresses.
type session struct {
	gc      *congc.Collector
	handles map[string]congc.Address
	next    int
}

func newSession(gc *congc.Collector) *session {
	return &session{gc: gc, handles: make(map[string]congc.Address)}
}

func (s *session) dispatch(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp()
	case "alloc":
		return s.cmdAlloc(args)
	case "calloc":
		return s.cmdCalloc(args)
	case "free":
		return s.cmdFree(args)
	case "pin":
		return s.cmdPin(args)
	case "push":
		return s.cmdPush(args)
	case "pop":
		s.gc.Stack().Pop()
	case "collect":
		fmt.Printf("reclaimed %d bytes\n", s.gc.Collect())
	case "stats":
		s.cmdStats()
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}

	return nil
}

func (s *session) cmdAlloc(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: alloc <size>")
	}

	size, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size: %w", err)
	}

	addr := s.gc.Allocate(size)
	if addr == 0 {
		return fmt.Errorf("allocation failed")
	}

	s.bind(addr)

	return nil
}

func (s *session) cmdCalloc(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: calloc <count> <unit_size>")
	}

	count, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid count: %w", err)
	}

	unitSize, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid unit_size: %w", err)
	}

	addr := s.gc.Calloc(count, unitSize)
	if addr == 0 {
		return fmt.Errorf("allocation failed")
	}

	s.bind(addr)

	return nil
}

func (s *session) cmdFree(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: free <handle>")
	}

	addr, ok := s.handles[args[0]]
	if !ok {
		return fmt.Errorf("unknown handle %q", args[0])
	}

	s.gc.Free(addr)
	delete(s.handles, args[0])

	return nil
}

func (s *session) cmdPin(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pin <handle>")
	}

	addr, ok := s.handles[args[0]]
	if !ok {
		return fmt.Errorf("unknown handle %q", args[0])
	}

	s.gc.Pin(addr)

	return nil
}

func (s *session) cmdPush(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: push <handle>")
	}

	addr, ok := s.handles[args[0]]
	if !ok {
		return fmt.Errorf("unknown handle %q", args[0])
	}

	s.gc.Stack().Push(addr)

	return nil
}

func (s *session) cmdStats() {
	fmt.Printf("live handles: %d, stack depth: %d\n", len(s.handles), s.gc.Stack().Len())
}

func (s *session) bind(addr congc.Address) {
	s.next++
	name := fmt.Sprintf("a%d", s.next)
	s.handles[name] = addr
	fmt.Printf("%s = %#x\n", name, uintptr(addr))
}

func printHelp() {
	fmt.Println(`commands:
  alloc <size>              allocate size uninitialised bytes
  calloc <count> <unit>     allocate count*unit zeroed bytes
  free <handle>             free a previously allocated handle
  pin <handle>              pin a handle as a permanent root
  push <handle>             push a handle onto the conservative stack
  pop                       pop the most recently pushed stack root
  collect                   run a mark-sweep cycle
  stats                     show live handle and stack-depth counts
  exit                      stop the collector and quit`)
}
