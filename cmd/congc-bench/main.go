// Command congc-bench drives allocate/free/collect churn against a
// congc.Collector and reports throughput, the way the system congc
// reimplements exercises its own collector under test/stress_test_gc.c.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/brindlewood/congc/internal/arena"
	"github.com/brindlewood/congc/internal/congccli"
	"github.com/brindlewood/congc/pkg/congc"
)

func main() {
	os.Exit(mainRun())
}

func mainRun() int {
	o := congccli.NewIO(os.Stdout, os.Stderr)
	cmd := churnCommand()

	code := cmd.Run(context.Background(), o, os.Args[1:])
	finishCode := o.Finish()

	if finishCode > code {
		return finishCode
	}

	return code
}

func churnCommand() *congccli.Command {
	flags := flag.NewFlagSet("congc-bench", flag.ContinueOnError)

	iterations := flags.IntP("iterations", "n", 200_000, "number of allocations to perform")
	maxLive := flags.Int("max-live", 4096, "maximum number of simultaneously rooted blocks")
	minSize := flags.Uint64("min-size", 8, "minimum allocation size in bytes")
	maxSize := flags.Uint64("max-size", 4096, "maximum allocation size in bytes")
	arenaSize := flags.Uint64("arena-size", 64<<20, "backing arena size in bytes")
	seed := flags.Int64("seed", 1, "PRNG seed, for reproducible churn")
	report := flags.String("report", "", "if set, atomically write a plain-text stats report to this path")

	return &congccli.Command{
		Flags: flags,
		Usage: "congc-bench [flags]",
		Short: "stress the collector with randomized allocate/free/collect churn",
		Long: "Repeatedly allocates randomly sized blocks, roots a bounded working " +
			"set of them on the conservative stack, leaves evicted ones unreachable, and periodically " +
			"forces a collection — reporting operation throughput and bytes reclaimed.",
		Exec: func(ctx context.Context, o *congccli.IO, args []string) error {
			return runChurn(o, churnOptions{
				iterations: *iterations,
				maxLive:    *maxLive,
				minSize:    *minSize,
				maxSize:    *maxSize,
				arenaSize:  *arenaSize,
				seed:       *seed,
				reportPath: *report,
			})
		},
	}
}

type churnOptions struct {
	iterations int
	maxLive    int
	minSize    uint64
	maxSize    uint64
	arenaSize  uint64
	seed       int64
	reportPath string
}

func runChurn(o *congccli.IO, opt churnOptions) error {
	if opt.minSize == 0 || opt.maxSize < opt.minSize {
		return fmt.Errorf("invalid size range [%d, %d]", opt.minSize, opt.maxSize)
	}

	host, err := arena.NewReal(opt.arenaSize)
	if err != nil {
		return fmt.Errorf("create arena: %w", err)
	}
	defer host.Close()

	gc := congc.Start(host)
	rng := rand.New(rand.NewSource(opt.seed))
	live := make([]congc.Address, 0, opt.maxLive)

	started := time.Now()
	var collections int

	for i := 0; i < opt.iterations; i++ {
		size := opt.minSize + uint64(rng.Int63n(int64(opt.maxSize-opt.minSize+1)))

		addr := gc.Allocate(size)
		if addr == 0 {
			o.WarnLLM("allocation failed mid-run", "lower --max-live or raise --arena-size")
			continue
		}

		if len(live) >= opt.maxLive {
			// Evict the most recently rooted block, matching the
			// Stack's LIFO discipline — it lets the freed one go
			// unreachable on the next collection rather than being
			// explicitly freed here.
			gc.Stack().Pop()
			live = live[:len(live)-1]
		}

		gc.Stack().Push(addr)
		live = append(live, addr)

		if i%(opt.iterations/20+1) == 0 {
			gc.Collect()
			collections++
		}
	}

	reclaimed := gc.Stop()
	elapsed := time.Since(started)
	throughput := float64(opt.iterations) / elapsed.Seconds()

	o.Println("iterations:       ", opt.iterations)
	o.Println("collections:      ", collections)
	o.Println("elapsed:          ", elapsed)
	o.Printf("throughput:        %.0f ops/sec\n", throughput)
	o.Println("bytes reclaimed at stop:", reclaimed)

	if opt.reportPath != "" {
		report := fmt.Sprintf("iterations=%d\ncollections=%d\nelapsed=%s\nthroughput_ops_per_sec=%.0f\nbytes_reclaimed_at_stop=%d\n",
			opt.iterations, collections, elapsed, throughput, reclaimed)

		if err := atomic.WriteFile(opt.reportPath, strings.NewReader(report)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	return nil
}
