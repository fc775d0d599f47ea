package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/tagheap/cmd/heapctl/logger"
	"github.com/joshuapare/tagheap/heap/trace"
)

var (
	replayCheck bool
	replayJobs  int
)

func init() {
	cmd := newReplayCmd()
	addHeapFlags(cmd)
	cmd.Flags().BoolVar(&replayCheck, "check", false, "Run the heap checker after every operation")
	cmd.Flags().IntVarP(&replayJobs, "jobs", "j", 1, "Traces replayed concurrently, each on its own heap (file arenas always run one at a time)")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay trace files and report utilization",
		Long: `The replay command runs each trace against a fresh heap, verifying that
live blocks never overlap and that their contents survive every operation.
It reports peak utilization (peak live bytes / heap size) per trace.
Trace files ending in .zst or .lz4 are decompressed on the fly.

Example:
  heapctl replay traces/*.rep -j 4
  heapctl replay short1-bal.rep --check --arena mmap
  heapctl replay big.rep --arena file --file big.heap --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
	return cmd
}

type replayReport struct {
	Trace string `json:"trace"`
	Arena string `json:"arena"`
	trace.Result
}

func replayOne(ctx context.Context, path string) (replayReport, error) {
	tr, err := trace.ReadFile(path)
	if err != nil {
		return replayReport{}, err
	}

	h, err := newHeap()
	if err != nil {
		return replayReport{}, err
	}

	res, err := trace.Replay(ctx, tr, h.a, trace.Options{Check: replayCheck, Logger: logger.L})
	if closeErr := h.Close(ctx); err == nil {
		err = closeErr
	}
	if err != nil {
		return replayReport{}, fmt.Errorf("%s: %w", path, err)
	}
	return replayReport{Trace: path, Arena: arenaKind, Result: res}, nil
}

func runReplay(ctx context.Context, args []string) error {
	jobs := max(replayJobs, 1)
	if arenaKind == "file" {
		// Every trace would reuse the same heap file.
		jobs = 1
	}

	reports := make([]replayReport, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range args {
		g.Go(func() error {
			printVerbose("Replaying: %s\n", path)
			rep, err := replayOne(gctx, path)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(reports)
	}

	width := 5
	for _, r := range reports {
		width = max(width, len(filepath.Base(r.Trace)))
	}

	printInfo("%-*s  %10s  %8s  %14s  %6s\n", width, "trace", "ops", "util", "heap", "grows")
	printInfo("%s\n", strings.Repeat("-", width+48))
	var total float64
	for _, r := range reports {
		total += r.Utilization
		printInfo("%-*s  %10s  %8s  %14s  %6s\n",
			width, filepath.Base(r.Trace),
			formatNumber(int64(r.Ops)),
			formatPercent(r.Utilization),
			formatNumber(int64(r.HeapSize)),
			formatNumber(int64(r.Stats.GrowCalls)))
		printStatsVerbose(r)
	}
	if len(reports) > 1 {
		printInfo("\nAverage utilization: %s\n", formatPercent(total/float64(len(reports))))
	}
	return nil
}

func printStatsVerbose(r replayReport) {
	s := r.Stats
	printVerbose("    alloc: %s calls (%s fit, %s grew), %s splits\n",
		formatNumber(int64(s.AllocCalls)), formatNumber(int64(s.AllocFastPath)),
		formatNumber(int64(s.AllocSlowPath)), formatNumber(int64(s.SplitCount)))
	printVerbose("    free: %s calls; coalesce none/next/prev/both: %d/%d/%d/%d\n",
		formatNumber(int64(s.FreeCalls)), s.CoalesceNone, s.CoalesceNext, s.CoalescePrev, s.CoalesceBoth)
	printVerbose("    realloc: %s calls (%s same, %s in place, %s moved)\n",
		formatNumber(int64(s.ReallocCalls)), formatNumber(int64(s.ReallocSame)),
		formatNumber(int64(s.ReallocInPlace)), formatNumber(int64(s.ReallocMoved)))
	if s.FitSearches > 0 {
		printVerbose("    fit search: %.1f blocks visited on average\n", float64(s.FitVisits)/float64(s.FitSearches))
	}
	printVerbose("    heap: %s, largest free block %s\n",
		formatBytes(int64(r.HeapSize)), formatBytes(int64(r.Usage.LargestFree)))
}
