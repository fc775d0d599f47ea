package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tagheap/cmd/heapctl/logger"
	"github.com/joshuapare/tagheap/heap/alloc"
	"github.com/joshuapare/tagheap/heap/trace"
)

var (
	layoutHeap string
	layoutOps  int
	layoutFree bool
)

func init() {
	cmd := newLayoutCmd()
	addHeapFlags(cmd)
	cmd.Flags().StringVar(&layoutHeap, "heap", "", "Attach to an existing heap file instead of replaying a trace")
	cmd.Flags().IntVar(&layoutOps, "ops", 0, "Replay only the first N operations (0 = all)")
	cmd.Flags().BoolVar(&layoutFree, "free-only", false, "Only list free blocks")
	rootCmd.AddCommand(cmd)
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout [trace]",
		Short: "Print the block map of a heap",
		Long: `The layout command prints every block between the prologue and the
epilogue: payload offset, block size and state. The heap comes either from
replaying a trace (optionally stopping after --ops operations) or from a heap
file written by 'replay --arena file'.

Example:
  heapctl layout short1-bal.rep --ops 5
  heapctl layout --heap big.heap --free-only`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := layoutSource(cmd, args)
			if err != nil {
				return err
			}
			return errors.Join(runLayout(h.a), h.Close(ctx))
		},
	}
	return cmd
}

// layoutSource builds the heap to print: an attached file or a replayed trace.
func layoutSource(cmd *cobra.Command, args []string) (*heapHandle, error) {
	if layoutHeap != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--heap and a trace are mutually exclusive")
		}
		printVerbose("Attaching: %s\n", layoutHeap)
		return openHeap(layoutHeap)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("expected a trace file or --heap")
	}

	tr, err := trace.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	if layoutOps > 0 && layoutOps < len(tr.Ops) {
		tr.Ops = tr.Ops[:layoutOps]
	}

	h, err := newHeap()
	if err != nil {
		return nil, err
	}
	if _, err := trace.Replay(cmd.Context(), tr, h.a, trace.Options{Logger: logger.L}); err != nil {
		return nil, errors.Join(err, h.Close(cmd.Context()))
	}
	return h, nil
}

type layoutBlock struct {
	Ptr     uint32 `json:"ptr"`
	Size    uint32 `json:"size"`
	Payload int    `json:"payload"`
	Alloc   bool   `json:"alloc"`
}

type layoutOutput struct {
	Usage  alloc.Usage   `json:"usage"`
	Blocks []layoutBlock `json:"blocks"`
}

func runLayout(a *alloc.Allocator) error {
	out := layoutOutput{Usage: a.Usage(), Blocks: []layoutBlock{}}
	err := a.Walk(func(b alloc.Block) error {
		if layoutFree && b.Alloc {
			return nil
		}
		out.Blocks = append(out.Blocks, layoutBlock{
			Ptr:     uint32(b.Ptr),
			Size:    b.Size,
			Payload: b.Payload(),
			Alloc:   b.Alloc,
		})
		return nil
	})
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}

	printInfo("%10s  %10s  %10s  %s\n", "ptr", "size", "payload", "state")
	for _, b := range out.Blocks {
		state := "free"
		if b.Alloc {
			state = "alloc"
		}
		printInfo("%10s  %10s  %10s  %s\n",
			formatNumber(int64(b.Ptr)), formatNumber(int64(b.Size)), formatNumber(int64(b.Payload)), state)
	}

	u := out.Usage
	printInfo("\nHeap: %s (%s bytes)\n", formatBytes(int64(u.HeapSize)), formatNumber(int64(u.HeapSize)))
	printInfo("Blocks: %s allocated (%s bytes), %s free (%s bytes)\n",
		formatNumber(int64(u.AllocBlocks)), formatNumber(u.AllocBytes),
		formatNumber(int64(u.FreeBlocks)), formatNumber(u.FreeBytes))
	printInfo("Largest free block: %s bytes\n", formatNumber(int64(u.LargestFree)))
	return nil
}
