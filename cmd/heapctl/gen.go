package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tagheap/heap/trace"
)

var (
	genOps     int
	genIDs     int
	genMaxSize int
	genRealloc float64
	genSeed    int64
	genOutput  string
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().IntVar(&genOps, "ops", trace.DefaultParams.Ops, "Number of random operations")
	cmd.Flags().IntVar(&genIDs, "ids", trace.DefaultParams.IDs, "Number of distinct block ids")
	cmd.Flags().IntVar(&genMaxSize, "max-size", trace.DefaultParams.MaxSize, "Largest request size in bytes")
	cmd.Flags().Float64Var(&genRealloc, "realloc", trace.DefaultParams.ReallocRate, "Fraction of operations on live ids that resize")
	cmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random balanced trace",
		Long: `The gen command writes a random trace in the format replay reads.
Every id that is still live after the random operations is freed at the end.

Example:
  heapctl gen --ops 5000 --ids 300 --seed 7 -o random.rep
  heapctl gen --ops 1000000 -o huge.rep.zst
  heapctl gen --max-size 64 --realloc 0 | heapctl replay /dev/stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	tr := trace.Generate(rand.New(rand.NewSource(genSeed)), trace.Params{
		Ops:         genOps,
		IDs:         genIDs,
		MaxSize:     genMaxSize,
		ReallocRate: genRealloc,
	})

	if genOutput == "" {
		if err := tr.Write(os.Stdout); err != nil {
			return fmt.Errorf("failed to write trace: %w", err)
		}
		return nil
	}

	if err := trace.WriteFile(genOutput, tr); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	printInfo("Wrote %s ops over %s ids to %s (peak live %s)\n",
		formatNumber(int64(len(tr.Ops))), formatNumber(int64(tr.NumIDs)),
		genOutput, formatBytes(int64(tr.SuggestedHeap)))
	return nil
}
