// Package generator schedules molecule production under a fixed core
// budget. The outer level runs one task per molecule slot as planned by
// sched.PlanBlocks; the inner level races up to maxCycles generation
// attempts per molecule and keeps the first success.
package generator

import (
	"context"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/kohnsham/molgen/internal/config"
	"github.com/kohnsham/molgen/internal/molecule"
	"github.com/kohnsham/molgen/internal/sched"
)

// Generator owns one generation session.
type Generator struct {
	cfg  *config.Config
	pipe Pipeline
	out  io.Writer
}

// New creates a Generator writing progress to stdout.
func New(cfg *config.Config, pipe Pipeline) *Generator {
	return &Generator{cfg: cfg, pipe: pipe, out: os.Stdout}
}

// SetOutput redirects progress output, primarily for tests.
func (g *Generator) SetOutput(w io.Writer) {
	g.out = w
}

// Run produces the configured number of molecules and returns the results
// index-aligned with submission order (block order, then slot order within
// each block). A nil entry means that molecule failed all attempt cycles;
// per-molecule failure never aborts the remaining tasks.
func (g *Generator) Run(ctx context.Context) []*molecule.Molecule {
	total := g.cfg.General.NumMolecules
	cores := g.cfg.General.Parallel

	blocks := sched.PlanBlocks(cores, total, g.cfg.General.MinCores)
	if len(blocks) == 0 {
		return nil
	}
	monitor := sched.NewResourceMonitor(cores)

	// With more than one slot in flight, per-task direct output would
	// interleave: silence it and route progress through a single consumer.
	// The adjusted verbosity is passed down explicitly; the config itself
	// is never mutated.
	verbosity := g.cfg.General.Verbosity
	concurrent := len(blocks) > 1 || blocks[0].SlotCount > 1
	var printer *sched.Printer
	if concurrent {
		verbosity = 0
		printer = sched.NewPrinter(g.out)
	}

	results := make([]*molecule.Molecule, total)
	var eg errgroup.Group

	index := 0
	for _, block := range blocks {
		for slot := 0; slot < block.SlotCount; slot++ {
			i := index
			index++
			ncores := block.CoresPerSlot
			eg.Go(func() error {
				results[i] = g.runMolecule(ctx, i, ncores, monitor, printer, verbosity)
				return nil
			})
		}
	}
	eg.Wait()

	if printer != nil {
		printer.Stop()
	}
	return results
}
