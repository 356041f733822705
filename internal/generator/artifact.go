package generator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kohnsham/molgen/internal/molecule"
	"github.com/kohnsham/molgen/internal/sched"
)

// runMolecule is one outer-scheduler task: it reserves the slot's cores for
// its full duration, races the attempt cycles on a nested resource monitor,
// and returns the first successful structure in cycle order, or nil when
// every cycle failed.
func (g *Generator) runMolecule(ctx context.Context, index, ncores int, outer *sched.ResourceMonitor, printer *sched.Printer, verbosity int) *molecule.Molecule {
	release, err := outer.Acquire(ctx, ncores)
	if err != nil {
		log.Printf("WARNING: molecule %d: %v", index+1, err)
		return nil
	}
	defer release()

	total := g.cfg.General.NumMolecules
	if verbosity > 0 {
		banner := strings.Repeat("=", 80)
		fmt.Fprintf(g.out, "\n%s\n", banner)
		fmt.Fprintf(g.out, "%s Generating molecule %-4d of %-4d %s\n",
			strings.Repeat("=", 22), index+1, total, strings.Repeat("=", 24))
		fmt.Fprintf(g.out, "%s\n", banner)
	} else {
		g.report(printer, fmt.Sprintf("Generating molecule %-4d of %-4d", index+1, total))
	}

	// Attempts share the slot's reservation through a fresh nested monitor
	// and a common cancellation signal.
	local := sched.NewResourceMonitor(ncores)
	var stop sched.Signal

	maxCycles := g.cfg.General.MaxCycles
	results := make([]*molecule.Molecule, maxCycles)

	var eg errgroup.Group
	for cycle := 0; cycle < maxCycles; cycle++ {
		eg.Go(func() error {
			mol, err := g.runCycle(ctx, cycle, ncores, local, &stop, verbosity)
			if err != nil {
				if verbosity > 0 {
					fmt.Fprintf(g.out, "%v\n", err)
				}
				return nil
			}
			results[cycle] = mol
			return nil
		})
	}
	eg.Wait()

	// First success in cycle-index order wins, independent of completion
	// order.
	for i, mol := range results {
		if mol == nil {
			continue
		}
		if verbosity > 0 {
			fmt.Fprintf(g.out, "Optimized molecule found in %d cycles.\n%s\n", i+1, mol)
		} else {
			g.report(printer, fmt.Sprintf("Optimized molecule %-4d found in %d cycles.", index+1, i+1))
		}
		return mol
	}
	return nil
}

// report routes a progress line through the shared printer when one is
// active, or straight to the output for single-slot runs.
func (g *Generator) report(printer *sched.Printer, msg string) {
	if printer != nil {
		printer.Put(msg)
		return
	}
	fmt.Fprintln(g.out, msg)
}
