package generator

import (
	"context"
	"fmt"

	"github.com/kohnsham/molgen/internal/config"
	"github.com/kohnsham/molgen/internal/engine"
	"github.com/kohnsham/molgen/internal/molecule"
	"github.com/kohnsham/molgen/internal/sched"
)

// IterativeOptimize relaxes a raw structure until it is a single covalently
// bonded fragment, then validates its HOMO-LUMO gap. After each
// optimization the largest fragment is kept and re-optimized; structures
// that stay fragmented after cfg.MaxFragCycles rounds fail the attempt.
//
// Every engine call reserves ncores from res so that concurrent attempts of
// the same molecule share the slot's core allocation instead of
// oversubscribing it.
func IterativeOptimize(ctx context.Context, eng engine.Engine, m *molecule.Molecule, cfg *config.RefineConfig, res *sched.ResourceMonitor, ncores, verbosity int) (*molecule.Molecule, error) {
	current := m
	converged := false

	for cycle := 0; cycle < cfg.MaxFragCycles && !converged; cycle++ {
		opt, err := withCores(ctx, res, ncores, func() (*molecule.Molecule, error) {
			return eng.Optimize(ctx, current, ncores, verbosity)
		})
		if err != nil {
			return nil, fmt.Errorf("optimization cycle %d: %w", cycle+1, err)
		}

		frags := molecule.DetectFragments(opt)
		if len(frags) == 1 {
			current = opt
			converged = true
			break
		}
		if verbosity > 1 {
			fmt.Printf("Fragment cycle %d: %d fragments, keeping %s\n", cycle+1, len(frags), frags[0].SumFormula())
		}
		current = frags[0]
		molecule.AssignRandomCharge(current)
	}
	if !converged {
		return nil, fmt.Errorf("structure still fragmented after %d cycles", cfg.MaxFragCycles)
	}

	ok, err := withCores(ctx, res, ncores, func() (bool, error) {
		return eng.CheckGap(ctx, current, cfg.HLGapThreshold, ncores, verbosity)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("HOMO-LUMO gap below %g eV", cfg.HLGapThreshold)
	}
	return current, nil
}

// PostprocessMolecule runs the optional second-engine pass: a geometry
// optimization or a single-point validation, depending on configuration.
func PostprocessMolecule(ctx context.Context, eng engine.Engine, m *molecule.Molecule, cfg *config.PostprocessConfig, res *sched.ResourceMonitor, ncores, verbosity int) (*molecule.Molecule, error) {
	if cfg.Optimize {
		opt, err := withCores(ctx, res, ncores, func() (*molecule.Molecule, error) {
			return eng.Optimize(ctx, m, ncores, verbosity)
		})
		if err != nil {
			return nil, err
		}
		if verbosity > 1 {
			fmt.Println("Postprocessing successful.")
		}
		return opt, nil
	}

	_, err := withCores(ctx, res, ncores, func() (string, error) {
		return eng.Singlepoint(ctx, m, ncores, verbosity)
	})
	if err != nil {
		return nil, err
	}
	if verbosity > 1 {
		fmt.Println("Postprocessing successful.")
	}
	return m, nil
}

// withCores reserves n cores around one engine call.
func withCores[T any](ctx context.Context, res *sched.ResourceMonitor, n int, fn func() (T, error)) (T, error) {
	release, err := res.Acquire(ctx, n)
	if err != nil {
		var zero T
		return zero, err
	}
	defer release()
	return fn()
}
