package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/kohnsham/molgen/internal/molecule"
	"github.com/kohnsham/molgen/internal/sched"
)

// runCycle is one generation attempt: generate, refine, optionally
// postprocess. It returns (nil, nil) when the attempt was skipped because a
// sibling already won, or when it finished but lost the claim race; a
// non-nil error is a recoverable failure confined to this attempt.
//
// Cancellation is cooperative: a set signal stops attempts before they
// start and voids late finishers, but a stage already inside an engine call
// runs to completion.
func (g *Generator) runCycle(ctx context.Context, cycle, ncores int, res *sched.ResourceMonitor, stop *sched.Signal, verbosity int) (*molecule.Molecule, error) {
	if stop.IsSet() {
		return nil, nil
	}
	if verbosity > 0 {
		fmt.Fprintf(g.out, "Cycle %d:\n", cycle+1)
	}

	mol, err := g.pipe.Generate(ctx, verbosity)
	if err != nil {
		if errors.Is(err, molecule.ErrAbortRun) {
			// Debug-triggered hard abort: take down the sibling attempts,
			// not the process.
			stop.Set()
			return nil, fmt.Errorf("generation aborted for cycle %d: %w", cycle+1, err)
		}
		return nil, fmt.Errorf("generation failed for cycle %d: %w", cycle+1, err)
	}

	refined, err := g.pipe.Refine(ctx, mol, res, ncores, verbosity)
	if g.cfg.Refine.Debug {
		// Single-shot diagnostics: the first attempt through refinement
		// cancels the rest, whatever its outcome.
		stop.Set()
	}
	if err != nil {
		return nil, fmt.Errorf("refinement failed for cycle %d: %w", cycle+1, err)
	}

	if g.pipe.Postprocess != nil {
		post, err := g.pipe.Postprocess(ctx, refined, res, ncores, verbosity)
		if g.cfg.Postprocess.Debug {
			stop.Set()
		}
		if err != nil {
			return nil, fmt.Errorf("postprocessing failed for cycle %d: %w", cycle+1, err)
		}
		refined = post
	}

	if stop.TrySet() {
		return refined, nil
	}
	if g.cfg.Refine.Debug || g.cfg.Postprocess.Debug {
		// Keep diagnostic structures from every attempt that got this far.
		return refined, nil
	}
	// A sibling claimed the success first; discard this late result.
	return nil, nil
}
