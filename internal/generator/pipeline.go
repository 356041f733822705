package generator

import (
	"context"

	"github.com/kohnsham/molgen/internal/config"
	"github.com/kohnsham/molgen/internal/engine"
	"github.com/kohnsham/molgen/internal/molecule"
	"github.com/kohnsham/molgen/internal/sched"
)

// GenerateFunc produces a candidate structure. molecule.ErrAbortRun aborts
// the whole run; any other error fails only the calling attempt.
type GenerateFunc func(ctx context.Context, verbosity int) (*molecule.Molecule, error)

// StageFunc refines or postprocesses a structure. The stage brackets its
// engine calls with reservations of ncores from res, the attempt-local
// resource monitor.
type StageFunc func(ctx context.Context, m *molecule.Molecule, res *sched.ResourceMonitor, ncores, verbosity int) (*molecule.Molecule, error)

// Pipeline bundles the external collaborators one attempt cycle runs
// through. Postprocess is nil when postprocessing is disabled.
type Pipeline struct {
	Generate    GenerateFunc
	Refine      StageFunc
	Postprocess StageFunc
}

// NewPipeline wires the production collaborators: random generation,
// iterative optimization on refineEng, and optional postprocessing on
// postEng. postEng is ignored unless postprocessing is enabled.
func NewPipeline(cfg *config.Config, refineEng, postEng engine.Engine) Pipeline {
	p := Pipeline{
		Generate: func(ctx context.Context, verbosity int) (*molecule.Molecule, error) {
			return molecule.GenerateRandom(&cfg.Generate, verbosity)
		},
		Refine: func(ctx context.Context, m *molecule.Molecule, res *sched.ResourceMonitor, ncores, verbosity int) (*molecule.Molecule, error) {
			return IterativeOptimize(ctx, refineEng, m, &cfg.Refine, res, ncores, verbosity)
		},
	}
	if cfg.General.Postprocess {
		p.Postprocess = func(ctx context.Context, m *molecule.Molecule, res *sched.ResourceMonitor, ncores, verbosity int) (*molecule.Molecule, error) {
			return PostprocessMolecule(ctx, postEng, m, &cfg.Postprocess, res, ncores, verbosity)
		}
	}
	return p
}
