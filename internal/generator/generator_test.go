package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohnsham/molgen/internal/config"
	"github.com/kohnsham/molgen/internal/molecule"
	"github.com/kohnsham/molgen/internal/sched"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.General.Verbosity = 0
	cfg.General.Parallel = 4
	cfg.General.MinCores = 4
	cfg.General.NumMolecules = 1
	cfg.General.MaxCycles = 4
	return cfg
}

func testMolecule() *molecule.Molecule {
	return &molecule.Molecule{
		Name: "H2O1_test",
		Ati:  []int{8, 1, 1},
		Xyz:  [][3]float64{{0, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	}
}

// passthroughStage returns its input unchanged after reserving cores, like
// a refinement that always succeeds.
func passthroughStage(ctx context.Context, m *molecule.Molecule, res *sched.ResourceMonitor, ncores, verbosity int) (*molecule.Molecule, error) {
	release, err := res.Acquire(ctx, ncores)
	if err != nil {
		return nil, err
	}
	defer release()
	return m, nil
}

func succeedingPipeline() Pipeline {
	return Pipeline{
		Generate: func(ctx context.Context, verbosity int) (*molecule.Molecule, error) {
			return testMolecule(), nil
		},
		Refine: passthroughStage,
	}
}

func TestRun_ZeroMolecules(t *testing.T) {
	cfg := testConfig()
	cfg.General.NumMolecules = 0

	g := New(cfg, succeedingPipeline())
	g.SetOutput(&bytes.Buffer{})

	results := g.Run(context.Background())
	assert.Empty(t, results)
}

func TestRun_SingleMoleculeSucceeds(t *testing.T) {
	cfg := testConfig()
	g := New(cfg, succeedingPipeline())
	g.SetOutput(&bytes.Buffer{})

	results := g.Run(context.Background())
	require.Len(t, results, 1)
	require.NotNil(t, results[0])
	assert.Equal(t, "H2O1_test", results[0].Name)
}

func TestRun_GenerationAlwaysFails(t *testing.T) {
	cfg := testConfig()
	cfg.General.MaxCycles = 5

	var calls atomic.Int32
	pipe := Pipeline{
		Generate: func(ctx context.Context, verbosity int) (*molecule.Molecule, error) {
			calls.Add(1)
			return nil, errors.New("no valid geometry")
		},
		Refine: passthroughStage,
	}

	g := New(cfg, pipe)
	g.SetOutput(&bytes.Buffer{})

	results := g.Run(context.Background())
	require.Len(t, results, 1)
	assert.Nil(t, results[0], "molecule must fail after exhausting all cycles")
	assert.EqualValues(t, 5, calls.Load(), "every cycle should have attempted generation")
}

func TestRun_PartialFailureDoesNotAbortOthers(t *testing.T) {
	cfg := testConfig()
	cfg.General.NumMolecules = 2
	cfg.General.Parallel = 8
	cfg.General.MaxCycles = 1

	// With one cycle per molecule, exactly one of the two generation calls
	// fails; the other molecule must still be produced.
	var calls atomic.Int32
	pipe := Pipeline{
		Generate: func(ctx context.Context, verbosity int) (*molecule.Molecule, error) {
			if calls.Add(1) == 1 {
				return nil, errors.New("unlucky draw")
			}
			return testMolecule(), nil
		},
		Refine: passthroughStage,
	}

	g := New(cfg, pipe)
	g.SetOutput(&bytes.Buffer{})

	results := g.Run(context.Background())
	require.Len(t, results, 2)

	produced := 0
	for _, r := range results {
		if r != nil {
			produced++
		}
	}
	assert.Equal(t, 1, produced)
}

func TestRun_AllSlotsProduceInSubmissionOrder(t *testing.T) {
	cfg := testConfig()
	cfg.General.NumMolecules = 3
	cfg.General.Parallel = 8
	cfg.General.Verbosity = 1 // silenced internally for the parallel phase

	var buf bytes.Buffer
	g := New(cfg, succeedingPipeline())
	g.SetOutput(&buf)

	results := g.Run(context.Background())
	require.Len(t, results, 3)
	for i, r := range results {
		assert.NotNil(t, r, "molecule %d missing", i+1)
	}

	// Concurrent run: progress must have flowed through the printer, one
	// line per message, never the verbose banner.
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "Generating molecule"))
	assert.Equal(t, 3, strings.Count(out, "found in"))
	assert.NotContains(t, out, "====")
}

func TestRunCycle_FirstSuccessIsExclusive(t *testing.T) {
	cfg := testConfig()
	g := New(cfg, succeedingPipeline())
	g.SetOutput(&bytes.Buffer{})

	local := sched.NewResourceMonitor(4)
	var stop sched.Signal

	const attempts = 8
	wins := make(chan *molecule.Molecule, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mol, err := g.runCycle(context.Background(), i, 4, local, &stop, 0)
			if err != nil {
				t.Errorf("attempt %d: %v", i, err)
				return
			}
			if mol != nil {
				wins <- mol
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one attempt may claim the success")
	assert.True(t, stop.IsSet())
}

func TestRunCycle_SkipsWhenSignalAlreadySet(t *testing.T) {
	cfg := testConfig()

	var generateCalls atomic.Int32
	pipe := Pipeline{
		Generate: func(ctx context.Context, verbosity int) (*molecule.Molecule, error) {
			generateCalls.Add(1)
			return testMolecule(), nil
		},
		Refine: passthroughStage,
	}
	g := New(cfg, pipe)
	g.SetOutput(&bytes.Buffer{})

	var stop sched.Signal
	stop.Set()

	mol, err := g.runCycle(context.Background(), 0, 4, sched.NewResourceMonitor(4), &stop, 0)
	require.NoError(t, err)
	assert.Nil(t, mol)
	assert.Zero(t, generateCalls.Load(), "skipped attempts must not do any work")
}

func TestRunCycle_AbortErrorCancelsSiblings(t *testing.T) {
	cfg := testConfig()
	pipe := Pipeline{
		Generate: func(ctx context.Context, verbosity int) (*molecule.Molecule, error) {
			return nil, fmt.Errorf("debug stop: %w", molecule.ErrAbortRun)
		},
		Refine: passthroughStage,
	}
	g := New(cfg, pipe)
	g.SetOutput(&bytes.Buffer{})

	var stop sched.Signal
	mol, err := g.runCycle(context.Background(), 0, 4, sched.NewResourceMonitor(4), &stop, 0)
	require.Error(t, err)
	assert.Nil(t, mol)
	assert.True(t, stop.IsSet(), "abort must latch the shared signal")
}

func TestRunCycle_RecoverableFailureLeavesSignalUnset(t *testing.T) {
	cfg := testConfig()
	pipe := Pipeline{
		Generate: func(ctx context.Context, verbosity int) (*molecule.Molecule, error) {
			return nil, errors.New("distance check failed")
		},
		Refine: passthroughStage,
	}
	g := New(cfg, pipe)
	g.SetOutput(&bytes.Buffer{})

	var stop sched.Signal
	_, err := g.runCycle(context.Background(), 0, 4, sched.NewResourceMonitor(4), &stop, 0)
	require.Error(t, err)
	assert.False(t, stop.IsSet(), "recoverable failures are confined to one attempt")
}

func TestRunCycle_RefineDebugKeepsEveryDiagnostic(t *testing.T) {
	cfg := testConfig()
	cfg.Refine.Debug = true

	// A barrier inside Generate lets both attempts pass the entry skip
	// check before either sets the signal after refinement.
	var barrier sync.WaitGroup
	barrier.Add(2)
	pipe := Pipeline{
		Generate: func(ctx context.Context, verbosity int) (*molecule.Molecule, error) {
			barrier.Done()
			barrier.Wait()
			return testMolecule(), nil
		},
		Refine: passthroughStage,
	}
	g := New(cfg, pipe)
	g.SetOutput(&bytes.Buffer{})

	local := sched.NewResourceMonitor(4)
	var stop sched.Signal

	mols := make([]*molecule.Molecule, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mol, err := g.runCycle(context.Background(), i, 4, local, &stop, 0)
			if err != nil {
				t.Errorf("attempt %d: %v", i, err)
				return
			}
			mols[i] = mol
		}()
	}
	wg.Wait()

	assert.True(t, stop.IsSet())
	assert.NotNil(t, mols[0], "debug mode returns every diagnostic structure")
	assert.NotNil(t, mols[1], "debug mode returns every diagnostic structure")
}

func TestRunCycle_RefineDebugSetsSignalOnFailureToo(t *testing.T) {
	cfg := testConfig()
	cfg.Refine.Debug = true

	pipe := succeedingPipeline()
	pipe.Refine = func(ctx context.Context, m *molecule.Molecule, res *sched.ResourceMonitor, ncores, verbosity int) (*molecule.Molecule, error) {
		return nil, errors.New("optimization diverged")
	}
	g := New(cfg, pipe)
	g.SetOutput(&bytes.Buffer{})

	var stop sched.Signal
	_, err := g.runCycle(context.Background(), 0, 4, sched.NewResourceMonitor(4), &stop, 0)
	require.Error(t, err)
	assert.True(t, stop.IsSet(), "debug single-shot cancels siblings even on failure")
}

func TestRunCycle_PostprocessFailureIsRecoverable(t *testing.T) {
	cfg := testConfig()
	cfg.General.Postprocess = true

	pipe := succeedingPipeline()
	pipe.Postprocess = func(ctx context.Context, m *molecule.Molecule, res *sched.ResourceMonitor, ncores, verbosity int) (*molecule.Molecule, error) {
		return nil, errors.New("single point failed")
	}
	g := New(cfg, pipe)
	g.SetOutput(&bytes.Buffer{})

	var stop sched.Signal
	mol, err := g.runCycle(context.Background(), 0, 4, sched.NewResourceMonitor(4), &stop, 0)
	require.Error(t, err)
	assert.Nil(t, mol)
	assert.False(t, stop.IsSet())
}
