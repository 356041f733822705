// Package engine wraps the external quantum chemistry programs used for
// refinement and postprocessing. Engines are resolved once at startup into
// concrete handles; a missing binary is fatal before any task is scheduled.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/kohnsham/molgen/internal/config"
	"github.com/kohnsham/molgen/internal/molecule"
)

// Kind is the closed set of supported computation engines.
type Kind int

const (
	KindXTB Kind = iota
	KindORCA
	KindGXTB
)

func (k Kind) String() string {
	switch k {
	case KindXTB:
		return config.EngineXTB
	case KindORCA:
		return config.EngineORCA
	case KindGXTB:
		return config.EngineGXTB
	default:
		return "unknown"
	}
}

// ParseKind maps a config engine name onto a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case config.EngineXTB:
		return KindXTB, nil
	case config.EngineORCA:
		return KindORCA, nil
	case config.EngineGXTB:
		return KindGXTB, nil
	default:
		return 0, fmt.Errorf("engine: unknown engine %q", name)
	}
}

// ErrEngineNotFound reports that a required engine binary could not be
// located. It is fatal at startup.
var ErrEngineNotFound = errors.New("engine: binary not found")

// ErrUnsupported reports an operation an engine cannot perform.
var ErrUnsupported = errors.New("engine: operation not supported")

// Engine is one external computation program. All failures reported from a
// running engine are recoverable: the calling attempt fails, siblings are
// unaffected.
type Engine interface {
	// Optimize relaxes the geometry and returns the optimized structure.
	Optimize(ctx context.Context, m *molecule.Molecule, ncores, verbosity int) (*molecule.Molecule, error)

	// Singlepoint computes the energy at the current geometry and returns
	// the program output.
	Singlepoint(ctx context.Context, m *molecule.Molecule, ncores, verbosity int) (string, error)

	// CheckGap reports whether the HOMO-LUMO gap exceeds threshold (eV).
	CheckGap(ctx context.Context, m *molecule.Molecule, threshold float64, ncores, verbosity int) (bool, error)
}

// Resolve locates the binary for kind and returns a ready engine handle.
func Resolve(kind Kind, cfg *config.Config) (Engine, error) {
	switch kind {
	case KindXTB:
		path, err := findBinary(cfg.XTB.Path, "xtb", "xtb_dev")
		if err != nil {
			return nil, err
		}
		return NewXTB(path), nil
	case KindORCA:
		path, err := findBinary(cfg.ORCA.Path, "orca")
		if err != nil {
			return nil, err
		}
		return NewORCA(path), nil
	case KindGXTB:
		path, err := findBinary(cfg.GXTB.Path, "gxtb")
		if err != nil {
			return nil, err
		}
		return NewGXTB(path), nil
	default:
		return nil, fmt.Errorf("engine: unknown kind %d", kind)
	}
}

// findBinary resolves an explicit configured path, or falls back to PATH
// lookup of the default binary names.
func findBinary(configured string, names ...string) (string, error) {
	if configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrEngineNotFound, configured)
		}
		return path, nil
	}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrEngineNotFound, names)
}

// runCommand executes bin in dir and returns its stdout and stderr. A
// nonzero exit is returned as an error carrying the captured stderr; the
// caller treats it as a recoverable attempt failure.
func runCommand(ctx context.Context, bin, dir string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), stderr.String(),
			fmt.Errorf("engine: %s %v: %w: %s", bin, args, err, firstLines(stderr.String(), 5))
	}
	return stdout.String(), stderr.String(), nil
}

// firstLines truncates s to at most n lines for compact error messages.
func firstLines(s string, n int) string {
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
			if count == n {
				return s[:i]
			}
		}
	}
	return s
}
