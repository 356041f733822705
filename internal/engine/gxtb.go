package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kohnsham/molgen/internal/molecule"
)

// GXTB drives the g-xTB program. It only supports single-point energies,
// which restricts it to the postprocessing stage; config validation rejects
// it as a refinement engine.
type GXTB struct {
	path string
}

// NewGXTB creates a GXTB engine for the resolved binary path.
func NewGXTB(path string) *GXTB {
	return &GXTB{path: path}
}

// Optimize always fails: g-xTB has no geometry optimizer.
func (g *GXTB) Optimize(ctx context.Context, m *molecule.Molecule, ncores, verbosity int) (*molecule.Molecule, error) {
	return nil, fmt.Errorf("%w: g-xTB cannot optimize geometries", ErrUnsupported)
}

func (g *GXTB) Singlepoint(ctx context.Context, m *molecule.Molecule, ncores, verbosity int) (string, error) {
	dir, err := os.MkdirTemp("", "gxtb_")
	if err != nil {
		return "", fmt.Errorf("gxtb: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := m.WriteXYZFile(filepath.Join(dir, "molecule.xyz")); err != nil {
		return "", err
	}
	chrg := []byte(strconv.Itoa(m.Charge) + "\n")
	if err := os.WriteFile(filepath.Join(dir, ".CHRG"), chrg, 0o644); err != nil {
		return "", fmt.Errorf("gxtb: write .CHRG: %w", err)
	}

	stdout, _, err := runCommand(ctx, g.path, dir, "-c", "molecule.xyz")
	if err != nil {
		return "", fmt.Errorf("gxtb single point: %w", err)
	}
	return stdout, nil
}

func (g *GXTB) CheckGap(ctx context.Context, m *molecule.Molecule, threshold float64, ncores, verbosity int) (bool, error) {
	out, err := g.Singlepoint(ctx, m, ncores, verbosity)
	if err != nil {
		return false, fmt.Errorf("gap check: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "gap") {
			continue
		}
		fields := strings.Fields(line)
		for i := len(fields) - 1; i >= 0; i-- {
			if gap, err := strconv.ParseFloat(fields[i], 64); err == nil {
				return gap > threshold, nil
			}
		}
	}
	return false, fmt.Errorf("engine: gap not found in g-xTB output")
}
