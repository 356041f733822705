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

// XTB drives the xtb tight-binding program. Every call runs in a fresh
// temporary directory that is removed afterwards.
type XTB struct {
	path string
}

// NewXTB creates an XTB engine for the resolved binary path.
func NewXTB(path string) *XTB {
	return &XTB{path: path}
}

// Optimize runs a GFN2 geometry optimization and returns the relaxed
// structure read back from xtbopt.xyz.
func (x *XTB) Optimize(ctx context.Context, m *molecule.Molecule, ncores, verbosity int) (*molecule.Molecule, error) {
	dir, cleanup, err := x.prepare(m)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	args := []string{"molecule.xyz", "--opt", "--gfn", "2", "-P", strconv.Itoa(ncores)}
	if verbosity > 2 {
		fmt.Printf("Running command: %s %s\n", x.path, strings.Join(args, " "))
	}
	stdout, _, err := runCommand(ctx, x.path, dir, args...)
	if err != nil {
		if verbosity > 2 {
			fmt.Print(stdout)
		}
		return nil, fmt.Errorf("xtb optimization: %w", err)
	}

	opt, err := molecule.ReadXYZFile(filepath.Join(dir, "xtbopt.xyz"))
	if err != nil {
		return nil, fmt.Errorf("xtb optimization: %w", err)
	}
	opt.Name = m.Name
	opt.Charge = m.Charge
	opt.UHF = m.UHF
	return opt, nil
}

// Singlepoint runs a GFN2 single-point calculation and returns the program
// output for downstream parsing.
func (x *XTB) Singlepoint(ctx context.Context, m *molecule.Molecule, ncores, verbosity int) (string, error) {
	dir, cleanup, err := x.prepare(m)
	if err != nil {
		return "", err
	}
	defer cleanup()

	args := []string{"molecule.xyz", "--gfn", "2", "-P", strconv.Itoa(ncores)}
	if verbosity > 2 {
		fmt.Printf("Running command: %s %s\n", x.path, strings.Join(args, " "))
	}
	stdout, _, err := runCommand(ctx, x.path, dir, args...)
	if err != nil {
		return "", fmt.Errorf("xtb single point: %w", err)
	}
	return stdout, nil
}

// CheckGap runs a single point and compares the printed HOMO-LUMO gap
// against threshold.
func (x *XTB) CheckGap(ctx context.Context, m *molecule.Molecule, threshold float64, ncores, verbosity int) (bool, error) {
	out, err := x.Singlepoint(ctx, m, ncores, verbosity)
	if err != nil {
		return false, fmt.Errorf("gap check: %w", err)
	}

	gap, err := parseXTBGap(out)
	if err != nil {
		return false, err
	}
	if verbosity > 1 {
		fmt.Printf("HOMO-LUMO gap: %.5f eV\n", gap)
	}
	return gap > threshold, nil
}

// parseXTBGap extracts the gap in eV from xtb output.
func parseXTBGap(out string) (float64, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "HOMO-LUMO GAP") {
			continue
		}
		fields := strings.Fields(line)
		// Format: ":: HOMO-LUMO gap <value> eV ::" with the value in the
		// fourth whitespace field.
		if len(fields) > 3 {
			if gap, err := strconv.ParseFloat(fields[3], 64); err == nil {
				return gap, nil
			}
		}
	}
	return 0, fmt.Errorf("engine: HOMO-LUMO gap not found in xtb output")
}

// prepare creates the working directory with the geometry, charge, and
// spin input files xtb expects.
func (x *XTB) prepare(m *molecule.Molecule) (string, func(), error) {
	dir, err := os.MkdirTemp("", "xtb_")
	if err != nil {
		return "", nil, fmt.Errorf("xtb: temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	if err := m.WriteXYZFile(filepath.Join(dir, "molecule.xyz")); err != nil {
		cleanup()
		return "", nil, err
	}
	chrg := []byte(strconv.Itoa(m.Charge) + "\n")
	if err := os.WriteFile(filepath.Join(dir, ".CHRG"), chrg, 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("xtb: write .CHRG: %w", err)
	}
	uhf := []byte(strconv.Itoa(m.UHF) + "\n")
	if err := os.WriteFile(filepath.Join(dir, ".UHF"), uhf, 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("xtb: write .UHF: %w", err)
	}
	return dir, cleanup, nil
}
