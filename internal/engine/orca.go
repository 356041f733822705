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

// hartreeToEV converts orbital energies from Hartree to eV.
const hartreeToEV = 27.211386245988

// ORCA drives the ORCA program through generated input files.
type ORCA struct {
	path string
}

// NewORCA creates an ORCA engine for the resolved binary path.
func NewORCA(path string) *ORCA {
	return &ORCA{path: path}
}

func (o *ORCA) Optimize(ctx context.Context, m *molecule.Molecule, ncores, verbosity int) (*molecule.Molecule, error) {
	dir, cleanup, err := o.prepare(m, ncores, true)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, _, err := runCommand(ctx, o.path, dir, "orca.inp"); err != nil {
		return nil, fmt.Errorf("orca optimization: %w", err)
	}

	// ORCA writes the final geometry next to the input as orca.xyz.
	opt, err := molecule.ReadXYZFile(filepath.Join(dir, "orca.xyz"))
	if err != nil {
		return nil, fmt.Errorf("orca optimization: %w", err)
	}
	opt.Name = m.Name
	opt.Charge = m.Charge
	opt.UHF = m.UHF
	return opt, nil
}

func (o *ORCA) Singlepoint(ctx context.Context, m *molecule.Molecule, ncores, verbosity int) (string, error) {
	dir, cleanup, err := o.prepare(m, ncores, false)
	if err != nil {
		return "", err
	}
	defer cleanup()

	stdout, _, err := runCommand(ctx, o.path, dir, "orca.inp")
	if err != nil {
		return "", fmt.Errorf("orca single point: %w", err)
	}
	return stdout, nil
}

func (o *ORCA) CheckGap(ctx context.Context, m *molecule.Molecule, threshold float64, ncores, verbosity int) (bool, error) {
	out, err := o.Singlepoint(ctx, m, ncores, verbosity)
	if err != nil {
		return false, fmt.Errorf("gap check: %w", err)
	}
	gap, err := parseORCAGap(out)
	if err != nil {
		return false, err
	}
	if verbosity > 1 {
		fmt.Printf("HOMO-LUMO gap: %.5f eV\n", gap)
	}
	return gap > threshold, nil
}

// parseORCAGap derives the gap from the orbital energies table: the energy
// difference between the lowest unoccupied and highest occupied orbital.
func parseORCAGap(out string) (float64, error) {
	lines := strings.Split(out, "\n")
	inTable := false
	var homo, lumo float64
	haveHOMO, haveLUMO := false, false

	for _, line := range lines {
		if strings.Contains(line, "ORBITAL ENERGIES") {
			inTable = true
			haveHOMO, haveLUMO = false, false
			continue
		}
		if !inTable {
			continue
		}
		fields := strings.Fields(line)
		// Table rows: NO OCC E(Eh) E(eV)
		if len(fields) != 4 {
			if haveHOMO {
				inTable = false
			}
			continue
		}
		occ, err1 := strconv.ParseFloat(fields[1], 64)
		eh, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if occ > 0 {
			homo = eh
			haveHOMO = true
		} else if haveHOMO && !haveLUMO {
			lumo = eh
			haveLUMO = true
		}
	}

	if !haveHOMO || !haveLUMO {
		return 0, fmt.Errorf("engine: orbital energies not found in orca output")
	}
	return (lumo - homo) * hartreeToEV, nil
}

// prepare writes the ORCA input deck for either an optimization or a
// single-point run.
func (o *ORCA) prepare(m *molecule.Molecule, ncores int, opt bool) (string, func(), error) {
	dir, err := os.MkdirTemp("", "orca_")
	if err != nil {
		return "", nil, fmt.Errorf("orca: temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	if err := m.WriteXYZFile(filepath.Join(dir, "molecule.xyz")); err != nil {
		cleanup()
		return "", nil, err
	}

	var b strings.Builder
	if opt {
		b.WriteString("! r2SCAN-3c Opt\n")
	} else {
		b.WriteString("! r2SCAN-3c\n")
	}
	if ncores > 1 {
		fmt.Fprintf(&b, "%%pal nprocs %d end\n", ncores)
	}
	mult := m.UHF + 1
	fmt.Fprintf(&b, "* xyzfile %d %d molecule.xyz\n", m.Charge, mult)

	if err := os.WriteFile(filepath.Join(dir, "orca.inp"), []byte(b.String()), 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("orca: write input: %w", err)
	}
	return dir, cleanup, nil
}
