package molecule

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/kohnsham/molgen/internal/config"
)

// ErrAbortRun is returned by GenerateRandom when the generation debug hook
// is active. It signals the scheduler to stop every sibling attempt and end
// the run; unlike ordinary generation failures it is not retried.
var ErrAbortRun = errors.New("molecule: abort requested by generation debug hook")

// GenerateRandom produces a random molecule within the configured bounds:
// random atom count, random composition from the allowed elements, and
// random coordinates that respect the scaled covalent minimum distances.
//
// Placement is retried up to cfg.MaxTries times; running out of tries is a
// recoverable failure confined to the calling attempt.
func GenerateRandom(cfg *config.GenerateConfig, verbosity int) (*Molecule, error) {
	allowed, err := allowedElements(cfg.ForbiddenElements)
	if err != nil {
		return nil, err
	}

	for try := 0; try < cfg.MaxTries; try++ {
		n := cfg.MinNumAtoms + rand.IntN(cfg.MaxNumAtoms-cfg.MinNumAtoms+1)

		ati := make([]int, n)
		for i := range ati {
			ati[i] = allowed[rand.IntN(len(allowed))]
		}

		// Box edge grows with the cube root of the atom count so the
		// density stays roughly constant.
		edge := cfg.InitCoordScaling * math.Cbrt(float64(n))
		xyz := make([][3]float64, n)
		for i := range xyz {
			for k := 0; k < 3; k++ {
				xyz[i][k] = (rand.Float64() - 0.5) * edge
			}
		}

		if !distancesValid(ati, xyz, cfg.MinDistanceFactor) {
			continue
		}

		m := &Molecule{Ati: ati, Xyz: xyz}
		AssignRandomCharge(m)
		m.Name = fmt.Sprintf("%s_%06x", m.SumFormula(), rand.Uint32()&0xffffff)

		if verbosity > 1 {
			fmt.Printf("Generated structure %s\n", m)
		}
		if cfg.Debug {
			// Diagnostic hook: surface the raw structure and halt the
			// whole run instead of feeding it into refinement.
			fmt.Printf("Generation debug: raw structure %s\n", m)
			return nil, ErrAbortRun
		}
		return m, nil
	}

	return nil, fmt.Errorf("molecule: no valid geometry after %d placement tries", cfg.MaxTries)
}

// AssignRandomCharge sets a total charge such that the electron count is
// even, giving a closed-shell (uhf 0) system.
func AssignRandomCharge(m *Molecule) {
	electrons := 0
	for _, z := range m.Ati {
		electrons += z
	}
	if electrons%2 == 0 {
		m.Charge = 0
	} else if rand.IntN(2) == 0 {
		m.Charge = 1
	} else {
		m.Charge = -1
	}
	m.UHF = 0
}

// allowedElements returns the atomic numbers available for composition
// after removing the forbidden symbols.
func allowedElements(forbidden []string) ([]int, error) {
	banned := make(map[int]bool, len(forbidden))
	for _, sym := range forbidden {
		z, ok := AtomicNumber(sym)
		if !ok {
			return nil, fmt.Errorf("molecule: unknown forbidden element %q", sym)
		}
		banned[z] = true
	}

	allowed := make([]int, 0, MaxElem)
	for z := 1; z <= MaxElem; z++ {
		if !banned[z] {
			allowed = append(allowed, z)
		}
	}
	if len(allowed) == 0 {
		return nil, errors.New("molecule: every element is forbidden")
	}
	return allowed, nil
}

// distancesValid reports whether every atom pair is at least factor times
// the sum of the two scaled covalent radii apart.
func distancesValid(ati []int, xyz [][3]float64, factor float64) bool {
	for i := 0; i < len(ati); i++ {
		for j := i + 1; j < len(ati); j++ {
			dx := xyz[i][0] - xyz[j][0]
			dy := xyz[i][1] - xyz[j][1]
			dz := xyz[i][2] - xyz[j][2]
			d := math.Sqrt(dx*dx + dy*dy + dz*dz)
			if d < factor*(CovalentRadius(ati[i])+CovalentRadius(ati[j])) {
				return false
			}
		}
	}
	return true
}
