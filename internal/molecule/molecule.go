// Package molecule holds the molecular data model, random structure
// generation, and geometry utilities shared by the engines and the
// generation pipeline.
package molecule

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Molecule is one generated structure. Ati holds the atomic number of each
// atom; Xyz holds the matching Cartesian coordinates in Angstrom.
type Molecule struct {
	Name   string
	Ati    []int
	Xyz    [][3]float64
	Charge int
	UHF    int
	Energy float64
}

// NumAtoms returns the atom count.
func (m *Molecule) NumAtoms() int {
	return len(m.Ati)
}

// Copy returns a deep copy.
func (m *Molecule) Copy() *Molecule {
	c := &Molecule{
		Name:   m.Name,
		Ati:    make([]int, len(m.Ati)),
		Xyz:    make([][3]float64, len(m.Xyz)),
		Charge: m.Charge,
		UHF:    m.UHF,
		Energy: m.Energy,
	}
	copy(c.Ati, m.Ati)
	copy(c.Xyz, m.Xyz)
	return c
}

// SumFormula returns the composition as symbol/count pairs ordered by
// ascending atomic number, e.g. "H4C2O1".
func (m *Molecule) SumFormula() string {
	counts := make(map[int]int)
	for _, z := range m.Ati {
		counts[z]++
	}
	zs := make([]int, 0, len(counts))
	for z := range counts {
		zs = append(zs, z)
	}
	sort.Ints(zs)

	var b strings.Builder
	for _, z := range zs {
		fmt.Fprintf(&b, "%s%d", SymbolFor(z), counts[z])
	}
	return b.String()
}

func (m *Molecule) String() string {
	return fmt.Sprintf("%s (%d atoms, charge %+d, uhf %d)", m.SumFormula(), m.NumAtoms(), m.Charge, m.UHF)
}

// Distance returns the distance in Angstrom between atoms i and j.
func (m *Molecule) Distance(i, j int) float64 {
	dx := m.Xyz[i][0] - m.Xyz[j][0]
	dy := m.Xyz[i][1] - m.Xyz[j][1]
	dz := m.Xyz[i][2] - m.Xyz[j][2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// WriteXYZ writes the molecule in xyz format. The comment line carries the
// charge and spin so a structure can round-trip through ReadXYZ.
func (m *Molecule) WriteXYZ(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d\ncharge: %d uhf: %d\n", m.NumAtoms(), m.Charge, m.UHF); err != nil {
		return err
	}
	for i, z := range m.Ati {
		_, err := fmt.Fprintf(w, "%-3s %20.14f %20.14f %20.14f\n",
			SymbolFor(z), m.Xyz[i][0], m.Xyz[i][1], m.Xyz[i][2])
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteXYZFile writes the molecule to path in xyz format.
func (m *Molecule) WriteXYZFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("molecule: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := m.WriteXYZ(w); err != nil {
		return fmt.Errorf("molecule: write %s: %w", path, err)
	}
	return w.Flush()
}

// ReadXYZ parses an xyz stream. Charge and spin are recovered from the
// comment line when present; unknown comment formats leave them zero.
func ReadXYZ(r io.Reader) (*Molecule, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return nil, fmt.Errorf("molecule: empty xyz input")
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("molecule: bad atom count line %q", sc.Text())
	}

	m := &Molecule{
		Ati: make([]int, 0, n),
		Xyz: make([][3]float64, 0, n),
	}

	if sc.Scan() {
		parseXYZComment(sc.Text(), m)
	}

	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("molecule: xyz input truncated after %d of %d atoms", i, n)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, fmt.Errorf("molecule: bad xyz line %q", sc.Text())
		}
		z, ok := AtomicNumber(fields[0])
		if !ok {
			return nil, fmt.Errorf("molecule: unknown element %q", fields[0])
		}
		var pos [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, fmt.Errorf("molecule: bad coordinate %q: %w", fields[k+1], err)
			}
			pos[k] = v
		}
		m.Ati = append(m.Ati, z)
		m.Xyz = append(m.Xyz, pos)
	}
	return m, sc.Err()
}

// ReadXYZFile parses the xyz file at path.
func ReadXYZFile(path string) (*Molecule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("molecule: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadXYZ(f)
}

// parseXYZComment extracts "charge: N uhf: N" tokens from a comment line.
func parseXYZComment(line string, m *Molecule) {
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			continue
		}
		switch fields[i] {
		case "charge:":
			m.Charge = v
		case "uhf:":
			m.UHF = v
		}
	}
}
