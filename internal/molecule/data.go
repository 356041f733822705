package molecule

// MaxElem is the highest atomic number available for composition.
const MaxElem = 86

// elementSymbols maps atomic number - 1 to the element symbol.
var elementSymbols = [MaxElem]string{
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr",
	"Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba",
	"La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn",
}

// covRadiiPyykko holds covalent radii in Angstrom (Pyykko and Atsumi,
// Chem. Eur. J. 15, 2009, 188-197; metal values decreased by 10%).
var covRadiiPyykko = [MaxElem]float64{
	0.32, 0.46, // H, He
	1.20, 0.94, 0.77, 0.75, 0.71, 0.63, 0.64, 0.67, // Li-Ne
	1.40, 1.25, 1.13, 1.04, 1.10, 1.02, 0.99, 0.96, // Na-Ar
	1.76, 1.54, // K, Ca
	1.33, 1.22, 1.21, 1.10, 1.07, // Sc-
	1.04, 1.00, 0.99, 1.01, 1.09, // -Zn
	1.12, 1.09, 1.15, 1.10, 1.14, 1.17, // Ga-Kr
	1.89, 1.67, // Rb, Sr
	1.47, 1.39, 1.32, 1.24, 1.15, // Y-
	1.13, 1.13, 1.08, 1.15, 1.23, // -Cd
	1.28, 1.26, 1.26, 1.23, 1.32, 1.31, // In-Xe
	2.09, 1.76, // Cs, Ba
	1.62, 1.47, 1.58, 1.57, 1.56, 1.55, 1.51, // La-Eu
	1.52, 1.51, 1.50, 1.49, 1.49, 1.48, 1.53, // Gd-Yb
	1.46, 1.37, 1.31, 1.23, 1.18, // Lu-
	1.16, 1.11, 1.12, 1.13, 1.32, // -Hg
	1.30, 1.30, 1.36, 1.31, 1.38, 1.42, // Tl-Rn
}

// radiiScale converts the Pyykko radii into the coordination-number radii
// used for connectivity and distance checks.
const radiiScale = 4.0 / 3.0

// CovalentRadius returns the scaled covalent radius in Angstrom for atomic
// number z (1-based). Out-of-range numbers return 0.
func CovalentRadius(z int) float64 {
	if z < 1 || z > MaxElem {
		return 0
	}
	return covRadiiPyykko[z-1] * radiiScale
}

// SymbolFor returns the element symbol for atomic number z, or "X" when z
// is out of range.
func SymbolFor(z int) string {
	if z < 1 || z > MaxElem {
		return "X"
	}
	return elementSymbols[z-1]
}

// AtomicNumber returns the atomic number for an element symbol.
func AtomicNumber(symbol string) (int, bool) {
	for i, s := range elementSymbols {
		if s == symbol {
			return i + 1, true
		}
	}
	return 0, false
}
