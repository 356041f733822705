package molecule

import "sort"

// DetectFragments partitions a molecule into covalently connected
// fragments. Two atoms are bonded when their distance is below the sum of
// their scaled covalent radii. Fragments are returned in descending atom
// count; the input molecule's charge and name are carried by the largest
// fragment.
func DetectFragments(m *Molecule) []*Molecule {
	n := m.NumAtoms()
	if n == 0 {
		return nil
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	next := 0
	for i := 0; i < n; i++ {
		if labels[i] != -1 {
			continue
		}
		// Flood fill the connected component containing atom i.
		stack := []int{i}
		labels[i] = next
		for len(stack) > 0 {
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for b := 0; b < n; b++ {
				if labels[b] != -1 || !bonded(m, a, b) {
					continue
				}
				labels[b] = next
				stack = append(stack, b)
			}
		}
		next++
	}

	frags := make([]*Molecule, next)
	for f := range frags {
		frags[f] = &Molecule{Name: m.Name}
	}
	for i, f := range labels {
		frags[f].Ati = append(frags[f].Ati, m.Ati[i])
		frags[f].Xyz = append(frags[f].Xyz, m.Xyz[i])
	}

	sort.SliceStable(frags, func(a, b int) bool {
		return frags[a].NumAtoms() > frags[b].NumAtoms()
	})
	frags[0].Charge = m.Charge
	frags[0].UHF = m.UHF
	return frags
}

func bonded(m *Molecule, a, b int) bool {
	if a == b {
		return false
	}
	return m.Distance(a, b) < CovalentRadius(m.Ati[a])+CovalentRadius(m.Ati[b])
}
