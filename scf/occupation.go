// occupation.go --  This file is part of goSCF project.
//
//	goSCF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package scf

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// GetOcc assigns occupation numbers to the orbital set. Both
// arguments may be nil, in which case the set produced by the latest
// Eig call is used. The result is also stored on the solver for
// Finalize.
func (s *Solver) GetOcc(moEnergy []float64, orbSym []string) ([]float64, error) {
	if moEnergy == nil {
		moEnergy = s.moEnergy
	}
	if orbSym == nil {
		orbSym = s.orbSym
	}
	if orbSym == nil {
		orbSym = OrbSymLabels(s.irreps)
	}
	if moEnergy == nil {
		return nil, fmt.Errorf("no orbital energies: call Eig first or pass them explicitly")
	}
	if len(moEnergy) != len(orbSym) {
		return nil, fmt.Errorf("got %d orbital energies for %d irrep labels",
			len(moEnergy), len(orbSym))
	}

	var occ []float64
	var err error
	switch s.kind {
	case OpenShell:
		occ, err = s.getOccOpen(moEnergy, orbSym)
	default:
		occ, err = s.getOccClosed(moEnergy, orbSym)
	}
	if err != nil {
		return nil, err
	}
	s.moOcc = occ
	return occ, nil
}

// getOccClosed fills pinned irreps with their requested electron
// pairs lowest-energy-first, then pools the remaining irreps and
// fills the leftover pairs by ascending energy across the pool.
func (s *Solver) getOccClosed(moEnergy []float64, orbSym []string) ([]float64, error) {
	occ := make([]float64, len(moEnergy))
	var restIdx []int
	nelecFix := 0
	for _, ir := range s.irreps {
		irIdx := indicesWithLabel(orbSym, ir.Name)
		pin, ok := s.pinned[ir.Name]
		if !ok {
			restIdx = append(restIdx, irIdx...)
			continue
		}
		n := pin.Total()
		if n > 2*len(irIdx) {
			return nil, fmt.Errorf("irrep %s pinned to %d electrons with only %d orbitals: %w",
				ir.Name, n, len(irIdx), ErrIrrepNelec)
		}
		for _, j := range sortedByEnergy(irIdx, moEnergy)[:n/2] {
			occ[j] = 2
		}
		nelecFix += n
	}

	nelecFloat := s.nelec - nelecFix
	if nelecFloat < 0 {
		return nil, fmt.Errorf("%d electrons pinned but only %d available: %w",
			nelecFix, s.nelec, ErrIrrepNelec)
	}
	if nelecFloat > 0 {
		if nelecFloat/2 > len(restIdx) {
			return nil, fmt.Errorf("%d free electrons but only %d unpinned orbitals: %w",
				nelecFloat, len(restIdx), ErrIrrepNelec)
		}
		for _, j := range sortedByEnergy(restIdx, moEnergy)[:nelecFloat/2] {
			occ[j] = 2
		}
	}

	s.reportOcc(moEnergy, occ, orbSym)
	return occ, nil
}

// indicesWithLabel returns the orbital indices carrying the given
// irrep label, in solver order.
func indicesWithLabel(orbSym []string, name string) []int {
	var idx []int
	for i, l := range orbSym {
		if l == name {
			idx = append(idx, i)
		}
	}
	return idx
}

// sortedByEnergy returns a copy of idx reordered so the referenced
// energies ascend. The sort is stable: equal energies keep the order
// the eigensolver produced.
func sortedByEnergy(idx []int, e []float64) []int {
	out := slices.Clone(idx)
	slices.SortStableFunc(out, func(a, b int) int { return cmp.Compare(e[a], e[b]) })
	return out
}

// reportOcc logs HOMO/LUMO and the per-irrep occupancy of a freshly
// assigned occupation array.
func (s *Solver) reportOcc(moEnergy, occ []float64, orbSym []string) {
	ehomo, ihomo, elumo, ilumo := frontierOrbitals(moEnergy, occ)
	if ihomo < 0 || ilumo < 0 {
		return
	}
	s.log.Infof("HOMO (%s) = %.15g  LUMO (%s) = %.15g",
		orbSym[ihomo], ehomo, orbSym[ilumo], elumo)
	if s.log.verbose < VerboseDebug {
		return
	}
	noccs := make([]int, len(s.irreps))
	for i, ir := range s.irreps {
		n := 0.0
		for _, j := range indicesWithLabel(orbSym, ir.Name) {
			n += occ[j]
		}
		noccs[i] = int(n + 0.5)
	}
	s.log.Debugf("irrep_nelec = %v", noccs)
	s.dumpMOEnergy(moEnergy, occ, orbSym, ehomo, elumo)
}

// frontierOrbitals locates the highest occupied and lowest unoccupied
// orbitals. An index of -1 means the corresponding class is empty.
func frontierOrbitals(moEnergy, occ []float64) (ehomo float64, ihomo int, elumo float64, ilumo int) {
	ihomo, ilumo = -1, -1
	for i, o := range occ {
		if o > 0 {
			if ihomo < 0 || moEnergy[i] > ehomo {
				ehomo, ihomo = moEnergy[i], i
			}
		} else {
			if ilumo < 0 || moEnergy[i] < elumo {
				elumo, ilumo = moEnergy[i], i
			}
		}
	}
	return ehomo, ihomo, elumo, ilumo
}
