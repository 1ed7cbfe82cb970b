// finalize.go --  This file is part of goSCF project.
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
	"gonum.org/v1/gonum/mat"
)

// Finalize reorders the orbital set into its canonical form: doubly
// occupied orbitals first, then singly occupied, then virtual, each
// class sorted by ascending energy. Per-spin energies and irrep
// labels follow the same permutation. The canonical set is handed to
// the checkpoint writer (best effort) and returned. This is a
// terminal transform: do not feed the result back into the SCF loop.
func (s *Solver) Finalize(eTot float64) ([]float64, *mat.Dense, []float64, error) {
	if s.moEnergy == nil || s.moCoeff == nil {
		return nil, nil, nil, fmt.Errorf("no orbital set to finalize: run Eig and GetOcc first")
	}
	if s.moOcc == nil {
		return nil, nil, nil, fmt.Errorf("no occupations to finalize: run GetOcc first")
	}

	perm := canonicalOrder(s.moEnergy, s.moOcc)
	s.moEnergy = permuteFloats(s.moEnergy, perm)
	s.moOcc = permuteFloats(s.moOcc, perm)
	s.moCoeff = permuteColumns(s.moCoeff, perm)
	if s.orbSym != nil {
		s.orbSym = permuteStrings(s.orbSym, perm)
	}
	if s.moEnergyA != nil {
		s.moEnergyA = permuteFloats(s.moEnergyA, perm)
		s.moEnergyB = permuteFloats(s.moEnergyB, perm)
	}

	if s.chk != nil {
		if err := s.chk.DumpSCF(eTot, s.moEnergy, s.moCoeff, s.moOcc); err != nil {
			s.log.Warnf("checkpoint dump failed: %v", err)
		}
	}
	return s.moEnergy, s.moCoeff, s.moOcc, nil
}

// canonicalOrder returns the permutation sorting orbitals by
// descending occupation class, then ascending energy. Stable, so an
// already canonical set maps to the identity.
func canonicalOrder(moEnergy, occ []float64) []int {
	perm := make([]int, len(moEnergy))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		if occ[a] != occ[b] {
			return cmp.Compare(occ[b], occ[a])
		}
		return cmp.Compare(moEnergy[a], moEnergy[b])
	})
	return perm
}

func permuteFloats(x []float64, perm []int) []float64 {
	out := make([]float64, len(x))
	for k, j := range perm {
		out[k] = x[j]
	}
	return out
}

func permuteStrings(x []string, perm []int) []string {
	out := make([]string, len(x))
	for k, j := range perm {
		out[k] = x[j]
	}
	return out
}

func permuteColumns(m *mat.Dense, perm []int) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for k, j := range perm {
		mat.Col(col, j, m)
		out.SetCol(k, col)
	}
	return out
}
