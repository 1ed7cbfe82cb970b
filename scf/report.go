// report.go --  This file is part of goSCF project.
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
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LabelOrbSymm assigns each coefficient column the irrep whose
// symmetry-adapted subspace carries the largest projection weight
// |B^T S c|^2. Useful when the coefficients did not come straight out
// of the block eigensolver (e.g. after finalize, or with linear
// dependencies removed).
func LabelOrbSymm(irreps []Irrep, coeff *mat.Dense, ovlp mat.Matrix) ([]string, error) {
	nao, nmo := coeff.Dims()
	if n := NumAO(irreps); n != nao {
		return nil, fmt.Errorf("coefficients have %d AO rows, catalog spans %d", nao, n)
	}
	var sc mat.Dense
	sc.Mul(ovlp, coeff)

	labels := make([]string, nmo)
	best := make([]float64, nmo)
	for _, ir := range irreps {
		if ir.Dim() == 0 {
			continue
		}
		var proj mat.Dense
		proj.Mul(ir.Block.T(), &sc)
		rows, _ := proj.Dims()
		for j := 0; j < nmo; j++ {
			w := 0.0
			for i := 0; i < rows; i++ {
				v := proj.At(i, j)
				w += v * v
			}
			if w > best[j] {
				best[j] = w
				labels[j] = ir.Name
			}
		}
	}
	return labels, nil
}

// GetIrrepNelec counts the electrons hosted by each irrep of the
// catalog, labeling orbitals by their dominant symmetry projection.
// Diagnostic only; every catalog irrep appears in the result, zeros
// included.
func (s *Solver) GetIrrepNelec(coeff *mat.Dense, occ []float64, ovlp mat.Matrix) (map[string]int, error) {
	occ, labels, err := s.labeledOcc(coeff, occ, ovlp)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(s.irreps))
	for _, ir := range s.irreps {
		counts[ir.Name] = 0
	}
	for j, l := range labels {
		counts[l] += int(occ[j] + 0.5)
	}
	return counts, nil
}

// GetIrrepNelecAB splits the per-irrep electron count into spin
// channels: alpha from every occupied orbital, beta from the doubly
// occupied ones. Mostly useful with the open-shell solver.
func (s *Solver) GetIrrepNelecAB(coeff *mat.Dense, occ []float64, ovlp mat.Matrix) (map[string]Nelec, error) {
	occ, labels, err := s.labeledOcc(coeff, occ, ovlp)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]Nelec, len(s.irreps))
	for _, ir := range s.irreps {
		counts[ir.Name] = Nelec{}
	}
	for j, l := range labels {
		c := counts[l]
		if occ[j] > 0 {
			c.alpha++
		}
		if occ[j] == 2 {
			c.beta++
		}
		counts[l] = c
	}
	return counts, nil
}

func (s *Solver) labeledOcc(coeff *mat.Dense, occ []float64, ovlp mat.Matrix) ([]float64, []string, error) {
	if coeff == nil {
		coeff = s.moCoeff
	}
	if occ == nil {
		occ = s.moOcc
	}
	if coeff == nil || occ == nil {
		return nil, nil, fmt.Errorf("no orbital set: run Eig and GetOcc first")
	}
	labels, err := LabelOrbSymm(s.irreps, coeff, ovlp)
	if err != nil {
		return nil, nil, err
	}
	return occ, labels, nil
}

// dumpMOEnergy reports the orbital energies per irrep and warns when
// an irrep's own HOMO/LUMO straddle the global frontier, the usual
// smoking gun of a symmetry-broken occupation.
func (s *Solver) dumpMOEnergy(moEnergy, occ []float64, orbSym []string, ehomo, elumo float64) {
	for _, ir := range s.irreps {
		irIdx := sortedByEnergy(indicesWithLabel(orbSym, ir.Name), moEnergy)
		nso := len(irIdx)
		nocc := 0
		eIr := make([]float64, nso)
		for k, j := range irIdx {
			eIr[k] = moEnergy[j]
			if occ[j] > 0 {
				nocc++
			}
		}
		switch {
		case nocc == 0:
			s.log.Debugf("%s nocc = 0", ir.Name)
		case nocc == nso:
			s.log.Debugf("%s nocc = %d  HOMO = %.15g", ir.Name, nocc, eIr[nocc-1])
		default:
			s.log.Debugf("%s nocc = %d  HOMO = %.15g  LUMO = %.15g",
				ir.Name, nocc, eIr[nocc-1], eIr[nocc])
			if eIr[nocc-1]+1e-3 > elumo {
				s.log.Warnf("!! %s HOMO %.15g > system LUMO %.15g", ir.Name, eIr[nocc-1], elumo)
			}
			if eIr[nocc] < ehomo+1e-3 {
				s.log.Warnf("!! %s LUMO %.15g < system HOMO %.15g", ir.Name, eIr[nocc], ehomo)
			}
		}
		s.log.Debugf("   mo_energy = %v", eIr)
	}
}
