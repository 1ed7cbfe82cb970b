// rohf.go --  This file is part of goSCF project.
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

import "fmt"

// getOccOpen assigns 0/1/2 occupations for the restricted open-shell
// case. Pinned irreps receive exactly their (alpha, beta) electrons;
// the remaining orbitals are pooled across irreps and filled so the
// global alpha-beta excess equals the configured spin.
func (s *Solver) getOccOpen(moEnergy []float64, orbSym []string) ([]float64, error) {
	moEa, moEb := s.moEnergyA, s.moEnergyB
	if moEa == nil || moEb == nil {
		// Before the first effective-Fock build the Roothaan energies
		// are the only energies there are.
		moEa, moEb = moEnergy, moEnergy
	}
	if len(moEa) != len(moEnergy) || len(moEb) != len(moEnergy) {
		return nil, fmt.Errorf("got %d per-spin energies for %d orbitals",
			len(moEa), len(moEnergy))
	}

	occ := make([]float64, len(moEnergy))
	var restIdx []int
	naFix, nbFix := 0, 0
	for _, ir := range s.irreps {
		irIdx := indicesWithLabel(orbSym, ir.Name)
		pin, ok := s.pinned[ir.Name]
		if !ok {
			restIdx = append(restIdx, irIdx...)
			continue
		}
		if pin.Alpha() > len(irIdx) {
			return nil, fmt.Errorf("irrep %s pinned to (%d,%d) electrons with only %d orbitals: %w",
				ir.Name, pin.Alpha(), pin.Beta(), len(irIdx), ErrIrrepNelec)
		}
		s.fillRoothaanOcc(occ, irIdx, moEnergy, moEa, moEb, pin.Beta(), pin.Alpha()-pin.Beta())
		naFix += pin.Alpha()
		nbFix += pin.Beta()
	}

	nelecFloat := s.nelec - naFix - nbFix
	if nelecFloat < 0 {
		return nil, fmt.Errorf("%d electrons pinned but only %d available: %w",
			naFix+nbFix, s.nelec, ErrIrrepNelec)
	}
	if len(restIdx) > 0 || nelecFloat > 0 {
		nopen := s.spin - (naFix - nbFix)
		if nopen < 0 {
			return nil, fmt.Errorf("pinned alpha-beta=%d exceeds spin=%d: %w",
				naFix-nbFix, s.spin, ErrIrrepNelec)
		}
		if (nelecFloat-nopen)%2 != 0 {
			return nil, fmt.Errorf("%d free electrons cannot host %d open shells: %w",
				nelecFloat, nopen, ErrIrrepNelec)
		}
		ncore := (nelecFloat - nopen) / 2
		if ncore < 0 {
			return nil, fmt.Errorf("%d free electrons for %d open shells: %w",
				nelecFloat, nopen, ErrIrrepNelec)
		}
		if ncore+nopen > len(restIdx) {
			return nil, fmt.Errorf("%d free electrons but only %d unpinned orbitals: %w",
				nelecFloat, len(restIdx), ErrIrrepNelec)
		}
		s.fillRoothaanOcc(occ, restIdx, moEnergy, moEa, moEb, ncore, nopen)
	}

	s.reportOccOpen(moEnergy, moEa, moEb, occ, orbSym)
	return occ, nil
}

// fillRoothaanOcc orders the block's orbitals by the Roothaan
// effective energy, doubly occupies the lowest ncore, singly occupies
// the next nopen, and leaves the rest virtual. With nopen == 0 this
// degenerates to the closed-shell fill. The spin role of a singly
// occupied orbital follows whichever spin energy is lower there.
func (s *Solver) fillRoothaanOcc(occ []float64, idx []int, moEnergy, moEa, moEb []float64, ncore, nopen int) {
	order := sortedByEnergy(idx, moEnergy)
	for k, j := range order {
		switch {
		case k < ncore:
			occ[j] = 2
		case k < ncore+nopen:
			occ[j] = 1
			role := "alpha"
			if moEb[j] < moEa[j] {
				role = "beta"
			}
			s.log.Debugf("open-shell orbital %d occupied as %s (ea=%.10g eb=%.10g)",
				j, role, moEa[j], moEb[j])
		}
	}
}

// reportOccOpen logs HOMO/LUMO, the per-irrep double/single occupancy
// split, and the Roothaan/alpha/beta energy table of the open shells.
func (s *Solver) reportOccOpen(moEnergy, moEa, moEb, occ []float64, orbSym []string) {
	ehomo, ihomo, elumo, ilumo := frontierOrbitals(moEnergy, occ)
	if ihomo < 0 || ilumo < 0 {
		return
	}
	s.log.Infof("HOMO (%s) = %.15g  LUMO (%s) = %.15g",
		orbSym[ihomo], ehomo, orbSym[ilumo], elumo)
	if s.log.verbose < VerboseDebug {
		return
	}
	ndoccs := make([]int, len(s.irreps))
	nsoccs := make([]int, len(s.irreps))
	for i, ir := range s.irreps {
		for _, j := range indicesWithLabel(orbSym, ir.Name) {
			switch occ[j] {
			case 2:
				ndoccs[i]++
			case 1:
				nsoccs[i]++
			}
		}
	}
	s.log.Debugf("double occ irrep_nelec = %v", ndoccs)
	s.log.Debugf("single occ irrep_nelec = %v", nsoccs)
	s.log.Debugf("                  Roothaan           | alpha              | beta")
	for j, o := range occ {
		if o == 1 {
			s.log.Debugf("  1-occ =         %18.15g | %18.15g | %18.15g",
				moEnergy[j], moEa[j], moEb[j])
		}
	}
	s.dumpMOEnergy(moEnergy, occ, orbSym, ehomo, elumo)
}
