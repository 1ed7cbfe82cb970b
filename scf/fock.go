// fock.go --  This file is part of goSCF project.
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

// SpinMatrix carries one matrix per spin channel. Closed-shell
// quantities set only Alpha (the combined matrix) and leave Beta nil.
// An open-shell density with nil Beta is interpreted as a total
// density and split evenly between the channels.
type SpinMatrix struct {
	Alpha, Beta *mat.Dense
}

// GetFock builds the Fock matrix for one SCF cycle. For the
// closed-shell solver this is h1e + vhf; for the open-shell solver it
// is the Roothaan effective Fock. Damping applies on cycles strictly
// before DIISStartCycle-1, DIIS extrapolation from DIISStartCycle on
// (when adiis is non-nil), and the level shift last; each is a
// pass-through when its factor is zero. A negative cycle disables the
// cycle-gated steps, matching a one-shot Fock build.
func (s *Solver) GetFock(h1e, s1e *mat.Dense, vhf, dm SpinMatrix, cycle int, adiis *DIIS) (*mat.Dense, error) {
	if s.kind == OpenShell {
		return s.getFockOpen(h1e, s1e, vhf, dm, cycle, adiis)
	}
	return s.getFockClosed(h1e, s1e, vhf, dm, cycle, adiis)
}

func (s *Solver) getFockClosed(h1e, s1e *mat.Dense, vhf, dm SpinMatrix, cycle int, adiis *DIIS) (*mat.Dense, error) {
	if vhf.Alpha == nil {
		return nil, fmt.Errorf("closed-shell GetFock needs the combined potential in vhf.Alpha")
	}
	f := &mat.Dense{}
	f.Add(h1e, vhf.Alpha)

	d := dm.Alpha
	if d == nil {
		return f, nil
	}
	// The closed-shell density carries occupation 2; damping and the
	// level shift act on the per-spin half.
	half := &mat.Dense{}
	half.Scale(0.5, d)
	if 0 <= cycle && cycle < s.diisStart-1 && s.damp > 0 {
		f = dampFock(s1e, half, f, s.damp)
	}
	if adiis != nil && cycle >= s.diisStart {
		f = adiis.Update(s1e, d, f)
	}
	if s.levelShift > 0 {
		f = levelShiftFock(s1e, half, f, s.levelShift)
	}
	return f, nil
}

func (s *Solver) getFockOpen(h1e, s1e *mat.Dense, vhf, dm SpinMatrix, cycle int, adiis *DIIS) (*mat.Dense, error) {
	if vhf.Alpha == nil || vhf.Beta == nil {
		return nil, fmt.Errorf("open-shell GetFock needs both spin potentials")
	}
	dma, dmb := dm.Alpha, dm.Beta
	if dma == nil {
		return nil, fmt.Errorf("open-shell GetFock needs a density")
	}
	if dmb == nil {
		halfA := &mat.Dense{}
		halfA.Scale(0.5, dma)
		dma, dmb = halfA, halfA
	}

	focka := &mat.Dense{}
	focka.Add(h1e, vhf.Alpha)
	fockb := &mat.Dense{}
	fockb.Add(h1e, vhf.Beta)
	// Kept for the per-spin orbital energies derived in Eig.
	s.fockA, s.fockB = focka, fockb

	ncore := (s.nelec - s.spin) / 2
	nocc := ncore + s.spin
	dmsf := &mat.Dense{}
	dmsf.Add(dma, dmb)
	f, err := RoothaanEffectiveFock(focka, fockb, dmsf, s1e, ncore, nocc)
	if err != nil {
		return nil, err
	}

	if 0 <= cycle && cycle < s.diisStart-1 && s.damp > 0 {
		f = dampFock(s1e, dma, f, s.damp)
	}
	if adiis != nil && cycle >= s.diisStart {
		f = adiis.Update(s1e, dma, f)
	}
	if s.levelShift > 0 {
		f = levelShiftFock(s1e, dma, f, s.levelShift)
	}
	return f, nil
}

// RoothaanEffectiveFock combines the two spin Fock matrices into the
// single effective operator of restricted open-shell theory:
//
//	          closed   open   virtual
//	closed  |   Fc      Fb      Fc
//	open    |   Fb      Fc      Fa
//	virtual |   Fc      Fa      Fc      with Fc = (Fa+Fb)/2
//
// The core/open/virtual partition comes from the basis that
// diagonalizes the spin-summed density dm with decreasing eigenvalue:
// the first ncore columns are the doubly occupied space and the next
// nocc-ncore the singly occupied one. The blended operator is carried
// back to the AO representation through M^T*S.
func RoothaanEffectiveFock(focka, fockb, dm, s1e *mat.Dense, ncore, nocc int) (*mat.Dense, error) {
	n, _ := s1e.Dims()
	if ncore < 0 || nocc < ncore || nocc > n {
		return nil, fmt.Errorf("bad core/open partition ncore=%d nocc=%d nmo=%d", ncore, nocc, n)
	}
	m, err := naturalOrbitals(dm, s1e)
	if err != nil {
		return nil, err
	}

	fa := projectOperator(focka, m)
	fb := projectOperator(fockb, m)
	feff := &mat.Dense{}
	feff.Add(fa, fb)
	feff.Scale(0.5, feff)
	for i := 0; i < ncore; i++ {
		for j := ncore; j < nocc; j++ {
			feff.Set(i, j, fb.At(i, j))
			feff.Set(j, i, fb.At(j, i))
		}
	}
	for i := nocc; i < n; i++ {
		for j := ncore; j < nocc; j++ {
			feff.Set(i, j, fa.At(i, j))
			feff.Set(j, i, fa.At(j, i))
		}
	}

	// M^T S inverts the S-orthonormal basis change.
	var cinv, tmp, out mat.Dense
	cinv.Mul(m.T(), s1e)
	tmp.Mul(cinv.T(), feff)
	out.Mul(&tmp, &cinv)
	return &out, nil
}

// projectOperator forms M^T F M.
func projectOperator(f, m *mat.Dense) *mat.Dense {
	var tmp, out mat.Dense
	tmp.Mul(m.T(), f)
	out.Mul(&tmp, m)
	return &out
}

// dampFock mixes the Fock matrix with its projection on the current
// density, attenuating early-iteration oscillations:
//
//	F <- F - (I - S D) F D S * damp/(damp+1)   (symmetrized)
func dampFock(s1e, dm, f *mat.Dense, factor float64) *mat.Dense {
	if factor <= 0 {
		return f
	}
	n, _ := s1e.Dims()
	dmVir := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		dmVir.Set(i, i, 1)
	}
	var sd mat.Dense
	sd.Mul(s1e, dm)
	dmVir.Sub(dmVir, &sd)

	var t1, t2, f0 mat.Dense
	t1.Mul(dmVir, f)
	t2.Mul(&t1, dm)
	f0.Mul(&t2, s1e)
	var sym mat.Dense
	sym.Add(&f0, f0.T())
	sym.Scale(factor/(factor+1), &sym)

	out := &mat.Dense{}
	out.Sub(f, &sym)
	return out
}

// levelShiftFock raises the virtual-space diagonal by factor,
// leaving the occupied space untouched:
//
//	F <- F + (S - S D S) * factor
func levelShiftFock(s1e, dm, f *mat.Dense, factor float64) *mat.Dense {
	if factor <= 0 {
		return f
	}
	var sd, sds mat.Dense
	sd.Mul(s1e, dm)
	sds.Mul(&sd, s1e)
	var dmVir mat.Dense
	dmVir.Sub(s1e, &sds)
	dmVir.Scale(factor, &dmVir)

	out := &mat.Dense{}
	out.Add(f, &dmVir)
	return out
}
