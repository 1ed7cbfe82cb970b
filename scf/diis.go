// diis.go --  This file is part of goSCF project.
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
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DIIS is a Pulay accelerator over Fock matrices. The solver consumes
// it only through Update; the subspace is bounded and evicts the
// oldest entry first.
type DIIS struct {
	space    int
	fList    []*mat.Dense
	resid    []*mat.Dense
	sInvHalf *mat.Dense
}

// NewDIIS returns an accelerator keeping at most space Fock/residual
// pairs. Non-positive space selects the default of 8.
func NewDIIS(space int) *DIIS {
	if space <= 0 {
		space = 8
	}
	return &DIIS{space: space}
}

// Update records the (f, dm) pair's residual A(FDS-SDF)A with
// A = S^{-1/2} and returns the extrapolated Fock matrix. With fewer
// than two recorded pairs, or when the extrapolation system is
// singular, the input Fock is returned unchanged.
func (d *DIIS) Update(s1e, dm, f *mat.Dense) *mat.Dense {
	d.fList = append(d.fList, mat.DenseCopyOf(f))
	d.resid = append(d.resid, d.residual(s1e, dm, f))
	if len(d.fList) > d.space {
		d.fList = d.fList[1:]
		d.resid = d.resid[1:]
	}
	if len(d.fList) < 2 {
		return mat.DenseCopyOf(f)
	}

	b := d.buildB()
	nf := len(d.fList)
	rhs := mat.NewVecDense(nf+1, nil)
	rhs.SetVec(nf, -1)

	var lu mat.LU
	lu.Factorize(b)
	var coefs mat.VecDense
	if err := lu.SolveVecTo(&coefs, false, rhs); err != nil {
		return mat.DenseCopyOf(f)
	}

	n, _ := f.Dims()
	out := mat.NewDense(n, n, nil)
	var part mat.Dense
	for j := range d.fList {
		part.Scale(coefs.AtVec(j), d.fList[j])
		out.Add(out, &part)
	}
	return out
}

// Err returns the root-mean-square of the latest residual, the dRMS
// convergence measure.
func (d *DIIS) Err() float64 {
	if len(d.resid) == 0 {
		return 0
	}
	r := mat.DenseCopyOf(d.resid[len(d.resid)-1])
	r.MulElem(r, r)
	return math.Sqrt(stat.Mean(r.RawMatrix().Data, nil))
}

// residual computes A(FDS-SDF)A. The whitening transform A is built
// once from the (cycle-invariant) overlap; if the overlap is singular
// the raw commutator is used instead.
func (d *DIIS) residual(s1e, dm, f *mat.Dense) *mat.Dense {
	if d.sInvHalf == nil {
		inv, _, err := overlapRoots(s1e)
		if err == nil {
			d.sInvHalf = inv
		}
	}
	var t1, t2 mat.Dense
	t1.Mul(f, dm)
	t1.Mul(&t1, s1e)
	t2.Mul(s1e, dm)
	t2.Mul(&t2, f)
	t1.Sub(&t1, &t2)
	if d.sInvHalf != nil {
		t1.Mul(d.sInvHalf, &t1)
		t1.Mul(&t1, d.sInvHalf)
	}
	return mat.DenseCopyOf(&t1)
}

// buildB assembles the Pulay B matrix: pairwise residual overlaps
// bordered by the -1 Lagrange row/column.
func (d *DIIS) buildB() *mat.Dense {
	nf := len(d.fList)
	b := mat.NewDense(nf+1, nf+1, nil)
	for i := 0; i < nf; i++ {
		b.Set(i, nf, -1)
		b.Set(nf, i, -1)
	}
	var prod mat.Dense
	for i := range d.resid {
		for j := range d.resid {
			prod.MulElem(d.resid[i], d.resid[j])
			b.Set(i, j, mat.Sum(&prod))
		}
	}
	return b
}
