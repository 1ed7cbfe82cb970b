// eigen.go --  This file is part of goSCF project.
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
	"math"

	"gonum.org/v1/gonum/mat"
)

// Overlap eigenvalues below this are treated as a linearly dependent
// (singular) basis.
const overlapTol = 1e-10

// overlapRoots diagonalizes the symmetric positive-definite overlap s
// and returns S^{-1/2} and S^{1/2}.
func overlapRoots(s *mat.Dense) (inv, half *mat.Dense, err error) {
	n, _ := s.Dims()
	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(mat.NewSymDense(n, s.RawMatrix().Data), true); !ok {
		return nil, nil, fmt.Errorf("overlap eigendecomposition: %w", ErrEigenFailed)
	}
	vals := eigsym.Values(nil)
	if vals[0] < overlapTol {
		return nil, nil, fmt.Errorf("singular overlap block (smallest eigenvalue %g): %w",
			vals[0], ErrEigenFailed)
	}
	var u mat.Dense
	eigsym.VectorsTo(&u)

	sqrtVec := make([]float64, n)
	isqrtVec := make([]float64, n)
	for i, v := range vals {
		sqrtVec[i] = math.Sqrt(v)
		isqrtVec[i] = 1 / sqrtVec[i]
	}
	inv = rotateDiag(&u, isqrtVec)
	half = rotateDiag(&u, sqrtVec)
	return inv, half, nil
}

// rotateDiag forms U diag(d) U^T.
func rotateDiag(u *mat.Dense, d []float64) *mat.Dense {
	var tmp, out mat.Dense
	tmp.Mul(u, mat.NewDiagDense(len(d), d))
	out.Mul(&tmp, u.T())
	return &out
}

// eighGen solves the generalized symmetric eigenproblem H x = e S x
// through the S^{-1/2} transformation. Eigenvalues come out ascending.
func eighGen(h, s *mat.Dense) ([]float64, *mat.Dense, error) {
	sInv, _, err := overlapRoots(s)
	if err != nil {
		return nil, nil, err
	}
	n, _ := h.Dims()
	var f mat.Dense
	f.Mul(sInv, h)
	f.Mul(&f, sInv)

	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(mat.NewSymDense(n, f.RawMatrix().Data), true); !ok {
		return nil, nil, fmt.Errorf("transformed operator eigendecomposition: %w", ErrEigenFailed)
	}
	var v, c mat.Dense
	eigsym.VectorsTo(&v)
	c.Mul(sInv, &v)
	return eigsym.Values(nil), &c, nil
}

// naturalOrbitals solves the generalized eigenproblem on (-dm, s),
// returning the basis M whose columns diagonalize the density with
// eigenvalues in decreasing order and satisfy M^T S M = I. This is
// the core/open/virtual-partitioning basis of the Roothaan effective
// Fock construction.
func naturalOrbitals(dm, s *mat.Dense) (*mat.Dense, error) {
	sInv, sHalf, err := overlapRoots(s)
	if err != nil {
		return nil, err
	}
	n, _ := dm.Dims()
	var w mat.Dense
	w.Mul(sHalf, dm)
	w.Mul(&w, sHalf)
	w.Scale(-1, &w)

	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(mat.NewSymDense(n, w.RawMatrix().Data), true); !ok {
		return nil, fmt.Errorf("density eigendecomposition: %w", ErrEigenFailed)
	}
	var y, m mat.Dense
	eigsym.VectorsTo(&y)
	m.Mul(sInv, &y)
	return &m, nil
}

// Eig solves the generalized eigenproblem independently per irrep and
// concatenates the results in catalog order. The global energy array
// is NOT sorted by energy; within each irrep the energies ascend.
// For the open-shell solver the alpha/beta orbital energies are
// derived from the spin Fock matrices stored by the preceding GetFock.
func (s *Solver) Eig(h, ovlp mat.Matrix) ([]float64, *mat.Dense, error) {
	hBlocks := SymmetrizeMatrix(h, s.irreps)
	sBlocks := SymmetrizeMatrix(ovlp, s.irreps)

	var energies []float64
	coeffs := make([]*mat.Dense, len(s.irreps))
	for i, ir := range s.irreps {
		if ir.Dim() == 0 {
			continue
		}
		e, c, err := eighGen(hBlocks[i], sBlocks[i])
		if err != nil {
			return nil, nil, fmt.Errorf("irrep %s: %w", ir.Name, err)
		}
		energies = append(energies, e...)
		coeffs[i] = c
	}

	coeff := SOToAOCoeff(s.irreps, coeffs)
	s.moEnergy = energies
	s.moCoeff = coeff
	s.orbSym = OrbSymLabels(s.irreps)
	s.moOcc = nil
	if s.kind == OpenShell && s.fockA != nil {
		s.moEnergyA = projectedDiagonal(s.fockA, coeff)
		s.moEnergyB = projectedDiagonal(s.fockB, coeff)
	}
	return energies, coeff, nil
}

// projectedDiagonal returns e_k = c_k^T F c_k for every coefficient
// column, the expectation value of F in each orbital.
func projectedDiagonal(f *mat.Dense, coeff *mat.Dense) []float64 {
	var fc mat.Dense
	fc.Mul(f, coeff)
	nao, nmo := coeff.Dims()
	out := make([]float64, nmo)
	for k := 0; k < nmo; k++ {
		sum := 0.0
		for i := 0; i < nao; i++ {
			sum += coeff.At(i, k) * fc.At(i, k)
		}
		out[k] = sum
	}
	return out
}
