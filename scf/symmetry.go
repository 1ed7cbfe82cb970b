// symmetry.go --  This file is part of goSCF project.
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

import "gonum.org/v1/gonum/mat"

// Irrep is one irreducible representation of the molecular point
// group. Block is the rectangular (nAO x dim) transform mapping the
// irrep's symmetry-adapted coordinates into the full AO basis. The
// blocks of a catalog are disjoint and together span the orbital
// space exactly once. A nil Block means the irrep spans no basis
// functions in the current system.
type Irrep struct {
	Name  string
	Block *mat.Dense
}

// Dim returns the number of symmetry-adapted functions in the irrep.
func (ir Irrep) Dim() int {
	if ir.Block == nil {
		return 0
	}
	_, c := ir.Block.Dims()
	return c
}

// NumAO returns the AO basis dimension of the catalog.
func NumAO(irreps []Irrep) int {
	for _, ir := range irreps {
		if ir.Block != nil {
			r, _ := ir.Block.Dims()
			return r
		}
	}
	return 0
}

// NumOrb returns the total orbital count of the catalog, the sum of
// the irrep dimensions.
func NumOrb(irreps []Irrep) int {
	n := 0
	for _, ir := range irreps {
		n += ir.Dim()
	}
	return n
}

// SymmetrizeMatrix projects an AO-basis operator into block-diagonal
// form along irrep boundaries: one B^T op B block per irrep, aligned
// with the catalog. Empty irreps yield nil entries.
func SymmetrizeMatrix(op mat.Matrix, irreps []Irrep) []*mat.Dense {
	blocks := make([]*mat.Dense, len(irreps))
	for i, ir := range irreps {
		if ir.Dim() == 0 {
			continue
		}
		var tmp, blk mat.Dense
		tmp.Mul(ir.Block.T(), op)
		blk.Mul(&tmp, ir.Block)
		blocks[i] = &blk
	}
	return blocks
}

// SOToAOCoeff transforms per-irrep coefficient matrices back to the
// AO basis, horizontally concatenating B_ir * C_ir in catalog order.
// The coeffs slice is aligned with the catalog; entries for empty
// irreps must be nil.
func SOToAOCoeff(irreps []Irrep, coeffs []*mat.Dense) *mat.Dense {
	nao := NumAO(irreps)
	nmo := 0
	for _, c := range coeffs {
		if c == nil {
			continue
		}
		_, cols := c.Dims()
		nmo += cols
	}
	out := mat.NewDense(nao, nmo, nil)
	col := 0
	for i, ir := range irreps {
		if coeffs[i] == nil {
			continue
		}
		var ao mat.Dense
		ao.Mul(ir.Block, coeffs[i])
		_, c := ao.Dims()
		out.Slice(0, nao, col, col+c).(*mat.Dense).Copy(&ao)
		col += c
	}
	return out
}

// OrbSymLabels returns the irrep label of every orbital column in
// catalog order, matching the concatenation done by SOToAOCoeff.
func OrbSymLabels(irreps []Irrep) []string {
	labels := make([]string, 0, NumOrb(irreps))
	for _, ir := range irreps {
		for k := 0; k < ir.Dim(); k++ {
			labels = append(labels, ir.Name)
		}
	}
	return labels
}
