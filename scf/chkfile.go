// chkfile.go --  This file is part of goSCF project.
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
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// CheckpointWriter persists the canonical orbital set at the end of a
// converged SCF run. Writers are best effort: Finalize logs failures
// as warnings and proceeds.
type CheckpointWriter interface {
	DumpSCF(eTot float64, moEnergy []float64, moCoeff *mat.Dense, moOcc []float64) error
}

// TxtCheckpoint writes the orbital set as fixed-width text. An empty
// path is a configured no-op.
type TxtCheckpoint struct {
	Path string
}

func (t TxtCheckpoint) DumpSCF(eTot float64, moEnergy []float64, moCoeff *mat.Dense, moOcc []float64) error {
	if t.Path == "" {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "total energy %18.10f\n", eTot)
	b.WriteString("mo_energy\n")
	writeRow(&b, moEnergy)
	b.WriteString("mo_occ\n")
	writeRow(&b, moOcc)
	b.WriteString("mo_coeff\n")
	r, c := moCoeff.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			fmt.Fprintf(&b, "%12.6f", moCoeff.At(i, j))
		}
		b.WriteByte('\n')
	}
	return os.WriteFile(t.Path, []byte(b.String()), 0644)
}

func writeRow(b *strings.Builder, row []float64) {
	for _, v := range row {
		fmt.Fprintf(b, "%12.6f", v)
	}
	b.WriteByte('\n')
}
