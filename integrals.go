// integrals.go --  This file is part of goSCF project.
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
package main

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"

	"goscf/scf"
)

// PrimitiveGaussian is one s-type primitive centered on an atom.
type PrimitiveGaussian struct {
	Alpha  float64
	Coeff  float64
	Coords [3]float64
}

func (p PrimitiveGaussian) normCoeff() float64 {
	return math.Pow(2*p.Alpha/math.Pi, 0.75)
}

// AO is a contracted atomic orbital.
type AO struct {
	PGs []PrimitiveGaussian
}

// Atom carries a nuclear charge and its position in bohr.
type Atom struct {
	Z      int
	Coords [3]float64
}

func dist2(a, b [3]float64) float64 {
	d := 0.0
	for i := range a {
		v := a[i] - b[i]
		d += v * v
	}
	return d
}

// productCenter is the center of the Gaussian product theorem:
// (a1*v1 + a2*v2) / (a1+a2).
func productCenter(a1 float64, v1 [3]float64, a2 float64, v2 [3]float64) [3]float64 {
	var res [3]float64
	p := a1 + a2
	for i := range res {
		res[i] = (a1*v1[i] + a2*v2[i]) / p
	}
	return res
}

// boys is the zeroth-order Boys function generalized to order n,
// evaluated through the regularized incomplete gamma function.
func boys(x float64, n int) float64 {
	nf := float64(n)
	if x == 0 {
		return 1.0 / (2.0*nf + 1)
	}
	return mathext.GammaIncReg(nf+0.5, x) * math.Gamma(nf+0.5) / (2.0 * math.Pow(x, nf+0.5))
}

// Overlap builds the AO overlap matrix.
func Overlap(m []AO) *mat.Dense {
	nao := len(m)
	res := mat.NewDense(nao, nao, nil)
	for i := 0; i < nao; i++ {
		for j := 0; j < nao; j++ {
			sum := 0.0
			for _, gi := range m[i].PGs {
				for _, gj := range m[j].PGs {
					n := gi.normCoeff() * gj.normCoeff()
					p := gi.Alpha + gj.Alpha
					q := gi.Alpha * gj.Alpha / p
					q2 := dist2(gi.Coords, gj.Coords)
					sum += n * gi.Coeff * gj.Coeff * math.Exp(-q*q2) * math.Pow(math.Pi/p, 1.5)
				}
			}
			res.Set(i, j, sum)
		}
	}
	return res
}

// Kinetic builds the AO kinetic-energy matrix.
func Kinetic(m []AO) *mat.Dense {
	nao := len(m)
	res := mat.NewDense(nao, nao, nil)
	for i := 0; i < nao; i++ {
		for j := 0; j < nao; j++ {
			sum := 0.0
			for _, gi := range m[i].PGs {
				for _, gj := range m[j].PGs {
					n := gi.normCoeff() * gj.normCoeff()
					p := gi.Alpha + gj.Alpha
					q := gi.Alpha * gj.Alpha / p
					q2 := dist2(gi.Coords, gj.Coords)
					pp := productCenter(gi.Alpha, gi.Coords, gj.Alpha, gj.Coords)

					s := n * gi.Coeff * gj.Coeff * math.Exp(-q*q2) * math.Pow(math.Pi/p, 1.5)
					sum += 3 * gj.Alpha * s
					for x := 0; x < 3; x++ {
						pg2 := (pp[x] - gj.Coords[x]) * (pp[x] - gj.Coords[x])
						sum -= 2 * gj.Alpha * gj.Alpha * s * (pg2 + 0.5/p)
					}
				}
			}
			res.Set(i, j, sum)
		}
	}
	return res
}

// NucAttraction builds the electron-nucleus attraction matrix.
func NucAttraction(m []AO, atoms []Atom) *mat.Dense {
	nao := len(m)
	res := mat.NewDense(nao, nao, nil)
	for _, at := range atoms {
		for i := 0; i < nao; i++ {
			for j := 0; j < nao; j++ {
				sum := res.At(i, j)
				for _, gi := range m[i].PGs {
					for _, gj := range m[j].PGs {
						n := gi.normCoeff() * gj.normCoeff()
						p := gi.Alpha + gj.Alpha
						q := gi.Alpha * gj.Alpha / p
						q2 := dist2(gi.Coords, gj.Coords)
						pp := productCenter(gi.Alpha, gi.Coords, gj.Alpha, gj.Coords)
						pg2 := dist2(pp, at.Coords)

						sum += -float64(at.Z) * n * gi.Coeff * gj.Coeff *
							math.Exp(-q*q2) * (2.0 * math.Pi / p) * boys(p*pg2, 0)
					}
				}
				res.Set(i, j, sum)
			}
		}
	}
	return res
}

// ElecRepulsion builds the full (ij|kl) two-electron tensor in
// chemists' notation. Fine for the driver's few-function systems.
func ElecRepulsion(m []AO) [][][][]float64 {
	nao := len(m)
	res := make([][][][]float64, nao)
	for i := range res {
		res[i] = make([][][]float64, nao)
		for j := range res[i] {
			res[i][j] = make([][]float64, nao)
			for k := range res[i][j] {
				res[i][j][k] = make([]float64, nao)
			}
		}
	}

	for i := range m {
		for j := range m {
			for k := range m {
				for l := range m {
					sum := 0.0
					for _, gi := range m[i].PGs {
						for _, gj := range m[j].PGs {
							for _, gk := range m[k].PGs {
								for _, gl := range m[l].PGs {
									n := gi.normCoeff() * gj.normCoeff() * gk.normCoeff() * gl.normCoeff()
									cc := gi.Coeff * gj.Coeff * gk.Coeff * gl.Coeff

									pij := gi.Alpha + gj.Alpha
									pkl := gk.Alpha + gl.Alpha
									ppij := productCenter(gi.Alpha, gi.Coords, gj.Alpha, gj.Coords)
									ppkl := productCenter(gk.Alpha, gk.Coords, gl.Alpha, gl.Coords)
									pp2 := dist2(ppij, ppkl)
									denom := 1.0/pij + 1.0/pkl

									qij := gi.Alpha * gj.Alpha / pij
									qkl := gk.Alpha * gl.Alpha / pkl
									q2ij := dist2(gi.Coords, gj.Coords)
									q2kl := dist2(gk.Coords, gl.Coords)

									term := 2.0 * math.Pi * math.Pi / (pij * pkl) *
										math.Sqrt(math.Pi/(pij+pkl)) *
										math.Exp(-qij*q2ij) * math.Exp(-qkl*q2kl)
									sum += n * cc * term * boys(pp2/denom, 0)
								}
							}
						}
					}
					res[i][j][k][l] = sum
				}
			}
		}
	}
	return res
}

// NucRepulsion is the classical nucleus-nucleus repulsion energy.
func NucRepulsion(atoms []Atom) float64 {
	res := 0.0
	for i := range atoms {
		for j := 0; j < i; j++ {
			res += float64(atoms[i].Z) * float64(atoms[j].Z) /
				math.Sqrt(dist2(atoms[i].Coords, atoms[j].Coords))
		}
	}
	return res
}

// sto3gH is the STO-3G hydrogen contraction (zeta = 1.24).
var sto3gH = []PrimitiveGaussian{
	{Alpha: 0.3425250914e+01, Coeff: 0.1543289673e+00},
	{Alpha: 0.6239137298e+00, Coeff: 0.5353281423e+00},
	{Alpha: 0.1688554040e+00, Coeff: 0.4446345422e+00},
}

// g631H is the 6-31G hydrogen basis: a 3-primitive inner function and
// an uncontracted outer one.
var g631H = [][]PrimitiveGaussian{
	{
		{Alpha: 0.1873113696e+02, Coeff: 0.3349460434e-01},
		{Alpha: 0.2825394365e+01, Coeff: 0.2347269535e+00},
		{Alpha: 0.6401216923e+00, Coeff: 0.8137573261e+00},
	},
	{
		{Alpha: 0.1612777588e+00, Coeff: 1.0},
	},
}

func centeredAO(prims []PrimitiveGaussian, at [3]float64) AO {
	pgs := make([]PrimitiveGaussian, len(prims))
	for i, p := range prims {
		p.Coords = at
		pgs[i] = p
	}
	return AO{PGs: pgs}
}

// HydrogenPair builds the AO list and atom list for two hydrogens
// separated by dist bohr along x, atom-major AO ordering. Returns the
// number of AOs per atom alongside.
func HydrogenPair(dist float64, basis string) ([]AO, []Atom, int, error) {
	atoms := []Atom{
		{Z: 1, Coords: [3]float64{0, 0, 0}},
		{Z: 1, Coords: [3]float64{dist, 0, 0}},
	}
	var sets [][]PrimitiveGaussian
	switch strings.ToLower(basis) {
	case "", "sto-3g":
		sets = [][]PrimitiveGaussian{sto3gH}
	case "6-31g":
		sets = g631H
	default:
		return nil, nil, 0, fmt.Errorf("unknown basis %q", basis)
	}
	var mol []AO
	for _, at := range atoms {
		for _, prims := range sets {
			mol = append(mol, centeredAO(prims, at.Coords))
		}
	}
	return mol, atoms, len(sets), nil
}

// DiatomicIrreps builds the sigma-g/sigma-u symmetry-adapted basis of
// a homonuclear diatomic: normalized symmetric and antisymmetric
// combinations of equivalent AOs on the two centers. AO ordering must
// be atom-major with nPerAtom functions per center.
func DiatomicIrreps(nPerAtom int) []scf.Irrep {
	nao := 2 * nPerAtom
	g := mat.NewDense(nao, nPerAtom, nil)
	u := mat.NewDense(nao, nPerAtom, nil)
	c := 1 / math.Sqrt2
	for k := 0; k < nPerAtom; k++ {
		g.Set(k, k, c)
		g.Set(k+nPerAtom, k, c)
		u.Set(k, k, c)
		u.Set(k+nPerAtom, k, -c)
	}
	return []scf.Irrep{
		{Name: "A1g", Block: g},
		{Name: "A1u", Block: u},
	}
}
