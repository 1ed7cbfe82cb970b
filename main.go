// main.go --  This file is part of goSCF project.
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

// Command goscf runs a symmetry-adapted restricted (open-shell)
// Hartree-Fock calculation on a hydrogen diatomic, driving the scf
// package through the Fock build / eigensolve / occupation cycle.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"goscf/scf"
)

var (
	WarningLogger *log.Logger
	InfoLogger    *log.Logger
	ErrorLogger   *log.Logger
	OutputLogger  *log.Logger
)

func initLog(w io.Writer) {
	InfoLogger = log.New(w, "INFO: ", log.Ldate|log.Ltime)
	WarningLogger = log.New(w, "WARNING: ", log.Ldate|log.Ltime)
	ErrorLogger = log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	OutputLogger = log.New(w, "", 0)
}

type runParams struct {
	Distance   float64
	Basis      string
	Charge     int
	Spin       int
	MaxCycles  int
	ConvTol    float64
	UseDIIS    bool
	DIISStart  int
	DIISSpace  int
	Damp       float64
	LevelShift float64
	IrrepNelec map[string]scf.Nelec
	Chkfile    string
	PlotFile   string
	Verbose    int
}

// loadParams reads the runcard. With an empty path a goscf.yaml in
// the working directory is used when present, defaults otherwise.
func loadParams(cfgFile string) (runParams, error) {
	v := viper.New()
	v.SetDefault("distance", 1.4)
	v.SetDefault("basis", "sto-3g")
	v.SetDefault("charge", 0)
	v.SetDefault("spin", 0)
	v.SetDefault("max_cycles", 50)
	v.SetDefault("conv_tol", 1e-8)
	v.SetDefault("diis", true)
	v.SetDefault("diis_start", 1)
	v.SetDefault("diis_space", 8)
	v.SetDefault("damp", 0.0)
	v.SetDefault("level_shift", 0.0)
	v.SetDefault("chkfile", "")
	v.SetDefault("plot", "")
	v.SetDefault("verbose", 1)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return runParams{}, err
		}
	} else {
		v.SetConfigName("goscf")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return runParams{}, err
			}
		}
	}

	p := runParams{
		Distance:   v.GetFloat64("distance"),
		Basis:      v.GetString("basis"),
		Charge:     v.GetInt("charge"),
		Spin:       v.GetInt("spin"),
		MaxCycles:  v.GetInt("max_cycles"),
		ConvTol:    v.GetFloat64("conv_tol"),
		UseDIIS:    v.GetBool("diis"),
		DIISStart:  v.GetInt("diis_start"),
		DIISSpace:  v.GetInt("diis_space"),
		Damp:       v.GetFloat64("damp"),
		LevelShift: v.GetFloat64("level_shift"),
		Chkfile:    v.GetString("chkfile"),
		PlotFile:   v.GetString("plot"),
		Verbose:    v.GetInt("verbose"),
		IrrepNelec: map[string]scf.Nelec{},
	}
	for name, val := range v.GetStringMap("irrep_nelec") {
		pin, err := parsePin(val)
		if err != nil {
			return runParams{}, fmt.Errorf("irrep_nelec[%s]: %w", name, err)
		}
		p.IrrepNelec[name] = pin
	}
	return p, nil
}

func parsePin(val any) (scf.Nelec, error) {
	switch x := val.(type) {
	case int:
		return scf.Pin(x), nil
	case float64:
		return scf.Pin(int(x)), nil
	case []any:
		if len(x) != 2 {
			return scf.Nelec{}, fmt.Errorf("want [alpha, beta], got %v", x)
		}
		a, aok := toInt(x[0])
		b, bok := toInt(x[1])
		if !aok || !bok {
			return scf.Nelec{}, fmt.Errorf("want [alpha, beta], got %v", x)
		}
		return scf.PinAB(a, b), nil
	default:
		return scf.Nelec{}, fmt.Errorf("want int or [alpha, beta], got %T", val)
	}
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	}
	return 0, false
}

type runResult struct {
	ETot       float64
	Converged  bool
	Cycles     int
	MOEnergy   []float64
	MOOcc      []float64
	OrbSym     []string
	IrrepNelec map[string]int
	History    []float64
}

// run performs the SCF fixed-point iteration: Fock build, per-irrep
// eigensolve, occupation assignment, new density. On convergence the
// orbital set is finalized into canonical order.
func run(p runParams, logw io.Writer) (*runResult, error) {
	mol, atoms, nPerAtom, err := HydrogenPair(p.Distance, p.Basis)
	if err != nil {
		return nil, err
	}
	s1e := Overlap(mol)
	h1e := Kinetic(mol)
	h1e.Add(h1e, NucAttraction(mol, atoms))
	vee := ElecRepulsion(mol)
	enuc := NucRepulsion(atoms)

	nelec := 0
	for _, at := range atoms {
		nelec += at.Z
	}
	nelec -= p.Charge
	spin := p.Spin
	if spin == 0 && nelec%2 != 0 {
		// An odd electron count forces a doublet.
		spin = 1
	}
	kind := scf.ClosedShell
	if spin != 0 {
		kind = scf.OpenShell
	}
	irreps := DiatomicIrreps(nPerAtom)

	var chk scf.CheckpointWriter
	if p.Chkfile != "" {
		chk = scf.TxtCheckpoint{Path: p.Chkfile}
	}
	solver, err := scf.New(scf.Config{
		Kind:           kind,
		Irreps:         irreps,
		Nelec:          nelec,
		Spin:           spin,
		IrrepNelec:     matchIrrepNames(p.IrrepNelec, irreps),
		DIISStartCycle: p.DIISStart,
		Damp:           p.Damp,
		LevelShift:     p.LevelShift,
		Chk:            chk,
		Verbose:        p.Verbose,
		Log:            logw,
	})
	if err != nil {
		return nil, err
	}

	var adiis *scf.DIIS
	if p.UseDIIS {
		adiis = scf.NewDIIS(p.DIISSpace)
	}

	nao := len(mol)
	da := mat.NewDense(nao, nao, nil)
	db := mat.NewDense(nao, nao, nil)
	res := &runResult{}
	eTot, ePrev := 0.0, 0.0
	for cycle := 0; cycle < p.MaxCycles; cycle++ {
		ePrev = eTot
		vhf := buildVHF(kind, vee, da, db)
		f, err := solver.GetFock(h1e, s1e, vhf, densityPair(kind, da, db), cycle, adiis)
		if err != nil {
			return nil, err
		}
		if _, _, err := solver.Eig(f, s1e); err != nil {
			return nil, err
		}
		occ, err := solver.GetOcc(nil, nil)
		if err != nil {
			return nil, err
		}
		da, db = makeRdm1(solver.MOCoeff(), occ)
		eTot = energyElec(h1e, vhf, da, db) + enuc
		res.History = append(res.History, eTot)
		res.Cycles = cycle + 1

		dE := eTot - ePrev
		if adiis != nil {
			OutputLogger.Println("Iteration ", cycle+1, ". Energy = ", eTot, ", dE = ", dE, ", dRMS = ", adiis.Err())
		} else {
			OutputLogger.Println("Iteration ", cycle+1, ". Energy = ", eTot, ", dE = ", dE)
		}
		if cycle > 0 && math.Abs(dE) < p.ConvTol {
			res.Converged = true
			OutputLogger.Println("SCF converged after step ", cycle+1)
			break
		}
	}
	if !res.Converged {
		WarningLogger.Println("SCF NOT converged after step ", p.MaxCycles)
	}

	energies, _, occ, err := solver.Finalize(eTot)
	if err != nil {
		return nil, err
	}
	res.ETot = eTot
	res.MOEnergy = energies
	res.MOOcc = occ
	res.OrbSym = solver.OrbSym()
	res.IrrepNelec, err = solver.GetIrrepNelec(nil, nil, s1e)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// matchIrrepNames re-keys the pinned table onto the catalog's exact
// names; viper lowercases map keys on the way in.
func matchIrrepNames(pins map[string]scf.Nelec, irreps []scf.Irrep) map[string]scf.Nelec {
	out := make(map[string]scf.Nelec, len(pins))
	for name, pin := range pins {
		key := name
		for _, ir := range irreps {
			if strings.EqualFold(ir.Name, name) {
				key = ir.Name
				break
			}
		}
		out[key] = pin
	}
	return out
}

// makeRdm1 builds the per-spin density matrices: alpha from all
// occupied orbitals, beta from the doubly occupied ones. The total
// density is their sum for both solver kinds.
func makeRdm1(coeff *mat.Dense, occ []float64) (da, db *mat.Dense) {
	nao, nmo := coeff.Dims()
	da = mat.NewDense(nao, nao, nil)
	db = mat.NewDense(nao, nao, nil)
	for k := 0; k < nmo; k++ {
		if occ[k] <= 0 {
			continue
		}
		for i := 0; i < nao; i++ {
			ci := coeff.At(i, k)
			for j := 0; j < nao; j++ {
				v := ci * coeff.At(j, k)
				da.Set(i, j, da.At(i, j)+v)
				if occ[k] == 2 {
					db.Set(i, j, db.At(i, j)+v)
				}
			}
		}
	}
	return da, db
}

func densityPair(kind scf.Kind, da, db *mat.Dense) scf.SpinMatrix {
	if kind == scf.OpenShell {
		return scf.SpinMatrix{Alpha: da, Beta: db}
	}
	dtot := &mat.Dense{}
	dtot.Add(da, db)
	return scf.SpinMatrix{Alpha: dtot}
}

// buildVHF contracts the two-electron tensor with the density:
// Coulomb from the total density, exchange per spin channel. The
// closed-shell case collapses to the single combined potential.
func buildVHF(kind scf.Kind, vee [][][][]float64, da, db *mat.Dense) scf.SpinMatrix {
	nao, _ := da.Dims()
	j := mat.NewDense(nao, nao, nil)
	ka := mat.NewDense(nao, nao, nil)
	kb := mat.NewDense(nao, nao, nil)
	for i := 0; i < nao; i++ {
		for jj := 0; jj < nao; jj++ {
			sumJ, sumKa, sumKb := 0.0, 0.0, 0.0
			for k := 0; k < nao; k++ {
				for l := 0; l < nao; l++ {
					sumJ += (da.At(k, l) + db.At(k, l)) * vee[i][jj][k][l]
					sumKa += da.At(k, l) * vee[i][l][k][jj]
					sumKb += db.At(k, l) * vee[i][l][k][jj]
				}
			}
			j.Set(i, jj, sumJ)
			ka.Set(i, jj, sumKa)
			kb.Set(i, jj, sumKb)
		}
	}
	vhfa := &mat.Dense{}
	vhfa.Sub(j, ka)
	if kind == scf.ClosedShell {
		return scf.SpinMatrix{Alpha: vhfa}
	}
	vhfb := &mat.Dense{}
	vhfb.Sub(j, kb)
	return scf.SpinMatrix{Alpha: vhfa, Beta: vhfb}
}

// energyElec is the spin-resolved electronic energy
// E = 1/2 [ tr((Da+Db)h) + tr(Da Fa) + tr(Db Fb) ].
func energyElec(h1e *mat.Dense, vhf scf.SpinMatrix, da, db *mat.Dense) float64 {
	vhfa := vhf.Alpha
	vhfb := vhf.Beta
	if vhfb == nil {
		vhfb = vhf.Alpha
	}
	fa := &mat.Dense{}
	fa.Add(h1e, vhfa)
	fb := &mat.Dense{}
	fb.Add(h1e, vhfb)
	dtot := &mat.Dense{}
	dtot.Add(da, db)
	return 0.5 * (traceDot(dtot, h1e) + traceDot(da, fa) + traceDot(db, fb))
}

// traceDot is tr(A B) for symmetric matrices.
func traceDot(a, b *mat.Dense) float64 {
	var t mat.Dense
	t.MulElem(a, b)
	return mat.Sum(&t)
}

// saveConvergencePlot writes the total-energy history as a PNG line
// plot.
func saveConvergencePlot(history []float64, path string) error {
	p := plot.New()
	p.Title.Text = "SCF convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "total energy / hartree"
	pts := make(plotter.XYs, len(history))
	for i, e := range history {
		pts[i].X = float64(i + 1)
		pts[i].Y = e
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), line)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func printOutputDelimiter() {
	OutputLogger.Println(strings.Repeat("-", 70))
}

func main() {
	initLog(os.Stdout)

	var cfgFile string
	if len(os.Args) > 1 {
		cfgFile = os.Args[1]
	}
	p, err := loadParams(cfgFile)
	if err != nil {
		ErrorLogger.Fatal("Cannot read runcard: ", err)
	}

	InfoLogger.Println("Starting goSCF...")
	OutputLogger.Printf("H2 system: d = %g bohr, basis = %s, charge = %d, spin = %d",
		p.Distance, p.Basis, p.Charge, p.Spin)
	printOutputDelimiter()

	res, err := run(p, os.Stdout)
	if err != nil {
		ErrorLogger.Fatal("SCF failed: ", err)
	}

	printOutputDelimiter()
	OutputLogger.Println("Final total energy = ", res.ETot, " a.u.")
	printOutputDelimiter()

	OutputLogger.Println("Electrons per irrep: ", res.IrrepNelec)
	for k := range res.MOEnergy {
		OutputLogger.Printf("MO #%-3d (%s) energy= %-18.15g occ= %g",
			k+1, res.OrbSym[k], res.MOEnergy[k], res.MOOcc[k])
	}

	if p.PlotFile != "" {
		if err := saveConvergencePlot(res.History, p.PlotFile); err != nil {
			WarningLogger.Println("Cannot write convergence plot: ", err)
		} else {
			InfoLogger.Println("Convergence plot written to ", p.PlotFile)
		}
	}
	InfoLogger.Println("goSCF done.")
}
