// scf.go --  This file is part of goSCF project.
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

// Package scf implements the symmetry-adapted eigensolving and
// orbital-occupation core of restricted and restricted-open-shell
// Hartree-Fock. The SCF fixed-point iteration itself lives in the
// driver; this package provides the per-cycle building blocks:
// per-irrep generalized eigensolve, occupation assignment under
// per-irrep electron pinning, the Roothaan effective Fock operator,
// and the terminal canonical reordering of the orbital set.
package scf

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Kind selects between the closed-shell (RHF) and open-shell (ROHF)
// occupation and Fock rules. The eigensolve and finalize paths are shared.
type Kind int

const (
	ClosedShell Kind = iota
	OpenShell
)

// Verbosity levels for the solver logger.
const (
	VerboseQuiet = 0
	VerboseInfo  = 1
	VerboseDebug = 2
)

var (
	// ErrIrrepNelec marks configuration errors in the per-irrep
	// electron constraint table.
	ErrIrrepNelec = errors.New("bad irrep_nelec configuration")
	// ErrEigenFailed marks fatal numerical errors in a generalized
	// eigensolve (singular overlap block or failed factorization).
	ErrEigenFailed = errors.New("generalized eigensolve failed")
)

// Nelec pins the electron count of one irrep. Build with Pin for a
// total count (split alpha-heavy for odd counts) or PinAB for an
// explicit (alpha, beta) pair.
type Nelec struct {
	alpha, beta int
}

func Pin(n int) Nelec {
	b := n / 2
	return Nelec{alpha: n - b, beta: b}
}

func PinAB(alpha, beta int) Nelec {
	return Nelec{alpha: alpha, beta: beta}
}

func (n Nelec) Alpha() int { return n.alpha }
func (n Nelec) Beta() int  { return n.beta }
func (n Nelec) Total() int { return n.alpha + n.beta }

// Config is the immutable per-solver configuration. The constraint
// table is validated once in New and never mutated afterwards.
type Config struct {
	Kind   Kind
	Irreps []Irrep

	// Nelec is the total electron count; Spin is the excess of alpha
	// over beta electrons (2S). Spin must be zero for ClosedShell.
	Nelec int
	Spin  int

	// IrrepNelec pins electron counts for named irreps. Irreps not
	// listed are filled by ascending orbital energy.
	IrrepNelec map[string]Nelec

	// DIISStartCycle gates damping (applied strictly before it) and
	// DIIS extrapolation (applied from it on).
	DIISStartCycle int
	Damp           float64
	LevelShift     float64

	// Chk receives the canonical orbital set from Finalize. Nil means
	// no checkpointing.
	Chk CheckpointWriter

	Verbose int
	Log     io.Writer
}

// Solver holds the validated configuration and the orbital set of the
// current SCF cycle. It is not safe for concurrent use; the SCF loop
// is single-writer by contract.
type Solver struct {
	kind       Kind
	irreps     []Irrep
	nelec      int
	spin       int
	pinned     map[string]Nelec
	diisStart  int
	damp       float64
	levelShift float64
	chk        CheckpointWriter
	log        *Logger

	// Spin Fock matrices in AO basis from the latest GetFock call.
	// Eig projects them onto the new coefficients to obtain the
	// per-spin orbital energies (open shell only).
	fockA, fockB *mat.Dense

	moEnergy   []float64
	moCoeff    *mat.Dense
	moOcc      []float64
	moEnergyA  []float64
	moEnergyB  []float64
	orbSym     []string
}

// New validates cfg and returns a ready solver. Configuration errors
// (overcommitted or inconsistent electron pinning) are reported here,
// before any eigensolve. Unknown irrep names in the constraint table
// are demoted to warnings and dropped.
func New(cfg Config) (*Solver, error) {
	if len(cfg.Irreps) == 0 {
		return nil, fmt.Errorf("no irreps in catalog: %w", ErrIrrepNelec)
	}
	if cfg.Nelec < 0 || cfg.Spin < 0 {
		return nil, fmt.Errorf("nelec=%d spin=%d: %w", cfg.Nelec, cfg.Spin, ErrIrrepNelec)
	}
	if cfg.Kind == ClosedShell && cfg.Spin != 0 {
		return nil, fmt.Errorf("closed shell with spin=%d: %w", cfg.Spin, ErrIrrepNelec)
	}
	if (cfg.Nelec-cfg.Spin)%2 != 0 {
		return nil, fmt.Errorf("nelec=%d incompatible with spin=%d: %w",
			cfg.Nelec, cfg.Spin, ErrIrrepNelec)
	}

	w := cfg.Log
	if w == nil {
		w = os.Stdout
	}
	s := &Solver{
		kind:       cfg.Kind,
		irreps:     cfg.Irreps,
		nelec:      cfg.Nelec,
		spin:       cfg.Spin,
		diisStart:  cfg.DIISStartCycle,
		damp:       cfg.Damp,
		levelShift: cfg.LevelShift,
		chk:        cfg.Chk,
		log:        NewLogger(w, cfg.Verbose),
	}
	if err := s.checkIrrepNelec(cfg.IrrepNelec); err != nil {
		return nil, err
	}
	return s, nil
}

// checkIrrepNelec validates the constraint table against the irrep
// catalog and the global electron/spin counts, keeping only entries
// for known irreps.
func (s *Solver) checkIrrepNelec(table map[string]Nelec) error {
	dims := make(map[string]int, len(s.irreps))
	for _, ir := range s.irreps {
		dims[ir.Name] = ir.Dim()
	}

	s.pinned = make(map[string]Nelec, len(table))
	naFix, nbFix := 0, 0
	var floating []string
	for name, pin := range table {
		dim, known := dims[name]
		if !known {
			s.log.Warnf("!! No irrep %s", name)
			continue
		}
		if pin.alpha < 0 || pin.beta < 0 {
			return fmt.Errorf("irrep %s pinned to (%d,%d): %w",
				name, pin.alpha, pin.beta, ErrIrrepNelec)
		}
		if pin.alpha < pin.beta {
			return fmt.Errorf("irrep %s pinned to alpha=%d < beta=%d: %w",
				name, pin.alpha, pin.beta, ErrIrrepNelec)
		}
		if s.kind == ClosedShell && pin.alpha != pin.beta {
			return fmt.Errorf("irrep %s pinned to odd count %d in closed shell: %w",
				name, pin.Total(), ErrIrrepNelec)
		}
		if pin.alpha > dim {
			return fmt.Errorf("irrep %s pinned to %d electrons with only %d orbitals: %w",
				name, pin.Total(), dim, ErrIrrepNelec)
		}
		naFix += pin.alpha
		nbFix += pin.beta
		s.pinned[name] = pin
	}
	for _, ir := range s.irreps {
		if _, ok := s.pinned[ir.Name]; !ok {
			floating = append(floating, ir.Name)
		}
	}

	fix := naFix + nbFix
	if fix > 0 {
		s.log.Infof("fix %d electrons in irreps %v", fix, s.pinned)
		if fix > s.nelec {
			return fmt.Errorf("%d electrons pinned but only %d available: %w",
				fix, s.nelec, ErrIrrepNelec)
		}
	}
	if s.spin < naFix-nbFix {
		return fmt.Errorf("pinned alpha-beta=%d exceeds spin=%d: %w",
			naFix-nbFix, s.spin, ErrIrrepNelec)
	}
	if len(floating) > 0 {
		s.log.Infof("%d free electrons in irreps %v", s.nelec-fix, floating)
	} else if fix != s.nelec {
		return fmt.Errorf("all irreps pinned to %d electrons, want %d: %w",
			fix, s.nelec, ErrIrrepNelec)
	} else if s.kind == OpenShell && naFix-nbFix != s.spin {
		return fmt.Errorf("all irreps pinned with alpha-beta=%d, want spin=%d: %w",
			naFix-nbFix, s.spin, ErrIrrepNelec)
	}
	return nil
}

// Accessors for the orbital set of the current cycle.

func (s *Solver) Kind() Kind           { return s.kind }
func (s *Solver) NumElectrons() int    { return s.nelec }
func (s *Solver) Spin() int            { return s.spin }
func (s *Solver) MOEnergy() []float64  { return s.moEnergy }
func (s *Solver) MOCoeff() *mat.Dense  { return s.moCoeff }
func (s *Solver) MOOcc() []float64     { return s.moOcc }
func (s *Solver) OrbSym() []string     { return s.orbSym }

// MOEnergyAB returns the per-spin orbital energies of the latest
// eigensolve. Both are nil for the closed-shell solver and before the
// first open-shell GetFock/Eig pair.
func (s *Solver) MOEnergyAB() ([]float64, []float64) {
	return s.moEnergyA, s.moEnergyB
}

// Logger is the leveled logger owned by a Solver. It wraps plain
// stdlib loggers with INFO/WARNING/ERROR prefixes plus an unprefixed
// output channel.
type Logger struct {
	verbose int
	info    *log.Logger
	warn    *log.Logger
	err     *log.Logger
	out     *log.Logger
}

func NewLogger(w io.Writer, verbose int) *Logger {
	return &Logger{
		verbose: verbose,
		info:    log.New(w, "INFO: ", log.Ldate|log.Ltime),
		warn:    log.New(w, "WARNING: ", log.Ldate|log.Ltime),
		err:     log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		out:     log.New(w, "", 0),
	}
}

func (l *Logger) Infof(format string, v ...any) {
	if l.verbose >= VerboseInfo {
		l.info.Printf(format, v...)
	}
}

func (l *Logger) Warnf(format string, v ...any) {
	if l.verbose >= VerboseInfo {
		l.warn.Printf(format, v...)
	}
}

func (l *Logger) Errorf(format string, v ...any) {
	l.err.Printf(format, v...)
}

func (l *Logger) Debugf(format string, v ...any) {
	if l.verbose >= VerboseDebug {
		l.out.Printf(format, v...)
	}
}

func (l *Logger) Outputf(format string, v ...any) {
	if l.verbose >= VerboseInfo {
		l.out.Printf(format, v...)
	}
}
