package scf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func assertDenseEqual(t *testing.T, want, got *mat.Dense, tol float64) {
	t.Helper()
	r, c := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, r, gr)
	require.Equal(t, c, gc)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, want.At(i, j), got.At(i, j), tol, "element (%d,%d)", i, j)
		}
	}
}

func TestRoothaanEffectiveFockEqualSpins(t *testing.T) {
	// With focka == fockb every block of the effective operator reduces
	// to the same matrix, so the construction must return it exactly.
	f := mat.NewDense(3, 3, []float64{
		1, 0.2, 0.3,
		0.2, 2, 0.4,
		0.3, 0.4, 3,
	})
	dm := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		0, 1, 0,
		0, 0, 0,
	})
	out, err := RoothaanEffectiveFock(f, f, dm, eye(3), 1, 2)
	require.NoError(t, err)
	assertDenseEqual(t, f, out, 1e-10)
}

func TestRoothaanEffectiveFockBlending(t *testing.T) {
	// Identity overlap and a diagonal density make the natural-orbital
	// basis the AO basis itself: the blended blocks can be read off.
	fa := mat.NewDense(3, 3, []float64{
		1, 0.5, 0.2,
		0.5, 2, 0.3,
		0.2, 0.3, 3,
	})
	fb := mat.NewDense(3, 3, []float64{
		1.4, 0.1, 0.6,
		0.1, 1.8, 0.7,
		0.6, 0.7, 2.4,
	})
	dm := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		0, 1, 0,
		0, 0, 0,
	})
	out, err := RoothaanEffectiveFock(fa, fb, dm, eye(3), 1, 2)
	require.NoError(t, err)

	// Diagonal and closed-virtual coupling take the spin average.
	assert.InDelta(t, 1.2, out.At(0, 0), 1e-10)
	assert.InDelta(t, 1.9, out.At(1, 1), 1e-10)
	assert.InDelta(t, 2.7, out.At(2, 2), 1e-10)
	assert.InDelta(t, 0.4, out.At(0, 2), 1e-10)
	// Closed-open couples through fb, open-virtual through fa.
	assert.InDelta(t, fb.At(0, 1), out.At(0, 1), 1e-10)
	assert.InDelta(t, fb.At(1, 0), out.At(1, 0), 1e-10)
	assert.InDelta(t, fa.At(2, 1), out.At(2, 1), 1e-10)
	assert.InDelta(t, fa.At(1, 2), out.At(1, 2), 1e-10)
}

func TestRoothaanEffectiveFockBadPartition(t *testing.T) {
	f := eye(2)
	_, err := RoothaanEffectiveFock(f, f, eye(2), eye(2), 2, 1)
	require.Error(t, err)
}

func TestDampFockZeroFactorPassThrough(t *testing.T) {
	f := mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 2})
	out := dampFock(eye(2), eye(2), f, 0)
	assert.Same(t, f, out)
}

func TestDampFock(t *testing.T) {
	// S = I, D = diag(1,0), damp = 1: the off-diagonal coupling is
	// attenuated by factor/(factor+1) = 1/2, diagonals untouched.
	f := mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 2})
	d := mat.NewDense(2, 2, []float64{1, 0, 0, 0})
	out := dampFock(eye(2), d, f, 1)
	want := mat.NewDense(2, 2, []float64{1, 0.25, 0.25, 2})
	assertDenseEqual(t, want, out, 1e-12)
}

func TestLevelShiftFock(t *testing.T) {
	// S = I, D = diag(1,0): only the virtual diagonal moves up.
	f := mat.NewDense(2, 2, []float64{-1, 0.2, 0.2, 0.5})
	d := mat.NewDense(2, 2, []float64{1, 0, 0, 0})
	out := levelShiftFock(eye(2), d, f, 0.5)
	want := mat.NewDense(2, 2, []float64{-1, 0.2, 0.2, 1.0})
	assertDenseEqual(t, want, out, 1e-12)

	assert.Same(t, f, levelShiftFock(eye(2), d, f, 0))
}

func twoOrbitalIrreps() []Irrep {
	b := eye(2)
	return []Irrep{{Name: "A", Block: b}}
}

func TestGetFockClosedPlain(t *testing.T) {
	s := newTestSolver(t, Config{Kind: ClosedShell, Irreps: twoOrbitalIrreps(), Nelec: 2})
	h1e := mat.NewDense(2, 2, []float64{-1, 0, 0, 0.5})
	vhf := mat.NewDense(2, 2, []float64{0.3, 0.1, 0.1, 0.4})
	f, err := s.GetFock(h1e, eye(2), SpinMatrix{Alpha: vhf}, SpinMatrix{}, 0, nil)
	require.NoError(t, err)
	want := &mat.Dense{}
	want.Add(h1e, vhf)
	assertDenseEqual(t, want, f, 1e-14)
}

func TestGetFockClosedMissingPotential(t *testing.T) {
	s := newTestSolver(t, Config{Kind: ClosedShell, Irreps: twoOrbitalIrreps(), Nelec: 2})
	_, err := s.GetFock(eye(2), eye(2), SpinMatrix{}, SpinMatrix{}, 0, nil)
	require.Error(t, err)
}

func TestGetFockOpenEqualSpinPotentials(t *testing.T) {
	// Equal spin potentials collapse the Roothaan blend back to the
	// plain Fock matrix.
	s := newTestSolver(t, Config{Kind: OpenShell, Irreps: twoOrbitalIrreps(), Nelec: 3, Spin: 1})
	h1e := mat.NewDense(2, 2, []float64{-1, 0.1, 0.1, 0.5})
	vhf := mat.NewDense(2, 2, []float64{0.3, 0.05, 0.05, 0.4})
	dm := mat.NewDense(2, 2, []float64{2, 0, 0, 1})

	f, err := s.GetFock(h1e, eye(2), SpinMatrix{Alpha: vhf, Beta: vhf},
		SpinMatrix{Alpha: dm}, 0, nil)
	require.NoError(t, err)
	want := &mat.Dense{}
	want.Add(h1e, vhf)
	assertDenseEqual(t, want, f, 1e-10)
}

func TestGetFockOpenStoresSpinEnergies(t *testing.T) {
	s := newTestSolver(t, Config{Kind: OpenShell, Irreps: twoOrbitalIrreps(), Nelec: 3, Spin: 1})
	h1e := mat.NewDense(2, 2, []float64{-1, 0.1, 0.1, 0.5})
	vhfA := mat.NewDense(2, 2, []float64{0.3, 0.05, 0.05, 0.4})
	vhfB := mat.NewDense(2, 2, []float64{0.5, 0.02, 0.02, 0.6})
	da := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	db := mat.NewDense(2, 2, []float64{1, 0, 0, 0})

	f, err := s.GetFock(h1e, eye(2), SpinMatrix{Alpha: vhfA, Beta: vhfB},
		SpinMatrix{Alpha: da, Beta: db}, 0, nil)
	require.NoError(t, err)
	_, _, err = s.Eig(f, eye(2))
	require.NoError(t, err)

	ea, eb := s.MOEnergyAB()
	require.Len(t, ea, 2)
	require.Len(t, eb, 2)
	// The beta potential dominates the alpha one everywhere, so the
	// projected beta energies sit strictly above the alpha ones.
	for k := range ea {
		assert.Greater(t, eb[k], ea[k])
	}
}

func TestGetFockOpenMissingDensity(t *testing.T) {
	s := newTestSolver(t, Config{Kind: OpenShell, Irreps: twoOrbitalIrreps(), Nelec: 3, Spin: 1})
	v := eye(2)
	_, err := s.GetFock(eye(2), eye(2), SpinMatrix{Alpha: v, Beta: v}, SpinMatrix{}, 0, nil)
	require.Error(t, err)
}
