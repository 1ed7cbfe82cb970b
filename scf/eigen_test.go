package scf

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestOverlapRoots(t *testing.T) {
	s := mat.NewDense(2, 2, []float64{1, 0.2, 0.2, 1})
	inv, half, err := overlapRoots(s)
	require.NoError(t, err)

	var sq, id mat.Dense
	sq.Mul(half, half)
	id.Mul(inv, half)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, s.At(i, j), sq.At(i, j), 1e-12)
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, id.At(i, j), 1e-12)
		}
	}
}

func TestOverlapRootsSingular(t *testing.T) {
	s := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	_, _, err := overlapRoots(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEigenFailed))
}

func TestEighGenSolvesGeneralizedProblem(t *testing.T) {
	h := mat.NewDense(3, 3, []float64{
		-1.2, 0.3, 0.1,
		0.3, 0.8, -0.4,
		0.1, -0.4, 2.0,
	})
	s := mat.NewDense(3, 3, []float64{
		1, 0.2, 0.0,
		0.2, 1, 0.1,
		0.0, 0.1, 1,
	})
	e, c, err := eighGen(h, s)
	require.NoError(t, err)
	require.Len(t, e, 3)

	// Ascending eigenvalues.
	assert.LessOrEqual(t, e[0], e[1])
	assert.LessOrEqual(t, e[1], e[2])

	// H c_k = e_k S c_k for every column.
	var hc, sc mat.Dense
	hc.Mul(h, c)
	sc.Mul(s, c)
	for k := 0; k < 3; k++ {
		for i := 0; i < 3; i++ {
			assert.InDelta(t, e[k]*sc.At(i, k), hc.At(i, k), 1e-10)
		}
	}

	// S-orthonormal columns.
	var csc mat.Dense
	csc.Mul(c.T(), &sc)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, csc.At(i, j), 1e-10)
		}
	}
}

func TestEighGenSingularOverlap(t *testing.T) {
	h := eye(2)
	s := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	_, _, err := eighGen(h, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEigenFailed))
}

func TestNaturalOrbitalsDiagonalizeDensity(t *testing.T) {
	dm := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		0, 1, 0,
		0, 0, 0,
	})
	s := eye(3)
	m, err := naturalOrbitals(dm, s)
	require.NoError(t, err)

	// M^T S M = I and M^T D M diagonal with decreasing entries.
	var sm, msm, dmm, mdm mat.Dense
	sm.Mul(s, m)
	msm.Mul(m.T(), &sm)
	dmm.Mul(dm, m)
	mdm.Mul(m.T(), &dmm)
	prev := math.Inf(1)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			wantI := 0.0
			if i == j {
				wantI = 1
			}
			assert.InDelta(t, wantI, msm.At(i, j), 1e-12)
			if i != j {
				assert.InDelta(t, 0, mdm.At(i, j), 1e-12)
			}
		}
		assert.LessOrEqual(t, mdm.At(i, i), prev+1e-12)
		prev = mdm.At(i, i)
	}
}

// blockSPD builds a 4x4 overlap that couples functions only within the
// unitIrreps partition, so the blockwise solve is exact.
func blockSPD() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0.2, 0, 0,
		0.2, 1, 0, 0,
		0, 0, 1, 0.1,
		0, 0, 0.1, 1,
	})
}

func TestEigBlockwiseMatchesDenseSolve(t *testing.T) {
	irreps := unitIrreps()
	h := mat.NewDense(4, 4, []float64{
		-0.5, 0.3, 0, 0,
		0.3, 0.7, 0, 0,
		0, 0, -1.1, 0.2,
		0, 0, 0.2, 0.4,
	})
	s := blockSPD()

	solver, err := New(Config{Kind: ClosedShell, Irreps: irreps, Nelec: 4, Log: io.Discard})
	require.NoError(t, err)
	e, c, err := solver.Eig(h, s)
	require.NoError(t, err)
	require.Len(t, e, 4)
	assert.Equal(t, []string{"X", "X", "Y", "Y"}, solver.OrbSym())

	eFull, _, err := eighGen(h, s)
	require.NoError(t, err)

	eSorted := append([]float64(nil), e...)
	for i := range eSorted {
		for j := i + 1; j < len(eSorted); j++ {
			if eSorted[j] < eSorted[i] {
				eSorted[i], eSorted[j] = eSorted[j], eSorted[i]
			}
		}
	}
	for i := range eFull {
		assert.InDelta(t, eFull[i], eSorted[i], 1e-10)
	}

	// Blockwise coefficients still solve the full problem.
	var hc, sc mat.Dense
	hc.Mul(h, c)
	sc.Mul(s, c)
	for k := 0; k < 4; k++ {
		for i := 0; i < 4; i++ {
			assert.InDelta(t, e[k]*sc.At(i, k), hc.At(i, k), 1e-10)
		}
	}
}

func TestEigSingularOverlapNamesIrrep(t *testing.T) {
	irreps := unitIrreps()
	s := blockSPD()
	// Make the X block linearly dependent.
	s.Set(0, 1, 1)
	s.Set(1, 0, 1)

	solver, err := New(Config{Kind: ClosedShell, Irreps: irreps, Nelec: 4, Log: io.Discard})
	require.NoError(t, err)
	_, _, err = solver.Eig(eye(4), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEigenFailed))
	assert.Contains(t, err.Error(), "irrep X")
}
