package scf

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillRoothaanOcc(t *testing.T) {
	s := newTestSolver(t, Config{Kind: OpenShell, Irreps: waterIrreps(), Nelec: 9, Spin: 1})
	e := []float64{0.3, -1.0, 0.1, -0.2}
	occ := make([]float64, 4)
	s.fillRoothaanOcc(occ, []int{0, 1, 2, 3}, e, e, e, 1, 2)
	assert.Equal(t, []float64{0, 2, 1, 1}, occ)
}

func TestFillRoothaanOccClosedDegenerate(t *testing.T) {
	s := newTestSolver(t, Config{Kind: OpenShell, Irreps: waterIrreps(), Nelec: 9, Spin: 1})
	e := []float64{0.3, -1.0, 0.1, -0.2}
	occ := make([]float64, 4)
	s.fillRoothaanOcc(occ, []int{0, 1, 2, 3}, e, e, e, 2, 0)
	assert.Equal(t, []float64{0, 2, 0, 2}, occ)
}

func TestGetOccOpenAufbau(t *testing.T) {
	s := newTestSolver(t, Config{Kind: OpenShell, Irreps: waterIrreps(), Nelec: 9, Spin: 1})
	e, labels := waterEnergies()
	occ, err := s.GetOcc(e, labels)
	require.NoError(t, err)

	assert.InDelta(t, 9, occSum(occ), 1e-12)
	singles := 0
	for j, o := range occ {
		if o == 1 {
			singles++
			// The open shell lands on the fifth-lowest orbital.
			assert.Equal(t, "B2", labels[j])
			assert.Equal(t, -0.54, e[j])
		}
	}
	assert.Equal(t, 1, singles)
}

func TestGetOccOpenPinnedSingle(t *testing.T) {
	s := newTestSolver(t, Config{
		Kind: OpenShell, Irreps: waterIrreps(), Nelec: 9, Spin: 1,
		IrrepNelec: map[string]Nelec{"B2": PinAB(1, 0)},
	})
	e, labels := waterEnergies()
	occ, err := s.GetOcc(e, labels)
	require.NoError(t, err)

	assert.InDelta(t, 9, occSum(occ), 1e-12)
	// Exactly one singly occupied B2 orbital, no B2 pairs.
	b2 := indicesWithLabel(labels, "B2")
	singles, doubles := 0, 0
	for _, j := range b2 {
		switch occ[j] {
		case 1:
			singles++
		case 2:
			doubles++
		}
	}
	assert.Equal(t, 1, singles)
	assert.Equal(t, 0, doubles)
	// The pool hosts four pairs: three in A1 and one in B1.
	assert.InDelta(t, 6, irrepElectrons(occ, labels, "A1"), 1e-12)
	assert.InDelta(t, 2, irrepElectrons(occ, labels, "B1"), 1e-12)
}

func TestGetOccOpenPinnedPair(t *testing.T) {
	// Pinning a full pair into B1 leaves the open shell to the pool.
	s := newTestSolver(t, Config{
		Kind: OpenShell, Irreps: waterIrreps(), Nelec: 9, Spin: 1,
		IrrepNelec: map[string]Nelec{"B1": PinAB(1, 1)},
	})
	e, labels := waterEnergies()
	occ, err := s.GetOcc(e, labels)
	require.NoError(t, err)
	assert.InDelta(t, 9, occSum(occ), 1e-12)
	assert.Equal(t, 2.0, occ[6])
	singles := 0
	for _, o := range occ {
		if o == 1 {
			singles++
		}
	}
	assert.Equal(t, 1, singles)
}

func TestNewRejectsAlphaBelowBeta(t *testing.T) {
	_, err := New(Config{
		Kind: OpenShell, Irreps: waterIrreps(), Nelec: 9, Spin: 1,
		IrrepNelec: map[string]Nelec{"B2": PinAB(0, 1)},
		Log:        io.Discard,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIrrepNelec))
}

func TestNewRejectsPinnedSpinExcess(t *testing.T) {
	_, err := New(Config{
		Kind: OpenShell, Irreps: waterIrreps(), Nelec: 9, Spin: 1,
		IrrepNelec: map[string]Nelec{
			"B1": PinAB(1, 0),
			"B2": PinAB(1, 0),
		},
		Log: io.Discard,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIrrepNelec))
}

func TestGetOccOpenUsesSpinEnergiesForRole(t *testing.T) {
	// With distinct per-spin energies stored, GetOcc still assigns by
	// the Roothaan energies but keeps the occupation pattern intact.
	s := newTestSolver(t, Config{Kind: OpenShell, Irreps: waterIrreps(), Nelec: 9, Spin: 1})
	e, labels := waterEnergies()
	ea := make([]float64, len(e))
	eb := make([]float64, len(e))
	for i, v := range e {
		ea[i] = v - 0.05
		eb[i] = v + 0.05
	}
	s.moEnergyA, s.moEnergyB = ea, eb
	occ, err := s.GetOcc(e, labels)
	require.NoError(t, err)
	assert.InDelta(t, 9, occSum(occ), 1e-12)
}
