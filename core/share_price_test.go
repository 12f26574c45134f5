package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "mc.projecter/extensions"
)

func TestSimulateSharePriceLengthAndStartingValue(t *testing.T) {
	dist, err := NewParametricDistribution(Normal, []float64{0.05, 1.0})
	require.NoError(t, err)

	for n := 1; n <= 50; n++ {
		path, err := SimulateSharePrice(NewRand(42, uint64(n)), 100, dist, n, DefaultChangeBounds())
		require.NoError(t, err)
		ex.AssertAreEqual(t, "path length", n, len(path))
		ex.AssertAreEqual(t, "starting value", 100.0, path[0])
	}
}

func TestSimulateSharePriceClampsChanges(t *testing.T) {
	up := &fixedDistribution{change: 10_000}
	path, err := SimulateSharePrice(NewRand(1, 0), 100, up, 3, DefaultChangeBounds())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 125, 156.25}, path, 1e-9)

	down := &fixedDistribution{change: -10_000}
	path, err = SimulateSharePrice(NewRand(1, 0), 100, down, 2, DefaultChangeBounds())
	require.NoError(t, err)
	assert.InDelta(t, 75.0, path[1], 1e-9)

	path, err = SimulateSharePrice(NewRand(1, 0), 100, up, 2, ChangeBounds{Min: -0.1, Max: 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 110.0, path[1], 1e-9)
}

func TestSimulateSharePriceSingleObservationRequestsNoSamples(t *testing.T) {
	dist := &fixedDistribution{change: 5}

	path, err := SimulateSharePrice(NewRand(1, 0), 100, dist, 1, DefaultChangeBounds())
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, path)
	assert.Equal(t, []int{0}, dist.requests)
}

func TestSimulateSharePriceRequestsOneSamplePerStep(t *testing.T) {
	dist := &fixedDistribution{change: 1}

	_, err := SimulateSharePrice(NewRand(1, 0), 100, dist, 10, DefaultChangeBounds())
	require.NoError(t, err)
	assert.Equal(t, []int{9}, dist.requests)
}

func TestSimulateSharePriceZeroChangesKeepThePriceFlat(t *testing.T) {
	dist, err := NewEmpiricalDistribution([]float64{0.0})
	require.NoError(t, err)

	path, err := SimulateSharePrice(NewRand(7, 0), 100, dist, 5, DefaultChangeBounds())
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 100, 100, 100, 100}, path)
}

func TestSimulateSharePriceIsReproducible(t *testing.T) {
	dist, err := NewNctDistribution(5, 0.1, 0.02, 1.2)
	require.NoError(t, err)

	first, err := SimulateSharePrice(NewRand(99, 3), 250, dist, 252, DefaultChangeBounds())
	require.NoError(t, err)
	second, err := SimulateSharePrice(NewRand(99, 3), 250, dist, 252, DefaultChangeBounds())
	require.NoError(t, err)
	other, err := SimulateSharePrice(NewRand(100, 3), 250, dist, 252, DefaultChangeBounds())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	for _, v := range first {
		assert.Greater(t, v, 0.0)
	}
}

func TestSimulateSharePriceRejectsInvalidRequests(t *testing.T) {
	dist := &fixedDistribution{}
	rng := NewRand(1, 0)

	tests := []struct {
		name string
		run  func() error
	}{
		{"zero observations", func() error {
			_, err := SimulateSharePrice(rng, 100, dist, 0, DefaultChangeBounds())
			return err
		}},
		{"zero starting value", func() error {
			_, err := SimulateSharePrice(rng, 0, dist, 5, DefaultChangeBounds())
			return err
		}},
		{"negative starting value", func() error {
			_, err := SimulateSharePrice(rng, -1, dist, 5, DefaultChangeBounds())
			return err
		}},
		{"nil distribution", func() error {
			_, err := SimulateSharePrice(rng, 100, nil, 5, DefaultChangeBounds())
			return err
		}},
		{"nil rng", func() error {
			_, err := SimulateSharePrice(nil, 100, dist, 5, DefaultChangeBounds())
			return err
		}},
		{"inverted bounds", func() error {
			_, err := SimulateSharePrice(rng, 100, dist, 5, ChangeBounds{Min: 0.1, Max: -0.1})
			return err
		}},
		{"bounds allowing a total loss", func() error {
			_, err := SimulateSharePrice(rng, 100, dist, 5, ChangeBounds{Min: -1, Max: 0.1})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.run(), ErrInvalidArgument)
		})
	}
	assert.Empty(t, dist.requests)
}

func TestSimulateRegimeSharePriceSwitchesDistributionInCrisis(t *testing.T) {
	src := &switchSource{value: alwaysSucceed}
	rng := NewRand(1, 0)
	regime, err := NewCrisisRegimeSwitch(DefaultCrisisSettings(), newSwitchRand(src))
	require.NoError(t, err)

	normal := &fixedDistribution{change: 1}
	crisis := &fixedDistribution{change: -1}

	path, err := SimulateRegimeSharePrice(rng, 100, normal, crisis, regime, 400, DefaultChangeBounds())
	require.NoError(t, err)
	require.Len(t, path.Values, 400)
	require.Len(t, path.InCrisis, 400)

	assert.False(t, path.InCrisis[0])
	assert.False(t, path.InCrisis[MinDayCrisisStarts-1])
	assert.True(t, path.InCrisis[MinDayCrisisStarts])

	// forced ends leave the crisis as soon as the minimum duration is reached
	lastCrisisDay := MinDayCrisisStarts + MinDaysInCrisis
	assert.True(t, path.InCrisis[lastCrisisDay])
	assert.False(t, path.InCrisis[lastCrisisDay+1])
	ex.AssertAreEqual(t, "crisis days", MinDaysInCrisis+1, path.CrisisDays())

	assert.InDelta(t, path.Values[MinDayCrisisStarts-1]*0.99, path.Values[MinDayCrisisStarts], 1e-9)
	assert.InDelta(t, path.Values[lastCrisisDay]*1.01, path.Values[lastCrisisDay+1], 1e-9)
	assert.Len(t, normal.requests, 399-(MinDaysInCrisis+1))
}

func TestSimulateRegimeSharePriceNeedsCrisisInputs(t *testing.T) {
	dist := &fixedDistribution{}
	regime, err := NewCrisisRegimeSwitch(DefaultCrisisSettings(), NewRand(1, 1))
	require.NoError(t, err)

	_, err = SimulateRegimeSharePrice(NewRand(1, 0), 100, dist, nil, regime, 10, DefaultChangeBounds())
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SimulateRegimeSharePrice(NewRand(1, 0), 100, dist, dist, nil, 10, DefaultChangeBounds())
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPercentageChanges(t *testing.T) {
	changes, err := PercentageChanges([]float64{100, 110, 99})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{10, -10}, changes, 1e-9)

	_, err = PercentageChanges([]float64{100})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = PercentageChanges([]float64{0, 100})
	require.ErrorIs(t, err, ErrInvalidArgument)
}
