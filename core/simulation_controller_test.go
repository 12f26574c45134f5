package core

import (
	"context"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "mc.projecter/extensions"
	sm "mc.projecter/models"
)

func testServiceContext(t *testing.T) *ServiceContext {
	t.Helper()
	return &ServiceContext{Context: context.Background(), Config: testConfig(t), Metrics: NewMetrics()}
}

func TestRunProjection(t *testing.T) {
	sc := testServiceContext(t)

	res, err := sc.RunProjection(sm.ProjectionRequestSettings{
		Ticker:             "SP500",
		StartingValue:      100,
		SimulationDuration: 60,
		Iterations:         500,
		UseCrisis:          true,
		Seed:               null.IntFrom(42),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunId)
	ex.AssertAreEqual(t, "ticker", "SP500", res.Ticker)
	ex.AssertAreEqual(t, "seed", int64(42), res.Seed)
	assert.Len(t, res.SamplePaths, 7)
	assert.Len(t, res.Summary.Mean, 60)
	assert.InDelta(t, 100.0, res.Summary.P50[0], 1e-12)

	risk := res.RiskMetrics
	assert.GreaterOrEqual(t, risk.ProbabilityOfLoss, 0.0)
	assert.LessOrEqual(t, risk.ProbabilityOfLoss, 1.0)
	assert.LessOrEqual(t, risk.VaR99, risk.VaR95)
	assert.LessOrEqual(t, risk.CVaR99, risk.CVaR95)
	assert.Greater(t, res.Regime.CrisisProbability, 0.0)

	for i := 1; i < len(res.SamplePaths)-2; i++ {
		previous := res.SamplePaths[i-1].Values
		current := res.SamplePaths[i].Values
		assert.LessOrEqual(t, previous[len(previous)-1], current[len(current)-1])
	}
}

func TestRunProjectionWithoutSeedReportsTheSeedUsed(t *testing.T) {
	sc := testServiceContext(t)
	settings := sm.ProjectionRequestSettings{Ticker: "BONDS", StartingValue: 50, SimulationDuration: 20, Iterations: 50}

	res, err := sc.RunProjection(settings)
	require.NoError(t, err)

	settings.Seed = null.IntFrom(res.Seed)
	replay, err := sc.RunProjection(settings)
	require.NoError(t, err)
	assert.Equal(t, res.RiskMetrics, replay.RiskMetrics)
	assert.Equal(t, res.Summary, replay.Summary)
}

func TestRunProjectionErrors(t *testing.T) {
	sc := testServiceContext(t)

	_, err := sc.RunProjection(sm.ProjectionRequestSettings{Ticker: "MSFT", StartingValue: 100, SimulationDuration: 10, Iterations: 10})
	require.Error(t, err)

	_, err = sc.RunProjection(sm.ProjectionRequestSettings{Ticker: "SP500", StartingValue: 100, SimulationDuration: 10})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSimulatePathWithInlineDistribution(t *testing.T) {
	sc := &ServiceContext{Context: context.Background()}

	res, err := sc.SimulatePath(sm.SimulatePathRequest{
		Distribution:  &sm.DistributionPayload{Name: EmpiricalFamily, Parameters: []float64{0}},
		StartingValue: 100,
		Observations:  5,
		Seed:          null.IntFrom(1),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 100, 100, 100, 100}, res.Values)
	assert.Equal(t, []bool{false, false, false, false, false}, res.InCrisis)
	ex.AssertAreEqual(t, "seed", int64(1), res.Seed)
}

func TestSimulatePathForConfiguredTicker(t *testing.T) {
	sc := testServiceContext(t)
	req := sm.SimulatePathRequest{
		Ticker:        null.StringFrom("SP500"),
		StartingValue: 100,
		Observations:  400,
		UseCrisis:     true,
		Seed:          null.IntFrom(9),
		MinChange:     null.FloatFrom(-0.05),
		MaxChange:     null.FloatFrom(0.05),
	}

	res, err := sc.SimulatePath(req)
	require.NoError(t, err)
	require.Len(t, res.Values, 400)
	require.Len(t, res.InCrisis, 400)
	for i := 1; i < len(res.Values); i++ {
		ratio := res.Values[i] / res.Values[i-1]
		require.GreaterOrEqual(t, ratio, 0.95-1e-12)
		require.LessOrEqual(t, ratio, 1.05+1e-12)
	}

	again, err := sc.SimulatePath(req)
	require.NoError(t, err)
	assert.Equal(t, res.Values, again.Values)
}

func TestSimulatePathErrors(t *testing.T) {
	sc := testServiceContext(t)

	_, err := sc.SimulatePath(sm.SimulatePathRequest{StartingValue: 100, Observations: 5})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = sc.SimulatePath(sm.SimulatePathRequest{
		Distribution:  &sm.DistributionPayload{Name: "norm", Parameters: []float64{0, 1}},
		UseCrisis:     true,
		StartingValue: 100,
		Observations:  5,
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = sc.SimulatePath(sm.SimulatePathRequest{
		Distribution:  &sm.DistributionPayload{Name: "norm", Parameters: []float64{0, 1}},
		StartingValue: 100,
		Observations:  0,
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = sc.SimulatePath(sm.SimulatePathRequest{
		Ticker:        null.StringFrom("SP500"),
		StartingValue: 100,
		Observations:  5,
		MinChange:     null.FloatFrom(-1.5),
	})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFitDistribution(t *testing.T) {
	sc := testServiceContext(t)
	data := drawNormal(400, 0.02, 0.8, 77)

	single, err := sc.FitDistribution(sm.FitRequest{Data: data, Family: null.StringFrom("norm")})
	require.NoError(t, err)
	ex.AssertAreEqual(t, "family", "norm", single.Family)
	assert.False(t, single.PValue.Valid)
	assert.Len(t, single.Parameters, 2)
	assert.Empty(t, single.Candidates)

	best, err := sc.FitDistribution(sm.FitRequest{Data: data})
	require.NoError(t, err)
	assert.True(t, best.PValue.Valid)
	assert.Len(t, best.Candidates, len(CandidateFamilies))

	_, err = sc.FitDistribution(sm.FitRequest{Data: data, Family: null.StringFrom("cauchy")})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRiskAndRegimeAggregatesCountMatchingPaths(t *testing.T) {
	results := []*ProjectionResult{
		{PathMetrics: PathMetrics{FinalValue: 90, TotalReturn: -0.1, CrisisDays: 30}},
		{PathMetrics: PathMetrics{FinalValue: 120, TotalReturn: 0.2}},
		{PathMetrics: PathMetrics{FinalValue: 95, TotalReturn: -0.05, CrisisDays: 10}},
		{PathMetrics: PathMetrics{FinalValue: 100, TotalReturn: 0}},
	}

	risk := calculateRiskMetrics(results)
	assert.InDelta(t, 0.5, risk.ProbabilityOfLoss, 1e-12)

	regime := calculateRegimeStats(results)
	assert.InDelta(t, 0.5, regime.CrisisProbability, 1e-12)
	assert.InDelta(t, 10.0, regime.MeanCrisisDays, 1e-12)
}
