package core

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	ex "mc.projecter/extensions"
	sm "mc.projecter/models"
)

// RunProjection runs the monte carlo projection of a configured ticker
func (sc *ServiceContext) RunProjection(settings sm.ProjectionRequestSettings) (res *sm.ProjectionResponse, err error) {
	start := time.Now()
	defer func() { sc.Metrics.observeProjection("projection", start, err) }()

	runId := uuid.New().String()
	logger := log.With().Str("runId", runId).Str("ticker", settings.Ticker).Logger()
	logger.Info().Msg("Received request to run projection")

	resources, err := GetProjectionResources(sc.Config, settings)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting projection resources")
		return nil, err
	}

	seed := resolveSeed(settings.Seed)
	logger.Info().Dur("elapsed", time.Since(start)).Msg("Running monte carlo projection")
	results, err := sc.RunMonteCarloProjection(resources, settings, seed)
	if err != nil {
		logger.Error().Err(err).Msg("Error running monte carlo projection")
		return nil, err
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("Building projection response")
	res = buildProjectionResponse(results)
	res.RunId = runId
	res.Ticker = settings.Ticker
	res.Seed = seed

	logger.Info().Dur("elapsed", time.Since(start)).Msg("Projection completed")
	return res, nil
}

// SimulatePath runs a single path for a configured ticker or an inline distribution
func (sc *ServiceContext) SimulatePath(req sm.SimulatePathRequest) (res *sm.SimulatePathResponse, err error) {
	start := time.Now()
	defer func() { sc.Metrics.observeProjection("path", start, err) }()

	bounds := changeBoundsFromRequest(req.MinChange, req.MaxChange)
	normal, crisis, settings, err := sc.pathDistributions(req)
	if err != nil {
		return nil, err
	}

	seed := resolveSeed(req.Seed)
	rng := NewRand(uint64(seed), 0)
	res = &sm.SimulatePathResponse{Seed: seed}

	if crisis == nil {
		res.Values, err = SimulateSharePrice(rng, req.StartingValue, normal, req.Observations, bounds)
		if err != nil {
			return nil, err
		}
		res.InCrisis = make([]bool, len(res.Values))
		return res, nil
	}

	regime, err := NewCrisisRegimeSwitch(settings, rng)
	if err != nil {
		return nil, err
	}

	path, err := SimulateRegimeSharePrice(rng, req.StartingValue, normal, crisis, regime, req.Observations, bounds)
	if err != nil {
		return nil, err
	}

	res.Values, res.InCrisis = path.Values, path.InCrisis
	return res, nil
}

func (sc *ServiceContext) pathDistributions(req sm.SimulatePathRequest) (normal, crisis PercentageChangeDistribution, settings CrisisSettings, err error) {
	settings = DefaultCrisisSettings()

	if req.Distribution != nil {
		if req.UseCrisis {
			return nil, nil, settings, fmt.Errorf("%w: the crisis regime needs a configured ticker", ErrInvalidArgument)
		}
		normal, err = NewDistribution(req.Distribution.Name, req.Distribution.Parameters)
		return normal, nil, settings, err
	}

	if !req.Ticker.Valid {
		return nil, nil, settings, fmt.Errorf("%w: either a ticker or a distribution is required", ErrInvalidArgument)
	}
	if sc.Config == nil {
		return nil, nil, settings, fmt.Errorf("%w: projection configuration is not loaded", ErrInvalidArgument)
	}

	if normal, crisis, err = tickerDistributions(sc.Config, req.Ticker.String, req.UseCrisis); err != nil {
		return nil, nil, settings, err
	}
	settings, err = CrisisSettingsFromConfig(sc.Config.Crisis)
	return normal, crisis, settings, err
}

// FitDistribution fits the requested family, or selects the best candidate family
func (sc *ServiceContext) FitDistribution(req sm.FitRequest) (res *sm.FitResponse, err error) {
	start := time.Now()
	label := req.Family.ValueOrZero()
	if label == "" {
		label = "best"
	}
	defer func() { sc.Metrics.observeFit(label, start, err) }()

	if req.Family.Valid {
		family, err := ParseFamily(req.Family.String)
		if err != nil {
			return nil, err
		}

		params, err := FitFamily(req.Data, family)
		if err != nil {
			return nil, err
		}
		return &sm.FitResponse{Family: string(family), Parameters: params}, nil
	}

	best, err := SelectBestFit(req.Data)
	if err != nil {
		return nil, err
	}

	res = &sm.FitResponse{
		Family:     string(best.Family),
		PValue:     null.FloatFrom(best.PValue),
		Parameters: best.Parameters,
		Candidates: make([]sm.CandidateFit, len(best.Candidates)),
	}
	for i, c := range best.Candidates {
		res.Candidates[i] = sm.CandidateFit{
			Family:     string(c.Family),
			Parameters: c.Parameters,
			Statistic:  c.Statistic,
			PValue:     c.PValue,
		}
		if c.Err != nil {
			res.Candidates[i].Error = c.Err.Error()
		}
	}

	return res, nil
}

func buildProjectionResponse(results []*ProjectionResult) *sm.ProjectionResponse {
	// sort once by final value (ascending). All quintile calculations use this order,
	// most of the rest dont care about order, so this is fine
	slices.SortFunc(results, func(a, b *ProjectionResult) int {
		if a.FinalValue < b.FinalValue {
			return -1
		}
		if a.FinalValue > b.FinalValue {
			return 1
		}
		return 0
	})

	return &sm.ProjectionResponse{
		RiskMetrics: calculateRiskMetrics(results),
		Regime:      calculateRegimeStats(results),
		SamplePaths: selectSamplePaths(results),
		Summary:     calculateSummaryStats(results),
	}
}

func calculateRiskMetrics(results []*ProjectionResult) sm.SimulationRiskMetrics {
	n := len(results)

	finalValues := make([]float64, n)
	totalReturns := make([]float64, n)
	maxDrawdowns := make([]float64, n)

	for i, res := range results {
		finalValues[i] = res.FinalValue
		totalReturns[i] = res.TotalReturn
		maxDrawdowns[i] = res.MaxDrawdown
	}

	// every path starts from the same value, so total returns share the final value order
	var95 := stat.Quantile(0.05, stat.Empirical, totalReturns, nil)
	var99 := stat.Quantile(0.01, stat.Empirical, totalReturns, nil)
	cvar95 := calculateCVaR(totalReturns, 0.05)
	cvar99 := calculateCVaR(totalReturns, 0.01)

	losses := ex.FilterMultiple(totalReturns, func(r float64) bool { return r < 0 })

	// maxDrawdowns needs to be sorted as its not proportional to final value
	slices.Sort(maxDrawdowns)

	return sm.SimulationRiskMetrics{
		VaR95:             var95,
		VaR99:             var99,
		CVaR95:            cvar95,
		CVaR99:            cvar99,
		ProbabilityOfLoss: float64(len(losses)) / float64(n),
		MaxDrawdownP95:    stat.Quantile(0.95, stat.Empirical, maxDrawdowns, nil),
		MeanFinalValue:    stat.Mean(finalValues, nil),
		MedianFinalValue:  stat.Quantile(0.50, stat.Empirical, finalValues, nil),
	}
}

func calculateRegimeStats(results []*ProjectionResult) sm.RegimeStats {
	crisisDays := 0
	for _, res := range results {
		crisisDays += res.CrisisDays
	}
	crisisPaths := ex.FilterMultiple(results, func(res *ProjectionResult) bool { return res.CrisisDays > 0 })

	n := float64(len(results))
	return sm.RegimeStats{
		CrisisProbability: float64(len(crisisPaths)) / n,
		MeanCrisisDays:    float64(crisisDays) / n,
	}
}

func selectSamplePaths(results []*ProjectionResult) []sm.SamplePath {
	n := len(results)

	// results are already sorted by FinalValue from buildProjectionResponse
	percentiles := []struct {
		percentile float64
		label      string
	}{
		{0.05, "5th Percentile"},
		{0.25, "25th Percentile"},
		{0.50, "Median"},
		{0.75, "75th Percentile"},
		{0.95, "95th Percentile"},
	}

	// plus two are for the max drawdown and max volatility
	samplePaths := make([]sm.SamplePath, 0, len(percentiles)+2)
	for _, p := range percentiles {
		idx := int(p.percentile * float64(n-1))
		samplePaths = append(samplePaths, sm.SamplePath{
			Percentile: p.percentile,
			Values:     results[idx].PathValues,
			Label:      p.label,
		})
	}

	maxDrawdownIdx, maxVolatilityIdx := 0, 0
	for i, res := range results {
		if res.MaxDrawdown > results[maxDrawdownIdx].MaxDrawdown {
			maxDrawdownIdx = i
		}
		if res.AnnualizedVolatility > results[maxVolatilityIdx].AnnualizedVolatility {
			maxVolatilityIdx = i
		}
	}

	samplePaths = append(samplePaths, sm.SamplePath{
		Percentile: -1,
		Values:     results[maxDrawdownIdx].PathValues,
		Label:      "Maximum Drawdown",
	})

	samplePaths = append(samplePaths, sm.SamplePath{
		Percentile: -1,
		Values:     results[maxVolatilityIdx].PathValues,
		Label:      "Highest Volatility",
	})

	return samplePaths
}

func calculateSummaryStats(results []*ProjectionResult) sm.SimulationStats {
	nResults := len(results)
	nSteps := len(results[0].PathValues)

	summary := sm.SimulationStats{
		Mean:   make([]float64, nSteps),
		StdDev: make([]float64, nSteps),
		P5:     make([]float64, nSteps),
		P25:    make([]float64, nSteps),
		P50:    make([]float64, nSteps),
		P75:    make([]float64, nSteps),
		P95:    make([]float64, nSteps),
	}

	values := make([]float64, nResults)
	for t := range nSteps {
		for i := range nResults {
			values[i] = results[i].PathValues[t]
		}

		// stat.Quantile requires the slice to be sorted in increasing order
		slices.Sort(values)

		summary.Mean[t] = stat.Mean(values, nil)
		summary.P5[t] = stat.Quantile(0.05, stat.Empirical, values, nil)
		summary.P25[t] = stat.Quantile(0.25, stat.Empirical, values, nil)
		summary.P50[t] = stat.Quantile(0.50, stat.Empirical, values, nil)
		summary.P75[t] = stat.Quantile(0.75, stat.Empirical, values, nil)
		summary.P95[t] = stat.Quantile(0.95, stat.Empirical, values, nil)
		if nResults > 1 {
			summary.StdDev[t] = stat.StdDev(values, nil)
		}
	}

	return summary
}

// calculateCVaR calculates the conditional value at risk for a given alpha aka taking the mean of the tail
func calculateCVaR(sortedReturns []float64, alpha float64) float64 {
	cutoff := int(math.Ceil(alpha * float64(len(sortedReturns))))
	return stat.Mean(sortedReturns[:cutoff], nil)
}
