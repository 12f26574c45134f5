package core

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/guregu/null/v6"

	"mc.projecter/config"
	sm "mc.projecter/models"
)

// ProjectionResources are the read only materials shared by every projection worker
type ProjectionResources struct {
	StartingValue  float64
	Normal         PercentageChangeDistribution
	Crisis         PercentageChangeDistribution // nil runs without the crisis regime
	CrisisSettings CrisisSettings
	Bounds         ChangeBounds
}

// NewRand returns an independent generator, every run or job gets its own stream
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// resolveSeed keeps a requested seed, otherwise picks one so the run can be replayed
func resolveSeed(seed null.Int) int64 {
	if seed.Valid {
		return seed.Int64
	}
	return rand.Int64()
}

func GetProjectionResources(cfg *config.Config, settings sm.ProjectionRequestSettings) (*ProjectionResources, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: projection configuration is not loaded", ErrInvalidArgument)
	}

	bounds := changeBoundsFromRequest(settings.MinChange, settings.MaxChange)
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	normal, crisis, err := tickerDistributions(cfg, settings.Ticker, settings.UseCrisis)
	if err != nil {
		return nil, err
	}

	crisisSettings, err := CrisisSettingsFromConfig(cfg.Crisis)
	if err != nil {
		return nil, err
	}

	return &ProjectionResources{
		StartingValue:  settings.StartingValue,
		Normal:         normal,
		Crisis:         crisis,
		CrisisSettings: crisisSettings,
		Bounds:         bounds,
	}, nil
}

func tickerDistributions(cfg *config.Config, ticker string, useCrisis bool) (normal, crisis PercentageChangeDistribution, err error) {
	normal, err = configuredDistribution(cfg, ticker, config.PeriodNonCrisis)
	if err != nil {
		return nil, nil, err
	}

	if useCrisis {
		if crisis, err = configuredDistribution(cfg, ticker, config.PeriodCrisis); err != nil {
			return nil, nil, err
		}
	}

	return normal, crisis, nil
}

func configuredDistribution(cfg *config.Config, ticker, period string) (PercentageChangeDistribution, error) {
	spec, err := cfg.GetDistribution(ticker, period)
	if err != nil {
		return nil, err
	}

	dist, err := NewDistribution(spec.Name, spec.Parameters)
	if err != nil {
		return nil, fmt.Errorf("distribution for %s/%s: %w", ticker, period, err)
	}
	return dist, nil
}

// CrisisSettingsFromConfig overlays the configured crisis constants on the defaults
func CrisisSettingsFromConfig(cc config.CrisisConfig) (CrisisSettings, error) {
	cs := DefaultCrisisSettings()
	if cc.MinDayCrisisStarts != nil {
		cs.MinDayCrisisStarts = *cc.MinDayCrisisStarts
	}
	if cc.MinDaysInCrisis != nil {
		cs.MinDaysInCrisis = *cc.MinDaysInCrisis
	}
	if cc.MaxDaysInCrisis != nil {
		cs.MaxDaysInCrisis = *cc.MaxDaysInCrisis
	}
	if cc.DailyProbabilityCrisisStarts != nil {
		cs.DailyProbabilityCrisisStarts = *cc.DailyProbabilityCrisisStarts
	}
	if cc.DailyProbabilityCrisisEnds != nil {
		cs.DailyProbabilityCrisisEnds = *cc.DailyProbabilityCrisisEnds
	}

	if err := cs.Validate(); err != nil {
		return CrisisSettings{}, fmt.Errorf("crisis configuration: %w", err)
	}
	return cs, nil
}

func changeBoundsFromRequest(minChange, maxChange null.Float) ChangeBounds {
	bounds := DefaultChangeBounds()
	if minChange.Valid {
		bounds.Min = minChange.Float64
	}
	if maxChange.Valid {
		bounds.Max = maxChange.Float64
	}
	return bounds
}

type PathMetrics struct {
	FinalValue           float64
	TotalReturn          float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	MaxDrawdown          float64
	CrisisDays           int
}

func calculatePathMetrics(pathValues []float64, periodsPerYear int) PathMetrics {
	n := len(pathValues)

	var sumReturns, sumSquaredReturns, maxDrawdown, peak float64
	for i := range n {
		if i != 0 {
			logReturn := math.Log(pathValues[i] / pathValues[i-1])
			sumReturns += logReturn
			sumSquaredReturns += logReturn * logReturn
		}

		if pathValues[i] > peak {
			peak = pathValues[i]
		}

		drawdown := (peak - pathValues[i]) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	initialValue := pathValues[0]
	finalValue := pathValues[n-1]
	metrics := PathMetrics{
		FinalValue:  finalValue,
		TotalReturn: (finalValue - initialValue) / initialValue,
		MaxDrawdown: maxDrawdown,
	}

	// a single observation has no returns to annualize
	numPeriods := float64(n - 1)
	if numPeriods < 1 {
		return metrics
	}

	// annualized return: geometric mean of returns, spelling this out to be explicit
	totalLogReturn := math.Log(finalValue / initialValue)
	metrics.AnnualizedReturn = math.Exp(totalLogReturn*float64(periodsPerYear)/numPeriods) - 1.0

	if numPeriods < 2 {
		return metrics
	}

	// annualized volatility: sample standard deviation of log returns
	meanReturn := sumReturns / numPeriods
	variance := (sumSquaredReturns - numPeriods*meanReturn*meanReturn) / (numPeriods - 1)
	metrics.AnnualizedVolatility = math.Sqrt(math.Max(variance, 0)) * math.Sqrt(float64(periodsPerYear))

	return metrics
}
