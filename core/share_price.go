package core

import (
	"fmt"
	"math"
	"math/rand/v2"

	ex "mc.projecter/extensions"
)

// ChangeBounds is the closed interval a fractional daily change is clamped into
type ChangeBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func DefaultChangeBounds() ChangeBounds {
	return ChangeBounds{Min: -0.25, Max: 0.25}
}

// Validate also keeps prices positive, a change of -1 or below wipes out the value
func (b ChangeBounds) Validate() error {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || b.Min > b.Max {
		return fmt.Errorf("%w: change bounds [%v, %v] are not an interval", ErrInvalidArgument, b.Min, b.Max)
	}
	if b.Min <= -1 {
		return fmt.Errorf("%w: minimum change must be above -1, got %v", ErrInvalidArgument, b.Min)
	}
	return nil
}

// Apply converts a percentage change to a clamped fraction, 50 becomes 0.5
func (b ChangeBounds) Apply(percentageChange float64) float64 {
	return ex.Clamp(percentageChange/100, b.Min, b.Max)
}

// RegimePath is a regime aware price path, InCrisis[i] tells which distribution moved Values[i]
type RegimePath struct {
	Values   []float64
	InCrisis []bool
}

// CrisisDays counts the days of the path spent in crisis
func (p RegimePath) CrisisDays() (res int) {
	for _, c := range p.InCrisis {
		if c {
			res++
		}
	}
	return
}

// SimulateSharePrice applies n - 1 sampled changes to startingValue, the path includes the starting value
func SimulateSharePrice(rng *rand.Rand, startingValue float64, distribution PercentageChangeDistribution, nObservations int, bounds ChangeBounds) ([]float64, error) {
	if err := validatePathRequest(rng, startingValue, distribution, nObservations, bounds); err != nil {
		return nil, err
	}

	changes, err := distribution.Sample(rng, nObservations-1)
	if err != nil {
		return nil, err
	}

	res := make([]float64, nObservations)
	res[0] = startingValue
	for i, change := range changes {
		res[i+1] = res[i] * (1 + bounds.Apply(change))
	}

	return res, nil
}

// SimulateRegimeSharePrice advances the regime switch on every day after the first and draws that
// day's change from the crisis distribution while the switch is in crisis
func SimulateRegimeSharePrice(rng *rand.Rand, startingValue float64, normal, crisis PercentageChangeDistribution, regime *CrisisRegimeSwitch, nObservations int, bounds ChangeBounds) (RegimePath, error) {
	if err := validatePathRequest(rng, startingValue, normal, nObservations, bounds); err != nil {
		return RegimePath{}, err
	}
	if crisis == nil || regime == nil {
		return RegimePath{}, fmt.Errorf("%w: crisis distribution and regime switch are required", ErrInvalidArgument)
	}

	path := RegimePath{
		Values:   make([]float64, nObservations),
		InCrisis: make([]bool, nObservations),
	}
	path.Values[0] = startingValue

	for day := 1; day < nObservations; day++ {
		if err := regime.Advance(day); err != nil {
			return RegimePath{}, err
		}

		dist := normal
		if regime.InCrisis() {
			dist = crisis
			path.InCrisis[day] = true
		}

		change, err := sampleOne(rng, dist)
		if err != nil {
			return RegimePath{}, err
		}
		path.Values[day] = path.Values[day-1] * (1 + bounds.Apply(change))
	}

	return path, nil
}

func sampleOne(rng *rand.Rand, dist PercentageChangeDistribution) (float64, error) {
	v, err := dist.Sample(rng, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func validatePathRequest(rng *rand.Rand, startingValue float64, distribution PercentageChangeDistribution, nObservations int, bounds ChangeBounds) error {
	if nObservations < 1 {
		return fmt.Errorf("%w: number of observations must be at least 1, got %d", ErrInvalidArgument, nObservations)
	}
	if !(startingValue > 0) || math.IsInf(startingValue, 1) {
		return fmt.Errorf("%w: starting value must be positive, got %v", ErrInvalidArgument, startingValue)
	}
	if distribution == nil {
		return fmt.Errorf("%w: distribution is required", ErrInvalidArgument)
	}
	if rng == nil {
		return fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}
	return bounds.Validate()
}

// PercentageChanges converts consecutive prices into day over day changes in percentage points
func PercentageChanges(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 prices, got %d", ErrInvalidArgument, len(prices))
	}

	res := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if !(prices[i-1] > 0) {
			return nil, fmt.Errorf("%w: price at index %d must be positive, got %v", ErrInvalidArgument, i-1, prices[i-1])
		}
		res[i-1] = (prices[i]/prices[i-1] - 1) * 100
	}
	return res, nil
}
