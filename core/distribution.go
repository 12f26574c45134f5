package core

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// EmpiricalFamily is the configuration name of the resampling distribution,
// its parameters are the observation pool itself.
const EmpiricalFamily = "empirical"

// PercentageChangeDistribution produces daily percentage changes where 50 means +50%.
// Implementations are immutable, all randomness comes from the caller's rng so one
// distribution can be shared by any number of runs.
type PercentageChangeDistribution interface {
	Sample(rng *rand.Rand, n int) ([]float64, error)
}

// EmpiricalDistribution resamples observed changes uniformly with replacement
type EmpiricalDistribution struct {
	values []float64
}

func NewEmpiricalDistribution(values []float64) (*EmpiricalDistribution, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empirical distribution needs at least one observation", ErrInvalidArgument)
	}
	return &EmpiricalDistribution{values: slices.Clone(values)}, nil
}

// Values returns a copy of the observation pool
func (d *EmpiricalDistribution) Values() []float64 {
	return slices.Clone(d.values)
}

func (d *EmpiricalDistribution) Sample(rng *rand.Rand, n int) ([]float64, error) {
	if err := validateSampleRequest(rng, n); err != nil {
		return nil, err
	}

	res := make([]float64, n)
	for i := range n {
		res[i] = d.values[rng.IntN(len(d.values))]
	}
	return res, nil
}

// ParametricDistribution draws from a fitted family
type ParametricDistribution struct {
	family Family
	params []float64
}

func NewParametricDistribution(family Family, params []float64) (*ParametricDistribution, error) {
	if err := validateParameters(family, params); err != nil {
		return nil, err
	}
	return &ParametricDistribution{family: family, params: slices.Clone(params)}, nil
}

// NewNctDistribution is the non-central t shortcut, parameters are (df, nc, loc, scale)
func NewNctDistribution(params ...float64) (*ParametricDistribution, error) {
	return NewParametricDistribution(NonCentralT, params)
}

func (d *ParametricDistribution) Family() Family {
	return d.family
}

func (d *ParametricDistribution) Parameters() []float64 {
	return slices.Clone(d.params)
}

func (d *ParametricDistribution) Sample(rng *rand.Rand, n int) ([]float64, error) {
	if err := validateSampleRequest(rng, n); err != nil {
		return nil, err
	}

	dist := definitions[d.family].build(d.params, rng)
	res := make([]float64, n)
	for i := range n {
		res[i] = dist.Rand()
	}
	return res, nil
}

// NewDistribution builds a distribution from a configured family name and parameters
func NewDistribution(name string, params []float64) (PercentageChangeDistribution, error) {
	if name == EmpiricalFamily {
		return NewEmpiricalDistribution(params)
	}

	family, err := ParseFamily(name)
	if err != nil {
		return nil, err
	}
	return NewParametricDistribution(family, params)
}

func validateSampleRequest(rng *rand.Rand, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: sample size must be non negative, got %d", ErrInvalidArgument, n)
	}
	if rng == nil {
		return fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}
	return nil
}
