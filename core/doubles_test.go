package core

import (
	"math"
	"math/rand/v2"
)

const (
	// Float64 of these sources is 0 and just below 1 respectively
	alwaysSucceed uint64 = 0
	alwaysFail    uint64 = math.MaxUint64
)

// switchSource returns value on every call, tests flip it to force regime decisions
type switchSource struct {
	value uint64
}

func (s *switchSource) Uint64() uint64 {
	return s.value
}

func newSwitchRand(src *switchSource) *rand.Rand {
	return rand.New(src)
}

// fixedDistribution returns change for every sample and records the requested sizes
type fixedDistribution struct {
	change   float64
	requests []int
}

func (d *fixedDistribution) Sample(_ *rand.Rand, n int) ([]float64, error) {
	if n < 0 {
		return nil, ErrInvalidArgument
	}

	d.requests = append(d.requests, n)
	res := make([]float64, n)
	for i := range res {
		res[i] = d.change
	}
	return res, nil
}
