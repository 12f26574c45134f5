package core

import (
	"fmt"
	"math"
	"slices"
)

type KSResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"pValue"`
}

// KolmogorovSmirnov runs the one sample test of data against a continuous cdf.
// The p-value uses the asymptotic Kolmogorov distribution with Stephens' small sample correction.
func KolmogorovSmirnov(data []float64, cdf func(float64) float64) (KSResult, error) {
	n := len(data)
	if n == 0 {
		return KSResult{}, fmt.Errorf("%w: kolmogorov smirnov test needs data", ErrInvalidArgument)
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)

	nf := float64(n)
	d := 0.0
	for i, x := range sorted {
		f := cdf(x)
		if math.IsNaN(f) {
			return KSResult{}, fmt.Errorf("%w: cdf is not a number at %v", ErrInvalidArgument, x)
		}
		f = math.Min(math.Max(f, 0), 1)
		d = math.Max(d, math.Max(float64(i+1)/nf-f, f-float64(i)/nf))
	}

	sqrtN := math.Sqrt(nf)
	return KSResult{
		Statistic: d,
		PValue:    kolmogorovSurvival((sqrtN + 0.12 + 0.11/sqrtN) * d),
	}, nil
}

// kolmogorovSurvival is P(K > lambda) for the Kolmogorov distribution
func kolmogorovSurvival(lambda float64) float64 {
	const (
		termTolerance = 1e-3
		sumTolerance  = 1e-8
	)

	a2 := -2 * lambda * lambda
	fac, sum, previous := 2.0, 0.0, 0.0
	for j := 1.0; j <= 100; j++ {
		term := fac * math.Exp(a2*j*j)
		sum += term
		if math.Abs(term) <= termTolerance*previous || math.Abs(term) <= sumTolerance*sum {
			return math.Min(math.Max(sum, 0), 1)
		}
		fac = -fac
		previous = math.Abs(term)
	}

	// the series only fails to converge for tiny lambda, where the survival is 1
	return 1
}
