package core

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const (
	fitMaxIterations  = 4_000
	fitMaxEvaluations = 8_000
	eulerMascheroni   = 0.5772156649015329

	// mean of a shape 2 weibull is loc + scale * Gamma(1.5)
	gammaOneAndHalf = 0.886226925452758

	// returned by the likelihood outside of the support, finite so nelder mead can compare it
	infeasible = 1e300
)

// FittedDistributionResult is the best fitting family of SelectBestFit
type FittedDistributionResult struct {
	Family     Family
	PValue     float64
	Statistic  float64
	Parameters []float64
	Candidates []CandidateFit
}

// CandidateFit is the outcome for one family, Err is set when its fit failed
type CandidateFit struct {
	Family     Family
	Parameters []float64
	KSResult
	Err error
}

type sampleSummary struct {
	n, mean, std, min, max float64
}

func summarize(data []float64) (sampleSummary, error) {
	if len(data) < 2 {
		return sampleSummary{}, fmt.Errorf("%w: fitting needs at least 2 observations, got %d", ErrInvalidArgument, len(data))
	}
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return sampleSummary{}, fmt.Errorf("%w: observations must be finite", ErrInvalidArgument)
		}
	}

	mean, std := stat.PopMeanStdDev(data, nil)
	if std == 0 {
		return sampleSummary{}, fmt.Errorf("%w: observations have no variance", ErrInvalidArgument)
	}

	return sampleSummary{
		n:    float64(len(data)),
		mean: mean,
		std:  std,
		min:  floats.Min(data),
		max:  floats.Max(data),
	}, nil
}

// FitFamily returns the maximum likelihood parameter vector of one family
func FitFamily(data []float64, family Family) ([]float64, error) {
	if _, ok := definitions[family]; !ok {
		return nil, fmt.Errorf("%w: unknown distribution family %q", ErrInvalidArgument, family)
	}

	s, err := summarize(data)
	if err != nil {
		return nil, err
	}

	// closed form, the mle scale of the normal is the population standard deviation
	if family == Normal {
		return []float64{s.mean, s.std}, nil
	}

	x0 := toFree(family, initialParameters(family, s, data))
	problem := optimize.Problem{Func: negativeLogLikelihood(family, data)}
	settings := &optimize.Settings{
		MajorIterations: fitMaxIterations,
		FuncEvaluations: fitMaxEvaluations,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-9, Relative: 1e-9, Iterations: 200},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if res == nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFitFailure, family, err)
	}
	if err != nil && res.Status != optimize.IterationLimit && res.Status != optimize.FunctionEvaluationLimit {
		return nil, fmt.Errorf("%w: %s: %v", ErrFitFailure, family, err)
	}
	if math.IsNaN(res.F) || res.F >= infeasible {
		return nil, fmt.Errorf("%w: %s found no parameters supporting the data", ErrFitFailure, family)
	}

	params := fromFree(family, res.X)
	if err := validateParameters(family, params); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFitFailure, family, err)
	}

	log.Debug().Str("family", string(family)).Str("status", res.Status.String()).Int("evaluations", res.FuncEvaluations).
		Float64("nll", res.F).Floats64("parameters", params).Msg("fitted distribution")

	return params, nil
}

// InferNctParameters fits the non-central t returning (df, nc, loc, scale)
func InferNctParameters(data []float64) ([]float64, error) {
	return FitFamily(data, NonCentralT)
}

// SelectBestFit fits every candidate family and keeps the one whose kolmogorov smirnov
// p-value is highest. Families that fail to fit are skipped.
func SelectBestFit(data []float64) (*FittedDistributionResult, error) {
	if _, err := summarize(data); err != nil {
		return nil, err
	}

	candidates := make([]CandidateFit, len(CandidateFamilies))
	for i, family := range CandidateFamilies {
		candidates[i] = fitCandidate(data, family)
		if err := candidates[i].Err; err != nil {
			log.Warn().Err(err).Str("family", string(family)).Msg("skipping distribution that failed to fit")
			continue
		}
		log.Debug().Str("family", string(family)).Msgf("p value for %s = %.3f", family, candidates[i].PValue)
	}

	best := selectBest(candidates)
	if best < 0 {
		return nil, fmt.Errorf("%w: no candidate distribution could be fitted", ErrFitFailure)
	}

	res := &FittedDistributionResult{
		Family:     candidates[best].Family,
		PValue:     candidates[best].PValue,
		Statistic:  candidates[best].Statistic,
		Parameters: candidates[best].Parameters,
		Candidates: candidates,
	}

	log.Info().Str("family", string(res.Family)).Float64("pValue", res.PValue).Floats64("parameters", res.Parameters).
		Msg("best fitting distribution")

	return res, nil
}

// selectBest returns the index of the highest p-value among successful fits, the first one on ties
func selectBest(candidates []CandidateFit) int {
	best := -1
	for i, c := range candidates {
		if c.Err != nil || math.IsNaN(c.PValue) {
			continue
		}
		if best < 0 || c.PValue > candidates[best].PValue {
			best = i
		}
	}
	return best
}

func fitCandidate(data []float64, family Family) CandidateFit {
	candidate := CandidateFit{Family: family}

	params, err := FitFamily(data, family)
	if err != nil {
		candidate.Err = err
		return candidate
	}
	candidate.Parameters = params

	dist, err := newContinuous(family, params, nil)
	if err != nil {
		candidate.Err = err
		return candidate
	}

	ks, err := KolmogorovSmirnov(data, dist.CDF)
	if err != nil {
		candidate.Err = fmt.Errorf("%w: %s: %v", ErrFitFailure, family, err)
		return candidate
	}
	candidate.KSResult = ks

	return candidate
}

func negativeLogLikelihood(family Family, data []float64) func(x []float64) float64 {
	return func(x []float64) float64 {
		dist, err := newContinuous(family, fromFree(family, x), nil)
		if err != nil {
			return infeasible
		}

		nll := 0.0
		for _, v := range data {
			lp := dist.LogProb(v)
			if math.IsNaN(lp) || math.IsInf(lp, 0) {
				return infeasible
			}
			nll -= lp
		}
		return nll
	}
}

// initialParameters starts every family inside its support, with loc placed outside the data range
func initialParameters(family Family, s sampleSummary, data []float64) []float64 {
	switch family {
	case ExponWeibull:
		loc := s.min - 0.5*s.std
		return []float64{1, 2, loc, (s.mean - loc) / gammaOneAndHalf}
	case WeibullMin:
		loc := s.min - 0.5*s.std
		return []float64{2, loc, (s.mean - loc) / gammaOneAndHalf}
	case WeibullMax:
		loc := s.max + 0.5*s.std
		return []float64{2, loc, (loc - s.mean) / gammaOneAndHalf}
	case Pareto:
		scale := s.std
		loc := s.min - 1.01*scale
		logSum := 0.0
		for _, v := range data {
			logSum += math.Log((v - loc) / scale)
		}
		return []float64{s.n / logSum, loc, scale}
	case GenExtreme:
		scale := s.std * math.Sqrt(6) / math.Pi
		return []float64{0, s.mean - eulerMascheroni*scale, scale}
	case NonCentralT:
		return []float64{10, 0, s.mean, s.std * math.Sqrt(0.8)}
	default:
		return []float64{s.mean, s.std}
	}
}

func toFree(family Family, params []float64) []float64 {
	free := make([]float64, len(params))
	for i, v := range params {
		if definitions[family].positive[i] {
			v = math.Log(v)
		}
		free[i] = v
	}
	return free
}

func fromFree(family Family, free []float64) []float64 {
	params := make([]float64, len(free))
	for i, v := range free {
		if definitions[family].positive[i] {
			v = math.Exp(v)
		}
		params[i] = v
	}
	return params
}
