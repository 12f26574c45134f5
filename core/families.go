package core

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// Family identifies a parametric distribution, parameters are the shapes followed by loc and scale
type Family string

const (
	Normal       Family = "norm"
	ExponWeibull Family = "exponweib"
	WeibullMax   Family = "weibull_max"
	WeibullMin   Family = "weibull_min"
	Pareto       Family = "pareto"
	GenExtreme   Family = "genextreme"
	NonCentralT  Family = "nct"
)

// CandidateFamilies is the ordered set compared by SelectBestFit, earlier families win ties
var CandidateFamilies = []Family{Normal, ExponWeibull, WeibullMax, WeibullMin, Pareto, GenExtreme, NonCentralT}

func ParseFamily(name string) (Family, error) {
	f := Family(name)
	if !slices.Contains(CandidateFamilies, f) {
		return "", fmt.Errorf("%w: unknown distribution family %q", ErrInvalidArgument, name)
	}
	return f, nil
}

// ParameterNames returns the meaning of each entry of the family's parameter vector
func (f Family) ParameterNames() []string {
	return slices.Clone(definitions[f].names)
}

// continuous is satisfied by the gonum distuv types as well as the shifted families below
type continuous interface {
	LogProb(x float64) float64
	CDF(x float64) float64
	Rand() float64
}

type definition struct {
	names    []string
	positive []bool // parameters that must be strictly positive, fitted in log space
	build    func(p []float64, src rand.Source) continuous
}

var definitions = map[Family]definition{
	Normal: {
		names:    []string{"loc", "scale"},
		positive: []bool{false, true},
		build: func(p []float64, src rand.Source) continuous {
			return distuv.Normal{Mu: p[0], Sigma: p[1], Src: src}
		},
	},
	ExponWeibull: {
		names:    []string{"a", "c", "loc", "scale"},
		positive: []bool{true, true, false, true},
		build: func(p []float64, src rand.Source) continuous {
			return exponWeibull{a: p[0], c: p[1], loc: p[2], scale: p[3], src: src}
		},
	},
	WeibullMax: {
		names:    []string{"c", "loc", "scale"},
		positive: []bool{true, false, true},
		build: func(p []float64, src rand.Source) continuous {
			return weibull{c: p[0], loc: p[1], scale: p[2], reflected: true, src: src}
		},
	},
	WeibullMin: {
		names:    []string{"c", "loc", "scale"},
		positive: []bool{true, false, true},
		build: func(p []float64, src rand.Source) continuous {
			return weibull{c: p[0], loc: p[1], scale: p[2], src: src}
		},
	},
	Pareto: {
		names:    []string{"b", "loc", "scale"},
		positive: []bool{true, false, true},
		build: func(p []float64, src rand.Source) continuous {
			return pareto{b: p[0], loc: p[1], scale: p[2], src: src}
		},
	},
	GenExtreme: {
		names:    []string{"c", "loc", "scale"},
		positive: []bool{false, false, true},
		build: func(p []float64, src rand.Source) continuous {
			return genExtreme{c: p[0], loc: p[1], scale: p[2], src: src}
		},
	},
	NonCentralT: {
		names:    []string{"df", "nc", "loc", "scale"},
		positive: []bool{true, false, false, true},
		build: func(p []float64, src rand.Source) continuous {
			return nonCentralT{df: p[0], nc: p[1], loc: p[2], scale: p[3], src: src}
		},
	},
}

func validateParameters(f Family, params []float64) error {
	def, ok := definitions[f]
	if !ok {
		return fmt.Errorf("%w: unknown distribution family %q", ErrInvalidArgument, f)
	}

	if len(params) != len(def.names) {
		return fmt.Errorf("%w: %s expects %d parameters %v, got %d", ErrInvalidArgument, f, len(def.names), def.names, len(params))
	}

	for i, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s parameter %s is not finite", ErrInvalidArgument, f, def.names[i])
		}
		if def.positive[i] && v <= 0 {
			return fmt.Errorf("%w: %s parameter %s must be positive, got %v", ErrInvalidArgument, f, def.names[i], v)
		}
	}

	return nil
}

// newContinuous builds the family's distribution, src may be nil when no variates are drawn
func newContinuous(f Family, params []float64, src rand.Source) (continuous, error) {
	if err := validateParameters(f, params); err != nil {
		return nil, err
	}
	return definitions[f].build(params, src), nil
}

func uniform(src rand.Source) float64 {
	// 53 random bits in (0, 1), the open interval keeps the inverse cdfs finite
	for {
		u := float64(src.Uint64()>>11) / (1 << 53)
		if u > 0 {
			return u
		}
	}
}

// weibull is weibull_min, or weibull_max when reflected around loc
type weibull struct {
	c, loc, scale float64
	reflected     bool
	src           rand.Source
}

func (w weibull) standardize(x float64) float64 {
	if w.reflected {
		return (w.loc - x) / w.scale
	}
	return (x - w.loc) / w.scale
}

func (w weibull) LogProb(x float64) float64 {
	z := w.standardize(x)
	if z <= 0 {
		return math.Inf(-1)
	}
	return math.Log(w.c) + (w.c-1)*math.Log(z) - math.Pow(z, w.c) - math.Log(w.scale)
}

func (w weibull) CDF(x float64) float64 {
	z := w.standardize(x)
	survival := 1.0
	if z > 0 {
		survival = math.Exp(-math.Pow(z, w.c))
	}
	if w.reflected {
		return survival
	}
	return 1 - survival
}

func (w weibull) Rand() float64 {
	v := distuv.Weibull{K: w.c, Lambda: w.scale, Src: w.src}.Rand()
	if w.reflected {
		return w.loc - v
	}
	return w.loc + v
}

type exponWeibull struct {
	a, c, loc, scale float64
	src              rand.Source
}

func (e exponWeibull) LogProb(x float64) float64 {
	z := (x - e.loc) / e.scale
	if z <= 0 {
		return math.Inf(-1)
	}
	zc := math.Pow(z, e.c)
	return math.Log(e.a) + math.Log(e.c) + (e.a-1)*math.Log(-math.Expm1(-zc)) + (e.c-1)*math.Log(z) - zc - math.Log(e.scale)
}

func (e exponWeibull) CDF(x float64) float64 {
	z := (x - e.loc) / e.scale
	if z <= 0 {
		return 0
	}
	return math.Pow(-math.Expm1(-math.Pow(z, e.c)), e.a)
}

func (e exponWeibull) Rand() float64 {
	u := uniform(e.src)
	z := math.Pow(-math.Log1p(-math.Pow(u, 1/e.a)), 1/e.c)
	return e.loc + e.scale*z
}

type pareto struct {
	b, loc, scale float64
	src           rand.Source
}

func (p pareto) LogProb(x float64) float64 {
	z := (x - p.loc) / p.scale
	if z < 1 {
		return math.Inf(-1)
	}
	return math.Log(p.b) - (p.b+1)*math.Log(z) - math.Log(p.scale)
}

func (p pareto) CDF(x float64) float64 {
	z := (x - p.loc) / p.scale
	if z < 1 {
		return 0
	}
	return 1 - math.Pow(z, -p.b)
}

func (p pareto) Rand() float64 {
	return p.loc + distuv.Pareto{Xm: p.scale, Alpha: p.b, Src: p.src}.Rand()
}

// genExtreme has the support bounded above for c > 0, c == 0 is the gumbel
type genExtreme struct {
	c, loc, scale float64
	src           rand.Source
}

const gumbelShapeTolerance = 1e-10

func (g genExtreme) LogProb(x float64) float64 {
	z := (x - g.loc) / g.scale
	if math.Abs(g.c) < gumbelShapeTolerance {
		return -z - math.Exp(-z) - math.Log(g.scale)
	}

	arg := 1 - g.c*z
	if arg <= 0 {
		return math.Inf(-1)
	}
	return (1/g.c-1)*math.Log(arg) - math.Pow(arg, 1/g.c) - math.Log(g.scale)
}

func (g genExtreme) CDF(x float64) float64 {
	z := (x - g.loc) / g.scale
	if math.Abs(g.c) < gumbelShapeTolerance {
		return math.Exp(-math.Exp(-z))
	}

	arg := 1 - g.c*z
	if arg <= 0 {
		if g.c > 0 {
			return 1
		}
		return 0
	}
	return math.Exp(-math.Pow(arg, 1/g.c))
}

func (g genExtreme) Rand() float64 {
	e := -math.Log(uniform(g.src))
	if math.Abs(g.c) < gumbelShapeTolerance {
		return g.loc - g.scale*math.Log(e)
	}
	return g.loc + g.scale*(1-math.Pow(e, g.c))/g.c
}

type nonCentralT struct {
	df, nc, loc, scale float64
	src                rand.Source
}

func (t nonCentralT) LogProb(x float64) float64 {
	return nctLogPdf((x-t.loc)/t.scale, t.df, t.nc) - math.Log(t.scale)
}

func (t nonCentralT) CDF(x float64) float64 {
	return nctCDF((x-t.loc)/t.scale, t.df, t.nc)
}

// Rand draws (Z + nc) / sqrt(V / df) with Z standard normal and V chi squared
func (t nonCentralT) Rand() float64 {
	z := distuv.Normal{Mu: 0, Sigma: 1, Src: t.src}.Rand()
	v := distuv.ChiSquared{K: t.df, Src: t.src}.Rand()
	return t.loc + t.scale*(z+t.nc)/math.Sqrt(v/t.df)
}
