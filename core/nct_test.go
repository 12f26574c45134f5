package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestNctReducesToStudentsTWithoutNonCentrality(t *testing.T) {
	for _, df := range []float64{1, 2.5, 5, 30} {
		students := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		for _, x := range []float64{-4, -1.5, -0.2, 0, 0.7, 2, 6} {
			assert.InDelta(t, students.CDF(x), nctCDF(x, df, 0), 1e-9, "cdf df=%v x=%v", df, x)
			assert.InDelta(t, students.LogProb(x), nctLogPdf(x, df, 0), 1e-9, "log pdf df=%v x=%v", df, x)
		}
	}
}

func TestNctDensityIsTheDerivativeOfItsCdf(t *testing.T) {
	const h = 1e-4

	cases := []struct{ df, nc float64 }{{5, 1.5}, {3, -0.8}, {12, 0.3}}
	for _, c := range cases {
		for _, x := range []float64{-2, -0.5, 0.5, 1, 2.5, 4} {
			numeric := (nctCDF(x+h, c.df, c.nc) - nctCDF(x-h, c.df, c.nc)) / (2 * h)
			assert.InDelta(t, numeric, math.Exp(nctLogPdf(x, c.df, c.nc)), 1e-6, "df=%v nc=%v x=%v", c.df, c.nc, x)
		}
	}
}

func TestNctCdfIsMonotoneAndBounded(t *testing.T) {
	previous := 0.0
	for x := -30.0; x <= 30; x += 0.25 {
		p := nctCDF(x, 4, 1.2)
		assert.GreaterOrEqual(t, p, previous-1e-12, "x=%v", x)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		previous = p
	}

	// the median of a positive non-centrality sits above zero
	assert.Less(t, nctCDF(0, 4, 1.2), 0.5)
	assert.InDelta(t, distuv.UnitNormal.CDF(-1.2), nctCDF(0, 4, 1.2), 1e-12)
}

func TestNctMirrorSymmetry(t *testing.T) {
	for _, x := range []float64{-3, -1, 0.4, 2} {
		assert.InDelta(t, 1-nctCDF(-x, 6, -0.7), nctCDF(x, 6, 0.7), 1e-10)
		assert.InDelta(t, nctLogPdf(-x, 6, -0.7), nctLogPdf(x, 6, 0.7), 1e-10)
	}
}
