package extensions

import (
	"testing"
	"time"
)

func TestClampKeepsValuesInsideBounds(t *testing.T) {
	AssertAreEqual(t, "below", -0.25, Clamp(-3.0, -0.25, 0.25))
	AssertAreEqual(t, "above", 0.25, Clamp(100.0, -0.25, 0.25))
	AssertAreEqual(t, "inside", 0.1, Clamp(0.1, -0.25, 0.25))
	AssertAreEqual(t, "ints", 3, Clamp(7, 0, 3))
}

func TestFilter(t *testing.T) {
	values := []float64{1, -2, 3, -4}
	positives := FilterMultiple(values, func(v float64) bool { return v > 0 })
	AssertAreEqual(t, "filtered length", 2, len(positives))
	AssertAreEqual(t, "first positive", 1.0, positives[0])
}

func TestFmtShort(t *testing.T) {
	AssertAreEqual(t, "date", "2023-02-01", FmtShort(time.Date(2023, time.February, 1, 15, 4, 5, 0, time.UTC)))
}
