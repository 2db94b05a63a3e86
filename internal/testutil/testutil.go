// Package testutil provides shared test utilities and fixtures.
//
// This package centralises the numeric closeness helpers and the
// deterministic fixture generator used across the engine's test files, to
// reduce duplication and keep tolerances consistent.
package testutil

import (
	"math"
	"testing"
)

// Close reports whether a and b agree to within rtol*|b| + atol.
func Close(a, b, rtol, atol float64) bool {
	return math.Abs(a-b) <= rtol*math.Abs(b)+atol
}

// AssertClose fails the test when got and want disagree beyond
// rtol*|want| + atol.
func AssertClose(t *testing.T, got, want, rtol, atol float64, context string) {
	t.Helper()
	if !Close(got, want, rtol, atol) {
		t.Errorf("%s = %v, want %v (rtol=%g atol=%g)", context, got, want, rtol, atol)
	}
}

// AssertSliceClose fails the test when any element pair disagrees beyond
// rtol*|want| + atol.
func AssertSliceClose(t *testing.T, got, want []float64, rtol, atol float64, context string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", context, len(got), len(want))
	}
	for i := range got {
		if !Close(got[i], want[i], rtol, atol) {
			t.Errorf("%s[%d] = %v, want %v (rtol=%g atol=%g)", context, i, got[i], want[i], rtol, atol)
		}
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Rand is a small deterministic generator for test fixtures that must be
// stable across runs and Go releases.
type Rand struct {
	state uint64
}

// NewRand returns a generator with the given seed.
func NewRand(seed uint64) *Rand {
	return &Rand{state: seed*6364136223846793005 + 1442695040888963407}
}

// Float64 returns a uniform value in [0, 1).
func (r *Rand) Float64() float64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return float64(r.state>>11) / float64(1<<53)
}

// Norm returns an approximately standard-normal value (Irwin-Hall sum).
func (r *Rand) Norm() float64 {
	s := 0.0
	for i := 0; i < 12; i++ {
		s += r.Float64()
	}
	return s - 6
}

// Uniform returns a uniform value in [lo, hi).
func (r *Rand) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
