package shapelet

import (
	"math"
	"testing"
)

func TestFillHermite1DLowOrders(t *testing.T) {
	v := make([]float64, 3)
	for _, x := range []float64{-1.7, -0.3, 0.0, 0.9, 2.4} {
		fillHermite1D(v, x)
		g := basis1DNorm * math.Exp(-0.5*x*x)
		// psi_1 = sqrt(2) x psi_0, psi_2 = (2x^2 - 1)/sqrt(2) psi_0.
		if math.Abs(v[0]-g) > 1e-14 {
			t.Errorf("psi_0(%v) = %v, want %v", x, v[0], g)
		}
		if want := math.Sqrt2 * x * g; math.Abs(v[1]-want) > 1e-14 {
			t.Errorf("psi_1(%v) = %v, want %v", x, v[1], want)
		}
		if want := (2*x*x - 1) / math.Sqrt2 * g; math.Abs(v[2]-want) > 1e-13 {
			t.Errorf("psi_2(%v) = %v, want %v", x, v[2], want)
		}
	}
}

// The 1D family is orthonormal on the real line.
func TestHermite1DOrthonormal(t *testing.T) {
	const order = 5
	const n = 401
	const lim = 14.0
	h := 2 * lim / float64(n-1)
	v := make([]float64, order+1)
	gram := make([][]float64, order+1)
	for i := range gram {
		gram[i] = make([]float64, order+1)
	}
	for i := 0; i < n; i++ {
		x := -lim + float64(i)*h
		fillHermite1D(v, x)
		for a := 0; a <= order; a++ {
			for b := 0; b <= order; b++ {
				gram[a][b] += v[a] * v[b] * h
			}
		}
	}
	for a := 0; a <= order; a++ {
		for b := 0; b <= order; b++ {
			want := 0.0
			if a == b {
				want = 1.0
			}
			if math.Abs(gram[a][b]-want) > 1e-8 {
				t.Errorf("<psi_%d, psi_%d> = %v, want %v", a, b, gram[a][b], want)
			}
		}
	}
}

func TestHermiteIntegral1D(t *testing.T) {
	i0 := hermiteIntegral1D(6)
	if want := math.Sqrt2 * math.Sqrt(math.Sqrt(math.Pi)); math.Abs(i0[0]-want) > 1e-14 {
		t.Errorf("I_0 = %v, want %v", i0[0], want)
	}
	for n := 1; n <= 5; n += 2 {
		if i0[n] != 0 {
			t.Errorf("I_%d = %v, want 0 (odd symmetry)", n, i0[n])
		}
	}
	// I_2 = I_0 / sqrt(2)
	if math.Abs(i0[2]-i0[0]/math.Sqrt2) > 1e-14 {
		t.Errorf("I_2 = %v, want %v", i0[2], i0[0]/math.Sqrt2)
	}
}

func TestHermiteIndexOrdering(t *testing.T) {
	// Packed layout: [0,0], [0,1], [1,0], [0,2], [1,1], [2,0], ...
	wants := []struct{ nx, ny, i int }{
		{0, 0, 0}, {0, 1, 1}, {1, 0, 2}, {0, 2, 3}, {1, 1, 4}, {2, 0, 5}, {0, 3, 6}, {3, 0, 9},
	}
	for _, w := range wants {
		if got := hermiteIndex(w.nx, w.ny); got != w.i {
			t.Errorf("hermiteIndex(%d,%d) = %d, want %d", w.nx, w.ny, got, w.i)
		}
	}
}

// The polynomial table must agree with the recurrence evaluation.
func TestHermitePolyTableMatchesRecurrence(t *testing.T) {
	const order = 6
	table := hermitePolyTable(order)
	v := make([]float64, order+1)
	for _, x := range []float64{-2.1, -0.4, 0.7, 1.9} {
		fillHermite1D(v, x)
		g := math.Exp(-0.5 * x * x)
		for n := 0; n <= order; n++ {
			poly := 0.0
			for k := len(table[n]) - 1; k >= 0; k-- {
				poly = poly*x + table[n][k]
			}
			if math.Abs(poly*g-v[n]) > 1e-12*(1+math.Abs(v[n])) {
				t.Errorf("h_%d(%v) e^(-x^2/2) = %v, recurrence %v", n, x, poly*g, v[n])
			}
		}
	}
}

func TestMonomialToHermiteRoundTrip(t *testing.T) {
	const order = 6
	h := hermitePolyTable(order)
	a := monomialToHermiteTable(order)
	for deg := 0; deg <= order; deg++ {
		// Reconstruct x^deg from the expansion coefficients.
		mono := make([]float64, order+1)
		for m := 0; m <= order; m++ {
			for k, hv := range h[m] {
				mono[k] += a[deg][m] * hv
			}
		}
		for k := 0; k <= order; k++ {
			want := 0.0
			if k == deg {
				want = 1.0
			}
			if math.Abs(mono[k]-want) > 1e-10 {
				t.Errorf("x^%d expansion: coefficient of x^%d = %v, want %v", deg, k, mono[k], want)
			}
		}
	}
}
