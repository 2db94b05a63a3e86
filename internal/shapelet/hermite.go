package shapelet

import "math"

// basis1DNorm is pi^(-1/4), the normalization of the 0th-order 1D function
// psi_0(x) = pi^(-1/4) exp(-x^2/2). Higher orders follow the recurrence
//
//	psi_n(x) = x sqrt(2/n) psi_{n-1}(x) - sqrt((n-1)/n) psi_{n-2}(x)
//
// which keeps the family orthonormal on the real line.
var basis1DNorm = 1.0 / math.Sqrt(math.Sqrt(math.Pi))

// hermiteIndex returns the flat coefficient index of the 2D Hermite basis
// function [nx, ny]. Functions are packed by total degree n = nx+ny, with
// nx increasing within each block: [0,0], [0,1], [1,0], [0,2], [1,1], ...
func hermiteIndex(nx, ny int) int {
	n := nx + ny
	return n*(n+1)/2 + nx
}

// fillHermite1D writes the values of the normalized 1D Gauss-Hermite
// functions psi_0..psi_order at x into v (length order+1).
func fillHermite1D(v []float64, x float64) {
	v[0] = basis1DNorm * math.Exp(-0.5*x*x)
	if len(v) == 1 {
		return
	}
	v[1] = math.Sqrt2 * x * v[0]
	for n := 2; n < len(v); n++ {
		fn := float64(n)
		v[n] = x*math.Sqrt(2/fn)*v[n-1] - math.Sqrt((fn-1)/fn)*v[n-2]
	}
}

// fillHermiteDerivative1D writes d(psi_n)/dx into d given the values v
// already computed at x, using the ladder identity
// psi_n'(x) = sqrt(2n) psi_{n-1}(x) - x psi_n(x).
func fillHermiteDerivative1D(d, v []float64, x float64) {
	d[0] = -x * v[0]
	for n := 1; n < len(v); n++ {
		d[n] = math.Sqrt(2*float64(n))*v[n-1] - x*v[n]
	}
}

// hermiteIntegral1D returns the full-line integrals of psi_0..psi_order.
// Odd orders vanish by symmetry; even orders follow
// I_0 = sqrt(2) pi^(1/4), I_n = sqrt((n-1)/n) I_{n-2}.
func hermiteIntegral1D(order int) []float64 {
	v := make([]float64, order+1)
	v[0] = math.Sqrt2 * math.Sqrt(math.Sqrt(math.Pi))
	for n := 2; n <= order; n += 2 {
		fn := float64(n)
		v[n] = v[n-2] * math.Sqrt((fn-1)/fn)
	}
	return v
}

// hermiteMomentIntegrals1D returns the zeroth, first, and second moment
// integrals of the 1D functions:
//
//	i0[n] = Int psi_n dx            (even n)
//	i1[n] = Int x psi_n dx          = sqrt(2n) i0[n-1]   (odd n)
//	i2[n] = Int x^2 psi_n dx        = (2n+1) i0[n]       (even n)
func hermiteMomentIntegrals1D(order int) (i0, i1, i2 []float64) {
	i0 = hermiteIntegral1D(order)
	i1 = make([]float64, order+1)
	i2 = make([]float64, order+1)
	for n := 1; n <= order; n += 2 {
		i1[n] = math.Sqrt(2*float64(n)) * i0[n-1]
	}
	for n := 0; n <= order; n += 2 {
		i2[n] = float64(2*n+1) * i0[n]
	}
	return i0, i1, i2
}
