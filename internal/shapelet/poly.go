package shapelet

import "math"

// poly2 is a dense bivariate polynomial Sum c[i][j] x^i y^j, used only by
// the analytic convolution machinery. Degrees stay at or below the sum of
// the two input orders, so dense storage is cheap.
type poly2 struct {
	c [][]float64
}

func newPoly2(degX, degY int) poly2 {
	c := make([][]float64, degX+1)
	for i := range c {
		c[i] = make([]float64, degY+1)
	}
	return poly2{c: c}
}

func poly2Const(v float64) poly2 {
	p := newPoly2(0, 0)
	p.c[0][0] = v
	return p
}

// poly2Linear returns a0 + ax*x + ay*y.
func poly2Linear(a0, ax, ay float64) poly2 {
	p := newPoly2(1, 1)
	p.c[0][0] = a0
	p.c[1][0] = ax
	p.c[0][1] = ay
	return p
}

func (p poly2) degX() int { return len(p.c) - 1 }
func (p poly2) degY() int { return len(p.c[0]) - 1 }

func (p poly2) add(q poly2) poly2 {
	out := newPoly2(maxInt(p.degX(), q.degX()), maxInt(p.degY(), q.degY()))
	for i := range p.c {
		for j := range p.c[i] {
			out.c[i][j] += p.c[i][j]
		}
	}
	for i := range q.c {
		for j := range q.c[i] {
			out.c[i][j] += q.c[i][j]
		}
	}
	return out
}

func (p poly2) scale(s float64) poly2 {
	out := newPoly2(p.degX(), p.degY())
	for i := range p.c {
		for j := range p.c[i] {
			out.c[i][j] = p.c[i][j] * s
		}
	}
	return out
}

func (p poly2) mul(q poly2) poly2 {
	out := newPoly2(p.degX()+q.degX(), p.degY()+q.degY())
	for i := range p.c {
		for j := range p.c[i] {
			if p.c[i][j] == 0 {
				continue
			}
			for k := range q.c {
				for l := range q.c[k] {
					out.c[i+k][j+l] += p.c[i][j] * q.c[k][l]
				}
			}
		}
	}
	return out
}

// compose substitutes x = fx(u, v), y = fy(u, v).
func (p poly2) compose(fx, fy poly2) poly2 {
	// Precompute powers of the substituted variables.
	xp := make([]poly2, p.degX()+1)
	yp := make([]poly2, p.degY()+1)
	xp[0] = poly2Const(1)
	yp[0] = poly2Const(1)
	for i := 1; i <= p.degX(); i++ {
		xp[i] = xp[i-1].mul(fx)
	}
	for j := 1; j <= p.degY(); j++ {
		yp[j] = yp[j-1].mul(fy)
	}
	out := poly2Const(0)
	for i := range p.c {
		for j := range p.c[i] {
			if p.c[i][j] == 0 {
				continue
			}
			out = out.add(xp[i].mul(yp[j]).scale(p.c[i][j]))
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// hermitePolyTable returns the monomial coefficients of the polynomial
// parts h_0..h_order of the normalized 1D Gauss-Hermite functions, so that
// psi_n(x) = h_n(x) exp(-x^2/2). Row n holds the coefficient of x^k at
// index k.
func hermitePolyTable(order int) [][]float64 {
	h := make([][]float64, order+1)
	h[0] = []float64{basis1DNorm}
	if order == 0 {
		return h
	}
	h[1] = []float64{0, math.Sqrt2 * basis1DNorm}
	for n := 2; n <= order; n++ {
		fn := float64(n)
		a := math.Sqrt(2 / fn)
		b := math.Sqrt((fn - 1) / fn)
		row := make([]float64, n+1)
		for k, v := range h[n-1] {
			row[k+1] += a * v
		}
		for k, v := range h[n-2] {
			row[k] -= b * v
		}
		h[n] = row
	}
	return h
}

// monomialToHermiteTable returns A with x^a = Sum_m A[a][m] h_m(x), the
// inverse expansion used to project polynomials onto the Hermite family.
func monomialToHermiteTable(order int) [][]float64 {
	h := hermitePolyTable(order)
	a := make([][]float64, order+1)
	for deg := 0; deg <= order; deg++ {
		row := make([]float64, order+1)
		// Back-substitute x^deg against the triangular h table.
		rem := make([]float64, deg+1)
		rem[deg] = 1
		for m := deg; m >= 0; m-- {
			coef := rem[m] / h[m][m]
			row[m] = coef
			for k, v := range h[m] {
				rem[k] -= coef * v
			}
		}
		a[deg] = row
	}
	return a
}
