package shapelet

import (
	"fmt"
	"math"

	"github.com/banshee-data/shapelet.report/internal/geom"
)

// Convolve returns the analytic convolution of the two functions. The
// result has order f.Order()+other.Order(), the receiver's basis type, and
// the convolution of the two ellipses (quadrupole moments add, centers
// add).
//
// The algorithm works in absolute coordinates: each function is a
// polynomial times a Gaussian, the Gaussian product identity reduces the
// convolution integral to Gaussian moments of a polynomial, and the
// resulting polynomial-times-Gaussian is re-expanded exactly in the
// shapelet basis of the convolved ellipse. No numerical integration is
// involved.
func (f *ShapeletFunction) Convolve(other *ShapeletFunction) (*ShapeletFunction, error) {
	resultOrder := f.order + other.order
	resultEllipse := f.ellipse.Convolve(other.ellipse)

	p1, err := absolutePolynomial(f)
	if err != nil {
		return nil, fmt.Errorf("convolve: left operand: %w", err)
	}
	p2, err := absolutePolynomial(other)
	if err != nil {
		return nil, fmt.Errorf("convolve: right operand: %w", err)
	}

	s1 := f.ellipse.Core.Quadrupole()
	s2 := other.ellipse.Core.Quadrupole()
	inv1, err := invertQuad(s1)
	if err != nil {
		return nil, fmt.Errorf("convolve: left operand: %w", err)
	}
	inv2, err := invertQuad(s2)
	if err != nil {
		return nil, fmt.Errorf("convolve: right operand: %w", err)
	}
	// Sigma_s = (Sigma_1^-1 + Sigma_2^-1)^-1 is the covariance of the
	// Gaussian-product factor integrated over.
	ss, err := invertQuad(inv1.Add(inv2))
	if err != nil {
		return nil, fmt.Errorf("convolve: %w", err)
	}

	c1 := f.ellipse.Center
	c2 := other.ellipse.Center
	// mu(x) = Sigma_s (Sigma_1^-1 c1 + Sigma_2^-1 (x - c2)), linear in x.
	bx := inv1.IXX*c1.X + inv1.IXY*c1.Y - (inv2.IXX*c2.X + inv2.IXY*c2.Y)
	by := inv1.IXY*c1.X + inv1.IYY*c1.Y - (inv2.IXY*c2.X + inv2.IYY*c2.Y)
	mu1 := poly2Linear(ss.IXX*bx+ss.IXY*by,
		ss.IXX*inv2.IXX+ss.IXY*inv2.IXY,
		ss.IXX*inv2.IXY+ss.IXY*inv2.IYY)
	mu2 := poly2Linear(ss.IXY*bx+ss.IYY*by,
		ss.IXY*inv2.IXX+ss.IYY*inv2.IXY,
		ss.IXY*inv2.IXY+ss.IYY*inv2.IYY)

	// Coefficient polynomials g[i][j](x) of y1^i y2^j in P1(y) P2(x-y).
	maxDeg := resultOrder
	g2 := shiftedCoefficients(p2, maxDeg)
	g := make([][]poly2, maxDeg+1)
	for i := range g {
		g[i] = make([]poly2, maxDeg+1)
		for j := range g[i] {
			g[i][j] = poly2Const(0)
		}
	}
	for i1 := range p1.c {
		for j1 := range p1.c[i1] {
			if p1.c[i1][j1] == 0 {
				continue
			}
			for i2 := 0; i1+i2 <= maxDeg; i2++ {
				for j2 := 0; j1+j2 <= maxDeg; j2++ {
					if i2 < len(g2) && j2 < len(g2[i2]) {
						g[i1+i2][j1+j2] = g[i1+i2][j1+j2].add(g2[i2][j2].scale(p1.c[i1][j1]))
					}
				}
			}
		}
	}

	// Gaussian moments M[i][j](x) = E[y1^i y2^j] for y ~ N(mu(x), Sigma_s),
	// by the Stein recurrence. Each moment is a polynomial in x.
	m := make([][]poly2, maxDeg+1)
	for i := range m {
		m[i] = make([]poly2, maxDeg+1)
	}
	m[0][0] = poly2Const(1)
	for total := 1; total <= maxDeg; total++ {
		for i := 0; i <= total; i++ {
			j := total - i
			switch {
			case i > 0:
				p := mu1.mul(m[i-1][j])
				if i > 1 {
					p = p.add(m[i-2][j].scale(float64(i-1) * ss.IXX))
				}
				if j > 0 {
					p = p.add(m[i-1][j-1].scale(float64(j) * ss.IXY))
				}
				m[i][j] = p
			default:
				p := mu2.mul(m[0][j-1])
				if j > 1 {
					p = p.add(m[0][j-2].scale(float64(j-1) * ss.IYY))
				}
				m[0][j] = p
			}
		}
	}

	// Q(x) = Sum g[i][j](x) M[i][j](x), prefactor 2 pi sqrt(det Sigma_s).
	q := poly2Const(0)
	for i := 0; i <= maxDeg; i++ {
		for j := 0; i+j <= maxDeg; j++ {
			q = q.add(g[i][j].mul(m[i][j]))
		}
	}
	r := q.scale(2 * math.Pi * math.Sqrt(ss.Det()))

	// Substitute x = Tc^-1(u) to express the result in the unit frame of
	// the convolved ellipse.
	tc, err := resultEllipse.GridTransform()
	if err != nil {
		return nil, fmt.Errorf("convolve: result ellipse: %w", err)
	}
	inv, err := tc.Invert()
	if err != nil {
		return nil, fmt.Errorf("convolve: result ellipse: %w", err)
	}
	ru := r.compose(
		poly2Linear(inv.Translation.X, inv.Linear.XX, inv.Linear.XY),
		poly2Linear(inv.Translation.Y, inv.Linear.YX, inv.Linear.YY),
	)

	// Exact Hermite expansion: the basis of order n1+n2 spans every
	// polynomial of that degree times the convolved Gaussian.
	table := monomialToHermiteTable(resultOrder)
	detC := tc.Linear.Det()
	coeff := make([]float64, ComputeSize(resultOrder))
	for a := 0; a < len(ru.c) && a <= resultOrder; a++ {
		for b := 0; b < len(ru.c[a]) && b <= resultOrder; b++ {
			v := ru.c[a][b]
			if v == 0 {
				continue
			}
			for nx := 0; nx <= a; nx++ {
				for ny := 0; ny <= b; ny++ {
					if nx+ny > resultOrder {
						continue
					}
					coeff[hermiteIndex(nx, ny)] += v * table[a][nx] * table[b][ny] / detC
				}
			}
		}
	}

	out, err := NewShapeletFunction(resultOrder, Hermite, coeff)
	if err != nil {
		return nil, err
	}
	out.SetEllipse(resultEllipse)
	out.ChangeBasisType(f.basis)
	return out, nil
}

// absolutePolynomial returns the polynomial part P of f in absolute
// coordinates, so that f(x) = P(x) exp(-(x-c)^T Sigma^-1 (x-c) / 2).
func absolutePolynomial(f *ShapeletFunction) (poly2, error) {
	t, err := f.ellipse.GridTransform()
	if err != nil {
		return poly2{}, err
	}
	coeff := make([]float64, len(f.coefficients))
	copy(coeff, f.coefficients)
	convertVector(coeff, f.basis, Hermite, f.order)

	t1 := poly2Linear(t.Translation.X, t.Linear.XX, t.Linear.XY)
	t2 := poly2Linear(t.Translation.Y, t.Linear.YX, t.Linear.YY)
	// Hermite polynomial parts of the transformed coordinates, built by the
	// same recurrence the evaluator uses.
	hx := make([]poly2, f.order+1)
	hy := make([]poly2, f.order+1)
	hx[0] = poly2Const(basis1DNorm)
	hy[0] = poly2Const(basis1DNorm)
	if f.order >= 1 {
		hx[1] = t1.scale(math.Sqrt2 * basis1DNorm)
		hy[1] = t2.scale(math.Sqrt2 * basis1DNorm)
	}
	for n := 2; n <= f.order; n++ {
		fn := float64(n)
		hx[n] = t1.mul(hx[n-1]).scale(math.Sqrt(2 / fn)).add(hx[n-2].scale(-math.Sqrt((fn - 1) / fn)))
		hy[n] = t2.mul(hy[n-1]).scale(math.Sqrt(2 / fn)).add(hy[n-2].scale(-math.Sqrt((fn - 1) / fn)))
	}
	det := t.Linear.Det()
	p := poly2Const(0)
	for n := 0; n <= f.order; n++ {
		for nx := 0; nx <= n; nx++ {
			c := coeff[hermiteIndex(nx, n-nx)]
			if c == 0 {
				continue
			}
			p = p.add(hx[nx].mul(hy[n-nx]).scale(c * det))
		}
	}
	return p, nil
}

// shiftedCoefficients expands P(x - y) into polynomials in x indexed by the
// powers of y: out[i][j](x) is the coefficient of y1^i y2^j.
func shiftedCoefficients(p poly2, maxDeg int) [][]poly2 {
	out := make([][]poly2, maxDeg+1)
	for i := range out {
		out[i] = make([]poly2, maxDeg+1)
		for j := range out[i] {
			out[i][j] = poly2Const(0)
		}
	}
	for a := range p.c {
		for b := range p.c[a] {
			v := p.c[a][b]
			if v == 0 {
				continue
			}
			for i := 0; i <= a && i <= maxDeg; i++ {
				for j := 0; j <= b && j <= maxDeg; j++ {
					sign := 1.0
					if (i+j)%2 == 1 {
						sign = -1
					}
					term := newPoly2(a-i, b-j)
					term.c[a-i][b-j] = v * sign * binomial(a, i) * binomial(b, j)
					out[i][j] = out[i][j].add(term)
				}
			}
		}
	}
	return out
}

func binomial(n, k int) float64 {
	out := 1.0
	for i := 0; i < k; i++ {
		out *= float64(n-i) / float64(i+1)
	}
	return out
}

// invertQuad inverts a quadrupole treated as a 2x2 covariance matrix.
func invertQuad(q geom.Quadrupole) (geom.Quadrupole, error) {
	det := q.Det()
	if det <= 0 || math.IsNaN(det) {
		return geom.Quadrupole{}, fmt.Errorf("%w: quadrupole determinant %g", geom.ErrDegenerateEllipse, det)
	}
	return geom.Quadrupole{
		IXX: q.IYY / det,
		IYY: q.IXX / det,
		IXY: -q.IXY / det,
	}, nil
}
