package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateEllipse reports an ellipse whose core has a non-positive
// semi-axis, which has no grid transform.
var ErrDegenerateEllipse = errors.New("geom: degenerate ellipse")

// Axes is an ellipse core parameterized by semi-major axis A, semi-minor
// axis B, and position angle Theta (radians, measured counter-clockwise
// from the x-axis to the major axis).
type Axes struct {
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	Theta float64 `json:"theta"`
}

// Quadrupole is an ellipse core parameterized by second moments:
//
//	[ IXX  IXY ]
//	[ IXY  IYY ]
type Quadrupole struct {
	IXX float64 `json:"ixx"`
	IYY float64 `json:"iyy"`
	IXY float64 `json:"ixy"`
}

// Quadrupole converts the axes core to second moments using
// Q = R(theta) diag(a^2, b^2) R(theta)^T.
func (ax Axes) Quadrupole() Quadrupole {
	c, s := math.Cos(ax.Theta), math.Sin(ax.Theta)
	a2, b2 := ax.A*ax.A, ax.B*ax.B
	return Quadrupole{
		IXX: a2*c*c + b2*s*s,
		IYY: a2*s*s + b2*c*c,
		IXY: (a2 - b2) * c * s,
	}
}

// Axes converts the moment core to semi-axes and position angle via the
// eigendecomposition of the 2x2 moment matrix.
func (q Quadrupole) Axes() Axes {
	t := q.IXX + q.IYY
	d := q.IXX - q.IYY
	r := math.Hypot(d, 2*q.IXY)
	a2 := 0.5 * (t + r)
	b2 := 0.5 * (t - r)
	if b2 < 0 {
		b2 = 0
	}
	return Axes{
		A:     math.Sqrt(a2),
		B:     math.Sqrt(b2),
		Theta: 0.5 * math.Atan2(2*q.IXY, d),
	}
}

// Det returns the determinant of the moment matrix.
func (q Quadrupole) Det() float64 {
	return q.IXX*q.IYY - q.IXY*q.IXY
}

// Add returns the element-wise sum of the two moment matrices. Moments add
// under convolution of the underlying distributions.
func (q Quadrupole) Add(o Quadrupole) Quadrupole {
	return Quadrupole{IXX: q.IXX + o.IXX, IYY: q.IYY + o.IYY, IXY: q.IXY + o.IXY}
}

// DQuadrupole returns the 3x3 Jacobian d(a, b, theta)/d(ixx, iyy, ixy)
// evaluated at the quadrupole equivalent of ax. Row order is (a, b, theta);
// column order is (ixx, iyy, ixy). This is the chain-rule block used to
// differentiate with respect to a quadrupole reparameterization.
func (ax Axes) DQuadrupole() [3][3]float64 {
	q := ax.Quadrupole()
	d := q.IXX - q.IYY
	r := math.Hypot(d, 2*q.IXY)
	// At r == 0 the decomposition is not differentiable (circular core);
	// return the symmetric limit with dTheta terms zeroed.
	if r == 0 {
		inv4a := 1.0 / (4 * ax.A)
		return [3][3]float64{
			{inv4a, inv4a, 0},
			{inv4a, inv4a, 0},
			{0, 0, 0},
		}
	}
	dr := d / r
	var j [3][3]float64
	// a^2 = (t + r)/2  =>  da = (dt + dr)/(4a)
	j[0][0] = (1 + dr) / (4 * ax.A)
	j[0][1] = (1 - dr) / (4 * ax.A)
	j[0][2] = q.IXY / (r * ax.A)
	// b^2 = (t - r)/2
	j[1][0] = (1 - dr) / (4 * ax.B)
	j[1][1] = (1 + dr) / (4 * ax.B)
	j[1][2] = -q.IXY / (r * ax.B)
	// theta = atan2(2 ixy, d) / 2
	r2 := r * r
	j[2][0] = -q.IXY / r2
	j[2][1] = q.IXY / r2
	j[2][2] = d / r2
	return j
}

// Ellipse is an elliptical region: an axes core plus a center point.
// Ellipses are value types and freely copyable.
type Ellipse struct {
	Core   Axes  `json:"core"`
	Center Point `json:"center"`
}

// NewEllipse constructs an ellipse from a core and center.
func NewEllipse(core Axes, center Point) Ellipse {
	return Ellipse{Core: core, Center: center}
}

// EllipseFromQuadrupole constructs an ellipse from a moment core and center.
func EllipseFromQuadrupole(q Quadrupole, center Point) Ellipse {
	return Ellipse{Core: q.Axes(), Center: center}
}

// ParameterVector returns the natural 5-parameter vector
// [a, b, theta, cx, cy].
func (e Ellipse) ParameterVector() [5]float64 {
	return [5]float64{e.Core.A, e.Core.B, e.Core.Theta, e.Center.X, e.Center.Y}
}

// GridTransform returns the affine map from the absolute frame to the
// dimensionless frame in which the ellipse becomes the unit circle:
//
//	u = diag(1/a, 1/b) R(-theta) (p - center)
//
// Returns ErrDegenerateEllipse when either semi-axis is not positive.
func (e Ellipse) GridTransform() (AffineTransform, error) {
	if !(e.Core.A > 0) || !(e.Core.B > 0) {
		return AffineTransform{}, fmt.Errorf("%w: a=%g b=%g", ErrDegenerateEllipse, e.Core.A, e.Core.B)
	}
	l := ScaleLinear(1/e.Core.A, 1/e.Core.B).Compose(RotationLinear(-e.Core.Theta))
	return AffineTransform{
		Linear:      l,
		Translation: l.Apply(Extent{X: -e.Center.X, Y: -e.Center.Y}),
	}, nil
}

// Convolve returns the ellipse of the convolution of the two underlying
// Gaussian distributions: quadrupole moments add and centers add.
func (e Ellipse) Convolve(o Ellipse) Ellipse {
	q := e.Core.Quadrupole().Add(o.Core.Quadrupole())
	return Ellipse{
		Core:   q.Axes(),
		Center: Point{X: e.Center.X + o.Center.X, Y: e.Center.Y + o.Center.Y},
	}
}

// Scale multiplies both semi-axes by factor, leaving the center fixed.
func (e Ellipse) Scale(factor float64) Ellipse {
	e.Core.A *= factor
	e.Core.B *= factor
	return e
}

// Shift returns the ellipse translated by offset.
func (e Ellipse) Shift(offset Extent) Ellipse {
	e.Center = e.Center.Add(offset)
	return e
}

// Transform pushes the ellipse through an affine map: the center maps as a
// point and the frame matrix R(theta) diag(a, b) is left-multiplied by the
// linear part. The new core comes from a polar decomposition of the mapped
// frame matrix, not from the moment matrix: the moment round trip cannot
// see the orthogonal polar factor, so it drops the orientation of circular
// cores under rotation.
func (e Ellipse) Transform(t AffineTransform) Ellipse {
	m := t.Linear.Compose(RotationLinear(e.Core.Theta).Compose(ScaleLinear(e.Core.A, e.Core.B)))
	// m = R(thetaU) p with p symmetric (polar decomposition), then
	// p = R(psi) diag(a, b) R(-psi). The trailing R(-psi) is the residual
	// shear frame and is dropped; it is the identity whenever m maps the
	// core to another axes-aligned frame (rotations, axis scalings).
	thetaU := math.Atan2(m.YX-m.XY, m.XX+m.YY)
	p := RotationLinear(-thetaU).Compose(m)
	tr := p.XX + p.YY
	d := p.XX - p.YY
	off := p.XY + p.YX
	r := math.Hypot(d, off)
	a := 0.5 * (tr + r)
	b := 0.5 * (tr - r)
	if b < 0 {
		// Reflection: fold the flip into the dropped residual frame.
		b = -b
	}
	core := Axes{A: a, B: b, Theta: thetaU + 0.5*math.Atan2(off, d)}
	return Ellipse{Core: core, Center: t.Apply(e.Center)}
}
