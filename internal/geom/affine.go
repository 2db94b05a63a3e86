package geom

import (
	"errors"
	"math"
)

// ErrSingularTransform reports a linear transform with no inverse. It is a
// runtime numerical condition, distinct from construction-time usage errors.
var ErrSingularTransform = errors.New("geom: singular linear transform")

// singularDetEpsilon is the determinant magnitude below which a linear
// transform is treated as non-invertible.
const singularDetEpsilon = 1e-300

// LinearTransform is a 2x2 real matrix
//
//	[ XX  XY ]
//	[ YX  YY ]
//
// applied to column vectors.
type LinearTransform struct {
	XX, XY float64
	YX, YY float64
}

// IdentityLinear returns the identity linear transform.
func IdentityLinear() LinearTransform {
	return LinearTransform{XX: 1, YY: 1}
}

// RotationLinear returns the counter-clockwise rotation by theta radians.
func RotationLinear(theta float64) LinearTransform {
	c, s := math.Cos(theta), math.Sin(theta)
	return LinearTransform{XX: c, XY: -s, YX: s, YY: c}
}

// ScaleLinear returns the diagonal scaling transform diag(sx, sy).
func ScaleLinear(sx, sy float64) LinearTransform {
	return LinearTransform{XX: sx, YY: sy}
}

// Apply returns the matrix-vector product L * e.
func (l LinearTransform) Apply(e Extent) Extent {
	return Extent{
		X: l.XX*e.X + l.XY*e.Y,
		Y: l.YX*e.X + l.YY*e.Y,
	}
}

// Compose returns the product l * m (apply m first, then l).
func (l LinearTransform) Compose(m LinearTransform) LinearTransform {
	return LinearTransform{
		XX: l.XX*m.XX + l.XY*m.YX,
		XY: l.XX*m.XY + l.XY*m.YY,
		YX: l.YX*m.XX + l.YY*m.YX,
		YY: l.YX*m.XY + l.YY*m.YY,
	}
}

// Det returns the determinant of the transform.
func (l LinearTransform) Det() float64 {
	return l.XX*l.YY - l.XY*l.YX
}

// Invert returns the inverse transform, or ErrSingularTransform when the
// determinant is effectively zero.
func (l LinearTransform) Invert() (LinearTransform, error) {
	det := l.Det()
	if math.Abs(det) < singularDetEpsilon || math.IsNaN(det) {
		return LinearTransform{}, ErrSingularTransform
	}
	inv := 1.0 / det
	return LinearTransform{
		XX: l.YY * inv,
		XY: -l.XY * inv,
		YX: -l.YX * inv,
		YY: l.XX * inv,
	}, nil
}

// AffineTransform maps p -> Linear*p + Translation.
type AffineTransform struct {
	Linear      LinearTransform
	Translation Extent
}

// IdentityAffine returns the identity affine transform.
func IdentityAffine() AffineTransform {
	return AffineTransform{Linear: IdentityLinear()}
}

// Apply maps the point p through the transform.
func (t AffineTransform) Apply(p Point) Point {
	e := t.Linear.Apply(p.AsExtent())
	return Point{X: e.X + t.Translation.X, Y: e.Y + t.Translation.Y}
}

// ApplyExtent maps a displacement through the linear part only.
func (t AffineTransform) ApplyExtent(e Extent) Extent {
	return t.Linear.Apply(e)
}

// Compose returns the transform equivalent to applying u first, then t.
func (t AffineTransform) Compose(u AffineTransform) AffineTransform {
	return AffineTransform{
		Linear:      t.Linear.Compose(u.Linear),
		Translation: Extent{
			X: t.Linear.XX*u.Translation.X + t.Linear.XY*u.Translation.Y + t.Translation.X,
			Y: t.Linear.YX*u.Translation.X + t.Linear.YY*u.Translation.Y + t.Translation.Y,
		},
	}
}

// Invert returns the inverse affine transform.
func (t AffineTransform) Invert() (AffineTransform, error) {
	li, err := t.Linear.Invert()
	if err != nil {
		return AffineTransform{}, err
	}
	nt := li.Apply(t.Translation)
	return AffineTransform{
		Linear:      li,
		Translation: Extent{X: -nt.X, Y: -nt.Y},
	}, nil
}
