package shapelet

import (
	"errors"
	"fmt"

	"github.com/banshee-data/shapelet.report/internal/geom"
	"github.com/banshee-data/shapelet.report/internal/raster"
)

// ErrZeroIntegral reports an attempt to normalize a function whose total
// integral is zero.
var ErrZeroIntegral = errors.New("shapelet: cannot normalize a function with zero integral")

// ShapeletFunction couples a coefficient vector, a basis family and order,
// and an ellipse into a single 2D scalar field:
//
//	f(p) = det(L) * Sum_j coefficients[j] * basis_j(T(p))
//
// where T is the ellipse's grid transform and L its linear part. The
// determinant factor makes integrals invariant under the ellipse transform.
type ShapeletFunction struct {
	order        int
	basis        BasisType
	coefficients []float64
	ellipse      geom.Ellipse
}

// NewShapeletFunction constructs a function that takes ownership of the
// coefficient slice; callers may continue to mutate coefficients in place
// through Coefficients. The ellipse defaults to the unit circle at the
// origin.
func NewShapeletFunction(order int, basis BasisType, coefficients []float64) (*ShapeletFunction, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	if len(coefficients) != ComputeSize(order) {
		return nil, fmt.Errorf("%w: len(coefficients)=%d, size=%d",
			ErrVectorLength, len(coefficients), ComputeSize(order))
	}
	return &ShapeletFunction{
		order:        order,
		basis:        basis,
		coefficients: coefficients,
		ellipse:      geom.NewEllipse(geom.Axes{A: 1, B: 1}, geom.Point{}),
	}, nil
}

// NewZeroShapeletFunction constructs a function with all-zero coefficients
// and the given ellipse.
func NewZeroShapeletFunction(order int, basis BasisType, ellipse geom.Ellipse) (*ShapeletFunction, error) {
	f, err := NewShapeletFunction(order, basis, make([]float64, ComputeSize(order)))
	if err != nil {
		return nil, err
	}
	f.ellipse = ellipse
	return f, nil
}

// Order returns the basis order.
func (f *ShapeletFunction) Order() int { return f.order }

// BasisType returns the basis family.
func (f *ShapeletFunction) BasisType() BasisType { return f.basis }

// Coefficients returns the backing coefficient slice for in-place edits.
func (f *ShapeletFunction) Coefficients() []float64 { return f.coefficients }

// Ellipse returns the function's ellipse.
func (f *ShapeletFunction) Ellipse() geom.Ellipse { return f.ellipse }

// SetEllipse replaces the function's ellipse.
func (f *ShapeletFunction) SetEllipse(e geom.Ellipse) { f.ellipse = e }

// ChangeBasisType converts the coefficients to the given family in place,
// leaving the evaluated function value unchanged to within rounding.
func (f *ShapeletFunction) ChangeBasisType(to BasisType) {
	convertVector(f.coefficients, f.basis, to, f.order)
	f.basis = to
}

// ShiftInPlace translates the function by offset.
func (f *ShapeletFunction) ShiftInPlace(offset geom.Extent) {
	f.ellipse = f.ellipse.Shift(offset)
}

// TransformInPlace pushes the function's ellipse through an affine map.
func (f *ShapeletFunction) TransformInPlace(t geom.AffineTransform) {
	f.ellipse = f.ellipse.Transform(t)
}

// Normalize scales the coefficients so the function integrates to value.
func (f *ShapeletFunction) Normalize(value float64) error {
	ev, err := f.Evaluate()
	if err != nil {
		return err
	}
	total := ev.Integrate()
	if total == 0 {
		return ErrZeroIntegral
	}
	factor := value / total
	for i := range f.coefficients {
		f.coefficients[i] *= factor
	}
	return nil
}

// Evaluate binds the function's current ellipse and coefficients into a
// stateless Evaluator. The evaluator captures copies, so later mutation of
// the function does not affect it.
func (f *ShapeletFunction) Evaluate() (*Evaluator, error) {
	transform, err := f.ellipse.GridTransform()
	if err != nil {
		return nil, err
	}
	coeff := make([]float64, len(f.coefficients))
	copy(coeff, f.coefficients)
	// The evaluator works in the Hermite family internally; the conversion
	// is orthogonal so values are identical.
	convertVector(coeff, f.basis, Hermite, f.order)
	basis, err := NewBasisEvaluator(f.order, Hermite)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		order:        f.order,
		coefficients: coeff,
		transform:    transform,
		det:          transform.Linear.Det(),
		basis:        basis,
		workspace:    make([]float64, ComputeSize(f.order)),
	}, nil
}

// Moments holds the analytic flux, centroid, and quadrupole of a function.
type Moments struct {
	Flux   float64
	Center geom.Point
	Quad   geom.Quadrupole
}

// Ellipse returns the moments as an ellipse (centroid plus quadrupole
// converted to axes).
func (m Moments) Ellipse() geom.Ellipse {
	return geom.EllipseFromQuadrupole(m.Quad, m.Center)
}

// Evaluator is a snapshot of a ShapeletFunction's parameters at the time
// Evaluate was called. It is owned by a single caller and must not be
// shared across goroutines.
type Evaluator struct {
	order        int
	coefficients []float64 // always Hermite
	transform    geom.AffineTransform
	det          float64
	basis        *BasisEvaluator
	workspace    []float64
}

// At evaluates the function at the absolute coordinate (x, y).
func (e *Evaluator) At(x, y float64) float64 {
	u := e.transform.Apply(geom.Point{X: x, Y: y})
	// Workspace length is ComputeSize(order) by construction.
	_ = e.basis.FillEvaluation(e.workspace, u.X, u.Y, nil, nil)
	s := 0.0
	for i, v := range e.workspace {
		s += v * e.coefficients[i]
	}
	return s * e.det
}

// Integrate returns the analytic integral of the function over the plane.
func (e *Evaluator) Integrate() float64 {
	_ = e.basis.FillIntegration(e.workspace)
	s := 0.0
	for i, v := range e.workspace {
		s += v * e.coefficients[i]
	}
	return s
}

// AddToImage accumulates the function's value at every pixel center of the
// image onto the image. Existing pixel values are preserved so multiple
// functions can superpose onto the same raster.
func (e *Evaluator) AddToImage(im *raster.Image) {
	for y := im.Bounds.MinY; y <= im.Bounds.MaxY; y++ {
		for x := im.Bounds.MinX; x <= im.Bounds.MaxX; x++ {
			im.AddAt(x, y, e.At(float64(x), float64(y)))
		}
	}
}

// ComputeMoments returns the analytic flux, centroid, and quadrupole of the
// function in absolute coordinates.
func (e *Evaluator) ComputeMoments() Moments {
	q0, q1x, q1y, q2xx, q2yy, q2xy := e.rawMoments()
	cx := q1x / q0
	cy := q1y / q0
	return Moments{
		Flux:   q0,
		Center: geom.Point{X: cx, Y: cy},
		Quad: geom.Quadrupole{
			IXX: q2xx/q0 - cx*cx,
			IYY: q2yy/q0 - cy*cy,
			IXY: q2xy/q0 - cx*cy,
		},
	}
}

// rawMoments accumulates the unnormalized moments Int f, Int f*x, and
// Int f*x*x^T. The unit-frame moments follow from the 1D moment integrals;
// the inverse grid transform carries them back to absolute coordinates.
func (e *Evaluator) rawMoments() (q0, q1x, q1y, q2xx, q2yy, q2xy float64) {
	i0, i1, i2 := hermiteMomentIntegrals1D(e.order)
	var m0, mx, my, mxx, myy, mxy float64
	for n := 0; n <= e.order; n++ {
		for nx := 0; nx <= n; nx++ {
			ny := n - nx
			c := e.coefficients[hermiteIndex(nx, ny)]
			m0 += c * i0[nx] * i0[ny]
			mx += c * i1[nx] * i0[ny]
			my += c * i0[nx] * i1[ny]
			mxx += c * i2[nx] * i0[ny]
			myy += c * i0[nx] * i2[ny]
			mxy += c * i1[nx] * i1[ny]
		}
	}
	// x = S(u) with S the inverse grid transform; the determinant factor in
	// the evaluator cancels the Jacobian of the substitution exactly.
	s, err := e.transform.Invert()
	if err != nil {
		// The grid transform was validated invertible at evaluator
		// construction.
		panic(err)
	}
	l, t := s.Linear, s.Translation
	q0 = m0
	q1x = l.XX*mx + l.XY*my + t.X*m0
	q1y = l.YX*mx + l.YY*my + t.Y*m0
	// S.L M2 S.L^T
	axx := l.XX*l.XX*mxx + 2*l.XX*l.XY*mxy + l.XY*l.XY*myy
	ayy := l.YX*l.YX*mxx + 2*l.YX*l.YY*mxy + l.YY*l.YY*myy
	axy := l.XX*l.YX*mxx + (l.XX*l.YY+l.XY*l.YX)*mxy + l.XY*l.YY*myy
	// cross terms with the translation
	lmx := l.XX*mx + l.XY*my
	lmy := l.YX*mx + l.YY*my
	q2xx = axx + 2*t.X*lmx + t.X*t.X*m0
	q2yy = ayy + 2*t.Y*lmy + t.Y*t.Y*m0
	q2xy = axy + t.X*lmy + t.Y*lmx + t.X*t.Y*m0
	return q0, q1x, q1y, q2xx, q2yy, q2xy
}
