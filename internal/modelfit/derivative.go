package modelfit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/shapelet.report/internal/geom"
)

// NumEllipseParameters is the size of the natural ellipse parameterization
// [a, b, theta, cx, cy] that ComputeDerivative differentiates against.
const NumEllipseParameters = 5

// ErrTensorShape reports a derivative tensor whose dimensions do not match
// the builder and parameter count.
var ErrTensorShape = errors.New("modelfit: derivative tensor shape mismatch")

// Tensor3 is a dense (pixels x basisSize x parameters) derivative tensor.
type Tensor3 struct {
	npix    int
	size    int
	nparams int
	data    []float64
}

// NewTensor3 allocates a zero tensor with the given dimensions.
func NewTensor3(npix, size, nparams int) *Tensor3 {
	return &Tensor3{npix: npix, size: size, nparams: nparams, data: make([]float64, npix*size*nparams)}
}

// Dims returns the tensor dimensions (pixels, basisSize, parameters).
func (t *Tensor3) Dims() (npix, size, nparams int) { return t.npix, t.size, t.nparams }

// At returns the derivative of design entry (i, j) with respect to
// parameter k.
func (t *Tensor3) At(i, j, k int) float64 {
	return t.data[(i*t.size+j)*t.nparams+k]
}

func (t *Tensor3) set(i, j, k int, v float64) {
	t.data[(i*t.size+j)*t.nparams+k] = v
}

// ComputeDerivative fills out with the analytic partial derivatives of the
// design matrix with respect to the ellipse parameters, using the basis
// function derivatives chained through the grid transform's dependence on
// [a, b, theta, cx, cy].
//
// When jacobian is nil, out must have NumEllipseParameters parameter
// slices. Otherwise jacobian must be (5 x k): the 5-parameter derivative is
// reparameterized by right-multiplication, so callers can differentiate
// against a reduced or alternative parameterization (center only,
// quadrupole moments via Axes.DQuadrupole, ...) without re-deriving the
// chain rule.
func (b *Builder) ComputeDerivative(out *Tensor3, jacobian mat.Matrix) error {
	nparams := NumEllipseParameters
	if jacobian != nil {
		jr, jc := jacobian.Dims()
		if jr != NumEllipseParameters {
			return fmt.Errorf("%w: jacobian is %dx%d, want %d rows", ErrTensorShape, jr, jc, NumEllipseParameters)
		}
		nparams = jc
	}
	if out.npix != len(b.xs) || out.size != b.size || out.nparams != nparams {
		return fmt.Errorf("%w: tensor is %dx%dx%d, want %dx%dx%d",
			ErrTensorShape, out.npix, out.size, out.nparams, len(b.xs), b.size, nparams)
	}
	transform, err := b.ellipse.GridTransform()
	if err != nil {
		return fmt.Errorf("modelfit: %w", err)
	}
	a := b.ellipse.Core.A
	bb := b.ellipse.Core.B
	l := transform.Linear

	values := make([]float64, b.size)
	dx := make([]float64, b.size)
	dy := make([]float64, b.size)
	var base [NumEllipseParameters]float64
	for i := range b.xs {
		u := transform.Apply(geom.Point{X: float64(b.xs[i]), Y: float64(b.ys[i])})
		if err := b.basis.FillEvaluation(values, u.X, u.Y, dx, dy); err != nil {
			return err
		}
		// Derivatives of the standardized coordinate u with respect to the
		// ellipse parameters:
		//   du/da     = (-ux/a, 0)
		//   du/db     = (0, -uy/b)
		//   du/dtheta = ((b/a) uy, -(a/b) ux)
		//   du/dc     = -L (columns)
		dup := [NumEllipseParameters]geom.Extent{
			{X: -u.X / a, Y: 0},
			{X: 0, Y: -u.Y / bb},
			{X: (bb / a) * u.Y, Y: -(a / bb) * u.X},
			{X: -l.XX, Y: -l.YX},
			{X: -l.XY, Y: -l.YY},
		}
		w := 1.0
		if b.weights != nil {
			w = b.weights[i]
		}
		for j := 0; j < b.size; j++ {
			for p := 0; p < NumEllipseParameters; p++ {
				base[p] = w * (dx[j]*dup[p].X + dy[j]*dup[p].Y)
			}
			if jacobian == nil {
				for p := 0; p < NumEllipseParameters; p++ {
					out.set(i, j, p, base[p])
				}
				continue
			}
			for k := 0; k < nparams; k++ {
				s := 0.0
				for p := 0; p < NumEllipseParameters; p++ {
					s += base[p] * jacobian.At(p, k)
				}
				out.set(i, j, k, s)
			}
		}
	}
	return nil
}
