package shapelet

import (
	"github.com/banshee-data/shapelet.report/internal/geom"
	"github.com/banshee-data/shapelet.report/internal/raster"
)

// MultiShapeletFunction is a sum of ShapeletFunction elements with
// independent orders, basis families, and ellipses.
type MultiShapeletFunction struct {
	elements []*ShapeletFunction
}

// NewMultiShapeletFunction constructs a multi-function over the given
// elements. The element slice is owned by the multi-function; the elements
// themselves remain shared and mutable.
func NewMultiShapeletFunction(elements []*ShapeletFunction) *MultiShapeletFunction {
	return &MultiShapeletFunction{elements: elements}
}

// Elements returns the element slice.
func (m *MultiShapeletFunction) Elements() []*ShapeletFunction { return m.elements }

// Evaluate snapshots every element into a MultiEvaluator.
func (m *MultiShapeletFunction) Evaluate() (*MultiEvaluator, error) {
	evs := make([]*Evaluator, len(m.elements))
	for i, el := range m.elements {
		ev, err := el.Evaluate()
		if err != nil {
			return nil, err
		}
		evs[i] = ev
	}
	return &MultiEvaluator{elements: evs}, nil
}

// Normalize scales every element by a common factor so the total integral
// equals value.
func (m *MultiShapeletFunction) Normalize(value float64) error {
	ev, err := m.Evaluate()
	if err != nil {
		return err
	}
	total := ev.Integrate()
	if total == 0 {
		return ErrZeroIntegral
	}
	factor := value / total
	for _, el := range m.elements {
		for i := range el.coefficients {
			el.coefficients[i] *= factor
		}
	}
	return nil
}

// ShiftInPlace translates every element by offset.
func (m *MultiShapeletFunction) ShiftInPlace(offset geom.Extent) {
	for _, el := range m.elements {
		el.ShiftInPlace(offset)
	}
}

// TransformInPlace pushes every element through an affine map.
func (m *MultiShapeletFunction) TransformInPlace(t geom.AffineTransform) {
	for _, el := range m.elements {
		el.TransformInPlace(t)
	}
}

// Convolve convolves every element with other, returning a new
// multi-function.
func (m *MultiShapeletFunction) Convolve(other *ShapeletFunction) (*MultiShapeletFunction, error) {
	out := make([]*ShapeletFunction, len(m.elements))
	for i, el := range m.elements {
		c, err := el.Convolve(other)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return NewMultiShapeletFunction(out), nil
}

// ConvolveMulti convolves every element pair of the two multi-functions.
func (m *MultiShapeletFunction) ConvolveMulti(other *MultiShapeletFunction) (*MultiShapeletFunction, error) {
	var out []*ShapeletFunction
	for _, o := range other.elements {
		for _, el := range m.elements {
			c, err := el.Convolve(o)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return NewMultiShapeletFunction(out), nil
}

// MultiEvaluator sums the snapshot evaluators of a multi-function's
// elements.
type MultiEvaluator struct {
	elements []*Evaluator
}

// At evaluates the superposition at the absolute coordinate (x, y).
func (e *MultiEvaluator) At(x, y float64) float64 {
	s := 0.0
	for _, el := range e.elements {
		s += el.At(x, y)
	}
	return s
}

// Integrate sums the element integrals.
func (e *MultiEvaluator) Integrate() float64 {
	s := 0.0
	for _, el := range e.elements {
		s += el.Integrate()
	}
	return s
}

// AddToImage accumulates every element onto the image.
func (e *MultiEvaluator) AddToImage(im *raster.Image) {
	for _, el := range e.elements {
		el.AddToImage(im)
	}
}

// ComputeMoments combines element moments as a flux-weighted mixture:
// raw moments accumulate across elements before the centroid and
// quadrupole are formed, which is the parallel-axis combination rule.
// Naive averaging of element ellipses would be wrong once elements carry
// different fluxes or offsets.
func (e *MultiEvaluator) ComputeMoments() Moments {
	var q0, q1x, q1y, q2xx, q2yy, q2xy float64
	for _, el := range e.elements {
		a0, a1x, a1y, a2xx, a2yy, a2xy := el.rawMoments()
		q0 += a0
		q1x += a1x
		q1y += a1y
		q2xx += a2xx
		q2yy += a2yy
		q2xy += a2xy
	}
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
