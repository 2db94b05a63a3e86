package shapelet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/shapelet.report/internal/geom"
	"github.com/banshee-data/shapelet.report/internal/testutil"
)

// testMixture builds a three-component mixture with distinct ellipses and
// positive total flux.
func testMixture(t *testing.T) *MultiShapeletFunction {
	t.Helper()
	rng := testutil.NewRand(77)
	ellipses := []geom.Ellipse{
		geom.NewEllipse(geom.Axes{A: 1.0, B: 0.7, Theta: 0.2}, geom.Point{X: 0.5, Y: -0.3}),
		geom.NewEllipse(geom.Axes{A: 1.8, B: 1.1, Theta: -0.6}, geom.Point{X: -0.4, Y: 0.6}),
		geom.NewEllipse(geom.Axes{A: 0.9, B: 0.9, Theta: 0}, geom.Point{X: 0.1, Y: 0.1}),
	}
	elements := make([]*ShapeletFunction, 0, len(ellipses))
	for i, e := range ellipses {
		order := 2 + i%2
		coefficients := make([]float64, ComputeSize(order))
		for j := range coefficients {
			coefficients[j] = 0.3 * rng.Norm()
		}
		coefficients[0] += 2.0
		f, err := NewShapeletFunction(order, Hermite, coefficients)
		require.NoError(t, err)
		f.SetEllipse(e)
		elements = append(elements, f)
	}
	return NewMultiShapeletFunction(elements)
}

// A mixture evaluator is the pointwise sum of its element evaluators.
func TestMultiEvaluatorIsSumOfElements(t *testing.T) {
	m := testMixture(t)
	ev, err := m.Evaluate()
	require.NoError(t, err)
	rng := testutil.NewRand(13)
	for trial := 0; trial < 20; trial++ {
		x, y := rng.Uniform(-3, 3), rng.Uniform(-3, 3)
		var want float64
		for _, f := range m.Elements() {
			fe, err := f.Evaluate()
			require.NoError(t, err)
			want += fe.At(x, y)
		}
		testutil.AssertClose(t, ev.At(x, y), want, 1e-12, 1e-14, "mixture value")
	}
}

func TestMultiIntegrateIsSumOfElements(t *testing.T) {
	m := testMixture(t)
	ev, err := m.Evaluate()
	require.NoError(t, err)
	var want float64
	for _, f := range m.Elements() {
		fe, err := f.Evaluate()
		require.NoError(t, err)
		want += fe.Integrate()
	}
	testutil.AssertClose(t, ev.Integrate(), want, 1e-12, 1e-14, "mixture integral")
}

// Mixture moments from raw-moment accumulation must match moments measured
// from a densely sampled image of the mixture.
func TestMultiComputeMomentsMatchesImage(t *testing.T) {
	m := testMixture(t)
	ev, err := m.Evaluate()
	require.NoError(t, err)
	xs, ys, z := sampleGrid(t, ev.At, 15, 151)
	flux, imageMoments := measureImageMoments(xs, ys, z)
	analytic := ev.ComputeMoments()
	testutil.AssertClose(t, analytic.Flux, flux, 1e-3, 1e-2, "mixture flux")
	testutil.AssertClose(t, analytic.Center.X, imageMoments.Center.X, 1e-4, 1e-3, "mixture center.x")
	testutil.AssertClose(t, analytic.Center.Y, imageMoments.Center.Y, 1e-4, 1e-3, "mixture center.y")
	testutil.AssertClose(t, analytic.Quad.IXX, imageMoments.Quad.IXX, 1e-4, 1e-3, "mixture ixx")
	testutil.AssertClose(t, analytic.Quad.IYY, imageMoments.Quad.IYY, 1e-4, 1e-3, "mixture iyy")
	testutil.AssertClose(t, analytic.Quad.IXY, imageMoments.Quad.IXY, 1e-4, 1e-3, "mixture ixy")
}

func TestMultiNormalize(t *testing.T) {
	m := testMixture(t)
	require.NoError(t, m.Normalize(1))
	ev, err := m.Evaluate()
	require.NoError(t, err)
	testutil.AssertClose(t, ev.Integrate(), 1, 1e-12, 1e-14, "normalized mixture")
}

// Shifting the mixture moves every element; the value field translates
// rigidly.
func TestMultiShiftInPlace(t *testing.T) {
	m := testMixture(t)
	ev1, err := m.Evaluate()
	require.NoError(t, err)
	v := ev1.At(0.25, -0.5)
	m.ShiftInPlace(geom.Extent{X: 1.5, Y: 2.0})
	ev2, err := m.Evaluate()
	require.NoError(t, err)
	testutil.AssertClose(t, ev2.At(1.75, 1.5), v, 1e-12, 1e-14, "shifted mixture")
}

func TestMultiTransformInPlace(t *testing.T) {
	m := testMixture(t)
	ev1, err := m.Evaluate()
	require.NoError(t, err)
	v := ev1.At(0.8, 0.2)
	tr := geom.AffineTransform{
		Linear:      geom.RotationLinear(0.4),
		Translation: geom.Extent{X: 0.3, Y: -0.7},
	}
	m.TransformInPlace(tr)
	p := tr.Apply(geom.Point{X: 0.8, Y: 0.2})
	ev2, err := m.Evaluate()
	require.NoError(t, err)
	testutil.AssertClose(t, ev2.At(p.X, p.Y), v, 1e-10, 1e-12, "transformed mixture")
}

// Seeded sweep over randomized mixtures: element count, orders, basis
// families, and ellipses all vary, and the sum and integral identities must
// hold for each draw.
func TestMultiRandomizedMixtures(t *testing.T) {
	rng := testutil.NewRand(4242)
	for trial := 0; trial < 8; trial++ {
		n := 1 + int(rng.Uniform(0, 4))
		elements := make([]*ShapeletFunction, 0, n)
		for i := 0; i < n; i++ {
			order := int(rng.Uniform(0, 4))
			basis := Hermite
			if rng.Float64() < 0.5 {
				basis = Laguerre
			}
			coefficients := make([]float64, ComputeSize(order))
			for j := range coefficients {
				coefficients[j] = 0.3 * rng.Norm()
			}
			coefficients[0] += 1.5
			f, err := NewShapeletFunction(order, basis, coefficients)
			require.NoError(t, err)
			b := rng.Uniform(0.4, 1.2)
			f.SetEllipse(geom.NewEllipse(
				geom.Axes{A: b + rng.Uniform(0, 1.5), B: b, Theta: rng.Uniform(-1.5, 1.5)},
				geom.Point{X: rng.Uniform(-1, 1), Y: rng.Uniform(-1, 1)},
			))
			elements = append(elements, f)
		}
		m := NewMultiShapeletFunction(elements)
		ev, err := m.Evaluate()
		require.NoError(t, err)

		var wantIntegral float64
		elementEvs := make([]*Evaluator, 0, n)
		for _, f := range m.Elements() {
			fe, err := f.Evaluate()
			require.NoError(t, err)
			elementEvs = append(elementEvs, fe)
			wantIntegral += fe.Integrate()
		}
		testutil.AssertClose(t, ev.Integrate(), wantIntegral, 1e-12, 1e-14, "random mixture integral")
		for p := 0; p < 5; p++ {
			x, y := rng.Uniform(-3, 3), rng.Uniform(-3, 3)
			var want float64
			for _, fe := range elementEvs {
				want += fe.At(x, y)
			}
			testutil.AssertClose(t, ev.At(x, y), want, 1e-12, 1e-14, "random mixture value")
		}
	}
}

// Convolving a mixture with a mixture yields one element per pair, and
// the flux of the result is the product of the total fluxes when every
// element is normalized in flux terms.
func TestMultiConvolveStructure(t *testing.T) {
	m := testMixture(t)
	coefficients := make([]float64, ComputeSize(0))
	coefficients[0] = 1.5
	k, err := NewShapeletFunction(0, Hermite, coefficients)
	require.NoError(t, err)
	k.SetEllipse(geom.NewEllipse(geom.Axes{A: 0.8, B: 0.6, Theta: 0.1}, geom.Point{}))
	kernel := NewMultiShapeletFunction([]*ShapeletFunction{k, k})

	out, err := m.ConvolveMulti(kernel)
	require.NoError(t, err)
	require.Len(t, out.Elements(), len(m.Elements())*2)
	for i, e := range out.Elements() {
		require.Equal(t, m.Elements()[i%len(m.Elements())].Order()+k.Order(), e.Order(), "element %d order", i)
	}
}
