package shapelet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/shapelet.report/internal/geom"
	"github.com/banshee-data/shapelet.report/internal/testutil"
)

func gaussian(t *testing.T, amplitude float64, core geom.Axes, center geom.Point) *ShapeletFunction {
	t.Helper()
	f, err := NewShapeletFunction(0, Hermite, []float64{amplitude})
	require.NoError(t, err)
	f.SetEllipse(geom.NewEllipse(core, center))
	return f
}

// The convolution of two elliptical Gaussians is an elliptical Gaussian
// with summed quadrupoles, summed centers, and zeroth coefficient
// 2*sqrt(pi)*c1*c2.
func TestConvolveGaussians(t *testing.T) {
	f1 := gaussian(t, 2.0, geom.Axes{A: 1.5, B: 1.0, Theta: 0.4}, geom.Point{X: 0.5, Y: -0.25})
	f2 := gaussian(t, 0.75, geom.Axes{A: 0.9, B: 0.6, Theta: -0.8}, geom.Point{X: -0.1, Y: 0.3})

	out, err := f1.Convolve(f2)
	require.NoError(t, err)
	require.Equal(t, 0, out.Order())
	require.Equal(t, Hermite, out.BasisType())

	wantQuad := f1.Ellipse().Core.Quadrupole().Add(f2.Ellipse().Core.Quadrupole())
	gotQuad := out.Ellipse().Core.Quadrupole()
	testutil.AssertClose(t, gotQuad.IXX, wantQuad.IXX, 1e-12, 1e-14, "ixx")
	testutil.AssertClose(t, gotQuad.IYY, wantQuad.IYY, 1e-12, 1e-14, "iyy")
	testutil.AssertClose(t, gotQuad.IXY, wantQuad.IXY, 1e-12, 1e-14, "ixy")
	testutil.AssertClose(t, out.Ellipse().Center.X, 0.4, 1e-12, 1e-14, "center.x")
	testutil.AssertClose(t, out.Ellipse().Center.Y, 0.05, 1e-12, 1e-14, "center.y")

	want := 2 * math.SqrtPi * 2.0 * 0.75
	testutil.AssertClose(t, out.Coefficients()[0], want, 1e-10, 1e-12, "zeroth coefficient")
}

// testConvolvePair builds the two higher-order functions used by the
// structural and moment tests below.
func testConvolvePair(t *testing.T) (*ShapeletFunction, *ShapeletFunction) {
	t.Helper()
	rng := testutil.NewRand(900)
	c1 := make([]float64, ComputeSize(3))
	for i := range c1 {
		c1[i] = 0.25 * rng.Norm()
	}
	c1[0] += 2.5
	f1, err := NewShapeletFunction(3, Hermite, c1)
	require.NoError(t, err)
	f1.SetEllipse(geom.NewEllipse(geom.Axes{A: 2.0, B: 1.6, Theta: 0.3}, geom.Point{X: 1.5, Y: 2.0}))

	c2 := make([]float64, ComputeSize(2))
	for i := range c2 {
		c2[i] = 0.25 * rng.Norm()
	}
	c2[0] += 1.8
	f2, err := NewShapeletFunction(2, Laguerre, c2)
	require.NoError(t, err)
	f2.SetEllipse(geom.NewEllipse(geom.Axes{A: 2.4, B: 1.8, Theta: -0.5}, geom.Point{X: -1.0, Y: -0.25}))
	return f1, f2
}

// The result keeps the receiver's basis, has order n1+n2, and carries the
// convolved ellipse.
func TestConvolveStructure(t *testing.T) {
	f1, f2 := testConvolvePair(t)
	out, err := f1.Convolve(f2)
	require.NoError(t, err)
	assert.Equal(t, 5, out.Order())
	assert.Equal(t, Hermite, out.BasisType())

	wantEllipse := f1.Ellipse().Convolve(f2.Ellipse())
	wantQuad := wantEllipse.Core.Quadrupole()
	gotQuad := out.Ellipse().Core.Quadrupole()
	testutil.AssertClose(t, gotQuad.IXX, wantQuad.IXX, 1e-10, 1e-12, "ixx")
	testutil.AssertClose(t, gotQuad.IYY, wantQuad.IYY, 1e-10, 1e-12, "iyy")
	testutil.AssertClose(t, gotQuad.IXY, wantQuad.IXY, 1e-10, 1e-12, "ixy")

	// The other direction keeps f2's basis instead.
	rev, err := f2.Convolve(f1)
	require.NoError(t, err)
	assert.Equal(t, 5, rev.Order())
	assert.Equal(t, Laguerre, rev.BasisType())
}

// Convolution commutes: both orderings describe the same function even
// though they are stored in different bases.
func TestConvolveCommutes(t *testing.T) {
	f1, f2 := testConvolvePair(t)
	a, err := f1.Convolve(f2)
	require.NoError(t, err)
	b, err := f2.Convolve(f1)
	require.NoError(t, err)

	evA, err := a.Evaluate()
	require.NoError(t, err)
	evB, err := b.Evaluate()
	require.NoError(t, err)
	rng := testutil.NewRand(31)
	for trial := 0; trial < 20; trial++ {
		x, y := rng.Uniform(-4, 5), rng.Uniform(-4, 5)
		testutil.AssertClose(t, evA.At(x, y), evB.At(x, y), 1e-8, 1e-12, "commuted value")
	}
}

// The integral of a convolution is the product of the integrals, and its
// centroid and quadrupole are the sums of the inputs'.
func TestConvolveFluxAndMoments(t *testing.T) {
	f1, f2 := testConvolvePair(t)
	out, err := f1.Convolve(f2)
	require.NoError(t, err)

	ev1, err := f1.Evaluate()
	require.NoError(t, err)
	ev2, err := f2.Evaluate()
	require.NoError(t, err)
	evOut, err := out.Evaluate()
	require.NoError(t, err)

	testutil.AssertClose(t, evOut.Integrate(), ev1.Integrate()*ev2.Integrate(), 1e-8, 1e-12, "flux product")

	m1 := ev1.ComputeMoments()
	m2 := ev2.ComputeMoments()
	mOut := evOut.ComputeMoments()
	testutil.AssertClose(t, mOut.Center.X, m1.Center.X+m2.Center.X, 1e-6, 1e-8, "center.x sum")
	testutil.AssertClose(t, mOut.Center.Y, m1.Center.Y+m2.Center.Y, 1e-6, 1e-8, "center.y sum")
	testutil.AssertClose(t, mOut.Quad.IXX, m1.Quad.IXX+m2.Quad.IXX, 1e-6, 1e-8, "ixx sum")
	testutil.AssertClose(t, mOut.Quad.IYY, m1.Quad.IYY+m2.Quad.IYY, 1e-6, 1e-8, "iyy sum")
	testutil.AssertClose(t, mOut.Quad.IXY, m1.Quad.IXY+m2.Quad.IXY, 1e-6, 1e-8, "ixy sum")
}
