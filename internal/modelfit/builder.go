package modelfit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/shapelet.report/internal/geom"
	"github.com/banshee-data/shapelet.report/internal/raster"
	"github.com/banshee-data/shapelet.report/internal/shapelet"
)

// Builder evaluates a (pixels x basisSize) design matrix over a fixed pixel
// set. Pixel membership is resolved once at construction (mask intersection
// or bounding-box clip); Update recomputes basis values for a new ellipse
// without re-deriving the pixel set.
//
// Rows are evaluated in the footprint's row-major span order at integer
// pixel centers, in the Hermite basis. A weighted builder scales row i by
// 1/sqrt(variance_i), turning the ordinary least-squares design matrix into
// a statistically weighted one.
type Builder struct {
	order   int
	size    int
	ellipse geom.Ellipse
	region  *raster.Footprint
	xs      []int
	ys      []int
	weights []float64 // nil for unweighted builders
	basis   *shapelet.BasisEvaluator
	design  *mat.Dense // nil when the region is empty
}

// NewBuilder constructs a builder over the region clipped to the image's
// bounding box.
func NewBuilder(order int, ellipse geom.Ellipse, region *raster.Footprint, image *raster.Image) (*Builder, error) {
	return newBuilder(order, ellipse, region.ClipTo(image.Bounds), nil)
}

// NewMaskedBuilder constructs a builder over the region intersected with
// the masked image: pixels are kept when mask & maskBits == 0 (maskBits of
// zero reduces to a bounding-box clip). When useWeights is set, each design
// matrix row is scaled by the inverse standard deviation from the variance
// plane.
func NewMaskedBuilder(order int, ellipse geom.Ellipse, region *raster.Footprint, mi *raster.MaskedImage, maskBits uint32, useWeights bool) (*Builder, error) {
	effective := region.IntersectMask(mi.Mask, maskBits)
	var weights []float64
	if useWeights {
		variance := effective.Flatten(mi.Variance)
		weights = make([]float64, len(variance))
		for i, v := range variance {
			weights[i] = 1 / math.Sqrt(v)
		}
	}
	return newBuilder(order, ellipse, effective, weights)
}

func newBuilder(order int, ellipse geom.Ellipse, effective *raster.Footprint, weights []float64) (*Builder, error) {
	basis, err := shapelet.NewBasisEvaluator(order, shapelet.Hermite)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		order:   order,
		size:    shapelet.ComputeSize(order),
		ellipse: ellipse,
		region:  effective,
		weights: weights,
		basis:   basis,
	}
	npix := effective.Area()
	b.xs = make([]int, 0, npix)
	b.ys = make([]int, 0, npix)
	effective.ForEach(func(x, y int) {
		b.xs = append(b.xs, x)
		b.ys = append(b.ys, y)
	})
	if npix > 0 {
		b.design = mat.NewDense(npix, b.size, nil)
	}
	if err := b.fill(ellipse); err != nil {
		return nil, err
	}
	return b, nil
}

// Order returns the basis order.
func (b *Builder) Order() int { return b.order }

// Region returns the effective pixel set, in visitation order.
func (b *Builder) Region() *raster.Footprint { return b.region }

// NumPixels returns the number of effective pixels (design matrix rows).
func (b *Builder) NumPixels() int { return len(b.xs) }

// Ellipse returns the ellipse of the most recent successful update.
func (b *Builder) Ellipse() geom.Ellipse { return b.ellipse }

// DesignMatrix returns the current design matrix, or nil when the region is
// empty. The returned matrix is owned by the builder and overwritten by
// Update.
func (b *Builder) DesignMatrix() *mat.Dense { return b.design }

// Update recomputes the design matrix for a new ellipse over the same pixel
// set. On error (degenerate ellipse) the builder's visible state is
// unchanged.
func (b *Builder) Update(ellipse geom.Ellipse) error {
	if err := b.fill(ellipse); err != nil {
		return err
	}
	b.ellipse = ellipse
	return nil
}

func (b *Builder) fill(ellipse geom.Ellipse) error {
	transform, err := ellipse.GridTransform()
	if err != nil {
		return fmt.Errorf("modelfit: %w", err)
	}
	if b.design == nil {
		return nil
	}
	for i := range b.xs {
		u := transform.Apply(geom.Point{X: float64(b.xs[i]), Y: float64(b.ys[i])})
		row := b.design.RawRowView(i)
		if err := b.basis.FillEvaluation(row, u.X, u.Y, nil, nil); err != nil {
			return err
		}
		if b.weights != nil {
			w := b.weights[i]
			for j := range row {
				row[j] *= w
			}
		}
	}
	return nil
}
