package modelfit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/shapelet.report/internal/shapelet"
)

// ErrEmptyRegion reports a coefficient solve over a builder with no
// effective pixels. An empty design matrix is a valid builder state but
// cannot constrain a fit.
var ErrEmptyRegion = errors.New("modelfit: cannot solve over an empty region")

// Solve fits basis coefficients to the pixel data by linear least squares
// against the builder's current design matrix. data must be the pixel
// values flattened in the builder's region order (raster.Footprint.Flatten);
// for a weighted builder the same inverse-sigma weights are applied to the
// data so the solution minimizes the chi-squared of the weighted system.
func Solve(b *Builder, data []float64) ([]float64, error) {
	npix := b.NumPixels()
	if npix == 0 {
		return nil, ErrEmptyRegion
	}
	if len(data) != npix {
		return nil, fmt.Errorf("modelfit: data length %d, want %d pixels", len(data), npix)
	}
	rhs := make([]float64, npix)
	copy(rhs, data)
	if b.weights != nil {
		for i := range rhs {
			rhs[i] *= b.weights[i]
		}
	}
	var solution mat.VecDense
	if err := solution.SolveVec(b.design, mat.NewVecDense(npix, rhs)); err != nil {
		return nil, fmt.Errorf("modelfit: least-squares solve: %w", err)
	}
	out := make([]float64, b.size)
	for j := 0; j < b.size; j++ {
		out[j] = solution.AtVec(j)
	}
	return out, nil
}

// FittedFunction packages a solved coefficient vector as a shapelet
// function on the builder's ellipse. Design matrix rows are bare basis
// values without the grid transform determinant that evaluation applies,
// so the coefficients are rescaled by a*b (the inverse determinant) first;
// the returned function evaluates to the fitted pixel values.
func FittedFunction(b *Builder, coefficients []float64) (*shapelet.ShapeletFunction, error) {
	if len(coefficients) != b.size {
		return nil, fmt.Errorf("modelfit: coefficient length %d, want %d", len(coefficients), b.size)
	}
	scale := b.ellipse.Core.A * b.ellipse.Core.B
	scaled := make([]float64, len(coefficients))
	for i, c := range coefficients {
		scaled[i] = c * scale
	}
	f, err := shapelet.NewShapeletFunction(b.order, shapelet.Hermite, scaled)
	if err != nil {
		return nil, err
	}
	f.SetEllipse(b.ellipse)
	return f, nil
}

// ChiSquared evaluates the weighted sum of squared residuals of the
// coefficient vector against the pixel data, in the same system Solve
// minimizes.
func ChiSquared(b *Builder, coefficients, data []float64) (float64, error) {
	npix := b.NumPixels()
	if npix == 0 {
		return 0, ErrEmptyRegion
	}
	if len(data) != npix {
		return 0, fmt.Errorf("modelfit: data length %d, want %d pixels", len(data), npix)
	}
	if len(coefficients) != b.size {
		return 0, fmt.Errorf("modelfit: coefficient length %d, want %d", len(coefficients), b.size)
	}
	var model mat.VecDense
	model.MulVec(b.design, mat.NewVecDense(b.size, coefficients))
	var sum float64
	for i := 0; i < npix; i++ {
		rhs := data[i]
		if b.weights != nil {
			rhs *= b.weights[i]
		}
		r := model.AtVec(i) - rhs
		sum += r * r
	}
	return sum, nil
}
