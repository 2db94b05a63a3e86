package shapelet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOrder reports a negative basis order at construction time.
	ErrInvalidOrder = errors.New("shapelet: order must be non-negative")
	// ErrVectorLength reports a caller-provided vector whose length does
	// not match ComputeSize(order).
	ErrVectorLength = errors.New("shapelet: vector length does not match basis size")
)

// BasisType selects between the two shapelet families. Exactly two families
// exist and the math differs fundamentally between them, so this is a
// closed enumeration rather than an open interface.
type BasisType int

const (
	// Hermite selects Cartesian shapelets: products of 1D Gauss-Hermite
	// functions in x and y.
	Hermite BasisType = iota
	// Laguerre selects polar shapelets: associated Laguerre polynomials in
	// radius squared with sinusoidal angular terms, represented as a real
	// orthonormal basis.
	Laguerre
)

// String implements fmt.Stringer.
func (b BasisType) String() string {
	switch b {
	case Hermite:
		return "HERMITE"
	case Laguerre:
		return "LAGUERRE"
	}
	return fmt.Sprintf("BasisType(%d)", int(b))
}

// ParseBasisType parses the string form produced by String.
func ParseBasisType(s string) (BasisType, error) {
	switch s {
	case "HERMITE":
		return Hermite, nil
	case "LAGUERRE":
		return Laguerre, nil
	}
	return 0, fmt.Errorf("shapelet: unknown basis type %q", s)
}

// ComputeSize returns the coefficient vector length for the given order.
func ComputeSize(order int) int {
	return (order + 1) * (order + 2) / 2
}

// ComputeOrder returns the order whose coefficient vector has the given
// size, or an error if no such order exists.
func ComputeOrder(size int) (int, error) {
	for order := 0; ComputeSize(order) <= size; order++ {
		if ComputeSize(order) == size {
			return order, nil
		}
	}
	return 0, fmt.Errorf("shapelet: %d is not a valid basis size", size)
}

// BasisEvaluator evaluates the full vector of 2D basis functions of a fixed
// family and order at standardized coordinates. It holds small reusable
// workspaces, so a single evaluator must not be shared across goroutines.
type BasisEvaluator struct {
	order int
	basis BasisType
	xv    []float64
	yv    []float64
	dxv   []float64
	dyv   []float64
}

// NewBasisEvaluator constructs an evaluator for the given order and family.
func NewBasisEvaluator(order int, basis BasisType) (*BasisEvaluator, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	return &BasisEvaluator{
		order: order,
		basis: basis,
		xv:    make([]float64, order+1),
		yv:    make([]float64, order+1),
		dxv:   make([]float64, order+1),
		dyv:   make([]float64, order+1),
	}, nil
}

// Order returns the configured basis order.
func (b *BasisEvaluator) Order() int { return b.order }

// BasisType returns the configured basis family.
func (b *BasisEvaluator) BasisType() BasisType { return b.basis }

// FillEvaluation writes the value of every basis function at the
// standardized coordinate (x, y) into target, which must have length
// ComputeSize(order). If dx and/or dy are non-nil they receive the analytic
// partial derivatives of each basis function and must have the same length.
func (b *BasisEvaluator) FillEvaluation(target []float64, x, y float64, dx, dy []float64) error {
	size := ComputeSize(b.order)
	if len(target) != size {
		return fmt.Errorf("%w: len(target)=%d, size=%d", ErrVectorLength, len(target), size)
	}
	if dx != nil && len(dx) != size {
		return fmt.Errorf("%w: len(dx)=%d, size=%d", ErrVectorLength, len(dx), size)
	}
	if dy != nil && len(dy) != size {
		return fmt.Errorf("%w: len(dy)=%d, size=%d", ErrVectorLength, len(dy), size)
	}
	fillHermite1D(b.xv, x)
	fillHermite1D(b.yv, y)
	if dx != nil || dy != nil {
		fillHermiteDerivative1D(b.dxv, b.xv, x)
		fillHermiteDerivative1D(b.dyv, b.yv, y)
	}
	for n := 0; n <= b.order; n++ {
		for nx := 0; nx <= n; nx++ {
			ny := n - nx
			i := hermiteIndex(nx, ny)
			target[i] = b.xv[nx] * b.yv[ny]
			if dx != nil {
				dx[i] = b.dxv[nx] * b.yv[ny]
			}
			if dy != nil {
				dy[i] = b.xv[nx] * b.dyv[ny]
			}
		}
	}
	if b.basis == Laguerre {
		convertVector(target, Hermite, Laguerre, b.order)
		if dx != nil {
			convertVector(dx, Hermite, Laguerre, b.order)
		}
		if dy != nil {
			convertVector(dy, Hermite, Laguerre, b.order)
		}
	}
	return nil
}

// FillIntegration writes the analytic integral over the full plane of each
// basis function into target. Only even-symmetry Hermite terms are
// non-zero; the Laguerre integrals follow from the basis conversion.
func (b *BasisEvaluator) FillIntegration(target []float64) error {
	size := ComputeSize(b.order)
	if len(target) != size {
		return fmt.Errorf("%w: len(target)=%d, size=%d", ErrVectorLength, len(target), size)
	}
	i0 := hermiteIntegral1D(b.order)
	for n := 0; n <= b.order; n++ {
		for nx := 0; nx <= n; nx++ {
			target[hermiteIndex(nx, n-nx)] = i0[nx] * i0[n-nx]
		}
	}
	if b.basis == Laguerre {
		convertVector(target, Hermite, Laguerre, b.order)
	}
	return nil
}
