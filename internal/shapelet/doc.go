// Package shapelet evaluates Gauss-Hermite and Gauss-Laguerre ("shapelet")
// basis functions and composes them into elliptically-transformed model
// functions.
//
// Responsibilities: basis evaluation with analytic derivatives and
// integrals, basis-type conversion, shapelet functions and their snapshot
// evaluators, multi-component superpositions, analytic moments, and
// analytic convolution. Key types: BasisEvaluator, ShapeletFunction,
// MultiShapeletFunction.
//
// Dependency rule: shapelet may depend on geom and raster, never on
// modelfit or any storage/transport package.
//
// The Hermite basis is evaluated directly from the normalized recurrence;
// the Laguerre (polar) basis is reached through an orthogonal per-order
// change-of-basis matrix, so conversion round trips are exact up to
// rounding. Coefficient ordering follows the packed triangular layout:
// Hermite [nx,ny] at flat index (nx+ny)(nx+ny+1)/2 + nx; Laguerre blocks
// ordered Re/Im by decreasing p-q within each order.
package shapelet
