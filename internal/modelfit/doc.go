// Package modelfit builds weighted least-squares design matrices for
// fitting shapelet models to pixel data.
//
// Responsibilities: per-pixel basis evaluation over a footprint under an
// ellipse transform, inverse-sigma weighting, analytic derivatives of the
// design matrix with respect to ellipse parameters, and the linear
// coefficient solve. Key types: Builder, Tensor3.
//
// Dependency rule: modelfit may depend on geom, raster, and shapelet,
// never on storage or transport packages.
package modelfit
