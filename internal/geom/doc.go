// Package geom provides the 2D geometric primitives used by the shapelet
// engine: points, affine transforms, and elliptical cores.
//
// Responsibilities: value-type geometry only. Key types: Point,
// AffineTransform, Axes, Quadrupole, Ellipse.
//
// Dependency rule: geom depends on nothing outside the standard library.
// No raster or basis-function code is allowed in this package.
package geom
