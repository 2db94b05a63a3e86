// Package raster provides the pixel-space data model consumed by the
// shapelet engine: integer bounding boxes, float64 image planes, bitmask
// planes, and span-based footprints over irregular pixel sets.
//
// Responsibilities: pixel storage and ordered pixel enumeration only.
// Key types: Box, Image, Mask, MaskedImage, Footprint.
//
// Footprints are immutable: intersection and clipping return new
// footprints, and pixels are always visited row-major by span so results
// built from the same footprint are bit-for-bit reproducible.
package raster
