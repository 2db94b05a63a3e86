package raster

import (
	"math"

	"github.com/banshee-data/shapelet.report/internal/geom"
)

// Span is a horizontal run of pixels on row Y covering columns X0..X1
// inclusive.
type Span struct {
	Y  int
	X0 int
	X1 int
}

// Footprint is an irregular pixel region stored as row-major ordered spans.
// Footprints are immutable; set-style operations return new footprints.
type Footprint struct {
	spans []Span
	area  int
}

// NewFootprint builds a footprint from spans. Spans must already be in
// row-major order (ascending Y, then ascending X0) and non-overlapping;
// spans with X1 < X0 are dropped.
func NewFootprint(spans []Span) *Footprint {
	f := &Footprint{}
	for _, s := range spans {
		if s.X1 < s.X0 {
			continue
		}
		f.spans = append(f.spans, s)
		f.area += s.X1 - s.X0 + 1
	}
	return f
}

// FootprintFromEllipse rasterizes an ellipse: the footprint contains every
// pixel whose integer center satisfies (p-c)^T Q^-1 (p-c) <= 1 for the
// ellipse's quadrupole matrix Q.
func FootprintFromEllipse(e geom.Ellipse) *Footprint {
	q := e.Core.Quadrupole()
	det := q.Det()
	if det <= 0 {
		return NewFootprint(nil)
	}
	// Q^-1 entries.
	a := q.IYY / det
	b := -q.IXY / det
	c := q.IXX / det
	yMax := math.Sqrt(q.IYY)
	y0 := int(math.Ceil(e.Center.Y - yMax))
	y1 := int(math.Floor(e.Center.Y + yMax))
	var spans []Span
	for y := y0; y <= y1; y++ {
		dy := float64(y) - e.Center.Y
		// Solve a dx^2 + 2b dx dy + c dy^2 <= 1 for dx.
		disc := b*b*dy*dy - a*(c*dy*dy-1)
		if disc < 0 {
			continue
		}
		root := math.Sqrt(disc)
		lo := (-b*dy - root) / a
		hi := (-b*dy + root) / a
		x0 := int(math.Ceil(e.Center.X + lo))
		x1 := int(math.Floor(e.Center.X + hi))
		if x1 < x0 {
			continue
		}
		spans = append(spans, Span{Y: y, X0: x0, X1: x1})
	}
	return NewFootprint(spans)
}

// Spans returns the footprint's spans in visitation order. The returned
// slice must not be modified.
func (f *Footprint) Spans() []Span { return f.spans }

// Area returns the number of pixels in the footprint.
func (f *Footprint) Area() int { return f.area }

// ForEach visits every pixel in deterministic row-major span order.
func (f *Footprint) ForEach(fn func(x, y int)) {
	for _, s := range f.spans {
		for x := s.X0; x <= s.X1; x++ {
			fn(x, s.Y)
		}
	}
}

// ClipTo returns a new footprint restricted to the given box.
func (f *Footprint) ClipTo(box Box) *Footprint {
	var spans []Span
	for _, s := range f.spans {
		if s.Y < box.MinY || s.Y > box.MaxY {
			continue
		}
		x0, x1 := s.X0, s.X1
		if x0 < box.MinX {
			x0 = box.MinX
		}
		if x1 > box.MaxX {
			x1 = box.MaxX
		}
		if x1 < x0 {
			continue
		}
		spans = append(spans, Span{Y: s.Y, X0: x0, X1: x1})
	}
	return NewFootprint(spans)
}

// IntersectMask returns a new footprint clipped to the mask's bounds and
// with every pixel whose mask value intersects bits removed. A bits value
// of zero reduces to a pure bounding-box clip.
func (f *Footprint) IntersectMask(m *Mask, bits uint32) *Footprint {
	clipped := f.ClipTo(m.Bounds)
	if bits == 0 {
		return clipped
	}
	var spans []Span
	for _, s := range clipped.spans {
		// Span coordinates are absolute and may be negative, so an open
		// run is tracked with a flag rather than a sentinel value.
		open := false
		start := 0
		for x := s.X0; x <= s.X1; x++ {
			if m.At(x, s.Y)&bits != 0 {
				if open {
					spans = append(spans, Span{Y: s.Y, X0: start, X1: x - 1})
					open = false
				}
				continue
			}
			if !open {
				open = true
				start = x
			}
		}
		if open {
			spans = append(spans, Span{Y: s.Y, X0: start, X1: s.X1})
		}
	}
	return NewFootprint(spans)
}

// Flatten gathers the image values covered by the footprint into a vector
// in visitation order. The footprint must lie within the image bounds.
func (f *Footprint) Flatten(im *Image) []float64 {
	out := make([]float64, 0, f.area)
	f.ForEach(func(x, y int) {
		out = append(out, im.At(x, y))
	})
	return out
}
