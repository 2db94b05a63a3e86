package geom

// Point is a position in the absolute (pixel) coordinate frame.
type Point struct {
	X float64
	Y float64
}

// Extent is a displacement between two points. It transforms without the
// translation part of an affine map, unlike Point.
type Extent struct {
	X float64
	Y float64
}

// Add returns p shifted by the extent e.
func (p Point) Add(e Extent) Point {
	return Point{p.X + e.X, p.Y + e.Y}
}

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Extent {
	return Extent{p.X - q.X, p.Y - q.Y}
}

// AsExtent reinterprets the point as a displacement from the origin.
func (p Point) AsExtent() Extent {
	return Extent{p.X, p.Y}
}
