package raster

import "fmt"

// Box is an integer rectangle with inclusive bounds on both ends.
type Box struct {
	MinX, MinY int
	MaxX, MaxY int
}

// NewBox constructs a box from inclusive corner coordinates.
func NewBox(minX, minY, maxX, maxY int) Box {
	return Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Width returns the number of pixel columns in the box.
func (b Box) Width() int { return b.MaxX - b.MinX + 1 }

// Height returns the number of pixel rows in the box.
func (b Box) Height() int { return b.MaxY - b.MinY + 1 }

// Empty reports whether the box contains no pixels.
func (b Box) Empty() bool { return b.MaxX < b.MinX || b.MaxY < b.MinY }

// Contains reports whether the pixel (x, y) lies inside the box.
func (b Box) Contains(x, y int) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Image is a float64 pixel plane over an absolute-coordinate bounding box.
// Pixels are stored row-major; pixel (x, y) refers to the sample at the
// integer pixel center.
type Image struct {
	Bounds Box
	Pix    []float64
}

// NewImage allocates a zero-filled image covering bounds.
func NewImage(bounds Box) *Image {
	return &Image{Bounds: bounds, Pix: make([]float64, bounds.Width()*bounds.Height())}
}

func (im *Image) index(x, y int) int {
	return (y-im.Bounds.MinY)*im.Bounds.Width() + (x - im.Bounds.MinX)
}

// At returns the pixel value at absolute coordinate (x, y).
func (im *Image) At(x, y int) float64 { return im.Pix[im.index(x, y)] }

// Set stores v at absolute coordinate (x, y).
func (im *Image) Set(x, y int, v float64) { im.Pix[im.index(x, y)] = v }

// AddAt accumulates v onto the pixel at (x, y). Accumulation rather than
// overwrite lets multiple model functions superpose onto the same raster.
func (im *Image) AddAt(x, y int, v float64) { im.Pix[im.index(x, y)] += v }

// Mask is a bitplane raster parallel to an Image.
type Mask struct {
	Bounds Box
	Bits   []uint32
}

// NewMask allocates a zero-filled mask covering bounds.
func NewMask(bounds Box) *Mask {
	return &Mask{Bounds: bounds, Bits: make([]uint32, bounds.Width()*bounds.Height())}
}

func (m *Mask) index(x, y int) int {
	return (y-m.Bounds.MinY)*m.Bounds.Width() + (x - m.Bounds.MinX)
}

// At returns the mask bits at absolute coordinate (x, y).
func (m *Mask) At(x, y int) uint32 { return m.Bits[m.index(x, y)] }

// Set stores bits at absolute coordinate (x, y).
func (m *Mask) Set(x, y int, bits uint32) { m.Bits[m.index(x, y)] = bits }

// MaskedImage bundles an image with its mask and per-pixel variance over a
// shared coordinate frame.
type MaskedImage struct {
	Image    *Image
	Mask     *Mask
	Variance *Image
}

// NewMaskedImage validates that all three planes share the same bounds.
func NewMaskedImage(image *Image, mask *Mask, variance *Image) (*MaskedImage, error) {
	if mask.Bounds != image.Bounds || variance.Bounds != image.Bounds {
		return nil, fmt.Errorf("raster: masked image planes disagree on bounds: image=%+v mask=%+v variance=%+v",
			image.Bounds, mask.Bounds, variance.Bounds)
	}
	return &MaskedImage{Image: image, Mask: mask, Variance: variance}, nil
}
