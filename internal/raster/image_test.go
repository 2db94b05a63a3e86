package raster

import "testing"

func TestBox(t *testing.T) {
	b := NewBox(-2, 1, 3, 4)
	if got, want := b.Width(), 6; got != want {
		t.Errorf("Width() = %d, want %d", got, want)
	}
	if got, want := b.Height(), 4; got != want {
		t.Errorf("Height() = %d, want %d", got, want)
	}
	if b.Empty() {
		t.Error("Empty() = true for non-empty box")
	}
	if !NewBox(0, 0, -1, 5).Empty() {
		t.Error("Empty() = false for inverted box")
	}
	if !b.Contains(-2, 4) || !b.Contains(3, 1) {
		t.Error("Contains rejected corner pixels")
	}
	if b.Contains(4, 2) || b.Contains(0, 0) {
		t.Error("Contains accepted out-of-box pixels")
	}
}

func TestImageAddressing(t *testing.T) {
	im := NewImage(NewBox(-1, -1, 1, 1))
	im.Set(-1, -1, 1)
	im.Set(1, 1, 9)
	im.AddAt(0, 0, 2.5)
	im.AddAt(0, 0, 2.5)
	if got := im.Pix[0]; got != 1 {
		t.Errorf("Pix[0] = %v, want 1", got)
	}
	if got := im.Pix[len(im.Pix)-1]; got != 9 {
		t.Errorf("Pix[last] = %v, want 9", got)
	}
	if got := im.At(0, 0); got != 5 {
		t.Errorf("At(0,0) = %v, want 5", got)
	}
}

func TestNewMaskedImageBoundsMismatch(t *testing.T) {
	bounds := NewBox(0, 0, 3, 3)
	image := NewImage(bounds)
	mask := NewMask(bounds)
	variance := NewImage(NewBox(0, 0, 4, 3))
	if _, err := NewMaskedImage(image, mask, variance); err == nil {
		t.Error("NewMaskedImage accepted mismatched variance bounds")
	}
	if _, err := NewMaskedImage(image, mask, NewImage(bounds)); err != nil {
		t.Errorf("NewMaskedImage rejected matching planes: %v", err)
	}
}
