package monitor

import (
	"bytes"
	"testing"

	"github.com/banshee-data/shapelet.report/internal/geom"
	"github.com/banshee-data/shapelet.report/internal/shapelet"
)

func gaussianEvaluator(t *testing.T) *shapelet.MultiEvaluator {
	t.Helper()
	f, err := shapelet.NewShapeletFunction(0, shapelet.Hermite, []float64{1})
	if err != nil {
		t.Fatalf("NewShapeletFunction: %v", err)
	}
	f.SetEllipse(geom.NewEllipse(geom.Axes{A: 1.5, B: 1, Theta: 0}, geom.Point{}))
	ev, err := shapelet.NewMultiShapeletFunction([]*shapelet.ShapeletFunction{f}).Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return ev
}

func TestSampleEvaluatorGrid(t *testing.T) {
	ev := gaussianEvaluator(t)
	grid := sampleEvaluator(ev, 4, 9)

	c, r := grid.Dims()
	if c != 9 || r != 9 {
		t.Fatalf("Dims() = %d, %d, want 9, 9", c, r)
	}
	if grid.X(0) != -4 || grid.X(8) != 4 {
		t.Errorf("X endpoints = %v, %v, want -4, 4", grid.X(0), grid.X(8))
	}
	// Center sample is the peak of a centered Gaussian.
	center := grid.Z(4, 4)
	for col := 0; col < 9; col++ {
		for row := 0; row < 9; row++ {
			if grid.Z(col, row) > center {
				t.Fatalf("Z(%d,%d) = %v exceeds center %v", col, row, grid.Z(col, row), center)
			}
		}
	}
	if want := ev.At(0, 0); grid.Z(4, 4) != want {
		t.Errorf("center Z = %v, want %v", grid.Z(4, 4), want)
	}
}

func TestRenderPNGWritesImage(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, gaussianEvaluator(t), "test", 5, 16); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("output is not a PNG")
	}
}

func TestRenderPNGRejectsBadArguments(t *testing.T) {
	ev := gaussianEvaluator(t)
	var buf bytes.Buffer
	if err := RenderPNG(&buf, ev, "t", 5, 1); err == nil {
		t.Error("RenderPNG accepted a 1-pixel grid")
	}
	if err := RenderPNG(&buf, ev, "t", 0, 16); err == nil {
		t.Error("RenderPNG accepted a zero half size")
	}
}
