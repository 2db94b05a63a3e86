package monitor

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/shapelet.report/internal/shapelet"
)

// modelGrid adapts a sampled evaluator to plotter.GridXYZ for heat maps.
type modelGrid struct {
	coords []float64 // shared x and y sample coordinates
	values []float64 // row-major, len(coords)^2
}

func (g *modelGrid) Dims() (c, r int)   { return len(g.coords), len(g.coords) }
func (g *modelGrid) X(c int) float64    { return g.coords[c] }
func (g *modelGrid) Y(r int) float64    { return g.coords[r] }
func (g *modelGrid) Z(c, r int) float64 { return g.values[r*len(g.coords)+c] }

// sampleEvaluator evaluates the model on a uniform pixels x pixels grid
// covering [-halfSize, halfSize] on both axes.
func sampleEvaluator(ev *shapelet.MultiEvaluator, halfSize float64, pixels int) *modelGrid {
	g := &modelGrid{
		coords: make([]float64, pixels),
		values: make([]float64, pixels*pixels),
	}
	step := 2 * halfSize / float64(pixels-1)
	for i := range g.coords {
		g.coords[i] = -halfSize + float64(i)*step
	}
	for r, y := range g.coords {
		for c, x := range g.coords {
			g.values[r*pixels+c] = ev.At(x, y)
		}
	}
	return g
}

// RenderPNG samples the model over a square frame and writes a heat-map PNG
// to w.
func RenderPNG(w io.Writer, ev *shapelet.MultiEvaluator, title string, halfSize float64, pixels int) error {
	if pixels < 2 {
		return fmt.Errorf("monitor: need at least 2 pixels per axis, got %d", pixels)
	}
	if halfSize <= 0 {
		return fmt.Errorf("monitor: half size must be positive, got %g", halfSize)
	}

	grid := sampleEvaluator(ev, halfSize, pixels)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	heatMap := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	p.Add(heatMap)

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("monitor: render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("monitor: write plot: %w", err)
	}
	return nil
}
