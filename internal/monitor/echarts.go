package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleModelHeatmap renders a quick heat map (HTML) of a stored model using
// go-echarts. This is a debugging-only endpoint (no auth) to visually inspect
// a model without rendering PNGs.
// Query params:
//   - id (required)
//   - half_size, pixels (optional overrides)
//   - max_points (optional; default 8000) to reduce payload size
func (ws *WebServer) handleModelHeatmap(w http.ResponseWriter, r *http.Request) {
	ev, name, ok := ws.loadEvaluator(w, r)
	if !ok {
		return
	}

	halfSize := ws.cfg.GetRenderHalfSize()
	if hs := r.URL.Query().Get("half_size"); hs != "" {
		if v, err := strconv.ParseFloat(hs, 64); err == nil && v > 0 {
			halfSize = v
		}
	}
	pixels := 96
	if p := r.URL.Query().Get("pixels"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v >= 2 && v <= 512 {
			pixels = v
		}
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	grid := sampleEvaluator(ev, halfSize, pixels)

	// Downsample by stride to stay within maxPoints.
	total := pixels * pixels
	stride := 1
	if total > maxPoints {
		stride = int(math.Ceil(float64(total) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, total/stride+1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for i := 0; i < total; i += stride {
		x := grid.X(i % pixels)
		y := grid.Y(i / pixels)
		z := grid.Z(i%pixels, i/pixels)
		if z < minZ {
			minZ = z
		}
		if z > maxZ {
			maxZ = z
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, z}})
	}
	if maxZ <= minZ {
		maxZ = minZ + 1
	}

	pad := halfSize * 1.05

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Shapelet Model", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Shapelet Model Heat Map", Subtitle: fmt.Sprintf("model=%s points=%d stride=%d", name, len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minZ),
			Max:        float32(maxZ),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)

	scatter.AddSeries("model", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
