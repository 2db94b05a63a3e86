// Command fit solves shapelet basis coefficients for a pixel image dump by
// linear least squares and either prints the fitted model as JSON or stores
// it, with the fit record, in a model database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/shapelet.report/internal/geom"
	"github.com/banshee-data/shapelet.report/internal/modelfit"
	"github.com/banshee-data/shapelet.report/internal/raster"
	"github.com/banshee-data/shapelet.report/internal/shapelet"
	"github.com/banshee-data/shapelet.report/internal/shapeletdb"
)

var (
	imagePath   = flag.String("image", "", "Path to an image dump JSON file")
	dbPath      = flag.String("db", "", "Path to a model database; omit to print the fit to stdout")
	modelName   = flag.String("name", "fit", "Name for the stored model")
	order       = flag.Int("order", 4, "Basis order of the fit")
	axisA       = flag.Float64("a", 3, "Semi-major axis of the fit ellipse, in pixels")
	axisB       = flag.Float64("b", 3, "Semi-minor axis of the fit ellipse, in pixels")
	theta       = flag.Float64("theta", 0, "Position angle of the fit ellipse, in radians")
	centerX     = flag.Float64("cx", 0, "Ellipse center x, in pixels")
	centerY     = flag.Float64("cy", 0, "Ellipse center y, in pixels")
	regionScale = flag.Float64("region-scale", 3, "Fit region radius as a multiple of the ellipse")
	maskBits    = flag.Uint("mask-bits", 0, "Mask planes that exclude a pixel from the fit")
	useWeights  = flag.Bool("weights", true, "Weight rows by inverse pixel sigma when variance is present")
)

// imageDump is the on-disk pixel format: row-major samples over an inclusive
// integer bounding box, with optional per-pixel variance and mask planes.
type imageDump struct {
	Bounds struct {
		MinX int `json:"min_x"`
		MinY int `json:"min_y"`
		MaxX int `json:"max_x"`
		MaxY int `json:"max_y"`
	} `json:"bounds"`
	Pixels   []float64 `json:"pixels"`
	Variance []float64 `json:"variance,omitempty"`
	Mask     []uint32  `json:"mask,omitempty"`
}

func loadImage(path string) (*raster.Image, *raster.MaskedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var dump imageDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, nil, fmt.Errorf("decode image dump: %w", err)
	}

	bounds := raster.NewBox(dump.Bounds.MinX, dump.Bounds.MinY, dump.Bounds.MaxX, dump.Bounds.MaxY)
	if bounds.Empty() {
		return nil, nil, fmt.Errorf("image dump has empty bounds %+v", dump.Bounds)
	}
	n := bounds.Width() * bounds.Height()
	if len(dump.Pixels) != n {
		return nil, nil, fmt.Errorf("image dump has %d pixels, bounds need %d", len(dump.Pixels), n)
	}

	image := raster.NewImage(bounds)
	copy(image.Pix, dump.Pixels)
	if dump.Variance == nil && dump.Mask == nil {
		return image, nil, nil
	}

	variance := raster.NewImage(bounds)
	if dump.Variance != nil {
		if len(dump.Variance) != n {
			return nil, nil, fmt.Errorf("image dump has %d variance samples, bounds need %d", len(dump.Variance), n)
		}
		copy(variance.Pix, dump.Variance)
	} else {
		for i := range variance.Pix {
			variance.Pix[i] = 1
		}
	}
	mask := raster.NewMask(bounds)
	if dump.Mask != nil {
		if len(dump.Mask) != n {
			return nil, nil, fmt.Errorf("image dump has %d mask samples, bounds need %d", len(dump.Mask), n)
		}
		copy(mask.Bits, dump.Mask)
	}
	mi, err := raster.NewMaskedImage(image, mask, variance)
	if err != nil {
		return nil, nil, err
	}
	return image, mi, nil
}

func main() {
	flag.Parse()

	if *imagePath == "" {
		log.Fatal("-image is required")
	}

	image, masked, err := loadImage(*imagePath)
	if err != nil {
		log.Fatalf("failed to load image: %v", err)
	}

	ellipse := geom.NewEllipse(
		geom.Axes{A: *axisA, B: *axisB, Theta: *theta},
		geom.Point{X: *centerX, Y: *centerY},
	)
	region := raster.FootprintFromEllipse(ellipse.Scale(*regionScale))

	var builder *modelfit.Builder
	if masked != nil {
		builder, err = modelfit.NewMaskedBuilder(*order, ellipse, region, masked, uint32(*maskBits), *useWeights)
	} else {
		builder, err = modelfit.NewBuilder(*order, ellipse, region, image)
	}
	if err != nil {
		log.Fatalf("failed to build design matrix: %v", err)
	}

	data := builder.Region().Flatten(image)
	coefficients, err := modelfit.Solve(builder, data)
	if err != nil {
		log.Fatalf("failed to solve for coefficients: %v", err)
	}
	chi2, err := modelfit.ChiSquared(builder, coefficients, data)
	if err != nil {
		log.Fatalf("failed to evaluate fit residuals: %v", err)
	}
	log.Printf("fit order=%d pixels=%d chi2=%g", *order, builder.NumPixels(), chi2)

	f, err := modelfit.FittedFunction(builder, coefficients)
	if err != nil {
		log.Fatalf("failed to assemble model: %v", err)
	}
	model := shapelet.NewMultiShapeletFunction([]*shapelet.ShapeletFunction{f})

	if *dbPath == "" {
		out, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			log.Fatalf("failed to encode model: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	db, err := shapeletdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	stored, err := db.SaveFunction(*modelName, model)
	if err != nil {
		log.Fatalf("failed to store model: %v", err)
	}
	fit := &shapeletdb.Fit{
		ModelID:      stored.ModelID,
		Order:        *order,
		NumPixels:    builder.NumPixels(),
		ChiSquared:   chi2,
		Coefficients: coefficients,
	}
	if err := db.InsertFit(fit); err != nil {
		log.Fatalf("failed to store fit: %v", err)
	}
	log.Printf("stored model %s (fit %s) in %s", stored.ModelID, fit.FitID, *dbPath)
}
