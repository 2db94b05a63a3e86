// Command render rasterizes a shapelet model to a PNG heat map. The model
// comes either from a JSON file or from a model database by ID.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/banshee-data/shapelet.report/internal/monitor"
	"github.com/banshee-data/shapelet.report/internal/shapelet"
	"github.com/banshee-data/shapelet.report/internal/shapeletdb"
)

var (
	modelFile = flag.String("model", "", "Path to a model JSON file")
	dbPath    = flag.String("db", "", "Path to a model database (used with -id)")
	modelID   = flag.String("id", "", "Model ID to load from the database")
	outPath   = flag.String("out", "model.png", "Output PNG path")
	halfSize  = flag.Float64("half-size", 10, "Half-width of the rendered frame, in model units")
	pixels    = flag.Int("pixels", 256, "Pixels per axis")
)

func loadModel() (*shapelet.MultiShapeletFunction, string, error) {
	if *modelFile != "" {
		data, err := os.ReadFile(*modelFile)
		if err != nil {
			return nil, "", err
		}
		var f shapelet.MultiShapeletFunction
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, "", err
		}
		return &f, *modelFile, nil
	}

	db, err := shapeletdb.Open(*dbPath)
	if err != nil {
		return nil, "", err
	}
	defer db.Close()

	m, err := db.GetModel(*modelID)
	if err != nil {
		return nil, "", err
	}
	f, err := m.Function()
	if err != nil {
		return nil, "", err
	}
	return f, m.Name, nil
}

func main() {
	flag.Parse()

	if *modelFile == "" && (*dbPath == "" || *modelID == "") {
		log.Fatal("either -model or both -db and -id are required")
	}

	f, name, err := loadModel()
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	ev, err := f.Evaluate()
	if err != nil {
		log.Fatalf("failed to evaluate model: %v", err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer out.Close()

	if err := monitor.RenderPNG(out, ev, name, *halfSize, *pixels); err != nil {
		log.Fatalf("failed to render model: %v", err)
	}
	log.Printf("rendered %s to %s (%dx%d)", name, *outPath, *pixels, *pixels)
}
