// The shapelet.report server hosts the shapelet model store: a JSON API for
// storing and inspecting multi-shapelet models, PNG and echarts renderings,
// and the sqlite debug surface.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/shapelet.report/internal/config"
	"github.com/banshee-data/shapelet.report/internal/monitor"
	"github.com/banshee-data/shapelet.report/internal/shapeletdb"
	"github.com/banshee-data/shapelet.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbPath     = flag.String("db", "models.db", "Path to the model database")
	configPath = flag.String("config", "", "Optional service config JSON file")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Printf("shapelet.report %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg := config.EmptyServiceConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadServiceConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	db, err := shapeletdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open model database: %v", err)
	}
	defer db.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := monitor.NewWebServer(monitor.WebServerConfig{
		Address: *listen,
		DB:      db,
		Config:  cfg,
	})
	db.AttachAdminRoutes(ws.ServeMux())

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil {
			log.Printf("web server error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
