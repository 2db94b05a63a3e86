// Package monitor provides the HTTP interface for the model service: a JSON
// API over the model store, a PNG renderer for stored models, and an
// echarts-based debug heat map.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/shapelet.report/internal/config"
	"github.com/banshee-data/shapelet.report/internal/shapelet"
	"github.com/banshee-data/shapelet.report/internal/shapeletdb"
	"github.com/banshee-data/shapelet.report/internal/version"
)

// WebServer handles the HTTP interface for the shapelet model service.
type WebServer struct {
	address string
	db      *shapeletdb.ModelDB
	cfg     *config.ServiceConfig
	mux     *http.ServeMux
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	DB      *shapeletdb.ModelDB
	Config  *config.ServiceConfig
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(wsc WebServerConfig) *WebServer {
	cfg := wsc.Config
	if cfg == nil {
		cfg = config.EmptyServiceConfig()
	}
	ws := &WebServer{
		address: wsc.Address,
		db:      wsc.DB,
		cfg:     cfg,
	}
	ws.mux = ws.setupRoutes()
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.mux,
	}
	return ws
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// ServeMux returns the server's mux so callers can mount additional routes
// (admin and debug surfaces) before Start.
func (ws *WebServer) ServeMux() *http.ServeMux { return ws.mux }

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/models", ws.handleModels)
	mux.HandleFunc("/api/model", ws.handleModel)
	mux.HandleFunc("/api/model/moments", ws.handleModelMoments)
	mux.HandleFunc("/api/model/fits", ws.handleModelFits)
	mux.HandleFunc("/api/model/render", ws.handleModelRender)
	mux.HandleFunc("/debug/model/heatmap", ws.handleModelHeatmap)

	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleModels lists stored models (GET) or stores a new one (POST).
// POST body: {"name": ..., "definition": <MultiShapeletFunction JSON>}.
func (ws *WebServer) handleModels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := ws.cfg.GetListLimit()
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
				limit = v
			}
		}
		models, err := ws.db.ListModels(limit)
		if err != nil {
			ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list models: %v", err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models)

	case http.MethodPost:
		var req struct {
			Name       string                          `json:"name"`
			Definition *shapelet.MultiShapeletFunction `json:"definition"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
			return
		}
		if req.Name == "" || req.Definition == nil || len(req.Definition.Elements()) == 0 {
			ws.writeJSONError(w, http.StatusBadRequest, "name and a non-empty definition are required")
			return
		}
		stored, err := ws.db.SaveFunction(req.Name, req.Definition)
		if err != nil {
			ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("save model: %v", err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(stored)

	default:
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleModel fetches (GET) or deletes (DELETE) a model by ID.
// Query params: id (required).
func (ws *WebServer) handleModel(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'id' parameter")
		return
	}
	switch r.Method {
	case http.MethodGet:
		m, err := ws.db.GetModel(id)
		if err != nil {
			ws.writeModelError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m)

	case http.MethodDelete:
		if err := ws.db.DeleteModel(id); err != nil {
			ws.writeModelError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"deleted": id})

	default:
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleModelMoments returns the analytic flux, centroid, and quadrupole of
// a stored model.
func (ws *WebServer) handleModelMoments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	ev, _, ok := ws.loadEvaluator(w, r)
	if !ok {
		return
	}
	moments := ev.ComputeMoments()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"flux":   moments.Flux,
		"center": moments.Center,
		"quad":   moments.Quad,
	})
}

// handleModelFits lists the fit results stored for a model.
func (ws *WebServer) handleModelFits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'id' parameter")
		return
	}
	if _, err := ws.db.GetModel(id); err != nil {
		ws.writeModelError(w, err)
		return
	}
	fits, err := ws.db.ListFits(id)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list fits: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fits)
}

// handleModelRender renders a stored model to PNG.
// Query params: id (required), half_size, pixels (optional overrides).
func (ws *WebServer) handleModelRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
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
	pixels := ws.cfg.GetRenderPixels()
	if p := r.URL.Query().Get("pixels"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v >= 2 && v <= 4096 {
			pixels = v
		}
	}

	w.Header().Set("Content-Type", "image/png")
	if err := RenderPNG(w, ev, name, halfSize, pixels); err != nil {
		log.Printf("render model: %v", err)
	}
}

// loadEvaluator fetches the model named by the 'id' query parameter and
// snapshots its evaluator, writing the error response itself on failure.
func (ws *WebServer) loadEvaluator(w http.ResponseWriter, r *http.Request) (*shapelet.MultiEvaluator, string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'id' parameter")
		return nil, "", false
	}
	m, err := ws.db.GetModel(id)
	if err != nil {
		ws.writeModelError(w, err)
		return nil, "", false
	}
	f, err := m.Function()
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("decode model: %v", err))
		return nil, "", false
	}
	ev, err := f.Evaluate()
	if err != nil {
		ws.writeJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("evaluate model: %v", err))
		return nil, "", false
	}
	return ev, m.Name, true
}

func (ws *WebServer) writeModelError(w http.ResponseWriter, err error) {
	if errors.Is(err, shapeletdb.ErrNotFound) {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
}
