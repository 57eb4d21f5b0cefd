// Package server wires the services, REST routes and editor routes into
// one HTTP handler.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-carto/internal/api"
	"github.com/joeblew999/plat-carto/internal/api/editor"
	"github.com/joeblew999/plat-carto/internal/catalog"
	"github.com/joeblew999/plat-carto/internal/db"
	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	// DBName names the DuckDB file under <DataDir>/duckdb.
	DBName string
	// CatalogPrefix is prepended to the catalog table names.
	CatalogPrefix string
	// FragmentsDir overrides the built-in editor fragments.
	FragmentsDir string
	// DisableDB runs without DuckDB: query sources, GeoParquet files and
	// the catalog are unavailable.
	DisableDB bool
	Logger    *slog.Logger
}

// Server is the carto HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	bus      *service.EventBus
	services *api.Services
	renderer *templates.Renderer
	links    *humastar.Links
	logger   *slog.Logger
}

// New creates a server. A database that fails to open is logged and the
// server runs without it.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := templates.Default()
	if cfg.FragmentsDir != "" {
		r, err := templates.New(cfg.FragmentsDir)
		if err != nil {
			return nil, fmt.Errorf("loading fragments from %s: %w", cfg.FragmentsDir, err)
		}
		renderer = r
		logger.Info("loaded fragment templates", "dir", cfg.FragmentsDir)
	}

	var conn *sql.DB
	if !cfg.DisableDB {
		c, err := db.Open(ctx, db.Config{DataDir: cfg.DataDir, DBName: cfg.DBName}, logger)
		if err != nil {
			logger.Warn("database unavailable", "error", err)
		} else {
			conn = c
		}
	}

	bus := service.NewEventBus()
	layers := service.NewLayerService(cfg.DataDir, bus, logger)
	sources := service.NewSourceService(cfg.DataDir, conn, bus, logger)
	services := &api.Services{
		Layer:   layers,
		Source:  sources,
		Builder: service.NewBuilder(layers, sources, conn, logger),
		DB:      conn,
		Logger:  logger,
	}
	if conn != nil {
		services.Catalog = catalog.NewStore(conn, cfg.CatalogPrefix, logger)
	}

	s := &Server{
		config:   cfg,
		mux:      http.NewServeMux(),
		db:       conn,
		bus:      bus,
		services: services,
		renderer: renderer,
		links:    &humastar.Links{},
		logger:   logger,
	}
	s.humaAPI = humago.New(s.mux, s.humaConfig())
	s.humaAPI.UseMiddleware(s.logRequests)
	s.routes()
	return s, nil
}

func (s *Server) humaConfig() huma.Config {
	cfg := huma.DefaultConfig("plat-carto API", api.Version)
	cfg.Info.Description = "Compiles map layer styles into CARTO VL viz programs with their legends, popups and widgets."
	if s.config.Port != "" {
		cfg.Servers = []*huma.Server{
			{URL: fmt.Sprintf("http://%s:%s", s.config.Host, s.config.Port), Description: "Local server"},
		}
	}
	// Disable $schema property in responses
	cfg.CreateHooks = []func(huma.Config) huma.Config{}
	cfg.Transformers = append(cfg.Transformers, s.links.Transformer())
	return cfg
}

func (s *Server) logRequests(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)
	s.logger.Debug("request",
		"method", ctx.Method(),
		"path", ctx.URL().Path,
		"status", ctx.Status(),
		"duration", time.Since(start),
	)
}

func (s *Server) routes() {
	api.RegisterRoutes(s.humaAPI, s.services, s.links)
	editor.Register(s.humaAPI, s.services.Layer, s.services.Source, s.bus, s.renderer)
	s.mux.HandleFunc("/", s.handleRoot)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the OpenAPI document of every registered route.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the server's services to commands that run without
// listening.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close closes the database.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Add("Link", `</health>; rel="service"`)
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-carto",
		"status":  "running",
	})
}
