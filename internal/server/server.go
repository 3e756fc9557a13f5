package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/joeblew999/plat-rawan/internal/api"
	"github.com/joeblew999/plat-rawan/internal/api/editor"
	"github.com/joeblew999/plat-rawan/internal/db"
	"github.com/joeblew999/plat-rawan/internal/geo"
	"github.com/joeblew999/plat-rawan/internal/service"
	"github.com/joeblew999/plat-rawan/internal/templates"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageDuckDB = "duckdb"
)

// Config holds the server configuration.
type Config struct {
	Host         string
	Port         string
	DataDir      string
	WebDir       string // optional directory with fragments/*.html overriding the embedded templates
	Storage      string // StorageFile or StorageDuckDB
	AdminTokens  []string
	ViewerTokens []string
	CenterLat    float64
	CenterLng    float64
	Logger       zerolog.Logger
}

// Server is the plat-rawan HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	repo     service.Repository
	db       *sql.DB
	auth     *api.Authenticator
	services *api.Services
	renderer *templates.Renderer
	log      zerolog.Logger
}

// New creates a new server and opens its storage.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Storage == "" {
		cfg.Storage = StorageFile
	}
	log := cfg.Logger

	repo, conn, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := loadTemplates(cfg.WebDir)
	if err != nil {
		repo.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	humaAPI := humago.New(mux, api.NewConfig(fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port)))

	bus := service.NewEventBus()
	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		repo:     repo,
		db:       conn,
		auth:     api.NewAuthenticator(cfg.AdminTokens, cfg.ViewerTokens),
		services: &api.Services{Markers: service.NewMarkerService(repo, bus, log)},
		renderer: renderer,
		log:      log,
	}

	s.routes()
	s.handler = s.middleware(mux)

	log.Info().
		Str("storage", cfg.Storage).
		Bool("auth", s.auth.Enabled()).
		Msg("server initialised")
	return s, nil
}

func openRepository(ctx context.Context, cfg Config) (service.Repository, *sql.DB, error) {
	switch cfg.Storage {
	case StorageFile:
		repo, err := service.NewFileRepository(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file storage: %w", err)
		}
		return repo, nil, nil
	case StorageDuckDB:
		repo, err := service.NewDuckRepository(ctx, db.Config{DataDir: cfg.DataDir, DBName: "rawan"})
		if err != nil {
			return nil, nil, fmt.Errorf("opening duckdb storage: %w", err)
		}
		return repo, repo.DB(), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

func loadTemplates(webDir string) (*templates.Renderer, error) {
	if webDir == "" {
		return templates.Default()
	}
	if _, err := os.Stat(webDir); err != nil {
		return templates.Default()
	}
	return templates.New(os.DirFS(webDir))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close closes server resources.
func (s *Server) Close() error {
	return s.repo.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services, s.auth)
	api.NewInfoHandler(s.config.Storage, s.auth).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db, s.auth).RegisterRoutes(s.humaAPI)

	// Register Editor SSE routes using Huma + Datastar SDK
	proj := geo.NewProjector(s.config.CenterLat, s.config.CenterLng)
	editor.NewMapHandler(s.services.Markers, s.renderer, s.auth, proj, s.log).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(s.services.Markers.Events()).RegisterRoutes(s.humaAPI)

	// Page routes
	s.mux.HandleFunc("/editor", s.handleEditor)
	s.mux.HandleFunc("/", s.handleRoot)
}

// middleware adds zerolog request logging. Every response carries an
// X-Request-Id that also appears on the request's log lines.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		ev := hlog.FromRequest(r).Debug()
		if status >= 500 {
			ev = hlog.FromRequest(r).Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(next)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(s.log)(h)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-rawan",
		"status":  "running",
	})
}

// editorPage is the data for the editor-page template.
type editorPage struct {
	Title   string
	Signals string
	Auth    bool
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	signals, err := json.Marshal(map[string]any{
		"mapwidth":    0,
		"mapheight":   0,
		"centerlat":   s.config.CenterLat,
		"centerlng":   s.config.CenterLng,
		"mode":        "idle",
		"placing":     false,
		"pixelx":      0,
		"pixely":      0,
		"clickx":      0,
		"clicky":      0,
		"editingid":   0,
		"name":        "",
		"description": "",
		"hoverid":     0,
		"confirmed":   false,
		"token":       "",
		"error":       "",
		"success":     "",
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	html, err := s.renderer.Render("editor-page", editorPage{
		Title:   "Lokasi Rawan",
		Signals: string(signals),
		Auth:    s.auth.Enabled(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("rendering editor page")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// SplitTokens parses a comma-separated token list.
func SplitTokens(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
