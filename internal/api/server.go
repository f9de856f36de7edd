// Package api expone el tablero de gestión como API JSON.
package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"gestiondash/internal/auth"
	"gestiondash/internal/config"
	"gestiondash/internal/kpi"
	"gestiondash/internal/websocket"
)

const (
	healthPath   = "/api/health"
	maxBodyBytes = 8 << 20
)

// Server representa el servidor API REST
type Server struct {
	config *config.Config
	db     *sql.DB
	class  kpi.Classification
	guard  *auth.Guard
	hub    *websocket.Hub
	log    *zap.Logger
}

// NewServer crea el servidor. hub puede ser nil si el feed está apagado.
// El guard JWT se activa sólo si auth.jwt_secret tiene valor.
func NewServer(cfg *config.Config, db *sql.DB, hub *websocket.Hub) (*Server, error) {
	s := &Server{
		config: cfg,
		db:     db,
		class:  kpi.NewClassification(cfg.KPI.Efectivas, cfg.KPI.Exitosas),
		hub:    hub,
		log:    zap.L().Named("api"),
	}

	if cfg.Auth.JWTSecret != "" {
		guard, err := auth.NewGuard(cfg.Auth.JWTSecret, healthPath, "/")
		if err != nil {
			return nil, err
		}
		s.guard = guard
	}
	return s, nil
}

// Router arma el árbol de rutas con sus middlewares.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.API.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	if s.guard != nil {
		r.Use(s.guard.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "ruta no encontrada"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "método no permitido"})
	})

	r.Get("/", s.handleRoot)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/kpis", s.handleKPIs)

		r.Route("/snapshots", func(r chi.Router) {
			r.Post("/", s.handleSnapshotCreate)
			r.Get("/", s.handleSnapshotList)
			r.Get("/{id}", s.handleSnapshotGet)
		})

		r.Route("/consultas", func(r chi.Router) {
			r.Get("/gestiones", s.handleGestiones)
			r.Get("/no_contesta", s.handleNoContesta)
			r.Get("/rendimiento", s.handleRendimiento)
			r.Get("/contactos", s.handleContactos)
		})

		r.Get("/campaigns", s.handleCampaigns)
		r.Get("/agents", s.handleAgents)

		if s.hub != nil {
			r.Handle("/ws", s.hub)
		}
	})

	return r
}

// Start sirve hasta que ctx se cancela y luego cierra con gracia.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.API.Address()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("servidor iniciado",
			zap.String("addr", addr),
			zap.Bool("auth", s.guard != nil),
			zap.Bool("websocket", s.hub != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "error en servidor HTTP")
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("apagando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "error apagando servidor")
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "API OK",
		"health":  healthPath,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
