// Package server exposes the generated lobby over HTTP: read-only
// inspection endpoints for collaborators, theme switching, movement
// queries and a websocket stream for live movement.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/config"
	"github.com/Faultbox/midgard-lobby/internal/lobby"
	"github.com/Faultbox/midgard-lobby/internal/logger"
)

var log = logger.Named("server")

// Server serves one Lobby.
type Server struct {
	lobby    *lobby.Lobby
	cfg      config.ServerConfig
	radius   float32
	upgrader websocket.Upgrader
	started  time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a server for l. The player radius is the default for
// movement queries that do not name one.
func New(l *lobby.Lobby, cfg config.ServerConfig, player config.PlayerConfig) *Server {
	s := &Server{
		lobby:    l,
		cfg:      cfg,
		radius:   player.Radius,
		started:  time.Now(),
		sessions: make(map[string]*session),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(sub chi.Router) {
		sub.Get("/health", s.health)
		sub.Get("/colliders", s.colliders)
		sub.Get("/bounds", s.bounds)
		sub.Put("/bounds", s.setBounds)
		sub.Delete("/bounds", s.clearBounds)
		sub.Get("/zones", s.zones)
		sub.Get("/targets", s.targets)
		sub.Get("/catalog/rooms", s.catalogRooms)
		sub.Get("/stats", s.stats)
		sub.Get("/themes", s.themes)
		sub.Post("/themes/{id}", s.applyTheme)
		sub.Post("/resolve", s.resolve)
		sub.Post("/pick", s.pick)
	})
	r.HandleFunc("/ws", s.handleWS)

	return r
}

// Run serves on the configured address until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeSessions()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs each request through the component logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
