package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chatlens/chatlens/internal/analyzer"
	"github.com/chatlens/chatlens/internal/dispatch"
	"github.com/chatlens/chatlens/internal/store"
)

type Server struct {
	router   *chi.Mux
	port     int
	analyzer *analyzer.Analyzer
	dispatch *dispatch.Client // nil: aggregation runs in-process
	prefs    *store.Store     // nil: preferences unavailable
	timeout  time.Duration
}

func NewServer(port int, apiToken string, a *analyzer.Analyzer, d *dispatch.Client, prefs *store.Store, timeout time.Duration) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		analyzer: a,
		dispatch: d,
		prefs:    prefs,
		timeout:  timeout,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/status", s.status)

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/api/v1/analyze", s.analyze)
		r.Get("/api/v1/preferences/{owner}", s.getPreferences)
		r.Put("/api/v1/preferences/{owner}", s.putPreferences)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	mode := "inline"
	if s.dispatch != nil {
		mode = "nats"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service":  "chatlens",
		"status":   "ok",
		"dispatch": mode,
	})
}

// BearerAuthMiddleware rejects requests without the configured bearer token.
// An empty token disables authentication.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
