package httpapi

import (
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/snapjudge/snapjudge/internal/application/review"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	reviewSvc *review.Service
	publicKey ed25519.PublicKey
	uploadDir string
	logger    zerolog.Logger
}

func NewServer(reviewSvc *review.Service, publicKey ed25519.PublicKey, uploadDir string, logger zerolog.Logger) *Server {
	return &Server{
		reviewSvc: reviewSvc,
		publicKey: publicKey,
		uploadDir: uploadDir,
		logger:    logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", s.healthz)
	r.Post("/upload", s.upload)
	r.Get("/result/{id}", s.getResult)
	r.Post("/discord/interactions", s.interactions)

	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
