// Package api serves materialized addresses and address-bearing records
// over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/fias-importer/internal/address"
	"github.com/sells-group/fias-importer/internal/fias/loader"
	"github.com/sells-group/fias-importer/internal/store"
)

// Server routes API requests to the record store.
type Server struct {
	store    store.Store
	saver    *store.Saver
	resolver *loader.Resolver
	router   *chi.Mux
}

// Options tunes the HTTP layer.
type Options struct {
	// CORSOrigins lists the origins allowed cross-origin access. Empty
	// disables CORS.
	CORSOrigins []string
	// RateLimit is the per-IP request rate in requests per second.
	// Zero disables rate limiting.
	RateLimit float64
	RateBurst int
}

// NewServer builds the router.
func NewServer(st store.Store, resolver *loader.Resolver, opts Options) *Server {
	s := &Server{
		store:    st,
		saver:    store.NewSaver(st),
		resolver: resolver,
		router:   chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	if opts.RateLimit > 0 {
		s.router.Use(newIPLimiter(opts.RateLimit, opts.RateBurst).middleware)
	}
	if len(opts.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.handleListTables)
		r.Get("/addresses/{guid}", s.handleGetAddress)
		r.Post("/records", s.handleSaveRecord)
		r.Get("/records/{id}", s.handleGetRecord)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError logs err and writes its status. Not-found errors map to 404.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if errors.Is(err, address.ErrNotFound) || errors.Is(err, store.ErrRecordNotFound) {
		status = http.StatusNotFound
	}
	reqID := middleware.GetReqID(r.Context())
	zap.L().With(zap.String("component", "api")).Warn("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", reqID),
		zap.Error(err),
	)
	respondJSON(w, status, errorResponse{Error: err.Error(), RequestID: reqID})
}
