// Package server provides the HTTP API of the retrieval service.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/remixer1943/Ai/internal/config"
	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/internal/retriever"
	"github.com/remixer1943/Ai/pkg/utils"
)

// Retriever is what the HTTP layer needs from the retrieval core.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error)
	Ready() bool
	Stats() retriever.Stats
}

// Server is the HTTP server for the retrieval API.
type Server struct {
	retriever Retriever
	config    *config.Config
	logger    *zap.Logger
	limiter   *rate.Limiter
	diskPaths []string
	server    *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithDiskPaths sets local paths whose size is reported by the status endpoint.
func WithDiskPaths(paths ...string) ServerOption {
	return func(s *Server) { s.diskPaths = paths }
}

// NewServer creates a server answering queries with r.
func NewServer(r Retriever, cfg *config.Config, logger *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		retriever: r,
		config:    cfg,
		logger:    utils.LoggerOrNop(logger),
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), max(cfg.Server.RateBurst, 1))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.With(s.rateLimit).Post("/retrieve", s.handleRetrieve)
	r.Get("/api/v1/status", s.handleStatus)
	return r
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Server.Address())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until the server stops.
func (s *Server) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", ln.Addr().String()))
	return s.server.Serve(ln)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
