// Package server exposes the translator over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /v1/databases
//	GET  /v1/databases/{db}/schema
//	GET  /v1/databases/{db}/tables/{table}/preview?limit=n
//	POST /v1/ask                  {"database": "...", "query": "..."}
//	POST /v1/ask/voice?database=  raw audio body
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/logger"
	"github.com/koustreak/askdb/internal/pipeline"
	"github.com/koustreak/askdb/internal/schema"
	"github.com/koustreak/askdb/internal/speech"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Service is the part of pipeline.Translator the API calls.
type Service interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
	RunSpoken(ctx context.Context, source string, audio speech.Audio, review pipeline.ReviewFunc) (*pipeline.Outcome, error)
	Databases(ctx context.Context) ([]string, error)
	Schema(ctx context.Context, source string) (*schema.Snapshot, error)
	Preview(ctx context.Context, source, table string, limit int) (*database.Rowset, error)
}

var _ Service = (*pipeline.Translator)(nil)

// Config holds listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxAudioBytes   int64
	// PreviewLimit is used when a preview request names no limit.
	PreviewLimit int
}

// Server serves the HTTP API.
type Server struct {
	svc    Service
	cfg    Config
	log    *logger.Logger
	router chi.Router
}

// New builds a Server and its routes.
func New(svc Service, cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = speech.MaxAudioBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{svc: svc, cfg: cfg, log: log}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		accessLog(s.log),
		metricsMiddleware,
		middleware.Recoverer,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/databases", s.handleDatabases)
		r.Get("/databases/{db}/schema", s.handleSchema)
		r.Get("/databases/{db}/tables/{table}/preview", s.handlePreview)
		r.Post("/ask", s.handleAsk)
		r.Post("/ask/voice", s.handleAskVoice)
	})

	return r
}

// Serve listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.log.With().Str("addr", s.cfg.Addr).Logger().Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
