// Package server exposes a Session over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/tabfit/chart"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
	"github.com/YuminosukeSato/tabfit/pkg/log"
	"github.com/YuminosukeSato/tabfit/session"
)

// DefaultMaxUploadBytes bounds an uploaded dataset.
const DefaultMaxUploadBytes int64 = 32 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the application logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxUploadBytes limits the size of POST /api/dataset bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithChartSize sets the size of rendered charts.
func WithChartSize(size chart.Size) Option {
	return func(s *Server) { s.chartSize = size }
}

// WithRateLimit limits POST requests to rps per second with the given
// burst. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rateRPS = rps
		s.rateBurst = burst
	}
}

// Server serves the dataset, analysis and model operations of one Session.
type Server struct {
	sess      *session.Session
	logger    log.Logger
	validate  *validator.Validate
	maxUpload int64
	chartSize chart.Size
	rateRPS   float64
	rateBurst int
	metrics   *metrics
	router    chi.Router
}

// New builds a Server and its routes.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		sess:      sess,
		logger:    log.NopLogger(),
		validate:  validator.New(),
		maxUpload: DefaultMaxUploadBytes,
		chartSize: chart.DefaultSize,
		metrics:   newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/dataset", s.handleSummary)
			r.Get("/columns", s.handleColumns)
			r.Get("/grouped-average", s.handleGroupedAverage)
			r.Get("/correlation", s.handleCorrelation)
			r.Get("/model", s.handleModel)
			r.Post("/predict", s.handlePredict)

			r.Group(func(r chi.Router) {
				r.Use(s.rateLimit(s.rateRPS, s.rateBurst))
				r.Post("/dataset", s.handleUpload)
				r.Post("/train", s.handleTrain)
			})
		})
		r.Get("/charts/grouped-average.png", s.handleGroupedAverageChart)
		r.Get("/charts/correlation.png", s.handleCorrelationChart)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		s.logger.Info("Server stopped")
		return nil
	})
	return g.Wait()
}

// accessLog はslogのデフォルトロガーにリクエストを1行ずつ出力し、メトリクスを記録する
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.observeRequest(r.Method, route, ww.Status(), elapsed.Seconds())
		slog.Default().Log(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String(log.HTTPRouteKey, route),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Int64(log.DurationMsKey, elapsed.Milliseconds()),
			slog.String(log.RequestIDKey, middleware.GetReqID(r.Context())),
		)
	})
}
