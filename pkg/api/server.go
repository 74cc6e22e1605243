// Package api is the boconv REST gateway: it lists the registered record
// types, converts between JSON/CBOR and the binary record encoding, and
// stores encoded records as objects.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const statsInterval = 15 * time.Second

// NewRouter builds the HTTP routes. gatherer serves /metrics; nil uses the
// default Prometheus registry.
func NewRouter(s *Server, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Record-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	instrument := func(method, endpoint string, h http.HandlerFunc) http.HandlerFunc {
		if s.metrics == nil {
			return h
		}
		return s.metrics.InstrumentHandler(method, endpoint, h)
	}

	r.Route("/api/v1", func(r chi.Router) {
		auth := apiKeyMiddleware(s.config.APIKey)
		if s.metrics != nil {
			auth = s.metrics.InstrumentAuthMiddleware(auth)
		}
		r.Use(auth)

		r.Get("/health", instrument("GET", "/api/v1/health", s.handleHealth))
		r.Get("/stats", instrument("GET", "/api/v1/stats", s.handleStats))

		// Schema
		r.Get("/types", instrument("GET", "/api/v1/types", s.handleTypes))
		r.Get("/types/{type}", instrument("GET", "/api/v1/types/{type}", s.handleType))

		// Objects
		r.Get("/objects/{type}", instrument("GET", "/api/v1/objects/{type}", s.handleListObjects))
		r.Post("/objects/{type}", instrument("POST", "/api/v1/objects/{type}", s.handleCreateObject))
		r.Get("/objects/{type}/{id}", instrument("GET", "/api/v1/objects/{type}/{id}", s.handleGetObject))
		r.Delete("/objects/{type}/{id}", instrument("DELETE", "/api/v1/objects/{type}/{id}", s.handleDeleteObject))

		// Conversion
		r.Post("/encode/{type}", instrument("POST", "/api/v1/encode/{type}", s.handleEncode))
		r.Post("/decode/{type}", instrument("POST", "/api/v1/decode/{type}", s.handleDecode))
	})

	return r
}

// Serve runs the server until ctx is cancelled, then shuts it down
func Serve(ctx context.Context, s *Server, gatherer prometheus.Gatherer) error {
	addr := net.JoinHostPort(s.config.Bind, fmt.Sprint(s.config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(s, gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go s.startMetricsUpdater(done, statsInterval)

	if s.config.APIKey == "" {
		s.logger.Warn("api key is empty, authentication is disabled")
	}
	s.logger.Info("starting boconv REST API server",
		zap.String("addr", addr),
		zap.String("metrics", fmt.Sprintf("http://%s/metrics", addr)))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}
