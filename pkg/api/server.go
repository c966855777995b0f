// Package api serves compiled layouts over HTTP: lines in, JSON records out
// and back.
//
// @title           flatrec REST API
// @version         1.0.0
// @description     Decode fixed-width lines into JSON records and encode them back.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router returns the HTTP handler serving s
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		// Health check
		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Layouts
		r.Get("/layouts", s.metrics.InstrumentHandler("GET", "/api/v1/layouts", s.handleListLayouts))
		r.Get("/layouts/{name}", s.metrics.InstrumentHandler("GET", "/api/v1/layouts/{name}", s.handleGetLayout))
		r.Post("/layouts/{name}/decode", s.metrics.InstrumentHandler("POST", "/api/v1/layouts/{name}/decode", s.handleDecode))
		r.Post("/layouts/{name}/encode", s.metrics.InstrumentHandler("POST", "/api/v1/layouts/{name}/encode", s.handleEncode))

		// Poly dispatch over every layout with a match pattern
		r.Post("/decode", s.metrics.InstrumentHandler("POST", "/api/v1/decode", s.handlePolyDecode))
	})

	return r
}

// StartServer serves layouts until ctx is done, then shuts down gracefully
func StartServer(ctx context.Context, layouts Layouts, config ServerConfig, logger *zap.Logger, metrics *Metrics) error {
	server, err := NewServer(layouts, config, metrics, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("starting flatrec API server",
			zap.String("addr", addr),
			zap.Int("layouts", len(layouts.Entries())),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		server.logger.Info("shutting down flatrec API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
