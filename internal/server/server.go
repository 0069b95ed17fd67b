// Package server exposes the crawler and the record store over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/sink"
	"github.com/law-makers/bizcrawl/pkg/models"
)

// Runner runs one crawl. *engine.Crawler satisfies it.
type Runner interface {
	Run(ctx context.Context, searchURL string, mode models.ExtractionMode) ([]models.BusinessRecord, error)
}

// Server is the HTTP request layer
type Server struct {
	echo     *echo.Echo
	runner   Runner
	store    sink.Store
	validate *validator.Validate

	// one browser-backed crawl at a time
	runMu sync.Mutex
}

// New creates a Server and registers its routes
func New(runner Runner, store sink.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		runner:   runner,
		store:    store,
		validate: validator.New(),
	}

	e.Use(RequestID())
	e.Use(Logging())
	e.Use(echoMiddleware.Recover())

	e.GET("/healthz", s.health)
	api := e.Group("/api")
	api.POST("/scrape", s.scrape)
	api.POST("/submit-business", s.submitBusiness)
	api.POST("/delete", s.deleteAll)

	return s
}

// Handler returns the routed http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.echo.Start(addr)
	}()
	log.Info().Str("addr", addr).Msg("Server listening")

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
