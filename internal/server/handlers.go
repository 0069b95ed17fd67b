package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/engine"
	"github.com/law-makers/bizcrawl/internal/reqctx"
	"github.com/law-makers/bizcrawl/internal/sink"
	"github.com/law-makers/bizcrawl/pkg/models"
)

// scrapeRequest is the body of POST /api/scrape
type scrapeRequest struct {
	URL string `json:"url" validate:"required,url"`
	LLM *bool  `json:"LLM" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// scrape handles POST /api/scrape
func (s *Server) scrape(c echo.Context) error {
	var req scrapeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request"})
	}

	mode := models.ModeExplicit
	if *req.LLM {
		mode = models.ModeModel
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx := reqctx.WithRunID(c.Request().Context(), RequestIDFromContext(c))
	records, err := s.runner.Run(ctx, req.URL, mode)
	switch {
	case errors.Is(err, engine.ErrNoExtractor):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Extraction mode unavailable"})
	case err != nil:
		log.Error().Err(err).Str("url", req.URL).Msg("Scraper failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Scraper failed"})
	}

	if records == nil {
		records = []models.BusinessRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// submitBusiness handles POST /api/submit-business
func (s *Server) submitBusiness(c echo.Context) error {
	var rec models.BusinessRecord
	if err := c.Bind(&rec); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid record"})
	}

	outcome, err := s.store.UpsertIfAbsent(c.Request().Context(), rec)
	if err != nil {
		log.Error().Err(err).Str("url", models.Deref(rec.Domain)).Msg("Insert failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Insert failed"})
	}
	if outcome == models.OutcomeDuplicate {
		return c.JSON(http.StatusOK, messageResponse{Message: sink.DuplicateMessage})
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true})
}

// deleteAll handles POST /api/delete
func (s *Server) deleteAll(c echo.Context) error {
	if err := s.store.DeleteAll(c.Request().Context()); err != nil {
		log.Error().Err(err).Msg("Delete failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Delete failed"})
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "All business data deleted"})
}
