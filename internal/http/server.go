// Package http provides the HTTP API for remedyd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/casestore"
	"github.com/fyrsmithlabs/remedyd/internal/embeddings"
	"github.com/fyrsmithlabs/remedyd/internal/resolver"
	"github.com/fyrsmithlabs/remedyd/internal/validator"
)

// Server exposes the resolver service over HTTP.
type Server struct {
	echo    *echo.Echo
	service *resolver.Service
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Addr string
}

// NewServer creates a new HTTP server.
func NewServer(service *resolver.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("resolver service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Addr: ":8420"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		logger:  logger,
		config:  cfg,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/resolve", s.handleResolve)
	v1.POST("/retrieve", s.handleRetrieve)
	v1.POST("/validate", s.handleValidate)
	v1.POST("/cases", s.handleTeach)
	v1.GET("/cases", s.handleListCases)
	v1.GET("/cases/:id", s.handleGetCase)
	v1.POST("/cases/:id/feedback", s.handleFeedback)
	v1.DELETE("/cases/:id", s.handleRemoveCase)
	v1.GET("/audit", s.handleAudit)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleResolve retrieves, concretizes, and validates a statement for
// the query.
func (s *Server) handleResolve(c echo.Context) error {
	var req resolver.ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.service.Resolve(c.Request().Context(), req)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// handleRetrieve returns ranked matches without concretizing anything.
func (s *Server) handleRetrieve(c echo.Context) error {
	var req RetrieveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	matches, warnings, err := s.service.Retrieve(c.Request().Context(), req.Query, req.TopK)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, RetrieveResponse{Matches: matches, Warnings: warnings})
}

// handleValidate judges a caller-supplied statement.
func (s *Server) handleValidate(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	decision, err := s.service.ValidateStatement(c.Request().Context(), req.Operation, req.Statement, req.Context)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, decision)
}

// handleTeach stores a new solved case.
func (s *Server) handleTeach(c echo.Context) error {
	var req resolver.TeachRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	taught, err := s.service.Teach(c.Request().Context(), req)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusCreated, taught)
}

// handleListCases lists all stored cases.
func (s *Server) handleListCases(c echo.Context) error {
	return c.JSON(http.StatusOK, CasesResponse{Cases: s.service.Cases()})
}

// handleGetCase returns one case by ID.
func (s *Server) handleGetCase(c echo.Context) error {
	for _, stored := range s.service.Cases() {
		if stored.ID == c.Param("id") {
			return c.JSON(http.StatusOK, stored)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "case not found")
}

// handleFeedback applies a helpfulness rating.
func (s *Server) handleFeedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updated, err := s.service.Feedback(c.Request().Context(), c.Param("id"), req.Rating)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// handleRemoveCase deletes a case and its embedding.
func (s *Server) handleRemoveCase(c echo.Context) error {
	if err := s.service.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return s.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleAudit returns the validation decision trail.
func (s *Server) handleAudit(c echo.Context) error {
	return c.JSON(http.StatusOK, AuditResponse{Decisions: s.service.AuditHistory()})
}

// mapError translates service sentinels to HTTP status codes.
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, resolver.ErrEmptyQuery),
		errors.Is(err, validator.ErrInput),
		errors.Is(err, casestore.ErrInvalidCase):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, resolver.ErrNoMatch),
		errors.Is(err, casestore.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, embeddings.ErrBackendUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.config.Addr))
	return s.echo.Start(s.config.Addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
