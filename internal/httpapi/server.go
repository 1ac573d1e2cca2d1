// Package httpapi provides the HTTP API for prefd.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prefd/internal/engine"
	"github.com/fyrsmithlabs/prefd/internal/feedback"
	"github.com/fyrsmithlabs/prefd/internal/recommend"
)

// Server exposes the engine's operations over HTTP.
type Server struct {
	echo   *echo.Echo
	engine *engine.Service
	logger *zap.Logger
	config *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(eng *engine.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8710,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:   e,
		engine: eng,
		logger: logger,
		config: cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check and Prometheus metrics
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/feedback", s.handleRecordFeedback)
	v1.POST("/recommendations/adapt", s.handleAdaptRecommendation)
	v1.GET("/reports/:agent/:user/:task", s.handleLearningReport)
	v1.DELETE("/preferences/:agent/:user/:task", s.handleResetPreferences)
}

// FeedbackResponse is the response body for POST /api/v1/feedback.
type FeedbackResponse struct {
	EventID     string `json:"event_id"`
	SampleCount int    `json:"sample_count"`
	Phase       string `json:"phase"`
}

// AdaptRequest is the request body for POST /api/v1/recommendations/adapt.
type AdaptRequest struct {
	AgentID      string               `json:"agent_id"`
	UserID       string               `json:"user_id"`
	TaskType     string               `json:"task_type"`
	Candidate    recommend.Candidate  `json:"candidate"`
	AllowedHours *recommend.HourRange `json:"allowed_hours,omitempty"`
}

// ResetResponse is the response body for DELETE /api/v1/preferences.
type ResetResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleRecordFeedback folds a feedback event into the key's preference
// state.
func (s *Server) handleRecordFeedback(c echo.Context) error {
	var event feedback.Event
	if err := c.Bind(&event); err != nil {
		s.logger.Warn("invalid feedback request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	state, err := s.engine.RecordFeedback(c.Request().Context(), &event)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, FeedbackResponse{
		EventID:     event.ID,
		SampleCount: state.SampleCount,
		Phase:       s.engine.Config().PhaseFor(state.SampleCount).String(),
	})
}

// handleAdaptRecommendation applies learned preferences to a candidate.
func (s *Server) handleAdaptRecommendation(c echo.Context) error {
	var req AdaptRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid adapt request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	key := feedback.Key{AgentID: req.AgentID, UserID: req.UserID, TaskType: req.TaskType}
	adapted, err := s.engine.AdaptRecommendation(c.Request().Context(), key, req.Candidate, req.AllowedHours)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, adapted)
}

// handleLearningReport derives a learning report for the key.
func (s *Server) handleLearningReport(c echo.Context) error {
	key := keyFromPath(c)
	rep, err := s.engine.GetLearningReport(c.Request().Context(), key)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}

// handleResetPreferences deletes the key's learned state.
func (s *Server) handleResetPreferences(c echo.Context) error {
	key := keyFromPath(c)
	if err := s.engine.ResetPreferences(c.Request().Context(), key); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, ResetResponse{Status: "reset"})
}

func keyFromPath(c echo.Context) feedback.Key {
	return feedback.Key{
		AgentID:  c.Param("agent"),
		UserID:   c.Param("user"),
		TaskType: c.Param("task"),
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
