// Package httpapi provides the read-mostly HTTP surface of triaged.
//
// The API is a viewer over case records and ledger events, plus two write
// actions: approving a drafted email (flips its sent flag once) and
// triggering a single triage pass.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/casefile"
	"github.com/parkrow-labs/triaged/internal/intake"
	"github.com/parkrow-labs/triaged/internal/ledger"
	"github.com/parkrow-labs/triaged/internal/orchestrator"
)

// Config holds HTTP server settings.
type Config struct {
	Host string
	Port int
}

// Server serves the triaged API.
type Server struct {
	echo    *echo.Echo
	cases   *casefile.Store
	ledger  *ledger.Ledger
	runner  *orchestrator.Orchestrator
	creator *intake.Creator
	logger  *zap.Logger
	config  Config

	// scanMu serializes /scan-triggered passes; the pipeline is a
	// single-operator sequence, not a worker pool.
	scanMu sync.Mutex
}

// NewServer creates the server and registers all routes.
func NewServer(cases *casefile.Store, led *ledger.Ledger, runner *orchestrator.Orchestrator, creator *intake.Creator, gatherer prometheus.Gatherer, logger *zap.Logger, cfg Config) (*Server, error) {
	if cases == nil || led == nil || runner == nil || creator == nil {
		return nil, fmt.Errorf("cases, ledger, orchestrator, and intake are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8420
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
		cases:   cases,
		ledger:  led,
		runner:  runner,
		creator: creator,
		logger:  logger,
		config:  cfg,
	}

	e.GET("/health", s.handleHealth)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/api/v1")
	v1.GET("/cases", s.handleListCases)
	v1.GET("/cases/:event_id", s.handleGetCase)
	v1.POST("/cases/:event_id/emails/:index/approve", s.handleApproveEmail)
	v1.GET("/events", s.handleListEvents)
	v1.GET("/events/:event_id", s.handleGetEvent)
	v1.POST("/events", s.handleCreateEvent)
	v1.POST("/scan", s.handleScan)

	return s, nil
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// CaseSummary is one entry in the case listing.
type CaseSummary struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Actions   int       `json:"actions"`
	Emails    int       `json:"emails"`
}

func (s *Server) handleListCases(c echo.Context) error {
	records, err := s.cases.List()
	if err != nil {
		s.logger.Error("failed to list case records", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list cases")
	}
	summaries := make([]CaseSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, CaseSummary{
			EventID:   rec.EventID,
			EventType: rec.EventData.EventType,
			Location:  rec.EventData.Location,
			Status:    rec.Status,
			CreatedAt: rec.CreatedAt,
			Actions:   len(rec.Actions),
			Emails:    len(rec.Emails),
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleGetCase(c echo.Context) error {
	rec, err := s.cases.Load(c.Param("event_id"))
	if err != nil {
		if errors.Is(err, casefile.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "case not found")
		}
		s.logger.Error("failed to load case record", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load case")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleApproveEmail(c echo.Context) error {
	eventID := c.Param("event_id")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email index")
	}

	switch err := s.cases.MarkEmailSent(eventID, index); {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]string{"status": "approved"})
	case errors.Is(err, casefile.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	case errors.Is(err, casefile.ErrEmailSent):
		return echo.NewHTTPError(http.StatusConflict, "email already marked sent")
	default:
		s.logger.Error("failed to approve email",
			zap.String("event_id", eventID), zap.Int("index", index), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to approve email")
	}
}

func (s *Server) handleListEvents(c echo.Context) error {
	events, err := s.ledger.List(c.Request().Context())
	if err != nil {
		s.logger.Error("failed to list events", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events")
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleGetEvent(c echo.Context) error {
	ev, err := s.ledger.Get(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		s.logger.Error("failed to load event", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load event")
	}
	return c.JSON(http.StatusOK, ev)
}

// CreateEventRequest is the body of POST /api/v1/events. Content is the
// raw document text; source is an opaque source reference.
type CreateEventRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content field is required")
	}
	if req.Source == "" {
		req.Source = "api"
	}

	ev, err := s.creator.Create(c.Request().Context(), req.Content, req.Source)
	if err != nil {
		s.logger.Error("failed to create event", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create event")
	}
	return c.JSON(http.StatusCreated, ev)
}

func (s *Server) handleScan(c echo.Context) error {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	result := s.runner.RunOnce(c.Request().Context())
	status := http.StatusOK
	if !result.Success() {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, result)
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
