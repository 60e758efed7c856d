package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ragserver/internal/assembler"
	"ragserver/internal/domain"
	"ragserver/internal/service"
)

// ChatRequest is the wire format of POST /api/chat. TopK is an optional
// result-count override.
type ChatRequest struct {
	Message string `json:"message"`
	TopK    int    `json:"top_k,omitempty"`
}

// ChatResponse carries the answer and the sources it was built from.
type ChatResponse struct {
	Reply   string           `json:"reply"`
	Sources []service.Source `json:"sources"`
}

// SearchRequest is the wire format of POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchHit is one raw retrieval result with a bounded excerpt.
type SearchHit struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// SearchResponse is the raw retrieval reply.
type SearchResponse struct {
	Query     string      `json:"query"`
	Results   []SearchHit `json:"results"`
	Timestamp time.Time   `json:"timestamp"`
}

// Stats is the counters view exposed on /api/stats.
type Stats interface {
	Count() int
}

// Server is the HTTP face of the query pipeline.
type Server struct {
	svc     *service.Service
	stats   Stats
	logger  *slog.Logger
	started time.Time
}

// New creates a server around the query service. stats may be nil.
func New(svc *service.Service, stats Stats, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, stats: stats, logger: logger, started: time.Now()}
}

// Router builds the echo instance with all routes registered.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.POST("/api/chat", s.handleChat)
	e.POST("/api/search", s.handleSearch)
	e.GET("/api/health", s.handleHealth)
	e.GET("/api/stats", s.handleStats)
	return e
}

// Start runs the server until the listener fails.
func (s *Server) Start(addr string) error {
	return s.Router().Start(addr)
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "message must be a non-empty string")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message must be a non-empty string")
	}

	reply, err := s.svc.Chat(c.Request().Context(), req.Message, req.TopK)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, ChatResponse{Reply: reply.Answer, Sources: reply.Sources})
}

func (s *Server) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "query must be a non-empty string")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query must be a non-empty string")
	}

	results, err := s.svc.Search(c.Request().Context(), req.Query, req.TopK)
	if err != nil {
		return s.mapError(err)
	}

	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{
			Text:   assembler.Excerpt(r.Text, 300),
			Source: r.Source.Path,
			Score:  r.Score,
		}
	}
	return c.JSON(http.StatusOK, SearchResponse{
		Query:     req.Query,
		Results:   hits,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	interactions := 0
	if s.stats != nil {
		interactions = s.stats.Count()
	}
	return c.JSON(http.StatusOK, map[string]any{
		"interactions": interactions,
		"uptime":       time.Since(s.started).Seconds(),
	})
}

// mapError translates domain errors into wire status codes. Data
// integrity faults are logged loudly before surfacing.
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStoreNotFound), errors.Is(err, domain.ErrStoreCorrupt):
		s.logger.Error("vector store unavailable", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "retrieval index not initialized")
	case errors.Is(err, domain.ErrEmbeddingFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "embedding provider unavailable")
	case errors.Is(err, domain.ErrDimensionMismatch):
		s.logger.Error("dimension mismatch: snapshot likely built by a different model", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "retrieval index is inconsistent")
	default:
		s.logger.Error("query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}
}
