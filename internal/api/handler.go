// Package api provides the HTTP interface for querying and inspecting
// the course catalog.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coursemind/internal/logging"
	"coursemind/internal/rag"
	"coursemind/internal/tools"
)

// QuerySystem is the orchestrator surface the handlers need.
type QuerySystem interface {
	Answer(ctx context.Context, query, sessionID string) (string, []tools.Source, error)
	CreateSession() string
	ClearSession(id string)
	GetAnalytics(ctx context.Context) (*rag.Analytics, error)
}

// Handler handles HTTP requests.
type Handler struct {
	system  QuerySystem
	version string
}

// NewHandler creates a new handler.
func NewHandler(system QuerySystem, version string) *Handler {
	return &Handler{system: system, version: version}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/query", h.Query)
	e.GET("/api/courses", h.Courses)
	e.DELETE("/api/sessions/:session_id", h.ClearSession)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// Query answers one question. A request without a session id gets a
// fresh session whose id is echoed back for follow-ups.
func (h *Handler) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "query is required"})
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.system.CreateSession()
	}

	answer, sources, err := h.system.Answer(c.Request().Context(), req.Query, sessionID)
	if err != nil {
		logging.APIError("Query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
	}
	if sources == nil {
		sources = []tools.Source{}
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

// Courses reports catalog statistics.
func (h *Handler) Courses(c echo.Context) error {
	analytics, err := h.system.GetAnalytics(c.Request().Context())
	if err != nil {
		logging.APIError("Analytics failed: %v", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
	}
	return c.JSON(http.StatusOK, analytics)
}

// ClearSession drops a conversation.
func (h *Handler) ClearSession(c echo.Context) error {
	id := c.Param("session_id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "session_id is required"})
	}
	h.system.ClearSession(id)
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared", "session_id": id})
}
