// Package api provides HTTP handlers for the orchestrator.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iblflow/orchestrator/service"
	"github.com/iblflow/orchestrator/store"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	store   store.Store
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, st store.Store) *Handler {
	return &Handler{
		service: svc,
		store:   st,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/messages", h.PostMessage)
	e.GET("/v1/threads/:thread_id/messages", h.GetThreadMessages)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
