package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iblflow/orchestrator/domain"
)

// PostMessageRequest is the body of POST /v1/messages.
type PostMessageRequest struct {
	ThreadID    string `json:"thread_id"`
	UserMessage string `json:"user_message"`
}

// PostMessage runs one orchestration turn for a thread.
// POST /v1/messages
func (h *Handler) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.ThreadID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "thread_id is required"})
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_message is required"})
	}

	messages, err := h.service.HandleTurn(ctx, req.ThreadID, req.UserMessage)
	if err != nil {
		log.Printf("ERROR: turn for thread %s: %v", req.ThreadID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to process message"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"thread_id": req.ThreadID,
		"messages":  messages,
	})
}

// GetThreadMessages returns a thread's history in append order.
// GET /v1/threads/:thread_id/messages
func (h *Handler) GetThreadMessages(c echo.Context) error {
	ctx := c.Request().Context()
	threadID := c.Param("thread_id")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	session, err := h.store.GetSession(ctx, threadID)
	if err != nil {
		log.Printf("ERROR: failed to get session: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get session"})
	}
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "thread not found"})
	}

	messages, err := h.store.ListMessages(ctx, threadID, limit)
	if err != nil {
		log.Printf("ERROR: failed to get messages: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get messages"})
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"thread_id": threadID,
		"messages":  messages,
	})
}
