// Package server exposes the connector operations over HTTP.
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"llmconnector/internal/core"
	"llmconnector/internal/operations"
)

// Handler holds the HTTP handlers
type Handler struct {
	ops       *operations.Operations
	connector *core.Configuration
}

// NewHandler creates a new handler bound to a single connector configuration
func NewHandler(ops *operations.Operations, connector *core.Configuration) *Handler {
	return &Handler{
		ops:       ops,
		connector: connector,
	}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type chatRequest struct {
	UserMessage  string         `json:"user_message"`
	SystemPrompt string         `json:"system_prompt,omitempty"`
	History      messageEntries `json:"history,omitempty"`
	Temperature  *float64       `json:"temperature,omitempty"`
	MaxTokens    *int           `json:"max_tokens,omitempty"`
}

type advancedChatRequest struct {
	Messages         messageEntries `json:"messages"`
	Model            string         `json:"model,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty"`
	MaxTokens        *int           `json:"max_tokens,omitempty"`
	TopP             *float64       `json:"top_p,omitempty"`
	FrequencyPenalty *float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64       `json:"presence_penalty,omitempty"`
}

// messageEntries keeps JSON null apart from "" so that null fields count as missing.
type messageEntries []map[string]*string

// params drops null fields; the facade skips entries left without role or content.
func (m messageEntries) params() []map[string]string {
	if m == nil {
		return nil
	}
	out := make([]map[string]string, 0, len(m))
	for _, entry := range m {
		converted := make(map[string]string, len(entry))
		for key, value := range entry {
			if value != nil {
				converted[key] = *value
			}
		}
		out = append(out, converted)
	}
	return out
}

type contentResponse struct {
	Content string `json:"content"`
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Prompt handles POST /v1/prompt
func (h *Handler) Prompt(c echo.Context) error {
	var req promptRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return handleError(c, core.NewInvalidRequestError("prompt is required", nil))
	}

	content, err := h.ops.SimplePrompt(c.Request().Context(), h.connector, req.Prompt)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, contentResponse{Content: content})
}

// Chat handles POST /v1/chat
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		return handleError(c, core.NewInvalidRequestError("user_message is required", nil))
	}

	content, err := h.ops.ChatCompletion(c.Request().Context(), h.connector, operations.ChatParams{
		UserMessage:  req.UserMessage,
		SystemPrompt: req.SystemPrompt,
		History:      req.History.params(),
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, contentResponse{Content: content})
}

// AdvancedChat handles POST /v1/chat/advanced
func (h *Handler) AdvancedChat(c echo.Context) error {
	var req advancedChatRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}
	if len(req.Messages) == 0 {
		return handleError(c, core.NewInvalidRequestError("messages is required", nil))
	}

	resp, err := h.ops.AdvancedChat(c.Request().Context(), h.connector, operations.AdvancedParams{
		Messages:         req.Messages.params(),
		Model:            req.Model,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Connection handles GET /v1/connection. It always answers 200; the status
// text carries the outcome.
func (h *Handler) Connection(c echo.Context) error {
	status := h.ops.TestConnection(c.Request().Context(), h.connector)
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

// handleError converts gateway errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return c.JSON(gatewayErr.HTTPStatusCode(), gatewayErr.ToJSON())
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
