package api

import (
	"net/http"

	"reactor/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// StartSession opens the private vote dialog for an inline post
func (h *Handler) StartSession(c *gin.Context) {
	var req service.StartRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.sessions.Start(c.Request.Context(), req)
	respond(c, out, err)
}

// RespondSession applies the user's answer inside the vote dialog
func (h *Handler) RespondSession(c *gin.Context) {
	var req service.RespondRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.sessions.Respond(c.Request.Context(), req)
	respond(c, out, err)
}

// CreateSession opens the publishing dialog
func (h *Handler) CreateSession(c *gin.Context) {
	var req service.CreateRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.sessions.Create(c.Request.Context(), req)
	respond(c, out, err)
}

// PublishOptions returns the inline result for a prepared draft
func (h *Handler) PublishOptions(c *gin.Context) {
	var req service.PublishQuery
	if !bind(c, &req) {
		return
	}
	out, err := h.sessions.PublishOptions(c.Request.Context(), req)
	respond(c, out, err)
}

// Publish stores the inline message sent from a draft
func (h *Handler) Publish(c *gin.Context) {
	var req service.PublishRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.sessions.Publish(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
