package api

import (
	"net/http"

	"reactor/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// PreviewRequest lists the labels of an inline post that is being composed.
type PreviewRequest struct {
	Buttons []string `json:"buttons" binding:"required"`
}

// PlanPost decides what to do with a group message
func (h *Handler) PlanPost(c *gin.Context) {
	var req service.Inbound
	if !bind(c, &req) {
		return
	}
	plan, err := h.posts.Plan(c.Request.Context(), req)
	respond(c, plan, err)
}

// PreviewPost renders the inert keyboard of an inline post before it is sent
func (h *Handler) PreviewPost(c *gin.Context) {
	var req PreviewRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"markup": h.markups.InlinePreview(req.Buttons)})
}

// RegisterPost stores a sent message and returns its first keyboard
func (h *Handler) RegisterPost(c *gin.Context) {
	var req service.Registration
	if !bind(c, &req) {
		return
	}
	out, err := h.posts.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
