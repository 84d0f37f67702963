package api

import (
	"reactor/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Click handles a keyboard button press
func (h *Handler) Click(c *gin.Context) {
	var req service.Click
	if !bind(c, &req) {
		return
	}
	out, err := h.reactions.Click(c.Request.Context(), req)
	respond(c, out, err)
}

// ReplyReaction handles a "+label" reply to a post
func (h *Handler) ReplyReaction(c *gin.Context) {
	var req service.Reply
	if !bind(c, &req) {
		return
	}
	out, err := h.replies.React(c.Request.Context(), req)
	respond(c, out, err)
}

// ReplyDirective handles an author directive replied to a post
func (h *Handler) ReplyDirective(c *gin.Context) {
	var req service.Reply
	if !bind(c, &req) {
		return
	}
	out, err := h.replies.Directive(c.Request.Context(), req)
	respond(c, out, err)
}
