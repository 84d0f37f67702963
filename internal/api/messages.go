package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMarkup returns the current keyboard of a stored message
func (h *Handler) GetMarkup(c *gin.Context) {
	markup, err := h.markups.ForMessage(c.Request.Context(), c.Param("key"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "markup": markup})
}

// DeleteMessage forgets a message together with its buttons and reactions
func (h *Handler) DeleteMessage(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), c.Param("key")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
