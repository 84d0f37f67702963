package api

import (
	"net/http"

	"reactor/backend/internal/service"
	apperrors "reactor/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Handler exposes the reaction services over JSON.
// Errors are attached to the gin context and rendered by errors.ErrorHandler.
type Handler struct {
	posts     *service.PostService
	reactions *service.ReactionService
	replies   *service.ReplyService
	sessions  *service.SessionService
	markups   *service.MarkupService
}

// NewHandler creates a new Handler
func NewHandler(
	posts *service.PostService,
	reactions *service.ReactionService,
	replies *service.ReplyService,
	sessions *service.SessionService,
	markups *service.MarkupService,
) *Handler {
	return &Handler{
		posts:     posts,
		reactions: reactions,
		replies:   replies,
		sessions:  sessions,
		markups:   markups,
	}
}

// RegisterRoutes registers the v1 routes on the given group
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	posts := v1.Group("/posts")
	{
		posts.POST("/plan", h.PlanPost)
		posts.POST("/preview", h.PreviewPost)
		posts.POST("", h.RegisterPost)
	}

	v1.POST("/reactions", h.Click)

	replies := v1.Group("/replies")
	{
		replies.POST("/reaction", h.ReplyReaction)
		replies.POST("/directive", h.ReplyDirective)
	}

	sessions := v1.Group("/sessions")
	{
		sessions.POST("/start", h.StartSession)
		sessions.POST("/respond", h.RespondSession)
		sessions.POST("/create", h.CreateSession)
	}

	publish := v1.Group("/publish")
	{
		publish.POST("/options", h.PublishOptions)
		publish.POST("", h.Publish)
	}

	messages := v1.Group("/messages")
	{
		messages.GET("/:key/markup", h.GetMarkup)
		messages.DELETE("/:key", h.DeleteMessage)
	}
}

// bind decodes the JSON body into req, recording a 400 on failure
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError(apperrors.CodeBadRequest, "Invalid request").WithDetails(err.Error()))
		return false
	}
	return true
}

// respond writes the result or records the error
func respond(c *gin.Context, result any, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
