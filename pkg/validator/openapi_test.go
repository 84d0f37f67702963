package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reactor/backend/internal/api"
	apperrors "reactor/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDeclaresEveryRoute(t *testing.T) {
	v, err := NewOpenAPIValidator(api.OpenAPISchema)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"planPost", "previewPost", "registerPost", "click",
		"replyReaction", "replyDirective", "startSession", "respondSession",
		"createSession", "publishOptions", "publish", "getMarkup", "deleteMessage",
	}, v.Operations())
}

func TestNewOpenAPIValidatorRejectsBrokenSchema(t *testing.T) {
	_, err := NewOpenAPIValidator([]byte("openapi: 3.0.3\npaths: {}\n"))
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v, err := NewOpenAPIValidator(api.OpenAPISchema)
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(apperrors.ErrorHandler(), v.Middleware())
	engine.POST("/api/v1/reactions", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/elsewhere", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"valid click", "/api/v1/reactions", `{"user":{"id":"1"},"action":"button:👍"}`, http.StatusOK},
		{"missing user", "/api/v1/reactions", `{"action":"button:👍"}`, http.StatusBadRequest},
		{"empty user id", "/api/v1/reactions", `{"user":{"id":""},"action":"~"}`, http.StatusBadRequest},
		{"wrong type", "/api/v1/reactions", `{"user":{"id":1},"action":"~"}`, http.StatusBadRequest},
		{"unknown route", "/elsewhere", `not json`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), apperrors.CodeBadRequest)
			}
		})
	}
}
