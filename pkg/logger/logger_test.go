package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", JSON: true, Output: &buf})

	log.Info("hidden")
	log.Warn("shown")

	entries := lines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["msg"])
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", JSON: true, Output: &buf})

	log.WithRequestID("r1").WithUserID("42").WithMessageKey("-1~2").Debug("toggled")
	log.WithUserID("").Info("plain")
	log.LogError(errors.New("boom"), "failed", "op", "toggle")

	entries := lines(t, &buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "r1", entries[0]["request_id"])
	assert.Equal(t, "42", entries[0]["user_id"])
	assert.Equal(t, "-1~2", entries[0]["message_key"])
	assert.NotContains(t, entries[1], "user_id")
	assert.Equal(t, "boom", entries[2]["error"])
	assert.Equal(t, "toggle", entries[2]["op"])
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	engine := gin.New()
	engine.Use(Middleware(log))
	engine.GET("/ping", func(c *gin.Context) {
		assert.Same(t, FromGin(c), FromGin(c))
		assert.NotEmpty(t, c.Request.Header.Get("X-Request-ID"))
		c.Status(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	requestID := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, requestID)

	entries := lines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "request completed", entries[0]["msg"])
	assert.Equal(t, requestID, entries[0]["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), entries[0]["status"])
}

func TestFromGinFallsBackToGlobal(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Same(t, GetGlobal(), FromGin(c))
}
