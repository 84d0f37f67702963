package api

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

// OpenAPISchema describes the v1 routes. Requests are validated against it.
//
//go:embed openapi.yaml
var OpenAPISchema []byte

// ServeSchema serves the OpenAPI document
func ServeSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", OpenAPISchema)
}
