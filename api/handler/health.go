package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagedrop/models"
)

// Root returns a handler for GET /.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "Hello, world!")
	}
}

// APIRoot returns a handler for GET /api/.
func APIRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Message: "Hello World!!!"})
	}
}

// HealthCheck returns a handler for GET /api/health-check.
func HealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Message: "Server is running"})
	}
}
