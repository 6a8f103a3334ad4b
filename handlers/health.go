package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck は死活監視用。デコードは行わない。
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "photocull-api",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
