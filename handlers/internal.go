package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleWorkerStats exposes generation pool metrics to internal tooling.
func HandleWorkerStats(c *gin.Context) {
	if GenerationPool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "generation workers not running"})
		return
	}
	c.JSON(http.StatusOK, GenerationPool.Stats())
}
