package handlers

import (
	"io"
	"log"
	"net/http"

	"contentpilot/api/middleware"
	"contentpilot/api/sse"

	"github.com/gin-gonic/gin"
)

// HandleArticleStream follows an async generation job over SSE.
// EventSource cannot set headers, so the token arrives as a query parameter.
func HandleArticleStream(c *gin.Context) {
	tokenString := c.DefaultQuery("token", "")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid token"})
		return
	}
	if _, err := middleware.VerifyToken(tokenString); err != nil {
		log.Printf("SSE authentication failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: " + err.Error()})
		return
	}

	jobID := c.Param("jobID")
	stream := sse.Register(jobID)
	defer sse.Unregister(jobID)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "Streaming unsupported!")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-stream.Messages:
			if !ok {
				return false
			}
			c.Writer.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()
			return true
		case <-c.Request.Context().Done():
			log.Printf("SSE client disconnected for jobID: %s", jobID)
			return false
		case <-stream.Done:
			c.Writer.Write([]byte("data: [DONE]\n\n"))
			flusher.Flush()
			return false
		}
	})
}
