package http

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"storepilot/src/log"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestLogger tags each request with a snowflake id and logs its outcome.
func RequestLogger(node *snowflake.Node) gin.HandlerFunc {
	logger := log.WithName("http")
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = node.Generate().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.V(1).Info("Request served",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
