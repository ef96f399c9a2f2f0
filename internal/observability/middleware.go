package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// RequestLogger logs each monitor request tagged with the decoding session
// it observed. session may be nil. Websocket streams are logged once they
// close, so their duration is the lifetime of the subscription.
func RequestLogger(logger zerolog.Logger, session func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		stream := websocket.IsWebSocketUpgrade(c.Request)
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		event := logger.Debug()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		if session != nil {
			if id := session(); id != "" {
				event = event.Str("session", id)
			}
		}
		msg := "monitor_request"
		if stream {
			msg = "monitor_stream_closed"
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg(msg)
	}
}

func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
