package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's if sent.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set("request_id", id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}

// Logger writes one zerolog line per request.
func Logger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		event.
			Str("request_id", ctx.GetString("request_id")).
			Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
