package httphandlers

import (
	"time"

	"github.com/Lumerin-protocol/covered-call/internal/interfaces"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID  = "X-Request-ID"
	contextRequestID = "requestID"
)

// RequestID keeps the request id sent by the client or generates a new one
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		ctx.Set(contextRequestID, id)
		ctx.Header(HeaderRequestID, id)
		ctx.Next()
	}
}

func RequestLogger(log interfaces.ILogger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		args := []interface{}{
			"id", ctx.GetString(contextRequestID),
			"status", status,
			"duration", time.Since(start).String(),
		}
		msg := ctx.Request.Method + " " + ctx.Request.URL.Path
		if status >= 500 {
			log.Warnw(msg, args...)
		} else {
			log.Debugw(msg, args...)
		}
	}
}
