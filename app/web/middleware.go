package web

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Semior001/newsportal/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Headers used by the API.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"
)

// CrashMessage is returned to the client when the handler panics.
const CrashMessage = "Ops! Algo deu errado. Recarregue a página."

// requestID puts the request id into the request context, so that every log
// record of the request carries it.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(logx.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// logger logs every request once it is served.
func logger(lg *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}

		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, slog.String("query", q))
		}

		ctx := c.Request.Context()
		switch {
		case len(c.Errors) > 0:
			attrs = append(attrs, slog.String("errors", strings.Join(c.Errors.Errors(), "; ")))
			lg.WarnContext(ctx, "request served with errors", attrs...)
		case strings.HasPrefix(c.Request.URL.Path, "/health"), c.Request.URL.Path == "/metrics":
			lg.DebugContext(ctx, "request served", attrs...)
		default:
			lg.InfoContext(ctx, "request served", attrs...)
		}
	}
}

// recovery turns a panic into an error response asking to reload the page.
func recovery(lg *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				lg.ErrorContext(c.Request.Context(), "panic while serving request",
					slog.Any("panic", r),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())))
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: CrashMessage})
			}
		}()
		c.Next()
	}
}

// sessionID returns the id of the assistant session of the client.
// A new one is made when the client has none, it is sent back in the header.
func sessionID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(HeaderSessionID))
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(HeaderSessionID, id)
	return id
}
