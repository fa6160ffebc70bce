package middleware

import (
	"crypto/rand"
	"encoding/base32"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// RequestIDHeader is the header carrying the correlation id into and
// out of every request.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key; unexported since other packages
// reach the value through GetRequestID/LoggerWithRequestID rather than
// poking at gin.Context directly.
const requestIDKey = "request_id"

// idEncoding renders the random id as standard (upper-case) base32 with no
// padding: short enough to read in a terminal, and collision-resistant
// without a clock dependency (unlike a timestamp-prefixed id).
var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// RequestIDMiddleware assigns a correlation id to every request,
// reusing one supplied by an upstream proxy in RequestIDHeader or
// minting a fresh one, and stores it on the gin context so handlers
// can attach it to the error they log before returning a bare 5xx
// (see handlers.SearchHandler).
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = newRequestID()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// newRequestID mints a short random correlation id.
func newRequestID() string {
	var buf [10]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "unidentified"
	}
	return idEncoding.EncodeToString(buf[:])
}

// GetRequestID extracts the correlation id set by RequestIDMiddleware.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return "unidentified"
}

// LoggerWithRequestID binds the request's correlation id onto logger
// as a structured field, for handlers that log an error kind
// (Network/Io/Database) before surfacing it as a bare 5xx without body
// disclosure.
func LoggerWithRequestID(c *gin.Context, logger *slog.Logger) *slog.Logger {
	return logger.With(slog.String("request_id", GetRequestID(c)))
}
