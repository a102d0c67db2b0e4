// Package middleware contains the HTTP middleware of the API server.
//
// Transport-level concerns that apply to every handler mounted on the
// server (CORS, body size) are net/http Middleware. Request-level concerns
// that need gin's routing context (recovery, request ids, logging, rate
// limits, the auth gate) are gin.HandlerFuncs.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/todoapi/errors"
)

// Keys stored on the gin context.
const (
	ContextKeyRequestID = "request_id"
	ContextKeyUserID    = "user_id"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-Id"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares; the first is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// abort stops the gin chain and renders err.
func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
