package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/auth"
	"github.com/kbukum/todoapi/auth/authctx"
	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
)

// Client-facing rejection messages. The reason a token failed stays in
// the server log.
const (
	msgMissingToken = "Authentication required."
	msgInvalidToken = "Invalid authentication token."
)

// AuthConfig configures the auth gate.
type AuthConfig struct {
	Validator auth.TokenValidator
	// SkipPaths are path prefixes served without a token.
	SkipPaths []string
	Logger    *logger.Logger
}

// Auth admits a request only when it carries "Authorization: Bearer <token>"
// and the token passes cfg.Validator. Admitted requests get the claims in
// their context (see authctx); rejected ones end with 401 and no downstream
// handler runs.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("auth")

	return func(c *gin.Context) {
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, skip) {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperrors.Unauthorized(msgMissingToken))
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			log.WithContext(c.Request.Context()).Debug("Rejected malformed authorization header")
			abort(c, apperrors.Unauthorized(msgInvalidToken))
			return
		}

		claims, err := cfg.Validator.ValidateToken(token)
		if err != nil {
			log.WithContext(c.Request.Context()).Info("Rejected bearer token", logger.Fields(
				logger.FieldPath, c.Request.URL.Path,
				logger.FieldError, err.Error(),
			))
			abort(c, apperrors.Unauthorized(msgInvalidToken))
			return
		}

		ctx := authctx.Set(c.Request.Context(), claims)
		if id, ok := authctx.UserID(ctx); ok {
			ctx = logger.ContextWithUserID(ctx, id)
			c.Set(ContextKeyUserID, id)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// bearerToken extracts the token from a "Bearer <token>" header. The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
