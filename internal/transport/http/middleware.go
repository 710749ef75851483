package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/bookstore-server/internal/auth"
	"github.com/vovakirdan/bookstore-server/internal/store"
)

const (
	// ContextKeyUserID is the context key for storing user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyRole is the context key for storing the user's role.
	ContextKeyRole = "role"
)

// bearerToken extracts the token from "Bearer <token>". ok is false when the
// header is present but malformed.
func bearerToken(header string) (token string, ok bool) {
	if header == "" {
		return "", true
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthMiddleware creates a middleware that validates JWT tokens.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug().Msg("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
			return
		}
		if token == "" {
			logger.Debug().Msg("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "access denied, no token provided"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// AdminMiddleware rejects callers whose token does not carry the admin role.
// Must run after AuthMiddleware.
func AdminMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextKeyRole) != string(store.RoleAdmin) {
			logger.Debug().Int64("user_id", c.GetInt64(ContextKeyUserID)).Msg("admin route denied")
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "not authorized as admin"})
			return
		}
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// currentUserID reads the authenticated user from the gin context.
func currentUserID(c *gin.Context, logger *zerolog.Logger) (int64, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		logger.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, false
	}

	uid, ok := userID.(int64)
	if !ok {
		logger.Error().Msg("invalid user_id type in context")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return 0, false
	}
	return uid, true
}
