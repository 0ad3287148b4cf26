package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/school_workflow_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware creates a Gin middleware handler that validates bearer JWT tokens
// issued by jwtIssuer and stores the principal they carry in the request context.
func AuthMiddleware(jwtSecret, jwtIssuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logger.Warn("Authorization header format invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := utils.ParseAndValidateJWT(parts[1], jwtSecret, jwtIssuer)
		if err != nil {
			logger.Warn("Invalid token", slog.String("error", err.Error()))
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
				msg = "Token not valid yet"
			} else if errors.Is(err, jwt.ErrTokenInvalidIssuer) || errors.Is(err, utils.ErrInvalidPrincipalClaims) {
				msg = "Invalid token claims"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		principal := claims.Principal()
		enrichedLogger := logger.With(
			slog.String("user_id", principal.ID),
			slog.String("role", string(principal.Role)),
		)

		ctx := WithPrincipal(c.Request.Context(), principal)
		ctx = WithLogger(ctx, enrichedLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
