package middleware

import (
	"context"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// principalKey is the key used to store the authenticated principal in the request context.
const principalKey = contextKey("principal")

// WithPrincipal returns a copy of ctx carrying the principal.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx retrieves the authenticated principal from a standard context.
func PrincipalFromCtx(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

// GetPrincipalFromContext retrieves the authenticated principal from the Gin context.
// It returns the principal and a boolean indicating if it was found.
func GetPrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	return PrincipalFromCtx(c.Request.Context())
}
