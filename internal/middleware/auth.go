package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
)

// Context keys set by RequireAuth.
const (
	UserEmailKey = "user_email"
	UserNameKey  = "user_name"
	ClaimsKey    = "claims"
)

// AuthMiddleware validates bearer tokens on protected routes.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			m.unauthorized(c, "missing authorization token")
			return
		}
		if m.jwtManager == nil {
			m.unauthorized(c, "authentication is not configured")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			m.unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(UserEmailKey, claims.Email)
		c.Set(UserNameKey, claims.Name)
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		// Bearer token format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if token := c.Query("token"); token != "" {
		return token
	}

	return ""
}

func (m *AuthMiddleware) unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		apperrors.NewResponse("UNAUTHORIZED", message, nil, time.Now()))
}

// CurrentUser returns the authenticated caller's email, or "" when the route
// runs without auth.
func CurrentUser(c *gin.Context) string {
	if v, ok := c.Get(UserEmailKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// CurrentUserName returns the authenticated caller's display name when the
// token carried one.
func CurrentUserName(c *gin.Context) string {
	if v, ok := c.Get(UserNameKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
