package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/formloop/formloop-api/internal/models"
	"github.com/formloop/formloop-api/internal/service"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
	"github.com/formloop/formloop-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// JWT protects routes by requiring a valid access token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromHeader(c, authService)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when a valid token is present but never
// blocks. Respondent-facing routes use it so public surveys stay reachable
// while authenticated gates can still see who is calling.
func OptionalJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromHeader(c, authService)
		if err == nil && claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func claimsFromHeader(c *gin.Context, authService *service.AuthService) (*models.JWTClaims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return authService.ValidateToken(parts[1])
}

// Identity derives the identity context for the access decision engine.
// Requests without valid claims get the unauthenticated zero value.
func Identity(c *gin.Context) models.IdentityContext {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return models.IdentityContext{}
	}
	claims, ok := v.(*models.JWTClaims)
	if !ok {
		return models.IdentityContext{}
	}
	return claims.Identity()
}

// Claims returns the raw JWT claims stored by the JWT middleware, or nil.
func Claims(c *gin.Context) *models.JWTClaims {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
