package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/logger"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

// ContextUserKey is the gin context key storing the caller's identity claims.
const ContextUserKey = "currentUser"

// TokenValidator validates session tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.IdentityClaims, error)
}

// JWT protects routes by requiring a valid session token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(logger.SubjectKey, string(claims.Role)+":"+claims.UserID)
		c.Next()
	}
}

// Claims returns the identity claims attached by JWT.
func Claims(c *gin.Context) *models.IdentityClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.IdentityClaims)
	return claims
}
