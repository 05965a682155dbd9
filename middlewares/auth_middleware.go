package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/utils"
)

// AuthMiddleware requires a valid "Bearer" token and stores the caller in
// the context under user_id, username and role.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondAppError(c, apperrors.NewUnauthenticated("authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondAppError(c, apperrors.NewUnauthenticated("invalid token format"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if !authenticate(c, tokenString) {
			utils.RespondAppError(c, apperrors.NewUnauthenticated("invalid or expired token"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// authenticate validates the token and fills the context.
func authenticate(c *gin.Context, tokenString string) bool {
	claims, err := utils.ValidateToken(tokenString)
	if err != nil || claims == nil || claims.UserID == 0 {
		return false
	}

	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("role", claims.Role)
	c.Set("token", tokenString)
	if claims.ExpiresAt != nil {
		c.Set("token_expiry", claims.ExpiresAt.Time)
	}
	return true
}
