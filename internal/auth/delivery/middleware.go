package delivery

import (
	"net/http"
	"strings"

	"runup-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user id
const ContextUserID = "userID"

func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid authorization header format"})
			return
		}

		userID, err := authUsecase.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// RequireOwner aborts with 403 unless the :userId path parameter is the caller
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsOwner(c, c.Param("userId")) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "access denied"})
			return
		}
		c.Next()
	}
}

// IsOwner reports whether userID is the authenticated caller
func IsOwner(c *gin.Context, userID string) bool {
	return userID != "" && c.GetString(ContextUserID) == userID
}
