package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"photoshare/utils"
)

// TokenCookie is the cookie set at login for browser clients.
const TokenCookie = "Bearer"

// tokenFrom reads the token from the Authorization header first (API
// clients), then from the cookie (browser).
func tokenFrom(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		// Expecting format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	if tokenCookie, err := c.Request.Cookie(TokenCookie); err == nil {
		return tokenCookie.Value
	}
	return ""
}

func authenticate(c *gin.Context, secret string) bool {
	tokenString := tokenFrom(c)
	if tokenString == "" {
		return false
	}
	claims, err := utils.ParseToken(tokenString, secret)
	if err != nil {
		return false
	}
	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)
	return true
}

func JWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenFrom(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}
		if !authenticate(c, secret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Next()
	}
}

// OptionalJWT identifies the caller when a valid token is present and lets
// anonymous requests through.
func OptionalJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, secret)
		c.Next()
	}
}

// BodyLimit caps the request body; reads past n fail with *http.MaxBytesError.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
