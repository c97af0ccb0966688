package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"padaria-club-backend/internal/auth"
)

const userIDKey = "user_id"

// Auth validates a bearer token and seeds the request context with the
// caller's user id.
func Auth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := bearerUserID(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth seeds the user id when a valid bearer token is present but
// never rejects the request.
func OptionalAuth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := bearerUserID(c, tokens); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id from the request context.
func UserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func bearerUserID(c *gin.Context, tokens *auth.TokenIssuer) (int64, bool) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return 0, false
	}

	claims, err := tokens.Verify(raw)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}
