package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// OperatorCookieName is the back-office session cookie.
const OperatorCookieName = "operator_session"

// OperatorSessionKey builds the Redis key holding a session's username.
func OperatorSessionKey(token string) string {
	return "operator_session:" + token
}

// OperatorAuth guards back-office routes. The session token comes from
// the cookie or a bearer header and must resolve in Redis.
func OperatorAuth(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(OperatorCookieName)
		if err != nil || token == "" {
			auth := c.GetHeader("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}

		username, err := rdb.Get(context.Background(), OperatorSessionKey(token)).Result()
		if err != nil || username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		c.Set("operator_username", username)
		c.Next()
	}
}
