package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/admin"
	"github.com/pokertables/backend/internal/config"
	"github.com/pokertables/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// OperatorLogin validates back-office credentials and opens a
// Redis-backed session.
func OperatorLogin(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Token    string `json:"token" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		username := strings.TrimSpace(req.Username)
		acc, err := admin.ValidateOperator(db, username, strings.TrimSpace(req.Token))
		if err != nil {
			log.Printf("[OPS] login failed for %s: %v", username, err)
			admin.LogRosterAction(db, username, c.ClientIP(), c.FullPath(), "operator_login", nil, false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		tokenBytes := make([]byte, 32)
		if _, err := rand.Read(tokenBytes); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
		sessionToken := hex.EncodeToString(tokenBytes)

		ttl := time.Duration(cfg.OperatorSessionTTLMins) * time.Minute
		if err := rdb.Set(context.Background(), middleware.OperatorSessionKey(sessionToken), acc.Username, ttl).Err(); err != nil {
			log.Printf("[OPS] session store failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}

		c.SetCookie(middleware.OperatorCookieName, sessionToken, int(ttl.Seconds()), "/", "", cfg.Environment == "production", true)
		admin.LogRosterAction(db, acc.Username, c.ClientIP(), c.FullPath(), "operator_login", nil, true)
		c.JSON(http.StatusOK, gin.H{"token": sessionToken, "display_name": acc.DisplayName})
	}
}

// OperatorLogout drops the session.
func OperatorLogout(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(middleware.OperatorCookieName)
		if token == "" {
			auth := c.GetHeader("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token != "" {
			rdb.Del(context.Background(), middleware.OperatorSessionKey(token))
		}
		c.SetCookie(middleware.OperatorCookieName, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GetAuditLogs returns recent roster audit entries.
func GetAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit > 200 {
			limit = 200
		}

		logs, err := admin.GetAuditLogs(db, limit, offset)
		if err != nil {
			log.Printf("[OPS] audit fetch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"audit": logs, "limit": limit, "offset": offset})
	}
}
