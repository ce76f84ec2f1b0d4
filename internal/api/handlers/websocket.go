package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/store"
	"github.com/pokertables/backend/internal/ws"
)

// HandleTableWebSocket attaches a live viewer to a room's seat feed.
func HandleTableWebSocket(db *sqlx.DB, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomID")

		if _, err := store.GetRoom(db, roomID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
			return
		}

		hub.ServeRoom(c, roomID)
	}
}

// HandleLobbyWebSocket attaches a live viewer to the room directory.
func HandleLobbyWebSocket(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeLobby(c)
	}
}
