package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/events"
	"github.com/pokertables/backend/internal/store"
)

// GetParticipant returns a participant's own record for the player
// view. 404 means the seat is gone: the client clears its resume token
// and goes back to the join screen.
func GetParticipant(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomID")
		id := c.Param("id")

		p, err := store.GetParticipant(db, roomID, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
			return
		}
		if err != nil {
			log.Printf("[PLAYER] get %s failed: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load participant"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"participant": p})
	}
}

// Leave unseats a participant at their own request. A player_left hint
// goes out first so viewers clear the seat ahead of the authoritative
// delete; the hint is harmless if the delete then fails.
func Leave(db *sqlx.DB, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomID")
		id := c.Param("id")

		old, err := store.GetParticipant(db, roomID, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
			return
		}
		if err != nil {
			log.Printf("[PLAYER] leave lookup %s failed: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "leave failed"})
			return
		}

		ctx := context.Background()
		pub.Hint(ctx, roomID, events.Hint{Event: events.HintPlayerLeft, ID: id})

		if err := store.DeleteParticipant(db, roomID, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deleted concurrently; same outcome for the caller.
				c.JSON(http.StatusOK, gin.H{"ok": true})
				return
			}
			log.Printf("[PLAYER] leave %s failed: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "leave failed"})
			return
		}

		pub.Change(ctx, events.Change{Kind: events.KindDelete, RoomID: roomID, Old: old})
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
