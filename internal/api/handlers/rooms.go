package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/events"
	"github.com/pokertables/backend/internal/roster"
	"github.com/pokertables/backend/internal/store"
)

// ListRooms returns the room directory, newest first.
func ListRooms(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := store.ListRooms(db)
		if err != nil {
			log.Printf("[ROOMS] list failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	}
}

// CreateRoom opens a new table. The name is optional.
func CreateRoom(db *sqlx.DB, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		var name *string
		if trimmed := strings.TrimSpace(req.Name); trimmed != "" {
			name = &trimmed
		}

		room, err := store.CreateRoom(db, newRoomID(), name)
		if err != nil {
			log.Printf("[ROOMS] create failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
			return
		}

		pub.Room(context.Background(), events.RoomChange{Kind: events.KindInsert, RoomID: room.RoomID})
		c.JSON(http.StatusCreated, gin.H{"room": room})
	}
}

// DeleteRoom closes a table, unseating everyone in it.
func DeleteRoom(db *sqlx.DB, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomID")

		removed, err := store.DeleteRoom(db, roomID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		if err != nil {
			log.Printf("[ROOMS] delete %s failed: %v", roomID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete room"})
			return
		}

		ctx := context.Background()
		for i := range removed {
			old := removed[i]
			pub.Change(ctx, events.Change{Kind: events.KindDelete, RoomID: roomID, Old: &old})
		}
		pub.Room(ctx, events.RoomChange{Kind: events.KindDelete, RoomID: roomID})

		c.JSON(http.StatusOK, gin.H{"ok": true, "removed": len(removed)})
	}
}

// tableState renders a room's seating ring for one-shot reads; live
// viewers use the websocket feed instead.
func tableState(db *sqlx.DB, roomID string) (gin.H, error) {
	rows, err := store.ListParticipants(db, roomID)
	if err != nil {
		return nil, err
	}

	ring := roster.NewRing()
	ring.Reload(rows)

	seats := ring.Seats()
	var dealer *int
	if d := ring.DealerSeat(); d >= 0 {
		dealer = &d
	}
	return gin.H{"room_id": roomID, "seats": seats[:], "dealer_seat": dealer}, nil
}

// GetTableState returns the current seating ring for one room.
func GetTableState(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomID")

		if _, err := store.GetRoom(db, roomID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
				return
			}
			log.Printf("[ROOMS] get %s failed: %v", roomID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
			return
		}

		state, err := tableState(db, roomID)
		if err != nil {
			log.Printf("[ROOMS] state %s failed: %v", roomID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load table"})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// ListTableStates renders every table's ring for the aggregate
// all-tables display.
func ListTableStates(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := store.ListRooms(db)
		if err != nil {
			log.Printf("[ROOMS] list failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
			return
		}

		tables := make([]gin.H, 0, len(rooms))
		for _, room := range rooms {
			state, err := tableState(db, room.RoomID)
			if err != nil {
				log.Printf("[ROOMS] state %s failed: %v", room.RoomID, err)
				continue
			}
			state["name"] = room.Name
			tables = append(tables, state)
		}
		c.JSON(http.StatusOK, gin.H{"tables": tables})
	}
}
