package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/config"
	"github.com/pokertables/backend/internal/events"
	"github.com/pokertables/backend/internal/identity"
	"github.com/pokertables/backend/internal/models"
	"github.com/pokertables/backend/internal/store"
)

// GetOccupancy returns the taken seat indices, for the join screen's
// seat picker. A preselected seat that shows up here must be cleared
// client-side before submission.
func GetOccupancy(db *sqlx.DB) gin.HandlerFunc {
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

		seats, err := store.OccupiedSeats(db, roomID)
		if err != nil {
			log.Printf("[JOIN] occupancy for %s failed: %v", roomID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load seats"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"occupied": seats})
	}
}

// Join seats a new participant. Validation failures are rejected before
// any store call; a seat collision with a concurrent join comes back as
// a distinct 409 so the client re-arms seat selection.
func Join(db *sqlx.DB, pub *events.Publisher, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomID")

		var req struct {
			Name    string   `json:"name"`
			Seat    *int     `json:"seat"`
			Money   *float64 `json:"money"`
			IsAdmin bool     `json:"is_admin"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "please enter a name"})
			return
		}
		if req.Seat == nil || *req.Seat < 0 || *req.Seat >= models.NumSeats {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pick a seat"})
			return
		}

		money := 1000
		if req.Money != nil {
			money = int(math.Max(0, math.Floor(*req.Money)))
		}

		if _, err := store.GetRoom(db, roomID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
			return
		}

		created, err := store.CreateParticipant(db, &models.Participant{
			ID:      newParticipantID(),
			RoomID:  roomID,
			Seat:    *req.Seat,
			Name:    name,
			Money:   money,
			IsAdmin: req.IsAdmin,
		})
		if errors.Is(err, store.ErrSeatTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "seat already taken"})
			return
		}
		if err != nil {
			log.Printf("[JOIN] create in %s failed: %v", roomID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "join failed"})
			return
		}

		pub.Change(context.Background(), events.Change{Kind: events.KindInsert, RoomID: roomID, New: created})

		token, err := identity.MintToken(cfg.JWTSecret, roomID, created.ID, time.Duration(cfg.ResumeTokenTTLHours)*time.Hour)
		if err != nil {
			// The seat is taken either way; the client just cannot resume later.
			log.Printf("[JOIN] resume token mint failed: %v", err)
		}

		c.JSON(http.StatusCreated, gin.H{"participant": created, "resume_token": token})
	}
}

// Resume validates a stored resume token against the live roster. A
// Not Found reply tells the client its token is dead and must be
// cleared.
func Resume(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomID")

		token := c.Query("token")
		if token == "" {
			auth := c.GetHeader("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		tokenRoom, participantID, err := identity.ParseToken(cfg.JWTSecret, token)
		if err != nil || tokenRoom != roomID {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid resume token"})
			return
		}

		p, err := store.GetParticipant(db, roomID, participantID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "participant no longer seated"})
			return
		}
		if err != nil {
			log.Printf("[JOIN] resume lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resume failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"participant": p})
	}
}
