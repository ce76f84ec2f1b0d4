package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/admin"
	"github.com/pokertables/backend/internal/events"
	"github.com/pokertables/backend/internal/models"
	"github.com/pokertables/backend/internal/roster"
	"github.com/pokertables/backend/internal/store"
)

// requireRosterAdmin re-verifies on every call that the acting
// participant still holds the in-room admin role. Admin access is a
// continuously-enforced invariant: the moment the flag is gone (or the
// record is), the caller gets 403 and the client leaves the admin view.
func requireRosterAdmin(db *sqlx.DB, c *gin.Context) (*models.Participant, bool) {
	roomID := c.Param("roomID")
	adminID := c.Param("adminID")

	actor, err := store.GetParticipant(db, roomID, adminID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !actor.IsAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an admin"})
		return nil, false
	}
	if err != nil {
		log.Printf("[ADMIN] actor lookup %s failed: %v", adminID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify admin"})
		return nil, false
	}
	return actor, true
}

// ListRoster returns the room's participants in seat order for the
// admin panel.
func ListRoster(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireRosterAdmin(db, c)
		if !ok {
			return
		}

		rows, err := store.ListParticipants(db, c.Param("roomID"))
		if err != nil {
			log.Printf("[ADMIN] roster list failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load players"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"participants": rows, "actor": actor.ID})
	}
}

// UpdateMoney commits one staged stack edit. The raw input string is
// normalized server-side the same way the edit buffer does it.
func UpdateMoney(db *sqlx.DB, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireRosterAdmin(db, c)
		if !ok {
			return
		}
		roomID := c.Param("roomID")
		id := c.Param("id")

		var req struct {
			Money string `json:"money"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		money := roster.NormalizeMoney(req.Money)
		if err := store.UpdateMoney(db, roomID, id, money); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
				return
			}
			log.Printf("[ADMIN] money update %s failed: %v", id, err)
			admin.LogRosterAction(db, actor.ID, c.ClientIP(), c.FullPath(), "update_money", map[string]interface{}{"participant": id}, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
			return
		}

		publishParticipantUpdate(db, pub, roomID, id)
		admin.LogRosterAction(db, actor.ID, c.ClientIP(), c.FullPath(), "update_money", map[string]interface{}{"participant": id, "money": money}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true, "money": money})
	}
}

// BulkUpdateMoney commits a batch of staged stack edits sequentially.
// A mid-sequence failure leaves earlier writes committed and the rest
// still pending; the response says how far it got.
func BulkUpdateMoney(db *sqlx.DB, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireRosterAdmin(db, c)
		if !ok {
			return
		}
		roomID := c.Param("roomID")

		var req struct {
			Edits map[string]string `json:"edits"`
		}
		if err := c.BindJSON(&req); err != nil || len(req.Edits) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no edits"})
			return
		}

		rows, err := store.ListParticipants(db, roomID)
		if err != nil {
			log.Printf("[ADMIN] bulk money load failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load players"})
			return
		}

		buf := roster.NewEditBuffer()
		seated := make(map[string]bool, len(rows))
		for _, p := range rows {
			buf.SetCommitted(p.ID, p.Money)
			seated[p.ID] = true
		}
		for id, raw := range req.Edits {
			if seated[id] {
				buf.Stage(id, raw)
			}
		}

		committed, commitErr := buf.CommitAll(func(id string, money int) error {
			return store.UpdateMoney(db, roomID, id, money)
		})
		for _, id := range committed {
			publishParticipantUpdate(db, pub, roomID, id)
		}

		details := map[string]interface{}{"committed": len(committed), "staged": len(req.Edits)}
		if commitErr != nil {
			log.Printf("[ADMIN] bulk money commit stopped: %v", commitErr)
			admin.LogRosterAction(db, actor.ID, c.ClientIP(), c.FullPath(), "bulk_update_money", details, false)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "some saves failed",
				"committed": committed,
			})
			return
		}

		admin.LogRosterAction(db, actor.ID, c.ClientIP(), c.FullPath(), "bulk_update_money", details, true)
		c.JSON(http.StatusOK, gin.H{"ok": true, "committed": committed})
	}
}

// MakeDealer promotes a participant to sole dealer.
func MakeDealer(db *sqlx.DB, pub *events.Publisher) gin.HandlerFunc {
	return promoteRole(db, pub, roster.RoleDealer, "make_dealer")
}

// MakeAdmin promotes a participant to sole admin. When the actor hands
// the role to somebody else they have revoked their own access, so the
// response tells the client to leave the admin view.
func MakeAdmin(db *sqlx.DB, pub *events.Publisher) gin.HandlerFunc {
	return promoteRole(db, pub, roster.RoleAdmin, "make_admin")
}

func promoteRole(db *sqlx.DB, pub *events.Publisher, role, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireRosterAdmin(db, c)
		if !ok {
			return
		}
		roomID := c.Param("roomID")
		id := c.Param("id")

		prev, err := store.RoleHolder(db, roomID, role)
		if err != nil {
			log.Printf("[ADMIN] role holder lookup failed: %v", err)
		}

		if err := roster.Promote(store.NewRoles(db), roomID, id, role); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
				return
			}
			log.Printf("[ADMIN] %s for %s failed: %v", action, id, err)
			admin.LogRosterAction(db, actor.ID, c.ClientIP(), c.FullPath(), action, map[string]interface{}{"participant": id}, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "promotion failed"})
			return
		}

		ctx := context.Background()
		pub.Hint(ctx, roomID, events.Hint{Event: events.HintRoleSet, ID: id, Role: role})
		if prev != "" && prev != id {
			publishParticipantUpdate(db, pub, roomID, prev)
		}
		publishParticipantUpdate(db, pub, roomID, id)

		admin.LogRosterAction(db, actor.ID, c.ClientIP(), c.FullPath(), action, map[string]interface{}{"participant": id}, true)

		leftAdmin := role == roster.RoleAdmin && id != actor.ID
		c.JSON(http.StatusOK, gin.H{"ok": true, "left_admin": leftAdmin})
	}
}

// RemoveParticipant unseats somebody else, with the same hint-first
// flow as a self leave.
func RemoveParticipant(db *sqlx.DB, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireRosterAdmin(db, c)
		if !ok {
			return
		}
		roomID := c.Param("roomID")
		id := c.Param("id")

		old, err := store.GetParticipant(db, roomID, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
			return
		}

		ctx := context.Background()
		pub.Hint(ctx, roomID, events.Hint{Event: events.HintPlayerLeft, ID: id})

		if err := store.DeleteParticipant(db, roomID, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("[ADMIN] remove %s failed: %v", id, err)
			admin.LogRosterAction(db, actor.ID, c.ClientIP(), c.FullPath(), "remove_participant", map[string]interface{}{"participant": id}, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
			return
		}

		pub.Change(ctx, events.Change{Kind: events.KindDelete, RoomID: roomID, Old: old})
		admin.LogRosterAction(db, actor.ID, c.ClientIP(), c.FullPath(), "remove_participant", map[string]interface{}{"participant": id}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// publishParticipantUpdate re-reads a row and publishes it as an update
// change. Skipped silently if the row vanished in between.
func publishParticipantUpdate(db *sqlx.DB, pub *events.Publisher, roomID, id string) {
	p, err := store.GetParticipant(db, roomID, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[ADMIN] reread %s failed: %v", id, err)
		}
		return
	}
	pub.Change(context.Background(), events.Change{Kind: events.KindUpdate, RoomID: roomID, New: p})
}
