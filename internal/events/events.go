// Package events carries roster changes between writers and the live
// room sessions. Two signals exist per room: authoritative change
// events (insert/update/delete of participant records) and best-effort
// broadcast hints, which are at-least-once and possibly duplicated.
package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/pokertables/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// Kind labels a change event.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

const (
	// ChangeChannel carries participant change events for every room;
	// sessions filter by room_id.
	ChangeChannel = "roster:changes"

	// RoomsChannel carries room directory changes for the lobby.
	RoomsChannel = "roster:rooms"
)

// HintChannel is the per-room broadcast hint channel.
func HintChannel(roomID string) string {
	return "room:" + roomID + ":bc"
}

// Hint event names.
const (
	HintPlayerLeft = "player_left"
	HintRoleSet    = "role_set"
)

// Change is an authoritative participant change. New is set for
// inserts and updates, Old for updates and deletes.
type Change struct {
	Kind   Kind                `json:"kind"`
	RoomID string              `json:"room_id"`
	New    *models.Participant `json:"new,omitempty"`
	Old    *models.Participant `json:"old,omitempty"`
}

// Hint is a lightweight out-of-band signal sent ahead of the
// authoritative change to cut perceived latency. Receivers must treat
// it as unreliable and apply it idempotently.
type Hint struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
	Role  string `json:"role,omitempty"`
}

// RoomChange is a room directory change for lobby views.
type RoomChange struct {
	Kind   Kind   `json:"kind"`
	RoomID string `json:"room_id"`
}

// Publisher pushes events onto Redis. Publish failures are logged, not
// returned: the record write already succeeded and sessions converge
// on their next full reload.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Change publishes an authoritative participant change.
func (p *Publisher) Change(ctx context.Context, ch Change) {
	p.publish(ctx, ChangeChannel, ch)
}

// Hint publishes a broadcast hint on the room's hint channel.
func (p *Publisher) Hint(ctx context.Context, roomID string, h Hint) {
	p.publish(ctx, HintChannel(roomID), h)
}

// Room publishes a room directory change.
func (p *Publisher) Room(ctx context.Context, rc RoomChange) {
	p.publish(ctx, RoomsChannel, rc)
}

func (p *Publisher) publish(ctx context.Context, channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[EVENTS] marshal for %s failed: %v", channel, err)
		return
	}
	if err := p.rdb.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[EVENTS] publish to %s failed: %v", channel, err)
	}
}
