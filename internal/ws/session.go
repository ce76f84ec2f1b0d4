package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/pokertables/backend/internal/events"
	"github.com/pokertables/backend/internal/models"
	"github.com/pokertables/backend/internal/roster"
	"github.com/redis/go-redis/v9"
)

// loader is the slice of the record service a session needs for full
// reloads. Split out so session logic is testable without Postgres.
type loader interface {
	ListParticipants(roomID string) ([]models.Participant, error)
}

// RoomSession owns the live seat ring for one room plus the Redis
// subscriptions feeding it. It is created when the first viewer
// attaches and torn down unconditionally when the last one detaches;
// the subscription lives exactly as long as the session. There is no
// process-wide session: each room's state is private to its session
// goroutine.
type RoomSession struct {
	roomID string
	db     loader

	mu      sync.RWMutex
	clients map[*Client]bool

	ring   *roster.Ring
	attach chan *Client
	pubsub *redis.PubSub
}

func newRoomSession(ctx context.Context, rdb *redis.Client, db loader, roomID string) *RoomSession {
	s := &RoomSession{
		roomID:  roomID,
		db:      db,
		clients: make(map[*Client]bool),
		ring:    roster.NewRing(),
		attach:  make(chan *Client, 16),
		pubsub:  rdb.Subscribe(ctx, events.ChangeChannel, events.HintChannel(roomID)),
	}
	go s.run()
	return s
}

// stop releases the session's subscription; run exits once the pub/sub
// channel drains.
func (s *RoomSession) stop() {
	s.pubsub.Close()
}

func (s *RoomSession) run() {
	s.reload()

	msgs := s.pubsub.Channel()
	for {
		select {
		case c := <-s.attach:
			s.sendTo(c, s.statePayload("snapshot"))

		case msg, ok := <-msgs:
			if !ok {
				return
			}
			s.handleMessage(msg)
		}
	}
}

// sendTo delivers one frame to a single viewer, but only while it is
// still a member. The hub closes a detached viewer's send channel under
// the same lock, so a viewer that dropped between queueing on attach
// and being popped here is skipped instead of hitting a closed channel.
func (s *RoomSession) sendTo(c *Client, data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.clients[c] {
		c.enqueue(data)
	}
}

func (s *RoomSession) handleMessage(msg *redis.Message) {
	switch msg.Channel {
	case events.ChangeChannel:
		var ch events.Change
		if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
			log.Printf("[WS] invalid change payload: %v", err)
			return
		}
		// Changes arrive for every room; drop the ones that are not ours.
		if ch.RoomID != s.roomID {
			return
		}
		if s.ring.Apply(ch) {
			// A delete we could not locate means local state diverged.
			log.Printf("[WS] room %s: unlocatable delete, resyncing", s.roomID)
			s.reload()
		}
		s.broadcast(s.statePayload("seat_update"))

	case events.HintChannel(s.roomID):
		var h events.Hint
		if err := json.Unmarshal([]byte(msg.Payload), &h); err != nil {
			log.Printf("[WS] invalid hint payload: %v", err)
			return
		}
		// Forward the raw hint, then apply what it implies locally.
		s.broadcast(mustMarshal(map[string]interface{}{
			"type":  "hint",
			"event": h.Event,
			"id":    h.ID,
			"role":  h.Role,
		}))
		if h.Event == events.HintPlayerLeft && h.ID != "" {
			s.ring.ApplyLeftHint(h.ID)
			s.broadcast(s.statePayload("seat_update"))
		}
	}
}

// reload rebuilds the ring from a full snapshot. On failure the
// previous ring stays in place.
func (s *RoomSession) reload() {
	rows, err := s.db.ListParticipants(s.roomID)
	if err != nil {
		log.Printf("[WS] room %s: reload failed, keeping previous state: %v", s.roomID, err)
		return
	}
	s.ring.Reload(rows)
}

// statePayload renders the current ring for viewers.
func (s *RoomSession) statePayload(msgType string) []byte {
	seats := s.ring.Seats()
	var dealer *int
	if d := s.ring.DealerSeat(); d >= 0 {
		dealer = &d
	}
	return mustMarshal(map[string]interface{}{
		"type":        msgType,
		"room_id":     s.roomID,
		"seats":       seats[:],
		"dealer_seat": dealer,
	})
}

func (s *RoomSession) broadcast(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.enqueue(data)
	}
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WS] marshal failed: %v", err)
		return []byte(`{}`)
	}
	return data
}

// LobbySession mirrors RoomSession for the room directory: any rooms
// change reloads the list and pushes it to every lobby viewer.
type LobbySession struct {
	db roomLister

	mu      sync.RWMutex
	clients map[*Client]bool

	attach chan *Client
	pubsub *redis.PubSub
}

type roomLister interface {
	ListRooms() ([]models.Room, error)
}

func newLobbySession(ctx context.Context, rdb *redis.Client, db roomLister) *LobbySession {
	s := &LobbySession{
		db:      db,
		clients: make(map[*Client]bool),
		attach:  make(chan *Client, 16),
		pubsub:  rdb.Subscribe(ctx, events.RoomsChannel),
	}
	go s.run()
	return s
}

func (s *LobbySession) stop() {
	s.pubsub.Close()
}

func (s *LobbySession) run() {
	msgs := s.pubsub.Channel()
	for {
		select {
		case c := <-s.attach:
			s.sendTo(c, s.roomsPayload())

		case _, ok := <-msgs:
			if !ok {
				return
			}
			s.broadcast(s.roomsPayload())
		}
	}
}

// sendTo mirrors RoomSession.sendTo: skip viewers the hub already
// detached rather than write to their closed channel.
func (s *LobbySession) sendTo(c *Client, data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.clients[c] {
		c.enqueue(data)
	}
}

func (s *LobbySession) roomsPayload() []byte {
	rooms, err := s.db.ListRooms()
	if err != nil {
		log.Printf("[WS] lobby: room list reload failed: %v", err)
		return mustMarshal(map[string]interface{}{"type": "error", "message": "failed to load rooms"})
	}
	return mustMarshal(map[string]interface{}{"type": "rooms", "rooms": rooms})
}

func (s *LobbySession) broadcast(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.enqueue(data)
	}
}
