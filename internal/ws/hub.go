package ws

import (
	"context"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/models"
	"github.com/pokertables/backend/internal/store"
	"github.com/redis/go-redis/v9"
)

// Hub tracks the live sessions. It is constructed in main and passed
// down; nothing in this package holds global connection state.
type Hub struct {
	db  *sqlx.DB
	rdb *redis.Client

	mu    sync.Mutex
	rooms map[string]*RoomSession
	lobby *LobbySession
}

func NewHub(db *sqlx.DB, rdb *redis.Client) *Hub {
	return &Hub{
		db:    db,
		rdb:   rdb,
		rooms: make(map[string]*RoomSession),
	}
}

// dbLoader adapts the store package to the session interfaces.
type dbLoader struct {
	db *sqlx.DB
}

func (l dbLoader) ListParticipants(roomID string) ([]models.Participant, error) {
	return store.ListParticipants(l.db, roomID)
}

func (l dbLoader) ListRooms() ([]models.Room, error) {
	return store.ListRooms(l.db)
}

// ServeRoom upgrades the request and attaches the viewer to the room's
// session, creating it on first attach.
func (h *Hub) ServeRoom(c *gin.Context, roomID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	client := newClient(conn, roomID)

	h.mu.Lock()
	s, ok := h.rooms[roomID]
	if !ok {
		s = newRoomSession(context.Background(), h.rdb, dbLoader{h.db}, roomID)
		h.rooms[roomID] = s
	}
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()
	h.mu.Unlock()

	s.attach <- client

	go client.writePump()
	go client.readPump(h.detachRoom)
	log.Printf("[WS] viewer attached to room %s", roomID)
}

// detachRoom removes a viewer and tears the session down when it was
// the last one. Teardown releases the session's subscription
// unconditionally, however the disconnect happened.
func (h *Hub) detachRoom(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	s.mu.Lock()
	if !s.clients[c] {
		s.mu.Unlock()
		return
	}
	delete(s.clients, c)
	close(c.send)
	empty := len(s.clients) == 0
	s.mu.Unlock()

	if empty {
		delete(h.rooms, c.roomID)
		s.stop()
		log.Printf("[WS] room %s session closed (no viewers)", c.roomID)
	}
}

// ServeLobby attaches a viewer to the room directory feed.
func (h *Hub) ServeLobby(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	client := newClient(conn, "")

	h.mu.Lock()
	if h.lobby == nil {
		h.lobby = newLobbySession(context.Background(), h.rdb, dbLoader{h.db})
	}
	s := h.lobby
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()
	h.mu.Unlock()

	s.attach <- client

	go client.writePump()
	go client.readPump(h.detachLobby)
}

func (h *Hub) detachLobby(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.lobby
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.clients[c] {
		s.mu.Unlock()
		return
	}
	delete(s.clients, c)
	close(c.send)
	empty := len(s.clients) == 0
	s.mu.Unlock()

	if empty {
		h.lobby = nil
		s.stop()
	}
}
