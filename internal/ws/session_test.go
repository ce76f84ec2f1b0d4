package ws

import (
	"encoding/json"
	"testing"

	"github.com/pokertables/backend/internal/events"
	"github.com/pokertables/backend/internal/models"
	"github.com/pokertables/backend/internal/roster"
	"github.com/redis/go-redis/v9"
)

// fakeLoader serves canned snapshots and counts reloads.
type fakeLoader struct {
	rows    []models.Participant
	reloads int
}

func (f *fakeLoader) ListParticipants(roomID string) ([]models.Participant, error) {
	f.reloads++
	return f.rows, nil
}

func testSession(db *fakeLoader) (*RoomSession, *Client) {
	s := &RoomSession{
		roomID:  "r1",
		db:      db,
		clients: make(map[*Client]bool),
		ring:    roster.NewRing(),
	}
	c := newClient(nil, "r1")
	s.clients[c] = true
	return s, c
}

func changeMsg(t *testing.T, ch events.Change) *redis.Message {
	t.Helper()
	payload, err := json.Marshal(ch)
	if err != nil {
		t.Fatalf("marshal change: %v", err)
	}
	return &redis.Message{Channel: events.ChangeChannel, Payload: string(payload)}
}

func hintMsg(t *testing.T, roomID string, h events.Hint) *redis.Message {
	t.Helper()
	payload, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal hint: %v", err)
	}
	return &redis.Message{Channel: events.HintChannel(roomID), Payload: string(payload)}
}

// drain pops every frame queued for the client and decodes them.
func drain(t *testing.T, c *Client) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	for {
		select {
		case data := <-c.send:
			var m map[string]interface{}
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("bad frame %s: %v", data, err)
			}
			frames = append(frames, m)
		default:
			return frames
		}
	}
}

func TestSessionDropsForeignRoomChanges(t *testing.T) {
	db := &fakeLoader{}
	s, c := testSession(db)

	p := models.Participant{ID: "x", RoomID: "other-room", Seat: 0, Name: "x"}
	s.handleMessage(changeMsg(t, events.Change{Kind: events.KindInsert, RoomID: "other-room", New: &p}))

	if frames := drain(t, c); len(frames) != 0 {
		t.Errorf("foreign-room change produced %d frames, want 0", len(frames))
	}
	if s.ring.Seats()[0] != nil {
		t.Error("foreign-room participant leaked into the ring")
	}
}

func TestSessionAppliesInsertAndBroadcasts(t *testing.T) {
	db := &fakeLoader{}
	s, c := testSession(db)

	p := models.Participant{ID: "a", RoomID: "r1", Seat: 2, Name: "Alice", IsDealer: true}
	s.handleMessage(changeMsg(t, events.Change{Kind: events.KindInsert, RoomID: "r1", New: &p}))

	frames := drain(t, c)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0]["type"] != "seat_update" {
		t.Errorf("frame type = %v, want seat_update", frames[0]["type"])
	}
	if frames[0]["dealer_seat"] != float64(2) {
		t.Errorf("dealer_seat = %v, want 2", frames[0]["dealer_seat"])
	}
	if db.reloads != 0 {
		t.Errorf("insert triggered %d reloads, want 0", db.reloads)
	}
}

func TestSessionResyncsOnUnlocatableDelete(t *testing.T) {
	// The snapshot the reload will fetch.
	db := &fakeLoader{rows: []models.Participant{
		{ID: "a", RoomID: "r1", Seat: 0, Name: "Alice"},
	}}
	s, c := testSession(db)

	ghost := models.Participant{ID: "ghost", RoomID: "r1", Seat: 5}
	s.handleMessage(changeMsg(t, events.Change{Kind: events.KindDelete, RoomID: "r1", Old: &ghost}))

	if db.reloads != 1 {
		t.Errorf("unlocatable delete triggered %d reloads, want 1", db.reloads)
	}
	if got := s.ring.Seats()[0]; got == nil || got.ID != "a" {
		t.Error("resync did not restore the snapshot state")
	}
	frames := drain(t, c)
	if len(frames) != 1 || frames[0]["type"] != "seat_update" {
		t.Errorf("expected one seat_update after resync, got %v", frames)
	}
}

func TestSessionForwardsLeftHintAndClearsSeat(t *testing.T) {
	db := &fakeLoader{}
	s, c := testSession(db)
	s.ring.Reload([]models.Participant{
		{ID: "a", RoomID: "r1", Seat: 0, Name: "Alice"},
		{ID: "b", RoomID: "r1", Seat: 1, Name: "Bob"},
	})

	s.handleMessage(hintMsg(t, "r1", events.Hint{Event: events.HintPlayerLeft, ID: "b"}))

	frames := drain(t, c)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want hint then seat_update", len(frames))
	}
	if frames[0]["type"] != "hint" || frames[0]["event"] != events.HintPlayerLeft {
		t.Errorf("first frame = %v, want the forwarded hint", frames[0])
	}
	if frames[1]["type"] != "seat_update" {
		t.Errorf("second frame type = %v, want seat_update", frames[1]["type"])
	}
	if s.ring.Seats()[1] != nil {
		t.Error("hint did not clear seat 1")
	}
	if s.ring.Seats()[0] == nil {
		t.Error("hint cleared the wrong seat")
	}

	// Redelivery of the same hint: forwarded again, state unchanged,
	// no reload requested.
	s.handleMessage(hintMsg(t, "r1", events.Hint{Event: events.HintPlayerLeft, ID: "b"}))
	if db.reloads != 0 {
		t.Errorf("duplicate hint triggered %d reloads, want 0", db.reloads)
	}
}

func TestSessionIgnoresRoleHintsLocally(t *testing.T) {
	db := &fakeLoader{}
	s, c := testSession(db)
	s.ring.Reload([]models.Participant{
		{ID: "a", RoomID: "r1", Seat: 0, Name: "Alice"},
	})

	// Role hints are advisory; the authoritative flag change arrives as
	// an update event. Only the forwarded hint should go out.
	s.handleMessage(hintMsg(t, "r1", events.Hint{Event: events.HintRoleSet, ID: "a", Role: "is_dealer"}))

	frames := drain(t, c)
	if len(frames) != 1 || frames[0]["type"] != "hint" {
		t.Fatalf("got %v, want exactly the forwarded hint", frames)
	}
	if s.ring.DealerSeat() != -1 {
		t.Error("role hint must not mutate the ring")
	}
}

func TestStatePayloadDealerSeatNullWhenUnset(t *testing.T) {
	s, _ := testSession(&fakeLoader{})

	var m map[string]interface{}
	if err := json.Unmarshal(s.statePayload("snapshot"), &m); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if m["dealer_seat"] != nil {
		t.Errorf("dealer_seat = %v, want null for an empty table", m["dealer_seat"])
	}
	seats, ok := m["seats"].([]interface{})
	if !ok || len(seats) != roster.NumSeats {
		t.Errorf("seats = %v, want array of %d", m["seats"], roster.NumSeats)
	}
}

func TestSnapshotSkipsDetachedViewer(t *testing.T) {
	s, c := testSession(&fakeLoader{})

	// The viewer drops before the session goroutine pops its attach:
	// the hub has already removed it and closed its send channel. The
	// snapshot delivery must notice and skip it, not panic.
	delete(s.clients, c)
	close(c.send)

	s.sendTo(c, s.statePayload("snapshot"))
}

func TestSnapshotReachesAttachedViewer(t *testing.T) {
	s, c := testSession(&fakeLoader{})

	s.sendTo(c, s.statePayload("snapshot"))

	frames := drain(t, c)
	if len(frames) != 1 || frames[0]["type"] != "snapshot" {
		t.Fatalf("got %v, want one snapshot frame", frames)
	}
}

type fakeRoomLister struct {
	rooms []models.Room
	err   error
}

func (f *fakeRoomLister) ListRooms() ([]models.Room, error) {
	return f.rooms, f.err
}

func TestLobbyRoomsPayload(t *testing.T) {
	s := &LobbySession{db: &fakeRoomLister{rooms: []models.Room{{RoomID: "r1"}}}}

	var m map[string]interface{}
	if err := json.Unmarshal(s.roomsPayload(), &m); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if m["type"] != "rooms" {
		t.Errorf("type = %v, want rooms", m["type"])
	}
	rooms, ok := m["rooms"].([]interface{})
	if !ok || len(rooms) != 1 {
		t.Errorf("rooms = %v, want one entry", m["rooms"])
	}
}

func TestLobbySkipsDetachedViewer(t *testing.T) {
	s := &LobbySession{
		db:      &fakeRoomLister{},
		clients: make(map[*Client]bool),
	}
	c := newClient(nil, "")
	close(c.send)

	s.sendTo(c, s.roomsPayload())
}
