package models

import (
	"time"
)

// NumSeats is the fixed size of a table's seating ring.
const NumSeats = 10

// Room is one poker table.
type Room struct {
	RoomID    string    `db:"room_id" json:"room_id"`
	Name      *string   `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participant is a person occupying a seat in a room.
//
// Seat is unique per room (storage constraint). At most one participant
// per room holds is_dealer and at most one holds is_admin; that pair of
// invariants is application-enforced, see roster.Promote.
type Participant struct {
	ID        string    `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	Seat      int       `db:"seat" json:"seat"`
	Name      string    `db:"name" json:"name"`
	Money     int       `db:"money" json:"money"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	IsDealer  bool      `db:"is_dealer" json:"is_dealer"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OperatorAccount is a back-office login, unrelated to the in-room
// admin role on a Participant.
type OperatorAccount struct {
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	TokenHash   string    `db:"token_hash" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RosterAudit records one roster-changing action for the back office.
type RosterAudit struct {
	ID        int       `db:"id" json:"id"`
	Actor     string    `db:"actor" json:"actor"`
	IP        string    `db:"ip" json:"ip"`
	Route     string    `db:"route" json:"route"`
	Action    string    `db:"action" json:"action"`
	Details   []byte    `db:"details" json:"details"`
	Success   bool      `db:"success" json:"success"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
