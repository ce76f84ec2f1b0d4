// Package store is the keyed-record service backing the roster: CRUD
// over rooms and participants with typed error kinds, so handlers can
// tell a vanished record from a seat collision from a plain I/O failure.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pokertables/backend/internal/models"
)

var (
	// ErrNotFound means the referenced room or participant no longer exists.
	ErrNotFound = errors.New("record not found")

	// ErrSeatTaken means an insert or seat move collided with the
	// per-room seat uniqueness constraint.
	ErrSeatTaken = errors.New("seat already taken")

	// ErrRoleConflict means a role write hit a storage-level uniqueness
	// constraint; roster.Promote retries the clear+set pair once on it.
	ErrRoleConflict = errors.New("exclusive role conflict")
)

const uniqueViolation = "23505"

const seatConstraint = "participants_room_id_seat_key"

// CreateRoom inserts a new room. A nil name is allowed.
func CreateRoom(db *sqlx.DB, roomID string, name *string) (*models.Room, error) {
	var room models.Room
	err := db.Get(&room, `
		INSERT INTO rooms (room_id, name)
		VALUES ($1, $2)
		RETURNING room_id, name, created_at
	`, roomID, name)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &room, nil
}

// ListRooms returns all rooms, newest first.
func ListRooms(db *sqlx.DB) ([]models.Room, error) {
	rooms := []models.Room{}
	err := db.Select(&rooms, `
		SELECT room_id, name, created_at
		FROM rooms
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom fetches one room by key.
func GetRoom(db *sqlx.DB, roomID string) (*models.Room, error) {
	var room models.Room
	err := db.Get(&room, `SELECT room_id, name, created_at FROM rooms WHERE room_id=$1`, roomID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &room, nil
}

// DeleteRoom removes a room and every participant seated in it, in one
// transaction. The removed participants are returned so the caller can
// publish delete events for them.
func DeleteRoom(db *sqlx.DB, roomID string) ([]models.Participant, error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("delete room: %w", err)
	}
	defer tx.Rollback()

	removed := []models.Participant{}
	err = tx.Select(&removed, `
		DELETE FROM participants WHERE room_id=$1
		RETURNING id, room_id, seat, name, money, is_admin, is_dealer, created_at
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("delete room participants: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM rooms WHERE room_id=$1`, roomID)
	if err != nil {
		return nil, fmt.Errorf("delete room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("delete room: %w", err)
	}
	return removed, nil
}

// CreateParticipant seats a new participant. A concurrent join for the
// same seat surfaces as ErrSeatTaken.
func CreateParticipant(db *sqlx.DB, p *models.Participant) (*models.Participant, error) {
	var created models.Participant
	err := db.Get(&created, `
		INSERT INTO participants (id, room_id, seat, name, money, is_admin, is_dealer)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING id, room_id, seat, name, money, is_admin, is_dealer, created_at
	`, p.ID, p.RoomID, p.Seat, p.Name, p.Money, p.IsAdmin)
	if err != nil {
		if isUniqueViolation(err, seatConstraint) {
			return nil, ErrSeatTaken
		}
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return &created, nil
}

// GetParticipant fetches one participant, scoped to its room.
func GetParticipant(db *sqlx.DB, roomID, id string) (*models.Participant, error) {
	var p models.Participant
	err := db.Get(&p, `
		SELECT id, room_id, seat, name, money, is_admin, is_dealer, created_at
		FROM participants WHERE id=$1 AND room_id=$2
	`, id, roomID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

// ListParticipants returns a room's participants ordered by seat. This
// is the full-reload snapshot the seat ring rebuilds from.
func ListParticipants(db *sqlx.DB, roomID string) ([]models.Participant, error) {
	rows := []models.Participant{}
	err := db.Select(&rows, `
		SELECT id, room_id, seat, name, money, is_admin, is_dealer, created_at
		FROM participants WHERE room_id=$1
		ORDER BY seat ASC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return rows, nil
}

// OccupiedSeats returns the seat indices currently taken in a room.
func OccupiedSeats(db *sqlx.DB, roomID string) ([]int, error) {
	seats := []int{}
	err := db.Select(&seats, `SELECT seat FROM participants WHERE room_id=$1 ORDER BY seat ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("occupied seats: %w", err)
	}
	return seats, nil
}

// UpdateMoney writes a participant's stack size.
func UpdateMoney(db *sqlx.DB, roomID, id string, money int) error {
	res, err := db.Exec(`UPDATE participants SET money=$1 WHERE id=$2 AND room_id=$3`, money, id, roomID)
	if err != nil {
		return fmt.Errorf("update money: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteParticipant unseats a participant (leave or admin removal).
func DeleteParticipant(db *sqlx.DB, roomID, id string) error {
	res, err := db.Exec(`DELETE FROM participants WHERE id=$1 AND room_id=$2`, id, roomID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RoleHolder returns the id of the participant currently holding an
// exclusive role in the room, or "" when nobody does.
func RoleHolder(db *sqlx.DB, roomID, role string) (string, error) {
	col, err := roleColumn(role)
	if err != nil {
		return "", err
	}
	var id string
	err = db.Get(&id, `SELECT id FROM participants WHERE room_id=$1 AND `+col+`=true LIMIT 1`, roomID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("role holder: %w", err)
	}
	return id, nil
}

// Roles adapts the store to the roster.RoleStore interface used by the
// exclusive-role promotion algorithm.
type Roles struct {
	db *sqlx.DB
}

func NewRoles(db *sqlx.DB) *Roles {
	return &Roles{db: db}
}

// ClearRole unsets an exclusive role for every participant in the room.
func (r *Roles) ClearRole(roomID, role string) error {
	col, err := roleColumn(role)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`UPDATE participants SET `+col+`=false WHERE room_id=$1`, roomID)
	if err != nil {
		return fmt.Errorf("clear role: %w", err)
	}
	return nil
}

// SetRole grants an exclusive role to a single participant.
func (r *Roles) SetRole(roomID, id, role string) error {
	col, err := roleColumn(role)
	if err != nil {
		return err
	}
	res, err := r.db.Exec(`UPDATE participants SET `+col+`=true WHERE id=$1 AND room_id=$2`, id, roomID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrRoleConflict
		}
		return fmt.Errorf("set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// roleColumn whitelists the two role columns; role names arrive from
// internal callers only but never reach SQL unchecked.
func roleColumn(role string) (string, error) {
	switch role {
	case "is_dealer", "is_admin":
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
