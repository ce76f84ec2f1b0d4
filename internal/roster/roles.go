package roster

import (
	"errors"

	"github.com/pokertables/backend/internal/store"
)

// Exclusive role names, matching the participant columns.
const (
	RoleDealer = "is_dealer"
	RoleAdmin  = "is_admin"
)

// RoleStore is the slice of the record service the promotion algorithm
// needs. *store.Roles satisfies it.
type RoleStore interface {
	ClearRole(roomID, role string) error
	SetRole(roomID, id, role string) error
}

// Promote makes a participant the sole holder of an exclusive role:
// clear the flag for everyone in the room, then set it for the target.
// The two writes are not atomic; a concurrent promotion interleaved
// between them can leave zero or two holders. Role changes are rare,
// human-paced actions, so the race is accepted rather than locked out.
//
// If the targeted set fails with a role-conflict error the clear+set
// pair is retried once. No other failure is retried.
func Promote(s RoleStore, roomID, id, role string) error {
	if err := s.ClearRole(roomID, role); err != nil {
		return err
	}

	err := s.SetRole(roomID, id, role)
	if errors.Is(err, store.ErrRoleConflict) {
		if err := s.ClearRole(roomID, role); err != nil {
			return err
		}
		return s.SetRole(roomID, id, role)
	}
	return err
}
