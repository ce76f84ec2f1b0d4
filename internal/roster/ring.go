// Package roster holds the seat-ring reconciliation logic, the
// exclusive-role promotion rules and the money edit buffer. Everything
// here is in-memory state driven by the store and events packages.
package roster

import (
	"github.com/pokertables/backend/internal/events"
	"github.com/pokertables/backend/internal/models"
)

// NumSeats mirrors models.NumSeats for callers that only import roster.
const NumSeats = models.NumSeats

// Ring is the 10-slot seat array for one room, index = seat number.
// It is reconciled from three sources: full snapshots, incremental
// change events and broadcast hints. The dealer seat is recomputed
// after every mutation, so it is never stale relative to the array.
//
// Ring is not safe for concurrent use; each room session owns one and
// drives it from a single goroutine.
type Ring struct {
	seats      [NumSeats]*models.Participant
	dealerSeat int
}

func NewRing() *Ring {
	return &Ring{dealerSeat: -1}
}

// Reload rebuilds the array from a full participant snapshot. Rows with
// out-of-range seats are ignored.
func (r *Ring) Reload(rows []models.Participant) {
	var next [NumSeats]*models.Participant
	for i := range rows {
		p := rows[i]
		if p.Seat >= 0 && p.Seat < NumSeats {
			next[p.Seat] = &p
		}
	}
	r.seats = next
	r.recomputeDealer()
}

// Apply folds one incremental change into the array. It reports
// needReload=true when the delta cannot be reconciled against current
// state (a delete whose id is nowhere in the ring); the caller must
// then fall back to a full reload rather than drop the event.
func (r *Ring) Apply(ch events.Change) (needReload bool) {
	defer r.recomputeDealer()

	switch ch.Kind {
	case events.KindInsert:
		if ch.New == nil {
			return false
		}
		r.place(ch.New)

	case events.KindUpdate:
		if ch.New == nil {
			return false
		}
		// The participant may have moved seats: clear the slot it was
		// found at before placing it at its new one.
		if old := r.indexOf(ch.New.ID); old != -1 && old != ch.New.Seat {
			r.seats[old] = nil
		}
		r.place(ch.New)

	case events.KindDelete:
		if ch.Old == nil {
			return false
		}
		idx := r.indexOf(ch.Old.ID)
		if idx == -1 {
			// Local state diverged; never silently ignore a delete.
			return true
		}
		r.seats[idx] = nil
	}
	return false
}

// ApplyLeftHint clears the slot held by id, if any. Hints are
// at-least-once, so clearing an already-empty slot is a no-op.
func (r *Ring) ApplyLeftHint(id string) {
	if idx := r.indexOf(id); idx != -1 {
		r.seats[idx] = nil
	}
	r.recomputeDealer()
}

// DealerSeat returns the seat index whose occupant is the dealer, or
// -1 when no seated participant holds the flag.
func (r *Ring) DealerSeat() int {
	return r.dealerSeat
}

// Seats returns a copy of the seat array.
func (r *Ring) Seats() [NumSeats]*models.Participant {
	return r.seats
}

func (r *Ring) place(p *models.Participant) {
	if p.Seat >= 0 && p.Seat < NumSeats {
		cp := *p
		r.seats[p.Seat] = &cp
	}
}

func (r *Ring) indexOf(id string) int {
	for i, p := range r.seats {
		if p != nil && p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Ring) recomputeDealer() {
	r.dealerSeat = -1
	for i, p := range r.seats {
		if p != nil && p.IsDealer {
			r.dealerSeat = i
			return
		}
	}
}
