package roster

import (
	"errors"
	"testing"

	"github.com/pokertables/backend/internal/store"
)

// fakeRoles tracks flag state per participant and can inject a conflict
// on the first SetRole call to exercise the retry path.
type fakeRoles struct {
	holders      map[string]bool
	clears       int
	sets         int
	conflictOnce bool
	setErr       error
}

func newFakeRoles(holding ...string) *fakeRoles {
	f := &fakeRoles{holders: make(map[string]bool)}
	for _, id := range holding {
		f.holders[id] = true
	}
	return f
}

func (f *fakeRoles) ClearRole(roomID, role string) error {
	f.clears++
	for id := range f.holders {
		f.holders[id] = false
	}
	return nil
}

func (f *fakeRoles) SetRole(roomID, id, role string) error {
	f.sets++
	if f.conflictOnce {
		f.conflictOnce = false
		return store.ErrRoleConflict
	}
	if f.setErr != nil {
		return f.setErr
	}
	f.holders[id] = true
	return nil
}

func (f *fakeRoles) soleHolder() (string, bool) {
	var holder string
	n := 0
	for id, has := range f.holders {
		if has {
			holder = id
			n++
		}
	}
	return holder, n == 1
}

func TestPromoteTransfersRole(t *testing.T) {
	f := newFakeRoles("old-dealer")
	f.holders["target"] = false

	if err := Promote(f, "r1", "target", RoleDealer); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	holder, sole := f.soleHolder()
	if !sole || holder != "target" {
		t.Errorf("holders = %v, want target as sole holder", f.holders)
	}
	if f.clears != 1 || f.sets != 1 {
		t.Errorf("clears=%d sets=%d, want 1/1 on the happy path", f.clears, f.sets)
	}
}

func TestPromoteRetriesOnceOnConflict(t *testing.T) {
	f := newFakeRoles("old-admin")
	f.conflictOnce = true

	if err := Promote(f, "r1", "target", RoleAdmin); err != nil {
		t.Fatalf("Promote after retry: %v", err)
	}

	holder, sole := f.soleHolder()
	if !sole || holder != "target" {
		t.Errorf("holders = %v, want target as sole holder after retry", f.holders)
	}
	if f.clears != 2 || f.sets != 2 {
		t.Errorf("clears=%d sets=%d, want 2/2 after one retried pair", f.clears, f.sets)
	}
}

func TestPromoteDoesNotRetryOtherErrors(t *testing.T) {
	f := newFakeRoles()
	f.setErr = errors.New("connection reset")

	err := Promote(f, "r1", "target", RoleDealer)
	if err == nil || !errors.Is(err, f.setErr) {
		t.Fatalf("Promote = %v, want the set error passed through", err)
	}
	if f.sets != 1 {
		t.Errorf("sets=%d, want 1: only role conflicts are retried", f.sets)
	}
}
