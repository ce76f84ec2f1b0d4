package roster

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// NormalizeMoney turns raw stack-size input into a committed-to-storage
// integer: truncate toward negative infinity, clamp at zero, and treat
// anything non-numeric as zero. "-5" -> 0, "12.9" -> 12, "abc" -> 0.
func NormalizeMoney(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	n := int(math.Floor(f))
	if n < 0 {
		return 0
	}
	return n
}

// EditBuffer stages per-participant stack edits separately from the
// last-known committed values. A row is dirty only while its pending
// value differs from its committed one.
type EditBuffer struct {
	committed map[string]int
	pending   map[string]int
}

func NewEditBuffer() *EditBuffer {
	return &EditBuffer{
		committed: make(map[string]int),
		pending:   make(map[string]int),
	}
}

// SetCommitted records the last value known to be stored for id.
func (b *EditBuffer) SetCommitted(id string, money int) {
	b.committed[id] = money
}

// Stage normalizes raw input and stores it as the pending value for id,
// returning the normalized number.
func (b *EditBuffer) Stage(id, raw string) int {
	n := NormalizeMoney(raw)
	b.pending[id] = n
	return n
}

// Pending returns the staged value for id, if any.
func (b *EditBuffer) Pending(id string) (int, bool) {
	n, ok := b.pending[id]
	return n, ok
}

// Dirty reports whether id has a pending value that differs from its
// committed one.
func (b *EditBuffer) Dirty(id string) bool {
	n, ok := b.pending[id]
	if !ok {
		return false
	}
	return n != b.committed[id]
}

// CommitOne writes the pending value for a single participant, then
// drops it from the buffer so the row reads clean at the just-written
// value. Committing an id with nothing pending is a no-op.
func (b *EditBuffer) CommitOne(id string, write func(id string, money int) error) error {
	n, ok := b.pending[id]
	if !ok {
		return nil
	}
	if err := write(id, n); err != nil {
		return err
	}
	delete(b.pending, id)
	b.committed[id] = n
	return nil
}

// CommitAll writes every dirty pending value sequentially, in id order
// for determinism. On the first failure it stops: entries already
// written stay committed, the failed one and the rest stay pending.
// There is no rollback. It returns the ids that were written.
func (b *EditBuffer) CommitAll(write func(id string, money int) error) ([]string, error) {
	ids := make([]string, 0, len(b.pending))
	for id := range b.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var done []string
	for _, id := range ids {
		if !b.Dirty(id) {
			delete(b.pending, id)
			continue
		}
		if err := b.CommitOne(id, write); err != nil {
			return done, err
		}
		done = append(done, id)
	}
	return done, nil
}
