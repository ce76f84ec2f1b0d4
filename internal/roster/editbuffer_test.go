package roster

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeMoney(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"42", 42},
		{"12.9", 12},
		{"-5", 0},
		{"-0.5", 0},
		{"0", 0},
		{" 7 ", 7},
		{"", 0},
		{"abc", 0},
		{"1e3", 1000},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, c := range cases {
		if got := NormalizeMoney(c.raw); got != c.want {
			t.Errorf("NormalizeMoney(%q) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestEditBufferDirtyTracking(t *testing.T) {
	b := NewEditBuffer()
	b.SetCommitted("a", 100)

	if b.Dirty("a") {
		t.Error("row with no pending value should not be dirty")
	}

	if n := b.Stage("a", "100"); n != 100 {
		t.Fatalf("Stage = %d, want 100", n)
	}
	if b.Dirty("a") {
		t.Error("pending equal to committed should not read as dirty")
	}

	b.Stage("a", "250")
	if !b.Dirty("a") {
		t.Error("pending 250 against committed 100 should be dirty")
	}
}

func TestEditBufferCommitOne(t *testing.T) {
	b := NewEditBuffer()
	b.SetCommitted("a", 100)
	b.Stage("a", "80")

	var wrote int
	err := b.CommitOne("a", func(id string, money int) error {
		wrote = money
		return nil
	})
	if err != nil {
		t.Fatalf("CommitOne: %v", err)
	}
	if wrote != 80 {
		t.Errorf("wrote %d, want 80", wrote)
	}
	if b.Dirty("a") {
		t.Error("row should read clean after commit")
	}
	if _, ok := b.Pending("a"); ok {
		t.Error("pending value should be dropped after commit")
	}

	// Nothing pending: commit is a no-op, the writer never runs.
	err = b.CommitOne("a", func(id string, money int) error {
		t.Error("writer called with nothing pending")
		return nil
	})
	if err != nil {
		t.Fatalf("CommitOne no-op: %v", err)
	}
}

func TestEditBufferCommitOneKeepsPendingOnFailure(t *testing.T) {
	b := NewEditBuffer()
	b.SetCommitted("a", 100)
	b.Stage("a", "80")

	wantErr := errors.New("write failed")
	if err := b.CommitOne("a", func(string, int) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("CommitOne = %v, want write error", err)
	}
	if !b.Dirty("a") {
		t.Error("failed commit must leave the row dirty for a retry")
	}
}

func TestEditBufferCommitAllStopsAtFirstFailure(t *testing.T) {
	b := NewEditBuffer()
	for _, id := range []string{"a", "b", "c"} {
		b.SetCommitted(id, 100)
	}
	b.Stage("a", "10")
	b.Stage("b", "20")
	b.Stage("c", "30")

	wantErr := errors.New("write failed")
	done, err := b.CommitAll(func(id string, money int) error {
		if id == "b" {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("CommitAll = %v, want write error", err)
	}
	if !reflect.DeepEqual(done, []string{"a"}) {
		t.Errorf("committed ids = %v, want [a]", done)
	}
	if b.Dirty("a") {
		t.Error("a was written and must read clean")
	}
	if !b.Dirty("b") || !b.Dirty("c") {
		t.Error("b and c must stay pending after the failure")
	}
}

func TestEditBufferCommitAllSkipsCleanRows(t *testing.T) {
	b := NewEditBuffer()
	b.SetCommitted("a", 100)
	b.SetCommitted("b", 200)
	b.Stage("a", "100") // unchanged
	b.Stage("b", "250")

	done, err := b.CommitAll(func(id string, money int) error {
		if id != "b" {
			t.Errorf("writer called for clean row %s", id)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CommitAll: %v", err)
	}
	if !reflect.DeepEqual(done, []string{"b"}) {
		t.Errorf("committed ids = %v, want [b]", done)
	}
	if _, ok := b.Pending("a"); ok {
		t.Error("clean staged value should be dropped, not rewritten")
	}
}
