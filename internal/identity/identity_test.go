package identity

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := MintToken(testSecret, "room-1", "p-abc", time.Hour)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}

	roomID, participantID, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if roomID != "room-1" || participantID != "p-abc" {
		t.Errorf("got (%s, %s), want (room-1, p-abc)", roomID, participantID)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := MintToken(testSecret, "room-1", "p-abc", time.Hour)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	if _, _, err := ParseToken("other-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParseToken with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	token, err := MintToken(testSecret, "room-1", "p-abc", -time.Minute)
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	if _, _, err := ParseToken(testSecret, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParseToken with expired token = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	if _, _, err := ParseToken(testSecret, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParseToken with garbage = %v, want ErrInvalidToken", err)
	}
}
