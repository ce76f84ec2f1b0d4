// Package identity mints and verifies resumable session tokens. A
// token binds one room to one participant id; the client stores it per
// room and presents it to pick the same seat back up. A token whose
// participant no longer exists is dead and the client clears it.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken covers every way a resume token can fail to parse:
// bad signature, wrong algorithm, expiry, or missing claims.
var ErrInvalidToken = errors.New("invalid resume token")

// MintToken issues a signed resume token for a participant in a room.
func MintToken(secret, roomID, participantID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"room_id":        roomID,
		"participant_id": participantID,
		"exp":            jwt.NewNumericDate(time.Now().Add(ttl)).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign resume token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a resume token and returns the room and
// participant it names.
func ParseToken(secret, tokenString string) (roomID, participantID string, err error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	roomID, _ = claims["room_id"].(string)
	participantID, _ = claims["participant_id"].(string)
	if roomID == "" || participantID == "" {
		return "", "", ErrInvalidToken
	}
	return roomID, participantID, nil
}
