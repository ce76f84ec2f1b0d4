package handlers

import (
	"crypto/rand"
	"encoding/hex"
)

// generateHexID returns n random lowercase hex characters (n even).
func generateHexID(n int) string {
	buf := make([]byte, n/2)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// newRoomID generates a short shareable room key.
func newRoomID() string {
	return generateHexID(8)
}

// newParticipantID generates a participant record key.
func newParticipantID() string {
	return generateHexID(16)
}
