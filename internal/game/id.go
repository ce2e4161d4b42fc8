package game

import (
	"crypto/rand"
	"encoding/hex"
)

func newSessionID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "session_fallback"
	}
	return "sess_" + hex.EncodeToString(buf)
}
