package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID returns a random identifier for a feed connection, used to
// correlate its lifecycle events.
func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}
