// internal/room/codes.go
package room

import (
	"crypto/rand"
	"log"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// CodeFunc produces candidate room codes. The Store retries it until the
// result is unique among active rooms, so implementations only need to be
// short and human-typeable, not collision-free.
type CodeFunc func() string

// DefaultCode returns a 6-character uppercase alphanumeric code from
// crypto/rand.
func DefaultCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in much deeper trouble
		// than a room code.
		log.Fatalf("room: failed to read random bytes: %v", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
