// internal/room/conn.go
package room

import (
	"log"

	"github.com/google/uuid"
)

// Conn is a single client's presence on the coordinator. One Conn exists per
// websocket; rooms hold references to it for outbound delivery. The session
// ID is the connection identity used everywhere in room state.
type Conn struct {
	SessionID uuid.UUID

	// OutChan is drained by the connection's write pump. Sends never block;
	// see Write.
	OutChan chan Event
}

// NewConn builds a Conn with a buffered outbound channel.
func NewConn(sessionID uuid.UUID) *Conn {
	return &Conn{
		SessionID: sessionID,
		OutChan:   make(chan Event, 16),
	}
}

// Write pushes an event onto the connection's OutChan non-blockingly.
// A full or closed channel drops the event; the state machine must never
// stall on a slow client.
func (c *Conn) Write(ev Event) {
	select {
	case c.OutChan <- ev:
	default:
		log.Printf("room: OutChan for session %s closed or full, dropped event %q", c.SessionID, ev.Type)
	}
}

// WriteError is a convenience to send an error notification.
func (c *Conn) WriteError(msg string) {
	c.Write(Event{Type: EventError, Message: msg})
}
