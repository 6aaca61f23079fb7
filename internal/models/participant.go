package models

import (
	"github.com/google/uuid"
)

// Participant is a non-host member of a room. The ID is the session ID of
// the websocket connection that joined; it doubles as the participant's
// identity for buzz and scoring events.
type Participant struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Score int       `json:"score"`
}
