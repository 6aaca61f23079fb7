// internal/room/events.go
package room

import (
	"github.com/quizbuzz/quizbuzz/internal/models"
)

// EventType is an enum-like type for notifications sent to room members.
type EventType string

const (
	EventRoomCreated       EventType = "room_created"       // Ack to the creator with the fresh room code.
	EventJoinedRoom        EventType = "joined_room"        // Private ack to a successful joiner.
	EventParticipantJoined EventType = "participant_joined" // Public notification of a new participant.
	EventGameStarted       EventType = "game_started"       // Public notification that round 1 has begun.
	EventBuzzPressed       EventType = "buzz_pressed"       // Public notification of the winning buzz.
	EventAnswerJudged      EventType = "answer_judged"      // Public notification of the host's verdict.
	EventNewRound          EventType = "new_round"          // Public notification that the next round is open.
	EventBuzzCleared       EventType = "buzz_cleared"       // The locked participant left; the round is open again.
	EventParticipantLeft   EventType = "participant_left"   // Public notification of a departure.
	EventHostLeft          EventType = "host_left"          // The host is gone; the room is being destroyed.
	EventError             EventType = "error"              // Private error notification to a requester.
)

// Event holds data about a notification in a consistent client-facing format.
// Optional fields use pointers so that zero values (score 0, correct=false)
// still serialize when they are meaningful.
type Event struct {
	Type     EventType `json:"type"`
	RoomCode string    `json:"roomCode,omitempty"`
	HostName string    `json:"hostName,omitempty"`
	Round    int       `json:"round,omitempty"`

	// Participant is a copy of the member the event concerns, never a live
	// pointer into room state.
	Participant *models.Participant `json:"participant,omitempty"`

	Correct  *bool  `json:"correct,omitempty"`
	NewScore *int   `json:"newScore,omitempty"`
	Message  string `json:"message,omitempty"`
}
