// internal/handlers/dispatch_test.go
package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizbuzz/quizbuzz/internal/room"
)

func drainEvents(c *room.Conn) []room.Event {
	var evs []room.Event
	for {
		select {
		case ev := <-c.OutChan:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func lastEventOfType(evs []room.Event, t room.EventType) *room.Event {
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == t {
			return &evs[i]
		}
	}
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// dispatch feeds one packet through the dispatcher the way readPump would.
func dispatch(coord *Coordinator, conn *room.Conn, packet map[string]interface{}) {
	handleMessage(coord, conn, packet, coord.Logger)
}

// TestFullGameFlow walks the canonical session: create, two joins, start,
// a buzz race, a correct judgment, and a re-buzz in the next round.
func TestFullGameFlow(t *testing.T) {
	coord := NewCoordinator(testLogger())
	alice := room.NewConn(uuid.New())
	bob := room.NewConn(uuid.New())
	carol := room.NewConn(uuid.New())

	dispatch(coord, alice, map[string]interface{}{"type": "create_room", "hostName": "Alice"})
	created := lastEventOfType(drainEvents(alice), room.EventRoomCreated)
	require.NotNil(t, created)
	require.NotEmpty(t, created.RoomCode)
	assert.Equal(t, "Alice", created.HostName)
	code := created.RoomCode

	dispatch(coord, bob, map[string]interface{}{"type": "join_room", "roomCode": code, "participantName": "Bob"})
	dispatch(coord, carol, map[string]interface{}{"type": "join_room", "roomCode": code, "participantName": "Carol"})

	bobEvents := drainEvents(bob)
	joined := lastEventOfType(bobEvents, room.EventJoinedRoom)
	require.NotNil(t, joined)
	assert.Equal(t, 0, joined.Participant.Score)
	assert.NotNil(t, lastEventOfType(drainEvents(alice), room.EventParticipantJoined),
		"join broadcast reaches the host")

	dispatch(coord, alice, map[string]interface{}{"type": "start_game", "roomCode": code})
	started := lastEventOfType(drainEvents(carol), room.EventGameStarted)
	require.NotNil(t, started)
	assert.Equal(t, 1, started.Round)

	// Bob buzzes first; Carol's buzz observes the lock and is dropped.
	dispatch(coord, bob, map[string]interface{}{"type": "buzz", "roomCode": code})
	dispatch(coord, carol, map[string]interface{}{"type": "buzz", "roomCode": code})

	aliceEvents := drainEvents(alice)
	var pressed []room.Event
	for _, ev := range aliceEvents {
		if ev.Type == room.EventBuzzPressed {
			pressed = append(pressed, ev)
		}
	}
	require.Len(t, pressed, 1, "only the first buzz is broadcast")
	assert.Equal(t, bob.SessionID, pressed[0].Participant.ID)

	dispatch(coord, alice, map[string]interface{}{"type": "answer_result", "roomCode": code, "correct": true})

	bobEvents = drainEvents(bob)
	judged := lastEventOfType(bobEvents, room.EventAnswerJudged)
	require.NotNil(t, judged)
	assert.True(t, *judged.Correct)
	assert.Equal(t, 1, *judged.NewScore)
	newRound := lastEventOfType(bobEvents, room.EventNewRound)
	require.NotNil(t, newRound)
	assert.Equal(t, 2, newRound.Round)

	// Lock cleared: Bob's buzz is accepted again in round 2.
	dispatch(coord, bob, map[string]interface{}{"type": "buzz", "roomCode": code})
	assert.NotNil(t, lastEventOfType(drainEvents(alice), room.EventBuzzPressed))

	rm, ok := coord.Rooms.Get(code)
	require.True(t, ok)
	snap := rm.Snapshot()
	assert.Equal(t, 2, snap.CurrentRound)
	assert.Equal(t, 1, snap.Participants[0].Score)
}

func TestJoinUnknownRoomEmitsError(t *testing.T) {
	coord := NewCoordinator(testLogger())
	bob := room.NewConn(uuid.New())

	dispatch(coord, bob, map[string]interface{}{"type": "join_room", "roomCode": "ZZZZZZ", "participantName": "Bob"})

	errEv := lastEventOfType(drainEvents(bob), room.EventError)
	require.NotNil(t, errEv)
	assert.Equal(t, "room not found", errEv.Message)
	assert.Empty(t, coord.Rooms.Rooms(), "no state mutated")
}

func TestJoinStartedRoomEmitsError(t *testing.T) {
	coord := NewCoordinator(testLogger())
	alice := room.NewConn(uuid.New())
	bob := room.NewConn(uuid.New())

	dispatch(coord, alice, map[string]interface{}{"type": "create_room", "hostName": "Alice"})
	code := lastEventOfType(drainEvents(alice), room.EventRoomCreated).RoomCode
	dispatch(coord, alice, map[string]interface{}{"type": "start_game", "roomCode": code})

	dispatch(coord, bob, map[string]interface{}{"type": "join_room", "roomCode": code, "participantName": "Bob"})

	errEv := lastEventOfType(drainEvents(bob), room.EventError)
	require.NotNil(t, errEv)
	assert.Equal(t, room.ErrGameStarted.Error(), errEv.Message)
}

func TestNonHostStartIsIgnored(t *testing.T) {
	coord := NewCoordinator(testLogger())
	alice := room.NewConn(uuid.New())
	bob := room.NewConn(uuid.New())

	dispatch(coord, alice, map[string]interface{}{"type": "create_room", "hostName": "Alice"})
	code := lastEventOfType(drainEvents(alice), room.EventRoomCreated).RoomCode
	dispatch(coord, bob, map[string]interface{}{"type": "join_room", "roomCode": code, "participantName": "Bob"})
	drainEvents(bob)

	dispatch(coord, bob, map[string]interface{}{"type": "start_game", "roomCode": code})

	assert.Nil(t, lastEventOfType(drainEvents(bob), room.EventGameStarted))
	rm, _ := coord.Rooms.Get(code)
	assert.False(t, rm.Snapshot().Started)
}

func TestExplicitLeaveMatchesDisconnect(t *testing.T) {
	coord := NewCoordinator(testLogger())
	alice := room.NewConn(uuid.New())
	bob := room.NewConn(uuid.New())

	dispatch(coord, alice, map[string]interface{}{"type": "create_room", "hostName": "Alice"})
	code := lastEventOfType(drainEvents(alice), room.EventRoomCreated).RoomCode
	dispatch(coord, bob, map[string]interface{}{"type": "join_room", "roomCode": code, "participantName": "Bob"})
	drainEvents(alice)

	dispatch(coord, bob, map[string]interface{}{"type": "leave_room", "roomCode": code})

	left := lastEventOfType(drainEvents(alice), room.EventParticipantLeft)
	require.NotNil(t, left)
	assert.Equal(t, bob.SessionID, left.Participant.ID)

	rm, ok := coord.Rooms.Get(code)
	require.True(t, ok, "room survives a participant leaving")
	assert.Empty(t, rm.Snapshot().Participants)

	// Host leaving destroys the room.
	dispatch(coord, alice, map[string]interface{}{"type": "leave_room", "roomCode": code})
	_, ok = coord.Rooms.Get(code)
	assert.False(t, ok)
}

func TestBuzzWithExplicitParticipantID(t *testing.T) {
	coord := NewCoordinator(testLogger())
	alice := room.NewConn(uuid.New())
	bob := room.NewConn(uuid.New())

	dispatch(coord, alice, map[string]interface{}{"type": "create_room", "hostName": "Alice"})
	code := lastEventOfType(drainEvents(alice), room.EventRoomCreated).RoomCode
	dispatch(coord, bob, map[string]interface{}{"type": "join_room", "roomCode": code, "participantName": "Bob"})
	dispatch(coord, alice, map[string]interface{}{"type": "start_game", "roomCode": code})
	drainEvents(alice)

	dispatch(coord, bob, map[string]interface{}{
		"type":          "buzz",
		"roomCode":      code,
		"participantId": bob.SessionID.String(),
	})
	require.NotNil(t, lastEventOfType(drainEvents(alice), room.EventBuzzPressed))

	// A malformed ID is silently dropped.
	dispatch(coord, alice, map[string]interface{}{"type": "answer_result", "roomCode": code, "correct": false})
	drainEvents(alice)
	dispatch(coord, bob, map[string]interface{}{"type": "buzz", "roomCode": code, "participantId": "not-a-uuid"})
	assert.Nil(t, lastEventOfType(drainEvents(alice), room.EventBuzzPressed))
}

func TestUnknownActionEmitsError(t *testing.T) {
	coord := NewCoordinator(testLogger())
	conn := room.NewConn(uuid.New())

	dispatch(coord, conn, map[string]interface{}{"type": "dance"})

	errEv := lastEventOfType(drainEvents(conn), room.EventError)
	require.NotNil(t, errEv)
	assert.Contains(t, errEv.Message, "unknown action")
}
