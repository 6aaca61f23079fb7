// internal/room/room.go
package room

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizbuzz/quizbuzz/internal/cache"
	"github.com/quizbuzz/quizbuzz/internal/models"
)

var (
	// ErrGameStarted is returned when a join arrives after the host has
	// started the game.
	ErrGameStarted = errors.New("game already started")

	// ErrAlreadyJoined is returned when a connection that is already a member
	// of the room (host included) tries to join it again.
	ErrAlreadyJoined = errors.New("already in room")
)

// Room holds the entire state for one game session in memory.
//
// Every mutation runs under Mu. The buzz race is the point of the game:
// the winning-buzz decision and the broadcast that announces it happen in
// one critical section, so all members observe transitions in the same
// order and at most one buzz wins a round.
type Room struct {
	Code string

	HostID   uuid.UUID
	HostName string

	// Participants is kept in join order.
	Participants []*models.Participant

	Started      bool
	CurrentRound int

	// BuzzedID identifies the participant holding the buzz lock, or uuid.Nil
	// between rounds. It is resolved against Participants on demand rather
	// than held as a pointer, so removal can never leave a dangling member.
	BuzzedID uuid.UUID

	// Connections holds the live connections of every member, host included.
	Connections map[uuid.UUID]*Conn

	// OnEmpty is called after the last connection leaves, typically wired by
	// the store to delete the room.
	OnEmpty func(code string)

	actionIndex int

	Mu sync.Mutex
}

// NewRoom builds a room in the lobby phase, owned by the given host
// connection.
func NewRoom(code string, host *Conn, hostName string) *Room {
	r := &Room{
		Code:        code,
		HostID:      host.SessionID,
		HostName:    hostName,
		Connections: map[uuid.UUID]*Conn{host.SessionID: host},
	}
	return r
}

// AddParticipant appends a new participant with score 0 and registers its
// connection. Fails with ErrGameStarted once the game is underway and with
// ErrAlreadyJoined for a connection already present in the room. On success
// the joiner gets a private joined_room ack and the whole room, joiner
// included, gets a participant_joined broadcast. Names are not deduplicated.
func (r *Room) AddParticipant(conn *Conn, name string) (*models.Participant, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Started {
		return nil, ErrGameStarted
	}
	if conn.SessionID == r.HostID || r.findParticipantUnsafe(conn.SessionID) != nil {
		return nil, ErrAlreadyJoined
	}

	p := &models.Participant{ID: conn.SessionID, Name: name}
	r.Participants = append(r.Participants, p)
	r.Connections[conn.SessionID] = conn

	conn.Write(Event{Type: EventJoinedRoom, RoomCode: r.Code, Participant: copyParticipant(p)})
	r.broadcastAllUnsafe(Event{Type: EventParticipantJoined, RoomCode: r.Code, Participant: copyParticipant(p)})
	r.logAction(conn.SessionID, "join_room", map[string]interface{}{"name": name})
	return p, nil
}

// Start transitions the room from lobby to in-progress. Silent no-op unless
// the actor is the host and the game has not started; the transition never
// reverts. Returns whether the start was applied.
func (r *Room) Start(actorID uuid.UUID) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if actorID != r.HostID || r.Started {
		return false
	}
	r.Started = true
	r.CurrentRound = 1
	r.broadcastAllUnsafe(Event{Type: EventGameStarted, RoomCode: r.Code, Round: r.CurrentRound})
	r.logAction(actorID, "start_game", nil)
	return true
}

// Buzz attempts to take the buzz lock for participantID. Silent no-op unless
// the game is in progress, the lock is open, and the ID resolves to a current
// participant. Among concurrent callers exactly one wins; the rest observe
// the lock and are dropped without side effects. Returns whether the buzz
// won.
func (r *Room) Buzz(participantID uuid.UUID) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if !r.Started || r.BuzzedID != uuid.Nil {
		return false
	}
	p := r.findParticipantUnsafe(participantID)
	if p == nil {
		return false
	}
	r.BuzzedID = participantID
	r.broadcastAllUnsafe(Event{Type: EventBuzzPressed, RoomCode: r.Code, Round: r.CurrentRound, Participant: copyParticipant(p)})
	r.logAction(participantID, "buzz", map[string]interface{}{"round": r.CurrentRound})
	return true
}

// Judge resolves the locked buzz. Silent no-op unless the actor is the host
// and a buzz is held. A correct verdict adds exactly 1 to the locked
// participant's score; either verdict broadcasts the judgment, clears the
// lock, advances the round, and announces the new round, all under one
// critical section. Returns whether a judgment was applied.
func (r *Room) Judge(actorID uuid.UUID, correct bool) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if actorID != r.HostID || r.BuzzedID == uuid.Nil {
		return false
	}
	p := r.findParticipantUnsafe(r.BuzzedID)
	if p == nil {
		// Invariant: the lock always references a present participant.
		// removeParticipantUnsafe clears it on departure, so this only
		// guards against future regressions.
		log.Printf("Room %s: buzz lock held by unknown participant %s, clearing", r.Code, r.BuzzedID)
		r.BuzzedID = uuid.Nil
		return false
	}
	if correct {
		p.Score++
	}
	score := p.Score
	r.broadcastAllUnsafe(Event{
		Type:        EventAnswerJudged,
		RoomCode:    r.Code,
		Participant: copyParticipant(p),
		Correct:     &correct,
		NewScore:    &score,
	})
	r.BuzzedID = uuid.Nil
	r.CurrentRound++
	r.broadcastAllUnsafe(Event{Type: EventNewRound, RoomCode: r.Code, Round: r.CurrentRound})
	r.logAction(actorID, "answer_result", map[string]interface{}{
		"participant": p.ID.String(),
		"correct":     correct,
		"newScore":    score,
	})
	return true
}

// RemoveParticipant handles an explicit leave or a disconnect for a non-host
// member: the participant is dropped from the room, the departure is
// broadcast, and a buzz lock held by the departing participant is released
// so the round returns to open. Returns whether the connection was a member.
// Fires OnEmpty if the room has no connections left.
func (r *Room) RemoveParticipant(sessionID uuid.UUID) bool {
	r.Mu.Lock()
	removed := r.removeParticipantUnsafe(sessionID)
	empty := len(r.Connections) == 0
	onEmpty := r.OnEmpty
	code := r.Code
	r.Mu.Unlock()

	if removed && empty && onEmpty != nil {
		log.Printf("Room %s is empty, reclaiming", code)
		onEmpty(code)
	}
	return removed
}

// removeParticipantUnsafe removes the participant and its connection.
// Assumes lock is held.
func (r *Room) removeParticipantUnsafe(sessionID uuid.UUID) bool {
	idx := -1
	for i, p := range r.Participants {
		if p.ID == sessionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	p := r.Participants[idx]
	r.Participants = append(r.Participants[:idx], r.Participants[idx+1:]...)
	delete(r.Connections, sessionID)

	r.broadcastAllUnsafe(Event{Type: EventParticipantLeft, RoomCode: r.Code, Participant: copyParticipant(p)})
	if r.BuzzedID == sessionID {
		r.BuzzedID = uuid.Nil
		r.broadcastAllUnsafe(Event{Type: EventBuzzCleared, RoomCode: r.Code, Round: r.CurrentRound})
	}
	r.logAction(sessionID, "participant_left", nil)
	return true
}

// CloseByHost destroys the room on host departure: host_left is broadcast to
// the whole room, all connections are dropped, and OnEmpty fires so the
// store removes the room. Events referencing the code afterwards find no
// room and are no-ops.
func (r *Room) CloseByHost() {
	r.Mu.Lock()
	r.broadcastAllUnsafe(Event{Type: EventHostLeft, RoomCode: r.Code})
	r.logAction(r.HostID, "host_left", nil)
	r.Connections = make(map[uuid.UUID]*Conn)
	onEmpty := r.OnEmpty
	code := r.Code
	r.Mu.Unlock()

	if onEmpty != nil {
		onEmpty(code)
	}
}

// Summary is a lock-free copy of room state for listings.
type Summary struct {
	Code         string               `json:"code"`
	HostName     string               `json:"hostName"`
	Participants []models.Participant `json:"participants"`
	Started      bool                 `json:"started"`
	CurrentRound int                  `json:"currentRound"`
}

// Snapshot returns a consistent copy of the room's public state.
func (r *Room) Snapshot() Summary {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	ps := make([]models.Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		ps = append(ps, *p)
	}
	return Summary{
		Code:         r.Code,
		HostName:     r.HostName,
		Participants: ps,
		Started:      r.Started,
		CurrentRound: r.CurrentRound,
	}
}

// findParticipantUnsafe resolves a participant ID against the join-ordered
// slice. Assumes lock is held.
func (r *Room) findParticipantUnsafe(id uuid.UUID) *models.Participant {
	for _, p := range r.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// broadcastAllUnsafe enqueues an event to every member connection, host
// included. Conn.Write never blocks, so this is safe to call under the room
// lock; holding the lock here is what makes each transition and its
// announcement one observable unit. Assumes lock is held.
func (r *Room) broadcastAllUnsafe(ev Event) {
	for _, conn := range r.Connections {
		conn.Write(ev)
	}
}

// copyParticipant returns a detached copy for event payloads, so later score
// mutations cannot race with JSON encoding in the write pumps.
func copyParticipant(p *models.Participant) *models.Participant {
	cp := *p
	return &cp
}

// logAction publishes a room action record to the Redis journal,
// fire-and-forget. Assumes lock is held (it only reads the action counter).
func (r *Room) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.RoomActionRecord{
		RoomCode:      r.Code,
		ActionIndex:   r.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.RoomActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishRoomAction(ctx, rec); err != nil {
			log.Printf("Room %s: failed to publish action %d: %v", rec.RoomCode, rec.ActionIndex, err)
		}
	}(record)
}
