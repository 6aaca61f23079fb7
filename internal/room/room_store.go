// internal/room/room_store.go
package room

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Store manages all active rooms in memory, keyed by room code. It provides
// thread-safe create, lookup, and delete, and owns the disconnect scan
// across rooms.
type Store struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	genCode CodeFunc
}

// NewStore initializes an empty Store. A nil gen uses the default
// crypto/rand code generator.
func NewStore(gen CodeFunc) *Store {
	if gen == nil {
		gen = DefaultCode
	}
	return &Store{
		rooms:   make(map[string]*Room),
		genCode: gen,
	}
}

// CreateRoom allocates a fresh, currently-unused room code and creates a
// lobby-phase room owned by the host connection. The generator is retried
// until the code is unique among active rooms, so two rooms can never share
// a code.
func (s *Store) CreateRoom(host *Conn, hostName string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	var code string
	for {
		code = s.genCode()
		if _, taken := s.rooms[code]; !taken {
			break
		}
		log.Printf("Store: room code %s collided, regenerating", code)
	}

	r := NewRoom(code, host, hostName)
	r.OnEmpty = s.Delete
	s.rooms[code] = r
	r.logAction(host.SessionID, "create_room", map[string]interface{}{"hostName": hostName})
	log.Printf("Store: created room %s (host %q)", code, hostName)
	return r
}

// Get retrieves a room by code.
func (s *Store) Get(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	return r, ok
}

// Delete removes a room by code. Deleting an absent code is a no-op.
func (s *Store) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		delete(s.rooms, code)
		log.Printf("Store: deleted room %s", code)
	}
}

// Rooms returns a copy of the active room map, so callers can iterate while
// other goroutines create or delete rooms.
func (s *Store) Rooms() map[string]*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Room, len(s.rooms))
	for code, r := range s.rooms {
		out[code] = r
	}
	return out
}

// HandleDisconnect scans every room for the departed connection. A host
// departure broadcasts host_left and destroys the room outright; a
// participant departure removes the participant, announcing it and
// releasing the buzz lock if they held it. The scan works on a snapshot so
// rooms deleted mid-scan are safe.
func (s *Store) HandleDisconnect(sessionID uuid.UUID) {
	for code, r := range s.Rooms() {
		if r.HostID == sessionID {
			log.Printf("Store: host of room %s disconnected, destroying room", code)
			r.CloseByHost()
			continue
		}
		r.RemoveParticipant(sessionID)
	}
}
