// internal/handlers/coordinator.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/quizbuzz/quizbuzz/internal/room"
)

// Coordinator is the high-level server state: the room store plus the
// process logger. One Coordinator exists per process; it owns the store's
// lifetime.
type Coordinator struct {
	Rooms  *room.Store
	Logger *logrus.Logger
}

// NewCoordinator builds a Coordinator with an empty room store and the
// default room code generator.
func NewCoordinator(logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		Rooms:  room.NewStore(nil),
		Logger: logger,
	}
}

// PingHandler is a trivial liveness endpoint.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}
