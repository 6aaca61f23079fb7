// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/quizbuzz/quizbuzz/internal/room"
)

// ListRoomsHandler returns summaries of the in-memory rooms, mainly for
// dashboards and debugging. Each summary is a consistent snapshot taken
// under the room's own lock.
func ListRoomsHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rooms := coord.Rooms.Rooms()
		summaries := make([]room.Summary, 0, len(rooms))
		for _, rm := range rooms {
			summaries = append(summaries, rm.Snapshot())
		}
		sort.Slice(summaries, func(i, j int) bool {
			return summaries[i].Code < summaries[j].Code
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}
