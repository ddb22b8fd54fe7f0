package auction

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewConsoleRouter builds the read-only operator console. It renders
// snapshots of the three tables and never mutates state.
func NewConsoleRouter(dispatcher *Dispatcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/v1/participants", func(w http.ResponseWriter, req *http.Request) {
		writeSnapshot(w, dispatcher, func(snap *StateSnapshot) any { return snap.Participants })
	})
	r.Get("/v1/listings", func(w http.ResponseWriter, req *http.Request) {
		writeSnapshot(w, dispatcher, func(snap *StateSnapshot) any { return snap.Listings })
	})
	r.Get("/v1/subscriptions", func(w http.ResponseWriter, req *http.Request) {
		writeSnapshot(w, dispatcher, func(snap *StateSnapshot) any { return snap.Subscriptions })
	})

	return r
}

func writeSnapshot(w http.ResponseWriter, dispatcher *Dispatcher, view func(*StateSnapshot) any) {
	snap, err := dispatcher.State()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view(snap)); err != nil {
		logger.Error("encoding console response failed", "error", err.Error())
	}
}
